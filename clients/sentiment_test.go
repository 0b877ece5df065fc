package clients

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		score float64
		want  Label
	}{
		{1, Positive},
		{0.9, Positive},
		{0.750001, Positive},
		{0.75, Neutral},
		{0, Neutral},
		{-0.75, Neutral},
		{-0.750001, Negative},
		{-0.8, Negative},
		{-1, Negative},
	}

	for _, tt := range tests {
		if got := Classify(tt.score); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestWiden(t *testing.T) {
	tests := []struct {
		in   float32
		want float64
	}{
		{0.9, 0.9},
		{-0.8, -0.8},
		{0, 0},
		{1.25, 1.25},
	}
	for _, tt := range tests {
		if got := widen(tt.in); got != tt.want {
			t.Errorf("widen(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
