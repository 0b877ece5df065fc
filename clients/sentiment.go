package clients

import (
	"strconv"
	"strings"
)

type Label string

const (
	Positive Label = "POSITIVE"
	Negative Label = "NEGATIVE"
	Neutral  Label = "NEUTRAL"
)

// Classification thresholds; a score must be strictly beyond them.
const (
	PositiveThreshold = 0.75
	NegativeThreshold = -0.75
)

// SentimentResult is the label/score/magnitude triple for one text.
// Score is in [-1, 1], Magnitude is >= 0.
type SentimentResult struct {
	Label     Label   `json:"label"`
	Score     float64 `json:"score"`
	Magnitude float64 `json:"magnitude"`
}

func Classify(score float64) Label {
	switch {
	case score > PositiveThreshold:
		return Positive
	case score < NegativeThreshold:
		return Negative
	default:
		return Neutral
	}
}

func NewSentimentResult(score, magnitude float64) SentimentResult {
	return SentimentResult{Label: Classify(score), Score: score, Magnitude: magnitude}
}

// blankText reports whether there is nothing for a provider to score.
// Providers reject empty documents, and an empty transcript is a valid
// pipeline input that must come out NEUTRAL.
func blankText(text string) bool {
	return strings.TrimSpace(text) == ""
}

// widen converts a provider float32 to the float64 with the same shortest
// decimal form, so 0.9 stays 0.9 rather than 0.8999999761581421.
func widen(f float32) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(float64(f), 'g', -1, 32), 64)
	if err != nil {
		return float64(f)
	}
	return v
}
