package orchestrator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/maastricht-university/speech-sentiment/clients"
)

// audioResult renders the result text for an uploaded clip.
func audioResult(transcript string, s clients.SentimentResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Transcription:\n%s\n\n", transcript)
	writeSentiment(&b, s)
	return b.String()
}

// textResult renders the result text for a typed submission.
func textResult(text string, s clients.SentimentResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Text: %s\n\n", text)
	writeSentiment(&b, s)
	return b.String()
}

func writeSentiment(b *strings.Builder, s clients.SentimentResult) {
	fmt.Fprintf(b, "Sentiment: %s\nScore: %s\nMagnitude: %s\n", s.Label, formatFloat(s.Score), formatFloat(s.Magnitude))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
