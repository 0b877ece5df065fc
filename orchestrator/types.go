package orchestrator

import (
	"errors"

	"github.com/maastricht-university/speech-sentiment/clients"
)

// Caller errors; both are returned before anything is written.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
)

type Flow string

const (
	FlowAudio Flow = "audio"
	FlowText  Flow = "text"
)

// TextPrefix keeps text-in artifact ids apart from audio-in ones.
const TextPrefix = "tts_"

// ArtifactRef points at the files one completed run produced.
type ArtifactRef struct {
	ID         string                  `json:"id"`
	ResultName string                  `json:"result_name"`
	Flow       Flow                    `json:"flow"`
	Text       string                  `json:"text"`
	Sentiment  clients.SentimentResult `json:"sentiment"`
}

// PayloadKeptError is returned when an audio-in run fails after its clip was
// stored. The payload stays in the store without a result text.
type PayloadKeptError struct {
	ID  string
	Err error
}

func (e *PayloadKeptError) Error() string {
	return e.Err.Error() + " (payload kept as " + e.ID + ")"
}

func (e *PayloadKeptError) Unwrap() error { return e.Err }
