package server

import (
	"errors"
	"net/http"

	"github.com/maastricht-university/speech-sentiment/clients"
	"github.com/maastricht-university/speech-sentiment/orchestrator"
	"github.com/maastricht-university/speech-sentiment/store"
)

// classify maps a pipeline or store error to a short kind and HTTP status.
func classify(err error) (string, int) {
	switch {
	case errors.Is(err, orchestrator.ErrInvalidInput):
		return "invalid_input", http.StatusBadRequest
	case errors.Is(err, orchestrator.ErrUnsupportedMediaType):
		return "unsupported_media_type", http.StatusUnsupportedMediaType
	case errors.Is(err, store.ErrInvalidID):
		return "invalid_id", http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return "not_found", http.StatusNotFound
	case errors.Is(err, clients.ErrTranscriptionTimeout):
		return "transcription_timeout", http.StatusGatewayTimeout
	case errors.Is(err, clients.ErrTranscriptionFailure):
		return "transcription_failure", http.StatusBadGateway
	case errors.Is(err, clients.ErrSentimentFailure):
		return "sentiment_failure", http.StatusBadGateway
	case errors.Is(err, clients.ErrSynthesisFailure):
		return "synthesis_failure", http.StatusBadGateway
	default:
		return "internal", http.StatusInternalServerError
	}
}
