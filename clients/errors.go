package clients

import "errors"

// Provider failures. Adapters wrap the provider's own error with one of these
// so callers can match with errors.Is; none of them are retried here.
var (
	ErrTranscriptionTimeout = errors.New("transcription timed out")
	ErrTranscriptionFailure = errors.New("transcription failed")
	ErrSentimentFailure     = errors.New("sentiment analysis failed")
	ErrSynthesisFailure     = errors.New("speech synthesis failed")
)
