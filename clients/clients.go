package clients

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	cfg "github.com/maastricht-university/speech-sentiment/config"
)

// Transcriber turns a single-channel linear PCM clip into a transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// SentimentAnalyzer scores plain text.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string) (SentimentResult, error)
}

// Synthesizer turns text into LINEAR16 audio ready to be stored as a clip.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type named interface{ Name() string }

// Providers holds the three adapters built once at process start.
type Providers struct {
	Transcriber Transcriber
	Sentiment   SentimentAnalyzer
	Synthesizer Synthesizer

	closers []io.Closer
}

// New builds the adapters selected by c. Language, voice and encoding are
// fixed here for the life of the process.
func New(ctx context.Context, c *cfg.Root, log logrus.FieldLogger) (*Providers, error) {
	p := &Providers{}

	switch c.Transcription.Backend {
	case cfg.BackendOpenAI:
		p.Transcriber = NewOpenAITranscriber(c.OpenAI.APIKey, RecognitionOptions{
			Language: c.Transcription.Language,
			Timeout:  c.Transcription.Timeout,
		})
	default:
		t, err := NewGoogleTranscriber(ctx, RecognitionOptions{
			Language: c.Transcription.Language,
			Model:    c.Transcription.Model,
			Timeout:  c.Transcription.Timeout,
		})
		if err != nil {
			return nil, err
		}
		p.Transcriber = t
		p.closers = append(p.closers, t)
	}

	switch c.Sentiment.Backend {
	case cfg.BackendGemini:
		s, err := NewGeminiSentiment(ctx, c.Gemini.APIKey, c.Sentiment.Model, c.Sentiment.Language)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.Sentiment = s
	default:
		s, err := NewGoogleSentiment(ctx, c.Sentiment.Language)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.Sentiment = s
		p.closers = append(p.closers, s)
	}

	switch c.Synthesis.Backend {
	case cfg.BackendOpenAI:
		p.Synthesizer = NewOpenAISynthesizer(c.OpenAI.APIKey, c.Synthesis.Model, c.Synthesis.Voice)
	default:
		s, err := NewGoogleSynthesizer(ctx, c.Synthesis.Language, c.Synthesis.Voice)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.Synthesizer = s
		p.closers = append(p.closers, s)
	}

	log.WithFields(logrus.Fields{
		"transcription": nameOf(p.Transcriber),
		"sentiment":     nameOf(p.Sentiment),
		"synthesis":     nameOf(p.Synthesizer),
	}).Info("providers ready")
	return p, nil
}

func (p *Providers) Close() error {
	var errs []error
	for _, c := range p.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	if len(errs) > 0 {
		return fmt.Errorf("close providers: %w", errors.Join(errs...))
	}
	return nil
}

func nameOf(v any) string {
	if n, ok := v.(named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", v)
}
