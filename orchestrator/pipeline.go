package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/speech-sentiment/clients"
	"github.com/maastricht-university/speech-sentiment/store"
)

// ArtifactStore is the part of store.Store the pipeline writes through.
type ArtifactStore interface {
	Create(prefix string, t time.Time, payload []byte) (string, error)
	ReadPayload(id string) ([]byte, error)
	WriteResultText(id, text string) error
	Remove(id string) error
}

// Pipeline runs the audio-in and text-in flows. It holds no per-run state,
// so one instance serves concurrent requests.
type Pipeline struct {
	transcriber clients.Transcriber
	sentiment   clients.SentimentAnalyzer
	synthesizer clients.Synthesizer
	store       ArtifactStore
	log         logrus.FieldLogger
	now         func() time.Time
}

func NewPipeline(p *clients.Providers, st ArtifactStore, log logrus.FieldLogger) *Pipeline {
	return &Pipeline{
		transcriber: p.Transcriber,
		sentiment:   p.Sentiment,
		synthesizer: p.Synthesizer,
		store:       st,
		log:         log,
		now:         time.Now,
	}
}

// ProcessAudioUpload stores the clip first, then transcribes and scores it.
// When a provider fails the stored clip stays where it is and no result text
// is written.
func (p *Pipeline) ProcessAudioUpload(ctx context.Context, raw []byte, suggestedName string) (*ArtifactRef, error) {
	if !store.IsPayloadName(suggestedName) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, suggestedName)
	}

	start := time.Now()
	id, err := p.store.Create("", p.now(), raw)
	if err != nil {
		return nil, fmt.Errorf("persist upload: %w", err)
	}
	log := p.log.WithFields(logrus.Fields{"flow": FlowAudio, "artifact": id})
	log.WithField("bytes", len(raw)).Debug("payload stored")

	audio, err := p.store.ReadPayload(id)
	if err != nil {
		return nil, &PayloadKeptError{ID: id, Err: fmt.Errorf("read back %s: %w", id, err)}
	}

	transcript, err := p.transcriber.Transcribe(ctx, audio)
	if err != nil {
		log.WithError(err).Error("transcription failed, payload kept")
		return nil, &PayloadKeptError{ID: id, Err: fmt.Errorf("transcribe %s: %w", id, err)}
	}
	log.WithField("chars", len(transcript)).Debug("transcribed")

	sent, err := p.sentiment.Analyze(ctx, transcript)
	if err != nil {
		log.WithError(err).Error("sentiment analysis failed, payload kept")
		return nil, &PayloadKeptError{ID: id, Err: fmt.Errorf("analyze %s: %w", id, err)}
	}

	if err := p.store.WriteResultText(id, audioResult(transcript, sent)); err != nil {
		return nil, &PayloadKeptError{ID: id, Err: fmt.Errorf("persist result: %w", err)}
	}

	log.WithFields(logrus.Fields{
		"sentiment": sent.Label,
		"score":     sent.Score,
		"duration":  time.Since(start),
	}).Info("audio processed")
	return &ArtifactRef{
		ID:         id,
		ResultName: store.ResultName(id),
		Flow:       FlowAudio,
		Text:       transcript,
		Sentiment:  sent,
	}, nil
}

// ProcessTextSubmission scores and voices text, then stores both results.
// Nothing is written unless both providers succeed.
func (p *Pipeline) ProcessTextSubmission(ctx context.Context, text string) (*ArtifactRef, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text", ErrInvalidInput)
	}

	start := time.Now()
	log := p.log.WithField("flow", FlowText)

	sent, err := p.sentiment.Analyze(ctx, text)
	if err != nil {
		log.WithError(err).Error("sentiment analysis failed")
		return nil, fmt.Errorf("analyze text: %w", err)
	}

	audio, err := p.synthesizer.Synthesize(ctx, text)
	if err != nil {
		log.WithError(err).Error("synthesis failed")
		return nil, fmt.Errorf("synthesize text: %w", err)
	}

	id, err := p.store.Create(TextPrefix, p.now(), audio)
	if err != nil {
		return nil, fmt.Errorf("persist synthesized audio: %w", err)
	}
	if err := p.store.WriteResultText(id, textResult(text, sent)); err != nil {
		err = fmt.Errorf("persist result: %w", err)
		if rmErr := p.store.Remove(id); rmErr != nil {
			log.WithError(rmErr).WithField("artifact", id).Error("remove synthesized audio")
			return nil, &PayloadKeptError{ID: id, Err: err}
		}
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"artifact":  id,
		"sentiment": sent.Label,
		"score":     sent.Score,
		"duration":  time.Since(start),
	}).Info("text processed")
	return &ArtifactRef{
		ID:         id,
		ResultName: store.ResultName(id),
		Flow:       FlowText,
		Text:       text,
		Sentiment:  sent,
	}, nil
}
