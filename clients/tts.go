package clients

import (
	"context"
	"errors"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
)

type synthesizeFunc func(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error)

// GoogleSynthesizer produces LINEAR16 audio with Cloud Text-to-Speech.
// An empty voice name lets the service pick its default for the language.
type GoogleSynthesizer struct {
	language   string
	voice      string
	synthesize synthesizeFunc
	close      func() error
}

func NewGoogleSynthesizer(ctx context.Context, lang, voice string) (*GoogleSynthesizer, error) {
	c, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("texttospeech client: %w", err)
	}
	s := newGoogleSynthesizer(lang, voice, func(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error) {
		return c.SynthesizeSpeech(ctx, req)
	})
	s.close = c.Close
	return s, nil
}

func newGoogleSynthesizer(lang, voice string, fn synthesizeFunc) *GoogleSynthesizer {
	if lang == "" {
		lang = "en-US"
	}
	return &GoogleSynthesizer{language: lang, voice: voice, synthesize: fn}
}

func (s *GoogleSynthesizer) Name() string { return "google-tts" }

func (s *GoogleSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if blankText(text) {
		return nil, fmt.Errorf("%w: empty text", ErrSynthesisFailure)
	}

	resp, err := s.synthesize(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: s.language,
			Name:         s.voice,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_LINEAR16,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSynthesisFailure, err)
	}
	if len(resp.GetAudioContent()) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrSynthesisFailure, errors.New("empty audio content"))
	}
	return resp.GetAudioContent(), nil
}

func (s *GoogleSynthesizer) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}
