package clients

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// openAIAudio is the part of *openai.Client the audio adapters use.
type openAIAudio interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
	CreateSpeech(ctx context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error)
}

// --- Whisper (/audio/transcriptions) ---

type OpenAITranscriber struct {
	api      openAIAudio
	language string
	timeout  time.Duration
}

func NewOpenAITranscriber(apiKey string, opts RecognitionOptions) *OpenAITranscriber {
	return newOpenAITranscriber(openai.NewClient(apiKey), opts)
}

func newOpenAITranscriber(api openAIAudio, opts RecognitionOptions) *OpenAITranscriber {
	opts.defaults()
	return &OpenAITranscriber{
		api:      api,
		language: isoLanguage(opts.Language),
		timeout:  opts.Timeout,
	}
}

func (t *OpenAITranscriber) Name() string { return "openai-whisper" }

func (t *OpenAITranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	parent := ctx
	ctx, cancel := context.WithTimeoutCause(ctx, t.timeout, errRecognitionDeadline)
	defer cancel()

	resp, err := t.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: "audio.wav",
		Reader:   bytes.NewReader(audio),
		Language: t.language,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return "", transcriptionError(parent, ctx, err)
	}

	if len(resp.Segments) == 0 {
		return strings.TrimSpace(resp.Text), nil
	}
	lines := make([]string, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		lines = append(lines, strings.TrimSpace(seg.Text))
	}
	return strings.Join(lines, "\n"), nil
}

// --- TTS (/audio/speech) ---

type OpenAISynthesizer struct {
	api   openAIAudio
	model openai.SpeechModel
	voice openai.SpeechVoice
}

func NewOpenAISynthesizer(apiKey, model, voice string) *OpenAISynthesizer {
	return newOpenAISynthesizer(openai.NewClient(apiKey), model, voice)
}

func newOpenAISynthesizer(api openAIAudio, model, voice string) *OpenAISynthesizer {
	s := &OpenAISynthesizer{
		api:   api,
		model: openai.TTSModel1,
		voice: openai.VoiceAlloy,
	}
	if model != "" {
		s.model = openai.SpeechModel(model)
	}
	if voice != "" {
		s.voice = openai.SpeechVoice(voice)
	}
	return s
}

func (s *OpenAISynthesizer) Name() string { return "openai-tts" }

func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if blankText(text) {
		return nil, fmt.Errorf("%w: empty text", ErrSynthesisFailure)
	}

	resp, err := s.api.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          s.model,
		Input:          text,
		Voice:          s.voice,
		ResponseFormat: openai.SpeechResponseFormatWav,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSynthesisFailure, err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: read audio: %w", ErrSynthesisFailure, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrSynthesisFailure, errors.New("empty audio content"))
	}
	return audio, nil
}

// isoLanguage turns a locale such as en-US into the ISO-639-1 code Whisper expects.
func isoLanguage(locale string) string {
	lang, _, _ := strings.Cut(locale, "-")
	return strings.ToLower(lang)
}
