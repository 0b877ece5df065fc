package clients

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

type fakeOpenAI struct {
	transcription openai.AudioResponse
	speech        string
	err           error

	audioReq  openai.AudioRequest
	speechReq openai.CreateSpeechRequest
}

func (f *fakeOpenAI) CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error) {
	f.audioReq = req
	if f.err != nil {
		return openai.AudioResponse{}, f.err
	}
	return f.transcription, nil
}

func (f *fakeOpenAI) CreateSpeech(ctx context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error) {
	f.speechReq = req
	if f.err != nil {
		return openai.RawResponse{}, f.err
	}
	return openai.RawResponse{ReadCloser: io.NopCloser(strings.NewReader(f.speech))}, nil
}

func audioResponse(t *testing.T, raw string) openai.AudioResponse {
	t.Helper()
	var resp openai.AudioResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestOpenAITranscriberSegments(t *testing.T) {
	api := &fakeOpenAI{transcription: audioResponse(t, `{"text":"great job see you","segments":[{"text":" great job"},{"text":" see you"}]}`)}
	tr := newOpenAITranscriber(api, RecognitionOptions{})

	text, err := tr.Transcribe(context.Background(), []byte("RIFF"))
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "great job\nsee you" {
		t.Errorf("Transcribe() = %q", text)
	}
	if api.audioReq.Language != "en" {
		t.Errorf("language = %q, want en", api.audioReq.Language)
	}
	if api.audioReq.Model != openai.Whisper1 {
		t.Errorf("model = %q", api.audioReq.Model)
	}
}

func TestOpenAITranscriberPlainText(t *testing.T) {
	api := &fakeOpenAI{transcription: audioResponse(t, `{"text":" hello there "}`)}
	text, err := newOpenAITranscriber(api, RecognitionOptions{}).Transcribe(context.Background(), nil)
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "hello there" {
		t.Errorf("Transcribe() = %q", text)
	}
}

func TestOpenAITranscriberFailure(t *testing.T) {
	api := &fakeOpenAI{err: errors.New("401 unauthorized")}
	_, err := newOpenAITranscriber(api, RecognitionOptions{}).Transcribe(context.Background(), nil)
	if !errors.Is(err, ErrTranscriptionFailure) {
		t.Fatalf("Transcribe() error = %v, want ErrTranscriptionFailure", err)
	}
}

func TestOpenAISynthesizer(t *testing.T) {
	api := &fakeOpenAI{speech: "RIFFwave"}
	s := newOpenAISynthesizer(api, "", "nova")

	audio, err := s.Synthesize(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if string(audio) != "RIFFwave" {
		t.Errorf("Synthesize() = %q", audio)
	}
	if api.speechReq.ResponseFormat != openai.SpeechResponseFormatWav {
		t.Errorf("format = %q, want wav", api.speechReq.ResponseFormat)
	}
	if api.speechReq.Voice != openai.SpeechVoice("nova") || api.speechReq.Model != openai.TTSModel1 {
		t.Errorf("unexpected request: %+v", api.speechReq)
	}
}

func TestOpenAISynthesizerFailure(t *testing.T) {
	api := &fakeOpenAI{err: errors.New("rate limited")}
	if _, err := newOpenAISynthesizer(api, "", "").Synthesize(context.Background(), "hello"); !errors.Is(err, ErrSynthesisFailure) {
		t.Fatalf("Synthesize() error = %v, want ErrSynthesisFailure", err)
	}
}

func TestIsoLanguage(t *testing.T) {
	for in, want := range map[string]string{"en-US": "en", "EN": "en", "": ""} {
		if got := isoLanguage(in); got != want {
			t.Errorf("isoLanguage(%q) = %q, want %q", in, got, want)
		}
	}
}
