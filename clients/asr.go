package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultRecognitionTimeout = 90 * time.Second
	defaultRecognitionModel   = "latest_long"
	defaultRecognitionLang    = "en-US"
)

var errRecognitionDeadline = errors.New("recognition wait deadline")

type recognizeFunc func(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (*speechpb.LongRunningRecognizeResponse, error)

// GoogleTranscriber runs Cloud Speech long-running recognition and waits for
// the operation with a bounded timeout.
type GoogleTranscriber struct {
	language  string
	model     string
	timeout   time.Duration
	recognize recognizeFunc
	close     func() error
}

type RecognitionOptions struct {
	Language string
	Model    string
	Timeout  time.Duration
}

func (o *RecognitionOptions) defaults() {
	if o.Language == "" {
		o.Language = defaultRecognitionLang
	}
	if o.Model == "" {
		o.Model = defaultRecognitionModel
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultRecognitionTimeout
	}
}

func NewGoogleTranscriber(ctx context.Context, opts RecognitionOptions) (*GoogleTranscriber, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	t := newGoogleTranscriber(opts, func(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (*speechpb.LongRunningRecognizeResponse, error) {
		op, err := c.LongRunningRecognize(ctx, req)
		if err != nil {
			return nil, err
		}
		return op.Wait(ctx)
	})
	t.close = c.Close
	return t, nil
}

func newGoogleTranscriber(opts RecognitionOptions, fn recognizeFunc) *GoogleTranscriber {
	opts.defaults()
	return &GoogleTranscriber{
		language:  opts.Language,
		model:     opts.Model,
		timeout:   opts.Timeout,
		recognize: fn,
	}
}

func (t *GoogleTranscriber) Name() string { return "google-speech" }

func (t *GoogleTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	parent := ctx
	ctx, cancel := context.WithTimeoutCause(ctx, t.timeout, errRecognitionDeadline)
	defer cancel()

	req := &speechpb.LongRunningRecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			LanguageCode:          t.language,
			Model:                 t.model,
			AudioChannelCount:     1,
			EnableWordConfidence:  true,
			EnableWordTimeOffsets: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}

	resp, err := t.recognize(ctx, req)
	if err != nil {
		return "", transcriptionError(parent, ctx, err)
	}
	return joinTranscripts(resp.GetResults()), nil
}

func (t *GoogleTranscriber) Close() error {
	if t.close == nil {
		return nil
	}
	return t.close()
}

// joinTranscripts keeps the best alternative of every result, one per line,
// in the order the provider returned them.
func joinTranscripts(results []*speechpb.SpeechRecognitionResult) string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		alts := r.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		lines = append(lines, alts[0].GetTranscript())
	}
	return strings.Join(lines, "\n")
}

// transcriptionError reports a timeout only when the recognizer's own wait
// deadline fired, or the provider answered DeadlineExceeded while the caller
// was still waiting. A caller's deadline or cancellation is a failure.
func transcriptionError(parent, ctx context.Context, err error) error {
	if errors.Is(context.Cause(ctx), errRecognitionDeadline) ||
		(parent.Err() == nil && status.Code(err) == codes.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTranscriptionTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrTranscriptionFailure, err)
}
