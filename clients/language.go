package clients

import (
	"context"
	"fmt"

	language "cloud.google.com/go/language/apiv2"
	"cloud.google.com/go/language/apiv2/languagepb"
)

type analyzeFunc func(ctx context.Context, req *languagepb.AnalyzeSentimentRequest) (*languagepb.AnalyzeSentimentResponse, error)

// GoogleSentiment scores plain text with the Cloud Natural Language API.
type GoogleSentiment struct {
	language string
	analyze  analyzeFunc
	close    func() error
}

func NewGoogleSentiment(ctx context.Context, lang string) (*GoogleSentiment, error) {
	c, err := language.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("language client: %w", err)
	}
	s := newGoogleSentiment(lang, func(ctx context.Context, req *languagepb.AnalyzeSentimentRequest) (*languagepb.AnalyzeSentimentResponse, error) {
		return c.AnalyzeSentiment(ctx, req)
	})
	s.close = c.Close
	return s, nil
}

func newGoogleSentiment(lang string, fn analyzeFunc) *GoogleSentiment {
	if lang == "" {
		lang = "en"
	}
	return &GoogleSentiment{language: lang, analyze: fn}
}

func (s *GoogleSentiment) Name() string { return "google-language" }

func (s *GoogleSentiment) Analyze(ctx context.Context, text string) (SentimentResult, error) {
	if blankText(text) {
		return NewSentimentResult(0, 0), nil
	}

	resp, err := s.analyze(ctx, &languagepb.AnalyzeSentimentRequest{
		Document: &languagepb.Document{
			Type:         languagepb.Document_PLAIN_TEXT,
			Source:       &languagepb.Document_Content{Content: text},
			LanguageCode: s.language,
		},
		EncodingType: languagepb.EncodingType_UTF8,
	})
	if err != nil {
		return SentimentResult{}, fmt.Errorf("%w: %w", ErrSentimentFailure, err)
	}

	doc := resp.GetDocumentSentiment()
	return NewSentimentResult(widen(doc.GetScore()), widen(doc.GetMagnitude())), nil
}

func (s *GoogleSentiment) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}
