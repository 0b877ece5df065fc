package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"google.golang.org/genai"
)

const sentimentPrompt = `Analyze the overall sentiment of the following %s text.
Reply with a JSON object {"score": number, "magnitude": number} where score is
between -1.0 (very negative) and 1.0 (very positive) and magnitude is the
non-negative overall strength of emotion in the text.

Text:
---
%s
---`

// contentGenerator is the part of genai.Models the sentiment adapter uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiSentiment asks a Gemini model for a score/magnitude pair and
// classifies it with the same thresholds as every other backend.
type GeminiSentiment struct {
	models   contentGenerator
	model    string
	language string
}

func NewGeminiSentiment(ctx context.Context, apiKey, model, lang string) (*GeminiSentiment, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return newGeminiSentiment(client.Models, model, lang), nil
}

func newGeminiSentiment(models contentGenerator, model, lang string) *GeminiSentiment {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	if lang == "" {
		lang = "en"
	}
	return &GeminiSentiment{models: models, model: model, language: lang}
}

func (g *GeminiSentiment) Name() string { return "gemini" }

func (g *GeminiSentiment) Analyze(ctx context.Context, text string) (SentimentResult, error) {
	if blankText(text) {
		return NewSentimentResult(0, 0), nil
	}

	prompt := fmt.Sprintf(sentimentPrompt, g.language, text)
	result, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return SentimentResult{}, fmt.Errorf("%w: generate content: %w", ErrSentimentFailure, err)
	}

	var reply string
	if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
		for _, part := range result.Candidates[0].Content.Parts {
			if part != nil && part.Text != "" {
				reply += part.Text
			}
		}
	}
	if reply == "" {
		return SentimentResult{}, fmt.Errorf("%w: %w", ErrSentimentFailure, errors.New("empty response from Gemini"))
	}

	var parsed struct {
		Score     *float64 `json:"score"`
		Magnitude *float64 `json:"magnitude"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(reply)), &parsed); err != nil {
		return SentimentResult{}, fmt.Errorf("%w: decode reply: %w", ErrSentimentFailure, err)
	}
	if parsed.Score == nil {
		return SentimentResult{}, fmt.Errorf("%w: %w", ErrSentimentFailure, errors.New("reply has no score"))
	}

	score := math.Max(-1, math.Min(1, *parsed.Score))
	magnitude := 0.0
	if parsed.Magnitude != nil {
		magnitude = math.Max(0, *parsed.Magnitude)
	}
	return NewSentimentResult(score, magnitude), nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
