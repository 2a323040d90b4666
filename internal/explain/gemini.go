// SPDX-License-Identifier: Apache-2.0

package explain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const DefaultGeminiModel = "gemini-1.5-flash"

const (
	geminiTemperature = 0.3
	geminiMaxTokens   = 1500
)

// generateFunc sends one prompt and returns the reply text and the tokens
// the provider reports for the exchange.
type generateFunc func(ctx context.Context, apiKey, model, system, prompt string) (string, int, error)

// generate is replaced in tests.
var generate generateFunc = generateContent

// Gemini explains solutions with the Google Generative AI API. When the API
// fails the explanation still carries a narrated fallback in Content.
type Gemini struct {
	apiKey string
	model  string
	logger *slog.Logger
}

func NewGemini(apiKey, model string, logger *slog.Logger) *Gemini {
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultGeminiModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gemini{apiKey: strings.TrimSpace(apiKey), model: model, logger: logger}
}

func (g *Gemini) Name() string {
	return "gemini"
}

func (g *Gemini) Model() string {
	return g.model
}

func (g *Gemini) Explain(ctx context.Context, req Request) (Explanation, error) {
	if strings.TrimSpace(req.Answer) == "" {
		return Explanation{}, ErrNoAnswer
	}
	fallback := Narrate(req)
	if g.apiKey == "" {
		return Explanation{
			Content: fallback,
			Method:  "step_narration",
			Model:   g.model,
			Error:   "gemini: GEMINI_API_KEY is empty",
		}, nil
	}

	prompt := Prompt(req)
	text, tokens, err := generate(ctx, g.apiKey, g.model, systemInstruction, prompt)
	if err != nil {
		g.logger.Warn("gemini explanation failed", "model", g.model, "error", err)
		return Explanation{
			Content: fallback,
			Method:  "step_narration",
			Model:   g.model,
			Error:   fmt.Sprintf("gemini explanation failed: %v", err),
		}, nil
	}
	if tokens == 0 {
		tokens = estimateTokens(prompt + text)
	}
	return Explanation{
		Content:    text,
		Method:     "gemini_generated",
		Success:    true,
		TokensUsed: tokens,
		Model:      g.model,
	}, nil
}

func generateContent(ctx context.Context, apiKey, model, system, prompt string) (string, int, error) {
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", 0, err
	}
	defer cl.Close()

	m := cl.GenerativeModel(model)
	if m == nil {
		return "", 0, errors.New("gemini: model is nil")
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:     ptrFloat32(geminiTemperature),
		MaxOutputTokens: ptrInt32(geminiMaxTokens),
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(system)},
	}

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", 0, err
	}
	text := strings.TrimSpace(firstText(resp))
	if text == "" {
		return "", 0, errors.New("gemini: empty response")
	}
	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return text, tokens, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }

func ptrInt32(v int32) *int32 { return &v }
