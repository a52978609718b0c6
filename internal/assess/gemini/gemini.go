// Package gemini implements the assessment scorer on the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/mwhite-hr/reqflow/internal/logger"
)

const (
	defaultModel     = "gemini-2.5-flash"
	defaultMaxLogLen = 200
)

// Scorer sends assessment prompts to Gemini and returns the raw textual
// response. Parsing and validation stay in the assess package.
type Scorer struct {
	models    contentGenerator
	model     string
	logger    *zap.Logger
	maxLogLen int
}

// contentGenerator is the slice of the genai client the scorer calls.
// Narrowed to an interface so tests can stub the API.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func New(ctx context.Context, apiKey, model string, logger *zap.Logger) (*Scorer, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	return &Scorer{
		models:    client.Models,
		model:     model,
		logger:    logger,
		maxLogLen: defaultMaxLogLen,
	}, nil
}

// Score sends one prompt and concatenates the textual parts of the first
// reply. An empty reply is an error; the caller decides whether to retry.
func (s *Scorer) Score(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	s.logger.Debug("gemini request",
		zap.String("model", s.model),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, s.maxLogLen)),
	)

	resp, err := s.models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(text)
		}
	}

	output := strings.TrimSpace(b.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	s.logger.Debug("gemini response",
		zap.Int("response_length", utf8.RuneCountInString(output)),
		zap.String("response_preview", logger.TruncateForLog(output, s.maxLogLen)),
	)
	return output, nil
}

func (s *Scorer) Model() string {
	if s == nil {
		return ""
	}
	return s.model
}
