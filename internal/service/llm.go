package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lemixologue/backend/config"
)

// CocktailSheet is the structured recipe returned by the LLM
type CocktailSheet struct {
	Name          string   `json:"name"`
	Ingredients   []string `json:"ingredients"`
	Description   string   `json:"description"`
	MusicAmbiance string   `json:"music_ambiance"`
	ImagePrompt   string   `json:"image_prompt"`
}

// LLMService generates cocktail sheets through the Mistral
// chat-completions API
type LLMService struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  zerolog.Logger

	maxRetries int
}

// NewLLMService creates the Mistral client from configuration
func NewLLMService(cfg *config.Config, logger zerolog.Logger) *LLMService {
	return &LLMService{
		apiKey:  cfg.MistralAPIKey,
		model:   cfg.MistralModel,
		baseURL: strings.TrimSuffix(cfg.MistralBaseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:     logger,
		maxRetries: 3,
	}
}

const systemPrompt = `You are an expert and creative mixologist working in a high-end cocktail bar.
Your role is to create original, personalized cocktails from each customer's request.

For every request you must produce a complete cocktail sheet in this strict JSON format:

{
  "name": "Creative, original cocktail name",
  "ingredients": [
    "Precise quantity + ingredient 1",
    "Precise quantity + ingredient 2"
  ],
  "description": "A short, engaging story for the cocktail (2-3 sentences max)",
  "music_ambiance": "A music ambiance suggestion matching the cocktail",
  "image_prompt": "A detailed prompt to generate a photo of the cocktail"
}

Rules:
1. The name must be original and evocative
2. Ingredients must include precise quantities (cl, ml, dashes)
3. The description should tell a story or give context
4. The music ambiance must match the spirit of the cocktail
5. Respond ONLY with valid JSON, no extra text
6. Adapt to the tastes, constraints and context the customer mentions
7. Be creative but realistic in ingredient pairings`

// Message is one chat message sent to the API
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	TopP        float64   `json:"top_p"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateCocktail asks the LLM for a cocktail sheet matching the
// sanitized user request
func (s *LLMService) GenerateCocktail(ctx context.Context, userRequest string) (*CocktailSheet, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", ErrUpstream)
	}

	messages := []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf(
			"Customer request: %q\n\nCreate a personalized cocktail answering this request. Respond only with the cocktail sheet JSON.",
			userRequest)},
	}

	content, err := s.complete(ctx, messages)
	if err != nil {
		return nil, err
	}

	sheet, err := parseCocktailSheet(content)
	if err != nil {
		s.logger.Error().Err(err).Str("content", truncate(content, 200)).Msg("failed to parse LLM response")
		return nil, fmt.Errorf("%w: malformed response", ErrUpstream)
	}

	s.logger.Info().Str("cocktail", sheet.Name).Msg("cocktail sheet generated")
	return sheet, nil
}

// complete performs the chat-completions call with bounded retries:
// immediate abort on authentication failure, continued retry on rate
// limiting, retry-with-backoff on transient transport errors.
func (s *LLMService) complete(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: 0.8,
		MaxTokens:   1000,
		TopP:        0.9,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := s.baseURL + "/v1/chat/completions"
	var lastErr error

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.apiKey)

		resp, err := s.client.Do(req)
		if err != nil {
			lastErr = err
			s.logger.Warn().Err(err).Int("attempt", attempt).Msg("Mistral request failed")
			if attempt < s.maxRetries {
				time.Sleep(time.Duration(attempt) * time.Second)
			}
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			var parsed chatResponse
			if err := json.Unmarshal(respBody, &parsed); err != nil {
				return "", fmt.Errorf("%w: undecodable response", ErrUpstream)
			}
			if len(parsed.Choices) == 0 {
				return "", fmt.Errorf("%w: empty choices", ErrUpstream)
			}
			return parsed.Choices[0].Message.Content, nil

		case resp.StatusCode == http.StatusUnauthorized:
			s.logger.Error().Msg("Mistral API key rejected")
			return "", fmt.Errorf("%w: authentication rejected", ErrUpstream)

		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("rate limited by upstream")
			s.logger.Warn().Int("attempt", attempt).Msg("Mistral rate limit hit, retrying")
			if attempt < s.maxRetries {
				time.Sleep(time.Duration(attempt) * time.Second)
			}
			continue

		default:
			s.logger.Error().Int("status", resp.StatusCode).Str("body", truncate(string(respBody), 300)).Msg("Mistral request rejected")
			return "", fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
		}
	}

	return "", fmt.Errorf("%w: %v", ErrUpstream, lastErr)
}

// parseCocktailSheet decodes the model output, tolerating markdown fences
// and filling in a default image prompt when the model omits one
func parseCocktailSheet(content string) (*CocktailSheet, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var sheet CocktailSheet
	if err := json.Unmarshal([]byte(content), &sheet); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	switch {
	case sheet.Name == "":
		return nil, fmt.Errorf("missing required field: name")
	case len(sheet.Ingredients) == 0:
		return nil, fmt.Errorf("missing required field: ingredients")
	case sheet.Description == "":
		return nil, fmt.Errorf("missing required field: description")
	case sheet.MusicAmbiance == "":
		return nil, fmt.Errorf("missing required field: music_ambiance")
	}

	if sheet.ImagePrompt == "" {
		sheet.ImagePrompt = defaultImagePrompt(sheet.Name)
	}

	return &sheet, nil
}

func defaultImagePrompt(name string) string {
	return fmt.Sprintf(
		"Professional photo of the cocktail %q in an elegant glass, dim bar lighting, blurred background, gastronomic style, hyper-realistic, aesthetic composition",
		name)
}

// truncate bounds logged upstream content without splitting a multi-byte
// sequence mid-rune
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
