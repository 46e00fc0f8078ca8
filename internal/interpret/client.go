// Package interpret relays a finished divination to an OpenAI-compatible
// chat endpoint for a prose reading. The engine never depends on it: a
// disabled or unconfigured relay yields (nil, nil) and the caller falls back
// to the local report.
package interpret

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/maelin/cybermancy/internal/config"
)

var allowedMoods = map[string]bool{
	"auspicious":   true,
	"steady":       true,
	"turbulent":    true,
	"inauspicious": true,
	"veiled":       true,
}

// Generate calls the LLM for a reading of the divination outcome.
// Returns (nil, nil) if the relay is disabled or the API key is not set.
func Generate(ctx context.Context, cfg config.InterpretConfig, input PromptInput) (*Result, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, nil
	}

	reqBody := chatRequest{
		Model:       cfg.Model,
		Messages:    buildMessages(input),
		Temperature: 0.7,
		ResponseFormat: &respFormat{
			Type: "json_object",
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return parseResponse(respBody)
}

func parseResponse(body []byte) (*Result, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if resp.Error != nil {
		return nil, fmt.Errorf("API error: %s", resp.Error.Message)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty choices in response")
	}

	content := resp.Choices[0].Message.Content

	var rj readingJSON
	if err := json.Unmarshal([]byte(content), &rj); err != nil {
		return nil, fmt.Errorf("unmarshal reading JSON: %w", err)
	}

	return &Result{
		Reading: rj.Reading,
		Advice:  rj.Advice,
		Mood:    validateMood(rj.Mood),
	}, nil
}

func validateMood(mood string) string {
	mood = strings.ToLower(strings.TrimSpace(mood))
	if allowedMoods[mood] {
		return mood
	}
	return ""
}
