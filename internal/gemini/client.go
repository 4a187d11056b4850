package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-1.5-flash"

// Config configures a Client.
type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the API endpoint. Used in tests.
	BaseURL string
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("gemini API key is required")
	}
	return nil
}

// Client generates completions with a single Gemini model.
type Client struct {
	models *genai.Models
	model  string
}

// NewClient creates a Client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Client{models: client.Models, model: model}, nil
}

// Model returns the model name.
func (c *Client) Model() string {
	return c.model
}

// Generate sends prompt and returns the concatenated text of the first
// candidate.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("gemini returned no candidates")
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return "", fmt.Errorf("gemini candidate has no content (finish reason %q)", cand.FinishReason)
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	if b.Len() == 0 {
		return "", errors.New("gemini candidate has no text")
	}
	return b.String(), nil
}
