package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// GeminiProvider invokes the Gemini API. It is the only configured provider
// that honors all three sampling parameters, including top-k.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// GeminiConfig holds configuration for the Gemini provider.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// NewGeminiProvider creates a Gemini provider.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	return &GeminiProvider{client: client, model: cfg.Model}, nil
}

// Name returns the provider name.
func (p *GeminiProvider) Name() string { return "gemini" }

// Invoke sends the prompt and returns the raw response text.
func (p *GeminiProvider) Invoke(ctx context.Context, prompt string, cfg SamplingConfig) (string, error) {
	genCfg := &genai.GenerateContentConfig{}
	if cfg.Temperature != nil {
		genCfg.Temperature = genai.Ptr(*cfg.Temperature)
	}
	if cfg.TopK != nil {
		genCfg.TopK = genai.Ptr(float32(*cfg.TopK))
	}
	if cfg.TopP != nil {
		genCfg.TopP = genai.Ptr(*cfg.TopP)
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), genCfg)
	if err != nil {
		return "", classifyGeminiError(err)
	}

	text := resp.Text()
	if text == "" {
		return "", &TransportError{Provider: "gemini", Err: errors.New("empty candidate response")}
	}
	return text, nil
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests {
			return &QuotaError{Provider: "gemini", Err: err}
		}
	}
	return &TransportError{Provider: "gemini", Err: err}
}

var _ Invoker = (*GeminiProvider)(nil)
