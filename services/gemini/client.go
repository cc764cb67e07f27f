package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

const (
	// DefaultModel is used when no model name is configured
	DefaultModel = "gemini-1.5-flash"
	// DefaultRequestsPerMinute bounds calls shared across all requests
	DefaultRequestsPerMinute = 60
	// DefaultTemperature keeps extraction output close to the source text
	DefaultTemperature = 0.3
)

// ErrEmptyResponse is returned when the model answers with no text parts
var ErrEmptyResponse = errors.New("gemini returned empty response")

// Config holds configuration for the Gemini client
type Config struct {
	APIKey            string
	Model             string
	RequestsPerMinute int
	// Temperature is optional; nil selects DefaultTemperature so 0 stays usable
	Temperature       *float32
}

// Client wraps a Gemini generative model behind a shared rate limiter
type Client struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
	limiter   *rate.Limiter
}

// NewClient creates a new Gemini client. Extra client options are passed to
// the underlying SDK after the API key.
func NewClient(ctx context.Context, config Config, opts ...option.ClientOption) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = DefaultRequestsPerMinute
	}

	clientOpts := append([]option.ClientOption{option.WithAPIKey(config.APIKey)}, opts...)
	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(config.Model)
	model.SetTemperature(config.temperature())

	return &Client{
		client:    client,
		model:     model,
		modelName: config.Model,
		limiter:   newLimiter(config.RequestsPerMinute),
	}, nil
}

func (c Config) temperature() float32 {
	if c.Temperature == nil {
		return DefaultTemperature
	}
	return *c.Temperature
}

func newLimiter(requestsPerMinute int) *rate.Limiter {
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), burst)
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.modelName
}

// GenerateText sends a single text prompt and returns the concatenated answer
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, genai.Text(prompt))
}

// GenerateWithDocument sends an inline document followed by a text prompt
func (c *Client) GenerateWithDocument(ctx context.Context, mimeType string, data []byte, prompt string) (string, error) {
	return c.generate(ctx, genai.Blob{MIMEType: mimeType, Data: data}, genai.Text(prompt))
}

func (c *Client) generate(ctx context.Context, parts ...genai.Part) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for gemini rate slot: %w", err)
	}

	resp, err := c.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}

	text := strings.TrimSpace(extractText(resp))
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Close releases the underlying connection
func (c *Client) Close() error {
	return c.client.Close()
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text.WriteString(string(t))
			}
		}
	}
	return text.String()
}
