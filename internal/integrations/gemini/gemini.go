package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"github.com/Dan9191/cashflow-service/internal/config"
)

// Client generates chat replies with a Gemini model
type Client struct {
	models  *genai.Models
	model   string
	timeout time.Duration
	log     *logrus.Logger
}

// NewClient initializes a Gemini client from the API key in cfg
func NewClient(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*Client, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Client{
		models:  client.Models,
		model:   cfg.GeminiModel,
		timeout: cfg.LLMTimeout,
		log:     log,
	}, nil
}

// buildConfig sets the system instruction for one request
func (c *Client) buildConfig(systemPrompt string) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.4)),
	}
	if systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		}
	}
	return config
}

// Generate sends the prompt to the model and returns its text reply
func (c *Client) Generate(ctx context.Context, systemPrompt, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	result, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), c.buildConfig(systemPrompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty reply")
	}

	c.log.WithFields(logrus.Fields{
		"model":       c.model,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Gemini reply generated")
	return text, nil
}
