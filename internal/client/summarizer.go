package client

import (
	"context"
	"fmt"

	"github.com/notevault/backend/internal/config"
	"google.golang.org/genai"
)

type SummarizerClientConfig struct {
	APIKey string
	Model  string
}

type SummarizerClient struct {
	client *genai.Client
	model  string
}

func NewSummarizerClient(cfg config.SummarizerConfig) (*SummarizerClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing AI_API_KEY")
	}
	clientCfg := SummarizerClientConfig{APIKey: cfg.APIKey, Model: "gemini-2.0-flash"}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: clientCfg.APIKey})
	if err != nil {
		return nil, err
	}
	return &SummarizerClient{client: client, model: clientCfg.Model}, nil
}

func (c *SummarizerClient) Summarize(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf("Summarize the following note in one short paragraph:\n\n%s", text)
	res, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	summary := res.Text()
	if summary == "" {
		return "", fmt.Errorf("empty summary result")
	}
	return summary, nil
}
