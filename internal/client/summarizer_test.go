package client

import "testing"

func TestSummarizerClientConfig(t *testing.T) {
	cfg := SummarizerClientConfig{APIKey: "key", Model: "gemini-2.0-flash"}
	if cfg.Model == "" || cfg.APIKey == "" {
		t.Fatalf("expected model and api key")
	}
}
