package llm

import (
	"context"
	"errors"
	"time"

	"github.com/nguyentantai21042004/caption-doc/internal/config"
	"github.com/nguyentantai21042004/caption-doc/internal/logger"
)

// ErrNoAPIKey is returned when the provider has no key configured
var ErrNoAPIKey = errors.New("llm: no API key configured")

// New builds the client for cfg.Provider. "gemini" uses the Gemini API; every
// other provider is treated as OpenAI-compatible at cfg.BaseURL.
func New(ctx context.Context, cfg config.LLMConfig, log logger.Logger) (Client, error) {
	keys := cfg.Keys()
	if len(keys) == 0 {
		return nil, ErrNoAPIKey
	}

	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	var client Client
	switch cfg.Provider {
	case "gemini":
		client = newGemini(keys, cfg.Model, timeout, log)
	default:
		client = newOpenAI(cfg.Provider, keys[0], cfg.BaseURL, cfg.Model, timeout)
	}

	log.Info(ctx, "LLM client ready: %s", client.Name())
	return client, nil
}
