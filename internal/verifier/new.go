package verifier

import (
	"context"

	"github.com/nguyentantai21042004/caption-doc/internal/config"
	"github.com/nguyentantai21042004/caption-doc/internal/llm"
	"github.com/nguyentantai21042004/caption-doc/internal/logger"
)

const (
	defaultKnowledgeMaxTokens = 8000
	defaultProofreadMaxTokens = 4000
	maxCoverage               = 1.5
)

type implVerifier struct {
	mode        Mode
	client      llm.Client
	logger      logger.Logger
	temperature float64
	maxTokens   int
	maxInput    int
	minCoverage float64
}

// New picks the verifier mode from cfg. client may be nil when no API key is
// configured, in which case an enabled LLM falls back to simple cleaning.
func New(ctx context.Context, cfg *config.Config, client llm.Client, log logger.Logger) Verifier {
	v := &implVerifier{
		mode:        ModeOff,
		client:      client,
		logger:      log,
		temperature: cfg.LLM.Temperature,
		maxTokens:   cfg.LLM.MaxTokens,
		maxInput:    cfg.KnowledgeMode.MaxInputChars,
		minCoverage: cfg.KnowledgeMode.MinCoverage,
	}

	switch {
	case !cfg.LLM.Enabled:
		log.Info(ctx, "LLM verification disabled")
	case client == nil:
		v.mode = ModeClean
		log.Info(ctx, "No LLM API key configured, using simple text cleanup")
	case cfg.KnowledgeMode.Enabled:
		v.mode = ModeKnowledge
		log.Info(ctx, "Knowledge mode enabled: %s", client.Name())
	default:
		v.mode = ModeProofread
		log.Info(ctx, "LLM proofreading enabled: %s", client.Name())
	}

	return v
}

func (v *implVerifier) Mode() Mode {
	return v.mode
}

func (v *implVerifier) tokens(fallback int) int {
	if v.maxTokens > 0 {
		return v.maxTokens
	}
	return fallback
}
