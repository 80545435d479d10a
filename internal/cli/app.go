package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/nguyentantai21042004/caption-doc/internal/config"
	"github.com/nguyentantai21042004/caption-doc/internal/history"
	"github.com/nguyentantai21042004/caption-doc/internal/llm"
	"github.com/nguyentantai21042004/caption-doc/internal/logger"
	"github.com/nguyentantai21042004/caption-doc/internal/normalizer"
	"github.com/nguyentantai21042004/caption-doc/internal/processor"
	"github.com/nguyentantai21042004/caption-doc/internal/source"
	"github.com/nguyentantai21042004/caption-doc/internal/verifier"
	"github.com/nguyentantai21042004/caption-doc/pkg/executor"
)

// app holds the wired pipeline for one command invocation
type app struct {
	cfg       *config.Config
	logger    logger.Logger
	fetcher   source.Fetcher
	processor processor.Processor
	close     func() error
}

func (a *app) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}

// buildApp is swapped out in tests
var buildApp = newApp

func newApp(ctx context.Context, cfg *config.Config, reprocess bool) (*app, error) {
	log := logger.New(cfg.Logging.Level)
	exec := executor.New()
	checkTools(ctx, cfg, exec, log)

	fetcher := source.NewFetcher(cfg, exec, log)
	transcriber := source.NewTranscriber(cfg, exec, log)

	var client llm.Client
	if cfg.LLM.Enabled {
		c, err := llm.New(ctx, cfg.LLM, log)
		switch {
		case errors.Is(err, llm.ErrNoAPIKey):
		case err != nil:
			return nil, fmt.Errorf("create llm client: %w", err)
		default:
			client = c
		}
	}

	var (
		ledger  history.Ledger
		closeFn func() error
	)
	if cfg.History.Path != "" {
		l, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		ledger = l
		closeFn = l.Close
	}

	proc := processor.New(cfg, processor.Options{
		Fetcher:     fetcher,
		Selector:    source.NewSelector(cfg, fetcher, transcriber, log),
		Transcriber: transcriber,
		Normalizer:  normalizer.New(log),
		Verifier:    verifier.New(ctx, cfg, client, log),
		Ledger:      ledger,
		Reprocess:   reprocess,
	}, log)

	return &app{
		cfg:       cfg,
		logger:    log,
		fetcher:   fetcher,
		processor: proc,
		close:     closeFn,
	}, nil
}

// checkTools warns about external programs missing from PATH
func checkTools(ctx context.Context, cfg *config.Config, exec executor.Executor, log logger.Logger) {
	tools := []struct{ name, purpose string }{
		{cfg.Downloader.Binary, "video metadata and captions"},
		{cfg.Downloader.FFmpegBinary, "audio extraction for ASR"},
		{cfg.Whisper.BinaryPath, "speech recognition"},
	}
	for _, t := range tools {
		if path, err := exec.LookPath(t.name); err != nil {
			log.Warn(ctx, "%s not found, %s will fail", t.name, t.purpose)
		} else {
			log.Debug(ctx, "Using %s", path)
		}
	}
}
