package processor

import (
	"github.com/nguyentantai21042004/caption-doc/internal/config"
	"github.com/nguyentantai21042004/caption-doc/internal/history"
	"github.com/nguyentantai21042004/caption-doc/internal/logger"
	"github.com/nguyentantai21042004/caption-doc/internal/normalizer"
	"github.com/nguyentantai21042004/caption-doc/internal/source"
	"github.com/nguyentantai21042004/caption-doc/internal/verifier"
)

// Options wires the pipeline stages. Fetcher and Ledger may be nil.
type Options struct {
	Fetcher     source.Fetcher
	Selector    source.Selector
	Transcriber source.Transcriber
	Normalizer  *normalizer.Normalizer
	Verifier    verifier.Verifier
	Ledger      history.Ledger
	// Reprocess ignores the history ledger when deciding what to skip
	Reprocess bool
}

type implProcessor struct {
	cfg         *config.Config
	fetcher     source.Fetcher
	selector    source.Selector
	transcriber source.Transcriber
	normalizer  *normalizer.Normalizer
	verifier    verifier.Verifier
	ledger      history.Ledger
	reprocess   bool
	logger      logger.Logger
}

// New creates a new Processor instance
func New(cfg *config.Config, opts Options, log logger.Logger) Processor {
	return &implProcessor{
		cfg:         cfg,
		fetcher:     opts.Fetcher,
		selector:    opts.Selector,
		transcriber: opts.Transcriber,
		normalizer:  opts.Normalizer,
		verifier:    opts.Verifier,
		ledger:      opts.Ledger,
		reprocess:   opts.Reprocess,
		logger:      log,
	}
}
