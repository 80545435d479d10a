package source

import (
	"github.com/nguyentantai21042004/caption-doc/internal/config"
	"github.com/nguyentantai21042004/caption-doc/internal/logger"
	"github.com/nguyentantai21042004/caption-doc/pkg/executor"
)

type implFetcher struct {
	cfg      *config.Config
	executor executor.Executor
	logger   logger.Logger
}

// NewFetcher creates a yt-dlp backed Fetcher
func NewFetcher(cfg *config.Config, exec executor.Executor, log logger.Logger) Fetcher {
	return &implFetcher{
		cfg:      cfg,
		executor: exec,
		logger:   log,
	}
}

type implTranscriber struct {
	cfg      *config.Config
	executor executor.Executor
	logger   logger.Logger
}

// NewTranscriber creates an ffmpeg + whisper.cpp Transcriber
func NewTranscriber(cfg *config.Config, exec executor.Executor, log logger.Logger) Transcriber {
	return &implTranscriber{
		cfg:      cfg,
		executor: exec,
		logger:   log,
	}
}

type implSelector struct {
	cfg         *config.Config
	fetcher     Fetcher
	transcriber Transcriber
	logger      logger.Logger
}

// NewSelector creates a caption-first Selector
func NewSelector(cfg *config.Config, fetcher Fetcher, transcriber Transcriber, log logger.Logger) Selector {
	return &implSelector{
		cfg:         cfg,
		fetcher:     fetcher,
		transcriber: transcriber,
		logger:      log,
	}
}
