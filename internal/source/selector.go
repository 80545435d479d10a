package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nguyentantai21042004/caption-doc/internal/models"
)

// ErrEmptyTranscript is returned when ASR produced no text
var ErrEmptyTranscript = errors.New("transcript is empty")

// Select returns captions when available, otherwise an ASR transcript.
// forceASR skips the caption attempt.
func (s *implSelector) Select(ctx context.Context, info models.VideoInfo, forceASR bool) (models.Transcript, error) {
	if err := os.MkdirAll(s.cfg.Paths.Temp, 0755); err != nil {
		return models.Transcript{}, fmt.Errorf("create temp dir: %w", err)
	}
	// Isolated work dir per video so parallel runs never share files
	workDir, err := os.MkdirTemp(s.cfg.Paths.Temp, "video-*")
	if err != nil {
		return models.Transcript{}, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	if !forceASR {
		fragments, err := s.fetcher.Captions(ctx, info, workDir)
		if err == nil {
			s.logger.Info(ctx, "Using captions: %d fragments", len(fragments))
			return models.Transcript{Fragments: fragments, Kind: models.SourceCaption}, nil
		}
		if ctx.Err() != nil {
			return models.Transcript{}, ctx.Err()
		}
		s.logger.Warn(ctx, "Captions unavailable for %s, falling back to ASR: %v", info.ID, err)
	}

	audioPath, err := s.fetcher.DownloadAudio(ctx, info, workDir)
	if err != nil {
		return models.Transcript{}, fmt.Errorf("asr: %w", err)
	}
	defer s.keepAudio(ctx, audioPath)

	fragments, err := s.transcriber.Transcribe(ctx, audioPath, workDir)
	if err != nil {
		return models.Transcript{}, fmt.Errorf("asr: %w", err)
	}
	if !hasText(fragments) {
		return models.Transcript{}, fmt.Errorf("asr: %w", ErrEmptyTranscript)
	}

	return models.Transcript{Fragments: fragments, Kind: models.SourceASR}, nil
}

// keepAudio moves the downloaded audio out of the work dir when keep_audio is set
func (s *implSelector) keepAudio(ctx context.Context, audioPath string) {
	if !s.cfg.Processing.KeepAudio {
		return
	}
	dest := filepath.Join(s.cfg.Paths.Temp, filepath.Base(audioPath))
	if err := os.Rename(audioPath, dest); err != nil {
		s.logger.Warn(ctx, "Failed to keep audio %s: %v", audioPath, err)
		return
	}
	s.logger.Info(ctx, "Kept audio: %s", dest)
}
