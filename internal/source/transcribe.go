package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nguyentantai21042004/caption-doc/internal/models"
	"github.com/nguyentantai21042004/caption-doc/internal/subtitle"
)

// MediaExtensions lists the audio and video formats Transcribe accepts
var MediaExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".webm", ".m4v", ".flv", ".mp3", ".m4a", ".wav", ".aac", ".flac", ".ogg", ".opus"}

// IsMediaFile reports whether path has a supported audio or video extension
func IsMediaFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range MediaExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Transcribe converts mediaPath to 16kHz mono WAV and runs whisper.cpp on it
func (t *implTranscriber) Transcribe(ctx context.Context, mediaPath, workDir string) ([]models.TimedFragment, error) {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.Processing.RetrievalTimeout())
	defer cancel()

	audioPath, err := t.extractAudio(ctx, mediaPath, workDir)
	if err != nil {
		return nil, fmt.Errorf("extract audio: %w", err)
	}
	defer t.cleanupTempFile(ctx, audioPath)

	srtPath, err := t.whisper(ctx, audioPath, workDir)
	if err != nil {
		return nil, fmt.Errorf("whisper transcribe: %w", err)
	}
	defer t.cleanupTempFile(ctx, srtPath)

	data, err := os.ReadFile(srtPath)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	fragments, err := subtitle.Parse(srtPath, string(data))
	if err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}

	t.logger.Info(ctx, "Transcription completed: %d segments", len(fragments))
	return fragments, nil
}

// extractAudio writes the 16kHz mono PCM WAV that whisper.cpp expects
func (t *implTranscriber) extractAudio(ctx context.Context, mediaPath, workDir string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(mediaPath), filepath.Ext(mediaPath))
	audioPath := filepath.Join(workDir, base+"_16k.wav")

	t.logger.Info(ctx, "Extracting audio: %s", mediaPath)

	args := []string{
		"-i", mediaPath,
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-threads", "0",
		"-y",
		audioPath,
	}

	if _, err := t.executor.Execute(ctx, t.cfg.Downloader.FFmpegBinary, args...); err != nil {
		return "", fmt.Errorf("ffmpeg: %w", err)
	}
	return audioPath, nil
}

// whisper runs whisper.cpp inside workDir with an absolute model path.
// The SRT lands next to the audio.
func (t *implTranscriber) whisper(ctx context.Context, audioPath, workDir string) (string, error) {
	prefix := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
	model, err := filepath.Abs(t.cfg.Whisper.Model)
	if err != nil {
		model = t.cfg.Whisper.Model
	}

	args := []string{
		"-m", model,
		"-f", audioPath,
		"-osrt",
		"-l", t.cfg.Whisper.Language,
		"-t", strconv.Itoa(t.cfg.Whisper.Threads),
		"-of", prefix,
	}
	if strings.EqualFold(t.cfg.Whisper.Device, "cpu") {
		args = append(args, "-ng")
	}

	t.logger.Info(ctx, "Starting transcription with %d threads on %s: %s",
		t.cfg.Whisper.Threads, t.cfg.Whisper.Device, filepath.Base(audioPath))

	if _, err := t.executor.ExecuteInDir(ctx, workDir, t.cfg.Whisper.BinaryPath, args...); err != nil {
		return "", err
	}
	return prefix + ".srt", nil
}

func (t *implTranscriber) cleanupTempFile(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		t.logger.Warn(ctx, "Failed to cleanup temp file %s: %v", path, err)
	} else {
		t.logger.Debug(ctx, "Cleaned up temp file: %s", path)
	}
}
