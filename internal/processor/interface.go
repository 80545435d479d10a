package processor

import (
	"context"
	"time"

	"github.com/nguyentantai21042004/caption-doc/internal/models"
)

// Processor turns videos and local files into Markdown documents
type Processor interface {
	// ProcessVideo runs the full pipeline for one video
	ProcessVideo(ctx context.Context, info models.VideoInfo, forceASR bool) (Result, error)
	// ProcessFile handles a local subtitle or media file
	ProcessFile(ctx context.Context, path string) (Result, error)
	// ProcessBatch runs ProcessVideo over videos on a bounded, throttled pool
	ProcessBatch(ctx context.Context, videos []models.VideoInfo, forceASR bool) Stats
}

// Result describes one written document
type Result struct {
	VideoID    string
	Title      string
	OutputPath string
	DocxPath   string
	SourceKind models.SourceKind
	Mode       models.ProcessingMode
	Verified   bool
	Elapsed    time.Duration
}

// Failure is a video that could not be processed
type Failure struct {
	VideoID string
	Title   string
	Err     error
}

// Stats summarizes a batch
type Stats struct {
	Total     int
	Succeeded int
	Skipped   int
	Cancelled int
	Failures  []Failure
	Results   []Result
}

func (s Stats) Failed() int {
	return len(s.Failures)
}
