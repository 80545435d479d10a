package history

import (
	"context"
	"time"

	"github.com/nguyentantai21042004/caption-doc/internal/models"
)

// Entry is one processed video
type Entry struct {
	VideoID     string
	Title       string
	OutputPath  string
	SourceKind  models.SourceKind
	Mode        models.ProcessingMode
	ProcessedAt time.Time
}

// Ledger remembers which videos already produced a document
type Ledger interface {
	Seen(ctx context.Context, videoID string) (bool, error)
	Record(ctx context.Context, e Entry) error
	Get(ctx context.Context, videoID string) (Entry, bool, error)
	Close() error
}
