package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nguyentantai21042004/caption-doc/internal/models"
)

func (l *implLedger) Seen(ctx context.Context, videoID string) (bool, error) {
	_, ok, err := l.Get(ctx, videoID)
	return ok, err
}

// Record inserts or replaces the entry for e.VideoID
func (l *implLedger) Record(ctx context.Context, e Entry) error {
	if e.VideoID == "" {
		return errors.New("record history: empty video id")
	}
	if e.ProcessedAt.IsZero() {
		e.ProcessedAt = time.Now()
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO processed (video_id, title, output_path, source_kind, mode, processed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(video_id) DO UPDATE SET
			title = excluded.title,
			output_path = excluded.output_path,
			source_kind = excluded.source_kind,
			mode = excluded.mode,
			processed_at = excluded.processed_at`,
		e.VideoID, e.Title, e.OutputPath, string(e.SourceKind), string(e.Mode), e.ProcessedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}

func (l *implLedger) Get(ctx context.Context, videoID string) (Entry, bool, error) {
	var e Entry
	var kind, mode, stamp string
	row := l.db.QueryRowContext(ctx, `
		SELECT video_id, title, output_path, source_kind, mode, processed_at
		FROM processed WHERE video_id = ?`, videoID)

	err := row.Scan(&e.VideoID, &e.Title, &e.OutputPath, &kind, &mode, &stamp)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("read history: %w", err)
	}

	e.SourceKind = models.SourceKind(kind)
	e.Mode = models.ProcessingMode(mode)
	if t, err := time.Parse(time.RFC3339, stamp); err == nil {
		e.ProcessedAt = t
	}
	return e, true, nil
}

func (l *implLedger) Close() error {
	return l.db.Close()
}
