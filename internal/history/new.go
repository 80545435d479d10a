package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

type implLedger struct {
	db *sql.DB
}

// Open opens or creates the SQLite ledger at path
func Open(path string) (Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}

	return &implLedger{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS processed (
	video_id     TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	output_path  TEXT NOT NULL,
	source_kind  TEXT NOT NULL,
	mode         TEXT NOT NULL,
	processed_at DATETIME NOT NULL
)`
