package watcher

import "context"

// Watcher monitors the inbox for subtitle and media files
type Watcher interface {
	// Start blocks until ctx is cancelled or Stop is called, then waits
	// for in-flight handlers
	Start(ctx context.Context) error
	Stop() error
}

// EventHandler turns one inbox file into a document. A nil error archives
// the file under ProcessedDir.
type EventHandler func(ctx context.Context, filePath string) error
