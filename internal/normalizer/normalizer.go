// Package normalizer converts traditional Chinese script to simplified.
package normalizer

import (
	"context"
	"fmt"
	"sync"

	"github.com/longbridgeapp/opencc"

	"github.com/nguyentantai21042004/caption-doc/internal/logger"
	"github.com/nguyentantai21042004/caption-doc/internal/models"
)

// Converter performs a script conversion
type Converter interface {
	Convert(text string) (string, error)
}

// Normalizer wraps a Converter and never fails: on any converter error the
// input text is returned unchanged.
type Normalizer struct {
	logger logger.Logger

	once    sync.Once
	build   func() (Converter, error)
	conv    Converter
	initErr error
}

// New creates a Normalizer backed by OpenCC "t2s". The dictionary is loaded on
// first use.
func New(log logger.Logger) *Normalizer {
	return &Normalizer{
		logger: log,
		build: func() (Converter, error) {
			return opencc.New("t2s")
		},
	}
}

// NewWithConverter creates a Normalizer around an existing converter
func NewWithConverter(conv Converter, log logger.Logger) *Normalizer {
	return &Normalizer{
		logger: log,
		build:  func() (Converter, error) { return conv, nil },
	}
}

func (n *Normalizer) converter() (Converter, error) {
	n.once.Do(func() {
		n.conv, n.initErr = n.build()
	})
	return n.conv, n.initErr
}

// Convert applies the conversion and reports why it did not, if it did not
func (n *Normalizer) Convert(text string) models.Outcome[string] {
	conv, err := n.converter()
	if err != nil {
		return models.Absent[string](models.ReasonConvertFailed, fmt.Errorf("load converter: %w", err))
	}

	out, err := conv.Convert(text)
	if err != nil {
		return models.Absent[string](models.ReasonConvertFailed, fmt.Errorf("convert: %w", err))
	}
	return models.Found(out)
}

// Normalize returns text converted to simplified script when enabled, and the
// original text when disabled or when conversion fails.
func (n *Normalizer) Normalize(ctx context.Context, text string, enabled bool) string {
	if !enabled || text == "" {
		return text
	}

	res := n.Convert(text)
	if !res.OK() {
		n.logger.Warn(ctx, "Script conversion skipped, keeping original text: %v", res.Err)
		return text
	}
	return res.Value
}
