// Package segmenter groups timed fragments into readable paragraphs.
package segmenter

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/nguyentantai21042004/caption-doc/internal/models"
)

const (
	DefaultMaxGap = 1.5
	DefaultMaxLen = 300
)

// ErrInvalidFragments is returned for negative durations or decreasing start times
var ErrInvalidFragments = errors.New("invalid fragment sequence")

// Options bounds a paragraph. MaxGap is seconds, MaxLen is runes.
type Options struct {
	MaxGap float64
	MaxLen int
}

// DefaultOptions returns MaxGap 1.5s and MaxLen 300
func DefaultOptions() Options {
	return Options{MaxGap: DefaultMaxGap, MaxLen: DefaultMaxLen}
}

// Segment groups fragments into paragraphs.
//
// A new paragraph starts when the pause since the previous fragment's end is
// strictly greater than MaxGap (to the millisecond), or when appending the next fragment would push
// a non-empty paragraph past MaxLen runes. A fragment longer than MaxLen is
// never split. Blank fragments are skipped.
func Segment(fragments []models.TimedFragment, opts Options) ([]models.Paragraph, error) {
	if err := Validate(fragments); err != nil {
		return nil, err
	}
	if opts.MaxGap <= 0 {
		opts.MaxGap = DefaultMaxGap
	}
	if opts.MaxLen <= 0 {
		opts.MaxLen = DefaultMaxLen
	}

	var (
		paragraphs   []models.Paragraph
		lines        []string
		currentChars int
		prevEnd      float64
	)

	flush := func() {
		if len(lines) > 0 {
			paragraphs = append(paragraphs, models.Paragraph(strings.Join(lines, "\n")))
		}
		lines = nil
		currentChars = 0
	}

	for _, f := range fragments {
		text := strings.TrimSpace(f.Text)
		if text == "" {
			continue
		}
		n := utf8.RuneCountInString(text)

		if len(lines) > 0 {
			if gapExceeds(f.Start, prevEnd, opts.MaxGap) || currentChars+n > opts.MaxLen {
				flush()
			}
		}

		lines = append(lines, text)
		currentChars += n
		prevEnd = f.End
	}
	flush()

	if paragraphs == nil {
		return []models.Paragraph{}, nil
	}
	return paragraphs, nil
}

// gapExceeds compares the pause in whole milliseconds. Subtitle timestamps
// have millisecond precision, and float subtraction of two of them can land
// a hair above an exact MaxGap.
func gapExceeds(start, prevEnd, maxGap float64) bool {
	return math.Round((start-prevEnd)*1000) > math.Round(maxGap*1000)
}

// Validate checks that every fragment has End >= Start and that start times
// never decrease
func Validate(fragments []models.TimedFragment) error {
	for i, f := range fragments {
		if f.End < f.Start {
			return fmt.Errorf("%w: fragment %d ends at %.3fs before it starts at %.3fs",
				ErrInvalidFragments, i, f.End, f.Start)
		}
		if i > 0 && f.Start < fragments[i-1].Start {
			return fmt.Errorf("%w: fragment %d starts at %.3fs, before fragment %d at %.3fs",
				ErrInvalidFragments, i, f.Start, i-1, fragments[i-1].Start)
		}
	}
	return nil
}

// Join renders paragraphs separated by a blank line
func Join(paragraphs []models.Paragraph) string {
	parts := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		parts[i] = string(p)
	}
	return strings.Join(parts, "\n\n")
}

// Lines joins fragment texts one per line with no paragraph grouping
func Lines(fragments []models.TimedFragment) string {
	var parts []string
	for _, f := range fragments {
		if text := strings.TrimSpace(f.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}
