// Package subtitle parses caption files into timed fragments.
package subtitle

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/asticode/go-astisub"

	"github.com/nguyentantai21042004/caption-doc/internal/models"
)

// ErrUnsupportedFormat is returned for file extensions with no parser
var ErrUnsupportedFormat = errors.New("unsupported subtitle format")

// Extensions lists the subtitle formats Parse understands
var Extensions = []string{".srt", ".vtt", ".ass", ".json"}

var (
	reTag      = regexp.MustCompile(`<[^>]+>`)
	reAssStyle = regexp.MustCompile(`\{[^}]*\}`)
)

type reader func(io.Reader) (*astisub.Subtitles, error)

var readers = map[string]reader{
	".srt": astisub.ReadFromSRT,
	".vtt": astisub.ReadFromWebVTT,
	".ass": astisub.ReadFromSSA,
}

// IsSubtitleFile reports whether path has a supported subtitle extension
func IsSubtitleFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Parse picks a parser by the extension of name
func Parse(name, content string) ([]models.TimedFragment, error) {
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")

	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".json" {
		return parseBilibiliJSON(content)
	}

	read, ok := readers[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(name))
	}

	subs, err := read(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", ext, err)
	}
	return fromItems(subs.Items), nil
}

// fromItems keeps the timing of each cue and flattens its styled lines to
// plain text. Cues with no text are dropped.
func fromItems(items []*astisub.Item) []models.TimedFragment {
	fragments := make([]models.TimedFragment, 0, len(items))
	for _, item := range items {
		lines := make([]string, 0, len(item.Lines))
		for _, line := range item.Lines {
			if text := lineText(line); text != "" {
				lines = append(lines, text)
			}
		}

		text := strings.TrimSpace(cleanMarkup(strings.Join(lines, "\n")))
		if text == "" {
			continue
		}
		fragments = append(fragments, models.TimedFragment{
			Text:  text,
			Start: item.StartAt.Seconds(),
			End:   item.EndAt.Seconds(),
		})
	}
	return fragments
}

// lineText joins the styled runs of a line. Runs meet with a space, except
// next to Han characters, which are written without word breaks.
func lineText(line astisub.Line) string {
	var b strings.Builder
	for _, it := range line.Items {
		text := strings.TrimSpace(it.Text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			prev, _ := utf8.DecodeLastRuneInString(b.String())
			next, _ := utf8.DecodeRuneInString(text)
			if !unicode.Is(unicode.Han, prev) && !unicode.Is(unicode.Han, next) {
				b.WriteByte(' ')
			}
		}
		b.WriteString(text)
	}
	return b.String()
}

// cleanMarkup removes markup a reader left in the text: HTML-like tags,
// ASS override blocks and ASS line breaks
func cleanMarkup(text string) string {
	text = reTag.ReplaceAllString(text, "")
	text = reAssStyle.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, `\N`, "\n")
	text = strings.ReplaceAll(text, `\n`, "\n")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}

type bilibiliSubtitle struct {
	Body []struct {
		From    float64 `json:"from"`
		To      float64 `json:"to"`
		Content string  `json:"content"`
	} `json:"body"`
}

// parseBilibiliJSON reads the {"body":[{"from","to","content"}]} caption format
func parseBilibiliJSON(content string) ([]models.TimedFragment, error) {
	var sub bilibiliSubtitle
	if err := json.Unmarshal([]byte(content), &sub); err != nil {
		return nil, fmt.Errorf("decode bilibili subtitle: %w", err)
	}

	fragments := make([]models.TimedFragment, 0, len(sub.Body))
	for _, item := range sub.Body {
		text := strings.TrimSpace(item.Content)
		if text == "" {
			continue
		}
		fragments = append(fragments, models.TimedFragment{
			Text:  text,
			Start: item.From,
			End:   item.To,
		})
	}
	return fragments, nil
}
