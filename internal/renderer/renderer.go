// Package renderer lays out transcripts and metadata as Markdown documents.
package renderer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nguyentantai21042004/caption-doc/internal/models"
)

// ErrInvalidMetadata is returned when required metadata is missing or unknown
var ErrInvalidMetadata = errors.New("invalid document metadata")

const DefaultAttribution = "Generated by [caption-doc](https://github.com/nguyentantai21042004/caption-doc)"

// Options mirrors the markdown and knowledge_mode config sections
type Options struct {
	IncludeMetadata    bool
	AddSummaryAtTop    bool
	ShowChapterSummary bool
	ChapterNumbering   bool
	Attribution        string
}

// Body is either plain transcript text or a restructured result
type Body struct {
	Text       string
	Structured *models.StructuredResult
}

// Render produces the Markdown document. Standard mode renders Body.Text;
// knowledge mode requires Body.Structured.
func Render(meta models.DocumentMetadata, body Body, opts Options) (string, error) {
	if err := validate(meta, body); err != nil {
		return "", err
	}
	if opts.Attribution == "" {
		opts.Attribution = DefaultAttribution
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", strings.TrimSpace(meta.Title))

	if meta.Mode == models.ModeKnowledge {
		renderKnowledge(&b, meta, body.Structured, opts)
	} else {
		renderStandard(&b, meta, body.Text, opts)
	}

	b.WriteString("---\n\n")
	b.WriteString(opts.Attribution)
	b.WriteString("\n")

	return b.String(), nil
}

func validate(meta models.DocumentMetadata, body Body) error {
	if strings.TrimSpace(meta.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidMetadata)
	}
	if !meta.SourceKind.Valid() {
		return fmt.Errorf("%w: unknown source kind %q", ErrInvalidMetadata, meta.SourceKind)
	}
	if !meta.Mode.Valid() {
		return fmt.Errorf("%w: unknown processing mode %q", ErrInvalidMetadata, meta.Mode)
	}
	if meta.Mode == models.ModeKnowledge && body.Structured == nil {
		return fmt.Errorf("%w: knowledge mode needs a structured body", ErrInvalidMetadata)
	}
	return nil
}

func renderStandard(b *strings.Builder, meta models.DocumentMetadata, text string, opts Options) {
	if opts.IncludeMetadata {
		renderMetadata(b, meta)
		b.WriteString("## Transcript\n\n")
	}
	b.WriteString(strings.TrimSpace(text))
	b.WriteString("\n\n")
}

func renderKnowledge(b *strings.Builder, meta models.DocumentMetadata, res *models.StructuredResult, opts Options) {
	if opts.AddSummaryAtTop && res.OverallSummary != "" {
		b.WriteString("## Overall Summary\n\n")
		b.WriteString(res.OverallSummary)
		b.WriteString("\n\n")
	}

	if opts.IncludeMetadata {
		renderMetadata(b, meta)
	}

	b.WriteString("## Detailed Content\n\n")
	for i, ch := range res.Chapters {
		if opts.ChapterNumbering {
			fmt.Fprintf(b, "### %d. %s\n\n", i+1, ch.Title)
		} else {
			fmt.Fprintf(b, "### %s\n\n", ch.Title)
		}

		if opts.ShowChapterSummary && ch.Summary != "" {
			b.WriteString(quote(ch.Summary))
			b.WriteString("\n\n")
		}

		b.WriteString(strings.TrimSpace(ch.Body))
		b.WriteString("\n\n")
	}
}

func renderMetadata(b *strings.Builder, meta models.DocumentMetadata) {
	b.WriteString("## Video Info\n\n")
	if meta.URL != "" {
		fmt.Fprintf(b, "- **Link**: %s\n", meta.URL)
	}
	if meta.UploadDate != "" {
		fmt.Fprintf(b, "- **Upload Date**: %s\n", FormatDate(meta.UploadDate))
	}
	if meta.Duration > 0 {
		fmt.Fprintf(b, "- **Duration**: %s\n", FormatDuration(meta.Duration))
	}
	fmt.Fprintf(b, "- **Source**: %s\n", meta.SourceKind)
	fmt.Fprintf(b, "- **Mode**: %s\n", meta.Mode)
	if meta.Verified {
		note := meta.VerificationNote
		if note == "" {
			note = "verified"
		}
		fmt.Fprintf(b, "- **Verification**: %s\n", note)
	}
	b.WriteString("\n")
}

func quote(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight("> "+strings.TrimSpace(l), " ")
	}
	return strings.Join(lines, "\n")
}
