package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

const maxFilenameRunes = 200

// SanitizeFilename makes title safe to use as a file name on every platform
func SanitizeFilename(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case strings.ContainsRune(`<>:"/\|?*`, r):
			b.WriteRune('_')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}

	name := strings.Trim(b.String(), " .")
	if runes := []rune(name); len(runes) > maxFilenameRunes {
		name = strings.TrimRight(string(runes[:maxFilenameRunes]), " .")
	}
	if name == "" {
		return "unnamed"
	}
	return name
}

// UniquePath returns dir/name+ext, or dir/name_N+ext for the first free N
func UniquePath(dir, name, ext string) string {
	path := filepath.Join(dir, name+ext)
	for i := 1; ; i++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
		path = filepath.Join(dir, fmt.Sprintf("%s_%d%s", name, i, ext))
	}
}

// writeDocument writes doc under the output folder, never overwriting an existing file
func (p *implProcessor) writeDocument(ctx context.Context, title, doc string) (string, error) {
	dir := p.cfg.Paths.Output
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	name := title
	if p.cfg.Markdown.SanitizeFilename {
		name = SanitizeFilename(title)
	} else {
		name = strings.NewReplacer("/", "_", `\`, "_").Replace(strings.TrimSpace(name))
		if name == "" {
			name = "unnamed"
		}
	}

	path := UniquePath(dir, name, ".md")
	// O_EXCL so two workers racing on the same title never share a file
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if os.IsExist(err) {
		path = UniquePath(dir, name, ".md")
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	}
	if err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}

	if _, err := f.WriteString(doc); err != nil {
		f.Close()
		return "", fmt.Errorf("write document: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close document: %w", err)
	}

	p.logger.Debug(ctx, "Wrote %d bytes to %s", len(doc), path)
	return path, nil
}
