package verifier

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nguyentantai21042004/caption-doc/internal/llm"
	"github.com/nguyentantai21042004/caption-doc/internal/models"
)

// Restructure asks the model to split text into chapters. It returns an
// absent Outcome on request failure or an unusable response.
func (v *implVerifier) Restructure(ctx context.Context, text, title, description string) models.Outcome[models.StructuredResult] {
	if v.client == nil {
		return models.Absent[models.StructuredResult](models.ReasonNoAPIKey, nil)
	}
	if strings.TrimSpace(text) == "" {
		return models.Absent[models.StructuredResult](models.ReasonEmpty, nil)
	}

	var warnings []string
	sent, truncated := truncateRunes(text, v.maxInput)
	if truncated {
		msg := fmt.Sprintf("transcript truncated to %d characters before restructuring", v.maxInput)
		v.logger.Warn(ctx, "Knowledge mode: %s", msg)
		warnings = append(warnings, msg)
	}

	v.logger.Info(ctx, "Restructuring transcript with %s...", v.client.Name())

	raw, err := v.client.Complete(ctx, llm.Request{
		System:      knowledgeSystemPrompt,
		Prompt:      buildKnowledgePrompt(sent, title, description),
		Temperature: v.temperature,
		MaxTokens:   v.tokens(defaultKnowledgeMaxTokens),
	})
	if err != nil {
		v.logger.Error(ctx, "Knowledge restructuring request failed: %v", err)
		return models.Absent[models.StructuredResult](models.ReasonRequestFailed, err)
	}

	res, ok := ParseStructured(raw)
	if !ok {
		v.logger.Error(ctx, "Knowledge restructuring returned no usable JSON")
		v.logger.Debug(ctx, "Model response: %s", raw)
		return models.Absent[models.StructuredResult](models.ReasonUnparseable, fmt.Errorf("no structured payload in model response"))
	}

	res, dropped := cleanChapters(res)
	for _, d := range dropped {
		warnings = append(warnings, d)
		v.logger.Warn(ctx, "Knowledge mode: %s", d)
	}
	if len(res.Chapters) == 0 {
		return models.Absent[models.StructuredResult](models.ReasonUnparseable, fmt.Errorf("every chapter was empty"))
	}

	res.Coverage = Coverage(sent, res.Chapters)
	if res.Coverage < v.minCoverage || res.Coverage > maxCoverage {
		msg := fmt.Sprintf("chapter bodies cover %.0f%% of the transcript", res.Coverage*100)
		v.logger.Warn(ctx, "Knowledge mode: %s, content may have been dropped or invented", msg)
		warnings = append(warnings, msg)
	}
	res.Warnings = warnings

	v.logger.Info(ctx, "Restructured into %d chapters (coverage %.0f%%)", len(res.Chapters), res.Coverage*100)
	return models.Found(res)
}

// Proofread asks the model for a corrected copy of text. Output that lost
// more than half the text is rejected.
func (v *implVerifier) Proofread(ctx context.Context, text, title string) models.Outcome[string] {
	if v.client == nil {
		return models.Absent[string](models.ReasonNoAPIKey, nil)
	}
	if strings.TrimSpace(text) == "" {
		return models.Absent[string](models.ReasonEmpty, nil)
	}

	v.logger.Info(ctx, "Proofreading transcript with %s...", v.client.Name())

	raw, err := v.client.Complete(ctx, llm.Request{
		System:      proofreadSystemPrompt,
		Prompt:      buildProofreadPrompt(text, title),
		Temperature: v.temperature,
		MaxTokens:   v.tokens(defaultProofreadMaxTokens),
	})
	if err != nil {
		v.logger.Error(ctx, "Proofreading request failed: %v", err)
		return models.Absent[string](models.ReasonRequestFailed, err)
	}

	out := stripFence(raw)
	if out == "" {
		return models.Absent[string](models.ReasonEmpty, fmt.Errorf("empty proofreading response"))
	}
	if ratio := Coverage(text, []models.Chapter{{Body: out}}); ratio < 0.5 {
		v.logger.Warn(ctx, "Proofread text keeps only %.0f%% of the original, discarding it", ratio*100)
		return models.Absent[string](models.ReasonUnparseable, fmt.Errorf("proofread output too short"))
	}

	return models.Found(out)
}

// Clean trims every line and collapses runs of blank lines into one.
// It is the fallback when no API key is configured.
func Clean(text string) models.Outcome[string] {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	prevEmpty := false

	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped != "" {
			cleaned = append(cleaned, stripped)
			prevEmpty = false
		} else if !prevEmpty {
			cleaned = append(cleaned, "")
			prevEmpty = true
		}
	}

	out := strings.Join(cleaned, "\n")
	if out == text {
		return models.Absent[string](models.ReasonUnchanged, nil)
	}
	return models.Found(out)
}

// Coverage is the ratio of non-space runes in chapter bodies to non-space
// runes in source. An empty source counts as fully covered.
func Coverage(source string, chapters []models.Chapter) float64 {
	src := countNonSpace(source)
	if src == 0 {
		return 1
	}
	var body int
	for _, ch := range chapters {
		body += countNonSpace(ch.Body)
	}
	return float64(body) / float64(src)
}

func countNonSpace(s string) int {
	n := 0
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if !unicode.IsSpace(r) {
			n++
		}
		s = s[size:]
	}
	return n
}

// cleanChapters trims fields, folds each title onto one line, names untitled
// chapters and drops chapters with no body. It returns a note for each dropped chapter.
func cleanChapters(res models.StructuredResult) (models.StructuredResult, []string) {
	var (
		kept  []models.Chapter
		notes []string
	)
	for i, ch := range res.Chapters {
		ch.Title = strings.Join(strings.Fields(ch.Title), " ")
		ch.Summary = strings.TrimSpace(ch.Summary)
		ch.Body = strings.TrimSpace(ch.Body)

		if ch.Body == "" {
			notes = append(notes, fmt.Sprintf("chapter %d (%q) has no content and was dropped", i+1, ch.Title))
			continue
		}
		if ch.Title == "" {
			ch.Title = fmt.Sprintf("Chapter %d", len(kept)+1)
		}
		kept = append(kept, ch)
	}

	res.OverallSummary = strings.TrimSpace(res.OverallSummary)
	res.Chapters = kept
	return res, notes
}
