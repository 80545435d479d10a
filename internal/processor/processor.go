package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nguyentantai21042004/caption-doc/internal/history"
	"github.com/nguyentantai21042004/caption-doc/internal/models"
	"github.com/nguyentantai21042004/caption-doc/internal/renderer"
	"github.com/nguyentantai21042004/caption-doc/internal/segmenter"
	"github.com/nguyentantai21042004/caption-doc/internal/source"
	"github.com/nguyentantai21042004/caption-doc/internal/subtitle"
	"github.com/nguyentantai21042004/caption-doc/internal/verifier"
)

// ErrUnsupportedFile is returned by ProcessFile for files that are neither subtitles nor media
var ErrUnsupportedFile = errors.New("unsupported input file")

// ProcessVideo orchestrates the pipeline for a single video
func (p *implProcessor) ProcessVideo(ctx context.Context, info models.VideoInfo, forceASR bool) (Result, error) {
	startTime := time.Now()
	info = p.enrich(ctx, info)

	p.logger.Info(ctx, "========================================")
	p.logger.Info(ctx, "Processing video: %s (%s)", info.Title, info.ID)
	p.logger.Info(ctx, "========================================")

	// Step 1: Pick a transcript source
	transcript, err := p.selector.Select(ctx, info, forceASR)
	if err != nil {
		return Result{}, fmt.Errorf("select transcript: %w", err)
	}

	// Steps 2-5: normalize, segment, verify, render and write
	res, err := p.produce(ctx, info, transcript)
	if err != nil {
		return Result{}, err
	}
	res.Elapsed = time.Since(startTime)

	p.logger.Info(ctx, "Document written: %s (%s, %s, %s)", res.OutputPath, res.SourceKind, res.Mode, res.Elapsed.Round(time.Millisecond))
	return res, nil
}

// ProcessFile builds a document from a local subtitle or media file, titled after the file name
func (p *implProcessor) ProcessFile(ctx context.Context, path string) (Result, error) {
	startTime := time.Now()
	base := filepath.Base(path)
	info := models.VideoInfo{
		ID:    "file:" + base,
		Title: strings.TrimSuffix(base, filepath.Ext(base)),
	}

	p.logger.Info(ctx, "Processing file: %s", path)

	var transcript models.Transcript
	switch {
	case subtitle.IsSubtitleFile(path):
		data, err := os.ReadFile(path)
		if err != nil {
			return Result{}, fmt.Errorf("read subtitle: %w", err)
		}
		fragments, err := subtitle.Parse(path, string(data))
		if err != nil {
			return Result{}, fmt.Errorf("parse subtitle: %w", err)
		}
		transcript = models.Transcript{Fragments: fragments, Kind: models.SourceCaption}

	case source.IsMediaFile(path):
		fragments, err := p.transcribeFile(ctx, path)
		if err != nil {
			return Result{}, fmt.Errorf("transcribe: %w", err)
		}
		transcript = models.Transcript{Fragments: fragments, Kind: models.SourceASR}

	default:
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedFile, base)
	}

	if len(transcript.Fragments) > 0 {
		info.Duration = transcript.Duration()
	}

	res, err := p.produce(ctx, info, transcript)
	if err != nil {
		return Result{}, err
	}
	res.Elapsed = time.Since(startTime)

	p.logger.Info(ctx, "Document written: %s", res.OutputPath)
	return res, nil
}

func (p *implProcessor) transcribeFile(ctx context.Context, path string) ([]models.TimedFragment, error) {
	if err := os.MkdirAll(p.cfg.Paths.Temp, 0755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	workDir, err := os.MkdirTemp(p.cfg.Paths.Temp, "file-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	return p.transcriber.Transcribe(ctx, path, workDir)
}

// enrich fills metadata that flat channel listings leave out
func (p *implProcessor) enrich(ctx context.Context, info models.VideoInfo) models.VideoInfo {
	if p.fetcher == nil || info.URL == "" || (info.UploadDate != "" && info.Duration > 0) {
		return info
	}

	full, err := p.fetcher.VideoInfo(ctx, info.URL)
	if err != nil {
		p.logger.Warn(ctx, "Could not load full metadata for %s: %v", info.ID, err)
		return info
	}
	if full.Title == "" {
		full.Title = info.Title
	}
	return full
}

// produce runs everything after transcript selection
func (p *implProcessor) produce(ctx context.Context, info models.VideoInfo, transcript models.Transcript) (Result, error) {
	enabled := p.cfg.Markdown.ConvertToSimplified
	info.Title = p.normalizer.Normalize(ctx, info.Title, enabled)
	info.Description = p.normalizer.Normalize(ctx, info.Description, enabled)
	fragments := p.normalizeFragments(ctx, transcript.Fragments)

	text := p.layout(ctx, fragments)
	if strings.TrimSpace(text) == "" {
		return Result{}, fmt.Errorf("transcript for %s has no text", info.ID)
	}

	meta := models.DocumentMetadata{
		Title:      info.Title,
		URL:        info.URL,
		UploadDate: info.UploadDate,
		Duration:   info.Duration,
		SourceKind: transcript.Kind,
		Mode:       models.ModeStandard,
	}
	body := p.verify(ctx, info, text, &meta)

	doc, err := renderer.Render(meta, body, p.renderOptions())
	if err != nil {
		return Result{}, fmt.Errorf("render: %w", err)
	}

	outputPath, err := p.writeDocument(ctx, info.Title, doc)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		VideoID:    info.ID,
		Title:      info.Title,
		OutputPath: outputPath,
		SourceKind: meta.SourceKind,
		Mode:       meta.Mode,
		Verified:   meta.Verified,
	}

	if p.cfg.Markdown.ExportDOCX {
		docxPath := strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".docx"
		if err := renderer.ExportDOCX(doc, docxPath); err != nil {
			p.logger.Warn(ctx, "DOCX export failed: %v", err)
		} else {
			res.DocxPath = docxPath
		}
	}

	p.record(ctx, res)
	return res, nil
}

// normalizeFragments converts every fragment or, on the first failure, none
func (p *implProcessor) normalizeFragments(ctx context.Context, fragments []models.TimedFragment) []models.TimedFragment {
	if !p.cfg.Markdown.ConvertToSimplified {
		return fragments
	}

	out := make([]models.TimedFragment, len(fragments))
	for i, f := range fragments {
		res := p.normalizer.Convert(f.Text)
		if !res.OK() {
			p.logger.Warn(ctx, "Script conversion skipped, keeping original text: %v", res.Err)
			return fragments
		}
		f.Text = res.Value
		out[i] = f
	}
	return out
}

// layout segments fragments into paragraphs, or lists them line by line
func (p *implProcessor) layout(ctx context.Context, fragments []models.TimedFragment) string {
	if !p.cfg.Markdown.FormatParagraphs {
		return segmenter.Lines(fragments)
	}

	paragraphs, err := segmenter.Segment(fragments, segmenter.Options{
		MaxGap: p.cfg.Markdown.MaxGap,
		MaxLen: p.cfg.Markdown.ParagraphLength,
	})
	if err != nil {
		p.logger.Warn(ctx, "Paragraph formatting skipped: %v", err)
		return segmenter.Lines(fragments)
	}
	return segmenter.Join(paragraphs)
}

// verify applies the configured enhancement and updates meta to match
func (p *implProcessor) verify(ctx context.Context, info models.VideoInfo, text string, meta *models.DocumentMetadata) renderer.Body {
	body := renderer.Body{Text: text}

	switch p.verifier.Mode() {
	case verifier.ModeKnowledge:
		res := p.verifier.Restructure(ctx, text, info.Title, info.Description)
		if !res.OK() {
			p.logger.Warn(ctx, "Knowledge restructuring unavailable (%s), using standard layout", res.Reason)
			return body
		}
		structured := res.Value
		body.Structured = &structured
		meta.Mode = models.ModeKnowledge
		meta.Verified = true
		note := fmt.Sprintf("restructured into %d chapters, coverage %.0f%%", len(structured.Chapters), structured.Coverage*100)
		if len(structured.Warnings) > 0 {
			note += "; warnings: " + strings.Join(structured.Warnings, "; ")
		}
		meta.VerificationNote = note

	case verifier.ModeProofread:
		res := p.verifier.Proofread(ctx, text, info.Title)
		if !res.OK() {
			p.logger.Warn(ctx, "Proofreading unavailable (%s), keeping transcript as is", res.Reason)
			return body
		}
		body.Text = res.Value
		meta.Verified = true
		meta.VerificationNote = "proofread"

	case verifier.ModeClean:
		if res := verifier.Clean(text); res.OK() {
			body.Text = res.Value
		}
	}

	return body
}

func (p *implProcessor) renderOptions() renderer.Options {
	return renderer.Options{
		IncludeMetadata:    p.cfg.Markdown.IncludeMetadata,
		AddSummaryAtTop:    p.cfg.KnowledgeMode.AddSummaryAtTop,
		ShowChapterSummary: p.cfg.KnowledgeMode.ShowChapterSummary,
		ChapterNumbering:   p.cfg.KnowledgeMode.ChapterNumbering,
	}
}

// record stores a successful run; failures only cost a rerun later
func (p *implProcessor) record(ctx context.Context, res Result) {
	if p.ledger == nil || res.VideoID == "" {
		return
	}
	err := p.ledger.Record(ctx, history.Entry{
		VideoID:    res.VideoID,
		Title:      res.Title,
		OutputPath: res.OutputPath,
		SourceKind: res.SourceKind,
		Mode:       res.Mode,
	})
	if err != nil {
		p.logger.Warn(ctx, "Failed to record history for %s: %v", res.VideoID, err)
	}
}
