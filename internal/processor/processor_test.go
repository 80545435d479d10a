package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentantai21042004/caption-doc/internal/config"
	"github.com/nguyentantai21042004/caption-doc/internal/history"
	"github.com/nguyentantai21042004/caption-doc/internal/logger"
	"github.com/nguyentantai21042004/caption-doc/internal/models"
	"github.com/nguyentantai21042004/caption-doc/internal/normalizer"
	"github.com/nguyentantai21042004/caption-doc/internal/verifier"
)

var errBoom = errors.New("boom")

type fakeSelector struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
	kind  models.SourceKind
}

func (f *fakeSelector) Select(_ context.Context, info models.VideoInfo, forceASR bool) (models.Transcript, error) {
	f.mu.Lock()
	f.calls = append(f.calls, info.ID)
	f.mu.Unlock()

	if f.fail[info.ID] {
		return models.Transcript{}, errBoom
	}
	kind := f.kind
	if kind == "" {
		kind = models.SourceCaption
	}
	if forceASR {
		kind = models.SourceASR
	}
	return models.Transcript{Kind: kind, Fragments: []models.TimedFragment{
		{Text: "line1", Start: 0, End: 1},
		{Text: "line2", Start: 1.1, End: 2},
	}}, nil
}

type fakeTranscriber struct{}

func (fakeTranscriber) Transcribe(context.Context, string, string) ([]models.TimedFragment, error) {
	return []models.TimedFragment{{Text: "spoken", Start: 0, End: 42}}, nil
}

type fakeVerifier struct {
	mode       verifier.Mode
	structured models.Outcome[models.StructuredResult]
	proofread  models.Outcome[string]
}

func (f *fakeVerifier) Mode() verifier.Mode { return f.mode }

func (f *fakeVerifier) Restructure(context.Context, string, string, string) models.Outcome[models.StructuredResult] {
	return f.structured
}

func (f *fakeVerifier) Proofread(context.Context, string, string) models.Outcome[string] {
	return f.proofread
}

type fakeFetcher struct {
	full models.VideoInfo
}

func (f *fakeFetcher) VideoInfo(context.Context, string) (models.VideoInfo, error) { return f.full, nil }

func (f *fakeFetcher) ChannelVideos(context.Context, string, int) ([]models.VideoInfo, error) {
	return nil, nil
}

func (f *fakeFetcher) Captions(context.Context, models.VideoInfo, string) ([]models.TimedFragment, error) {
	return nil, nil
}

func (f *fakeFetcher) DownloadAudio(context.Context, models.VideoInfo, string) (string, error) {
	return "", nil
}

type replaceConverter struct{ r *strings.Replacer }

func (c replaceConverter) Convert(text string) (string, error) { return c.r.Replace(text), nil }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	cfg.Paths.Output = t.TempDir()
	cfg.Paths.Temp = t.TempDir()
	cfg.Processing.DelayBetweenRequests = 0
	cfg.Processing.MaxWorkers = 2
	return cfg
}

func testOptions(v verifier.Verifier) Options {
	if v == nil {
		v = &fakeVerifier{mode: verifier.ModeOff}
	}
	return Options{
		Selector:    &fakeSelector{},
		Transcriber: fakeTranscriber{},
		Normalizer:  normalizer.NewWithConverter(replaceConverter{strings.NewReplacer("們", "们", "課", "课", "學", "学")}, logger.Nop()),
		Verifier:    v,
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestProcessVideoStandard(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg, testOptions(nil), logger.Nop())

	res, err := p.ProcessVideo(context.Background(), models.VideoInfo{ID: "BV1", Title: "T", URL: "https://www.bilibili.com/video/BV1"}, false)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cfg.Paths.Output, "T.md"), res.OutputPath)
	assert.Equal(t, models.SourceCaption, res.SourceKind)
	assert.Equal(t, models.ModeStandard, res.Mode)
	assert.False(t, res.Verified)

	doc := readFile(t, res.OutputPath)
	assert.True(t, strings.HasPrefix(doc, "# T\n"))
	assert.Contains(t, doc, "- **Source**: caption\n")
	assert.Contains(t, doc, "## Transcript\n\nline1\nline2\n")
}

func TestProcessVideoWithoutParagraphs(t *testing.T) {
	cfg := testConfig(t)
	cfg.Markdown.FormatParagraphs = false
	cfg.Markdown.IncludeMetadata = false
	p := New(cfg, testOptions(nil), logger.Nop())

	res, err := p.ProcessVideo(context.Background(), models.VideoInfo{ID: "BV1", Title: "T"}, true)
	require.NoError(t, err)
	assert.Equal(t, models.SourceASR, res.SourceKind)
	assert.Contains(t, readFile(t, res.OutputPath), "# T\n\nline1\nline2\n")
}

func TestProcessVideoKnowledge(t *testing.T) {
	structured := models.StructuredResult{
		OverallSummary: "overview",
		Chapters:       []models.Chapter{{Title: "Intro", Summary: "short", Body: "line1 line2"}},
		Coverage:       1,
	}
	v := &fakeVerifier{mode: verifier.ModeKnowledge, structured: models.Found(structured)}
	p := New(testConfig(t), testOptions(v), logger.Nop())

	res, err := p.ProcessVideo(context.Background(), models.VideoInfo{ID: "BV1", Title: "T"}, false)
	require.NoError(t, err)
	assert.Equal(t, models.ModeKnowledge, res.Mode)
	assert.True(t, res.Verified)

	doc := readFile(t, res.OutputPath)
	assert.Contains(t, doc, "## Overall Summary\n\noverview")
	assert.Contains(t, doc, "### 1. Intro\n\n> short\n\nline1 line2\n")
	assert.Contains(t, doc, "restructured into 1 chapters, coverage 100%")
}

func TestProcessVideoKnowledgeShowsWarnings(t *testing.T) {
	structured := models.StructuredResult{
		Chapters: []models.Chapter{{Title: "Intro", Body: "line1"}},
		Coverage: 0.4,
		Warnings: []string{
			"transcript truncated to 10 characters before restructuring",
			"chapter bodies cover 40% of the transcript",
		},
	}
	v := &fakeVerifier{mode: verifier.ModeKnowledge, structured: models.Found(structured)}
	p := New(testConfig(t), testOptions(v), logger.Nop())

	res, err := p.ProcessVideo(context.Background(), models.VideoInfo{ID: "BV1", Title: "T"}, false)
	require.NoError(t, err)

	doc := readFile(t, res.OutputPath)
	assert.Contains(t, doc, "- **Verification**: restructured into 1 chapters, coverage 40%; warnings: "+
		"transcript truncated to 10 characters before restructuring; chapter bodies cover 40% of the transcript\n")
}

func TestProcessVideoKnowledgeFallsBack(t *testing.T) {
	v := &fakeVerifier{
		mode:       verifier.ModeKnowledge,
		structured: models.Absent[models.StructuredResult](models.ReasonUnparseable, nil),
	}
	p := New(testConfig(t), testOptions(v), logger.Nop())

	res, err := p.ProcessVideo(context.Background(), models.VideoInfo{ID: "BV1", Title: "T"}, false)
	require.NoError(t, err)
	assert.Equal(t, models.ModeStandard, res.Mode)

	doc := readFile(t, res.OutputPath)
	assert.Contains(t, doc, "## Transcript")
	assert.NotContains(t, doc, "## Detailed Content")
}

func TestProcessVideoProofread(t *testing.T) {
	v := &fakeVerifier{mode: verifier.ModeProofread, proofread: models.Found("line1, line2.")}
	p := New(testConfig(t), testOptions(v), logger.Nop())

	res, err := p.ProcessVideo(context.Background(), models.VideoInfo{ID: "BV1", Title: "T"}, false)
	require.NoError(t, err)
	assert.True(t, res.Verified)

	doc := readFile(t, res.OutputPath)
	assert.Contains(t, doc, "line1, line2.")
	assert.Contains(t, doc, "- **Verification**: proofread\n")
}

func TestProcessVideoNormalizes(t *testing.T) {
	opts := testOptions(nil)
	opts.Selector = &normalizingSelector{}
	p := New(testConfig(t), opts, logger.Nop())

	res, err := p.ProcessVideo(context.Background(), models.VideoInfo{ID: "BV1", Title: "第一課"}, false)
	require.NoError(t, err)
	assert.Equal(t, "第一课", res.Title)
	assert.Equal(t, "第一课.md", filepath.Base(res.OutputPath))
	assert.Contains(t, readFile(t, res.OutputPath), "同学们好")
}

type normalizingSelector struct{}

func (normalizingSelector) Select(context.Context, models.VideoInfo, bool) (models.Transcript, error) {
	return models.Transcript{Kind: models.SourceCaption, Fragments: []models.TimedFragment{{Text: "同學們好", Start: 0, End: 1}}}, nil
}

func TestProcessVideoSelectFailure(t *testing.T) {
	opts := testOptions(nil)
	opts.Selector = &fakeSelector{fail: map[string]bool{"BV1": true}}
	p := New(testConfig(t), opts, logger.Nop())

	_, err := p.ProcessVideo(context.Background(), models.VideoInfo{ID: "BV1", Title: "T"}, false)
	assert.ErrorIs(t, err, errBoom)
}

func TestProcessVideoUniqueNames(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg, testOptions(nil), logger.Nop())

	first, err := p.ProcessVideo(context.Background(), models.VideoInfo{ID: "a", Title: "Same: title"}, false)
	require.NoError(t, err)
	second, err := p.ProcessVideo(context.Background(), models.VideoInfo{ID: "b", Title: "Same: title"}, false)
	require.NoError(t, err)

	assert.Equal(t, "Same_ title.md", filepath.Base(first.OutputPath))
	assert.Equal(t, "Same_ title_1.md", filepath.Base(second.OutputPath))
}

func TestProcessVideoEnrichesFlatEntries(t *testing.T) {
	opts := testOptions(nil)
	opts.Fetcher = &fakeFetcher{full: models.VideoInfo{ID: "BV1", Title: "Full", UploadDate: "20240115", Duration: 65, URL: "u"}}
	p := New(testConfig(t), opts, logger.Nop())

	res, err := p.ProcessVideo(context.Background(), models.VideoInfo{ID: "BV1", Title: "Flat", URL: "u"}, false)
	require.NoError(t, err)

	doc := readFile(t, res.OutputPath)
	assert.Contains(t, doc, "# Full\n")
	assert.Contains(t, doc, "- **Upload Date**: 2024-01-15\n")
	assert.Contains(t, doc, "- **Duration**: 1:05\n")
}

func TestProcessVideoExportsDOCX(t *testing.T) {
	cfg := testConfig(t)
	cfg.Markdown.ExportDOCX = true
	p := New(cfg, testOptions(nil), logger.Nop())

	res, err := p.ProcessVideo(context.Background(), models.VideoInfo{ID: "BV1", Title: "T"}, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.Paths.Output, "T.docx"), res.DocxPath)
	assert.FileExists(t, res.DocxPath)
}

func TestProcessFile(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg, testOptions(nil), logger.Nop())
	dir := t.TempDir()

	srt := filepath.Join(dir, "lecture.srt")
	require.NoError(t, os.WriteFile(srt, []byte("1\n00:00:00,000 --> 00:00:01,000\nhello\n"), 0644))

	res, err := p.ProcessFile(context.Background(), srt)
	require.NoError(t, err)
	assert.Equal(t, models.SourceCaption, res.SourceKind)
	assert.Equal(t, "lecture", res.Title)
	assert.Contains(t, readFile(t, res.OutputPath), "hello")

	media := filepath.Join(dir, "talk.mp3")
	require.NoError(t, os.WriteFile(media, []byte("x"), 0644))
	res, err = p.ProcessFile(context.Background(), media)
	require.NoError(t, err)
	assert.Equal(t, models.SourceASR, res.SourceKind)
	assert.Contains(t, readFile(t, res.OutputPath), "- **Duration**: 0:42\n")

	_, err = p.ProcessFile(context.Background(), filepath.Join(dir, "notes.txt"))
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestProcessBatchContinuesPastFailures(t *testing.T) {
	opts := testOptions(nil)
	sel := &fakeSelector{fail: map[string]bool{"bad": true}}
	opts.Selector = sel
	p := New(testConfig(t), opts, logger.Nop())

	videos := []models.VideoInfo{
		{ID: "a", Title: "A"},
		{ID: "bad", Title: "Bad"},
		{ID: "c", Title: "C"},
	}
	stats := p.ProcessBatch(context.Background(), videos, false)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed())
	assert.Equal(t, "bad", stats.Failures[0].VideoID)
	assert.ErrorIs(t, stats.Failures[0].Err, errBoom)
	assert.Len(t, stats.Results, 2)
	assert.ElementsMatch(t, []string{"a", "bad", "c"}, sel.calls)
}

func TestProcessBatchSkipsHistory(t *testing.T) {
	ctx := context.Background()
	ledger, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer ledger.Close()

	opts := testOptions(nil)
	opts.Ledger = ledger
	sel := &fakeSelector{}
	opts.Selector = sel
	cfg := testConfig(t)

	videos := []models.VideoInfo{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}}
	first := New(cfg, opts, logger.Nop()).ProcessBatch(ctx, videos, false)
	require.Equal(t, 2, first.Succeeded)

	second := New(cfg, opts, logger.Nop()).ProcessBatch(ctx, videos, false)
	assert.Equal(t, 2, second.Skipped)
	assert.Equal(t, 0, second.Succeeded)
	assert.Len(t, sel.calls, 2)

	opts.Reprocess = true
	third := New(cfg, opts, logger.Nop()).ProcessBatch(ctx, videos, false)
	assert.Equal(t, 2, third.Succeeded)
	assert.Len(t, sel.calls, 4)
}

func TestProcessBatchCancelled(t *testing.T) {
	opts := testOptions(nil)
	sel := &fakeSelector{}
	opts.Selector = sel
	p := New(testConfig(t), opts, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats := p.ProcessBatch(ctx, []models.VideoInfo{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}}, false)
	assert.Equal(t, 2, stats.Cancelled)
	assert.Equal(t, 0, stats.Succeeded)
	assert.Empty(t, sel.calls)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Plain title", "Plain title"},
		{`a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{"  .hidden. ", "hidden"},
		{"tab\there\x00", "tabhere"},
		{"", "unnamed"},
		{"...", "unnamed"},
		{"第一课：变量", "第一课：变量"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}

	long := strings.Repeat("字", 250)
	assert.Len(t, []rune(SanitizeFilename(long)), 200)
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, filepath.Join(dir, "a.md"), UniquePath(dir, "a", ".md"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_1.md"), nil, 0644))
	assert.Equal(t, filepath.Join(dir, "a_2.md"), UniquePath(dir, "a", ".md"))
}
