package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentantai21042004/caption-doc/internal/config"
	"github.com/nguyentantai21042004/caption-doc/internal/logger"
	"github.com/nguyentantai21042004/caption-doc/internal/models"
	"github.com/nguyentantai21042004/caption-doc/internal/processor"
)

type fakeFetcher struct {
	limit int
}

func (f *fakeFetcher) VideoInfo(_ context.Context, url string) (models.VideoInfo, error) {
	return models.VideoInfo{ID: "BV1xx411c7mD", Title: "One", URL: url}, nil
}

func (f *fakeFetcher) ChannelVideos(_ context.Context, _ string, limit int) ([]models.VideoInfo, error) {
	f.limit = limit
	return []models.VideoInfo{{ID: "a", Title: "First"}, {ID: "b", Title: "Second"}}, nil
}

func (f *fakeFetcher) Captions(context.Context, models.VideoInfo, string) ([]models.TimedFragment, error) {
	return nil, nil
}

func (f *fakeFetcher) DownloadAudio(context.Context, models.VideoInfo, string) (string, error) {
	return "", nil
}

type fakeProcessor struct {
	videos   []models.VideoInfo
	forceASR bool
	fail     bool
}

func (f *fakeProcessor) ProcessVideo(context.Context, models.VideoInfo, bool) (processor.Result, error) {
	return processor.Result{}, nil
}

func (f *fakeProcessor) ProcessFile(context.Context, string) (processor.Result, error) {
	return processor.Result{}, nil
}

func (f *fakeProcessor) ProcessBatch(_ context.Context, videos []models.VideoInfo, forceASR bool) processor.Stats {
	f.videos = videos
	f.forceASR = forceASR
	stats := processor.Stats{Total: len(videos)}
	for _, v := range videos {
		if f.fail {
			stats.Failures = append(stats.Failures, processor.Failure{VideoID: v.ID, Title: v.Title, Err: errors.New("boom")})
			continue
		}
		stats.Succeeded++
		stats.Results = append(stats.Results, processor.Result{VideoID: v.ID, OutputPath: v.Title + ".md"})
	}
	return stats
}

type harness struct {
	fetcher   *fakeFetcher
	processor *fakeProcessor
	cfg       *config.Config
	reprocess bool
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{fetcher: &fakeFetcher{}, processor: &fakeProcessor{}}

	original := buildApp
	buildApp = func(_ context.Context, cfg *config.Config, reprocess bool) (*app, error) {
		h.cfg = cfg
		h.reprocess = reprocess
		return &app{cfg: cfg, logger: logger.Nop(), fetcher: h.fetcher, processor: h.processor}, nil
	}
	t.Cleanup(func() { buildApp = original })
	return h
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

// execute runs the root command and restores every flag afterwards
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		configPath = defaultConfigPath
		verbose = false
		rootCmd.PersistentFlags().Lookup("config").Changed = false
		for name, def := range map[string]string{"limit": "0", "output": "", "asr": "false", "yes": "false", "reprocess": "false"} {
			runCmd.Flags().Set(name, def)
			runCmd.Flags().Lookup(name).Changed = false
		}
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCmd(t *testing.T) {
	original := version
	version = "test-1.0.0"
	defer func() { version = original }()

	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "captiondoc version test-1.0.0")
}

func TestRunRequiresURL(t *testing.T) {
	newHarness(t)
	_, err := execute(t, "", "run")
	assert.Error(t, err)
}

func TestRunSingleVideo(t *testing.T) {
	h := newHarness(t)
	cfgPath := writeConfig(t, "paths:\n  output: docs\n")
	outDir := t.TempDir()

	out, err := execute(t, "", "run", "https://www.bilibili.com/video/BV1xx411c7mD", "-c", cfgPath, "-o", outDir, "--asr", "--reprocess", "-v")
	require.NoError(t, err)

	require.Len(t, h.processor.videos, 1)
	assert.Equal(t, "One", h.processor.videos[0].Title)
	assert.True(t, h.processor.forceASR)
	assert.True(t, h.reprocess)
	assert.Equal(t, outDir, h.cfg.Paths.Output)
	assert.Equal(t, "debug", h.cfg.Logging.Level)
	assert.Contains(t, out, "1 succeeded")
	assert.NotContains(t, out, "[y/N]")
}

func TestRunChannelAsksForConfirmation(t *testing.T) {
	h := newHarness(t)
	cfgPath := writeConfig(t, "logging:\n  level: warn\n")

	out, err := execute(t, "n\n", "run", "https://space.bilibili.com/123456", "-c", cfgPath, "-l", "5")
	require.NoError(t, err)

	assert.Equal(t, 5, h.fetcher.limit)
	assert.Contains(t, out, "Found 2 videos:")
	assert.Contains(t, out, "  2. Second")
	assert.Contains(t, out, "Process 2 videos? [y/N]")
	assert.Contains(t, out, "Cancelled.")
	assert.Nil(t, h.processor.videos)
}

func TestRunChannelConfirmed(t *testing.T) {
	h := newHarness(t)
	cfgPath := writeConfig(t, "")

	out, err := execute(t, "yes\n", "run", "https://space.bilibili.com/123456", "-c", cfgPath)
	require.NoError(t, err)
	assert.Len(t, h.processor.videos, 2)
	assert.False(t, h.processor.forceASR)
	assert.Contains(t, out, "First.md")
}

func TestRunFailuresExitNonZero(t *testing.T) {
	h := newHarness(t)
	h.processor.fail = true
	cfgPath := writeConfig(t, "")

	out, err := execute(t, "", "run", "https://space.bilibili.com/123456", "-c", cfgPath, "-y")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 2 videos failed")
	assert.Contains(t, out, "Second: boom")
}

func TestRunRejectsNegativeLimit(t *testing.T) {
	newHarness(t)
	_, err := execute(t, "", "run", "https://space.bilibili.com/1", "-l", "-1")
	assert.ErrorContains(t, err, "--limit")
}

func TestRunMissingExplicitConfig(t *testing.T) {
	newHarness(t)
	_, err := execute(t, "", "run", "https://space.bilibili.com/1", "-c", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "load config")
}

func TestRunMissingDefaultConfigUsesDefaults(t *testing.T) {
	h := newHarness(t)
	t.Chdir(t.TempDir())

	out, err := execute(t, "", "run", "https://www.bilibili.com/video/BV1xx411c7mD")
	require.NoError(t, err)
	assert.Contains(t, out, "No config.yaml found, using defaults")
	assert.Equal(t, "output", h.cfg.Paths.Output)
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"y\n", true},
		{" YES \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"y", true},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		assert.Equal(t, tt.want, confirm(strings.NewReader(tt.in), &out, "Go?"), "input %q", tt.in)
		assert.Equal(t, "Go? [y/N] ", out.String())
	}
}

func TestInteractive(t *testing.T) {
	assert.True(t, interactive(strings.NewReader("")))

	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, interactive(f))
}
