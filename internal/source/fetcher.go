package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nguyentantai21042004/caption-doc/internal/models"
	"github.com/nguyentantai21042004/caption-doc/internal/subtitle"
)

// ErrNoCaptions is returned when a video has no usable caption track
var ErrNoCaptions = errors.New("no captions available")

// ErrNotChannelURL is returned when no uploader id can be found in a URL
var ErrNotChannelURL = errors.New("not a channel url")

type ytInfo struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	AltTitle    string    `json:"alt_title"`
	FullTitle   string    `json:"fulltitle"`
	Description string    `json:"description"`
	UploadDate  string    `json:"upload_date"`
	Duration    float64   `json:"duration"`
	URL         string    `json:"url"`
	WebpageURL  string    `json:"webpage_url"`
	Entries     []*ytInfo `json:"entries"`
}

func (y *ytInfo) toVideoInfo(requested string) models.VideoInfo {
	title := y.Title
	if title == "" {
		title = y.AltTitle
	}
	if title == "" {
		title = y.FullTitle
	}
	if title == "" {
		title = y.ID
	}

	page := y.WebpageURL
	if page == "" {
		page = y.URL
	}
	if page == "" {
		page = requested
	}

	return models.VideoInfo{
		ID:          y.ID,
		Title:       title,
		Description: y.Description,
		UploadDate:  y.UploadDate,
		Duration:    y.Duration,
		URL:         videoURL(y.ID, page),
	}
}

// VideoInfo reads the metadata of a single video
func (f *implFetcher) VideoInfo(ctx context.Context, url string) (models.VideoInfo, error) {
	out, err := f.run(ctx, f.baseArgs("-J", "--skip-download", url)...)
	if err != nil {
		return models.VideoInfo{}, fmt.Errorf("video info: %w", err)
	}

	var info ytInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		return models.VideoInfo{}, fmt.Errorf("decode video info: %w", err)
	}
	if info.ID == "" {
		return models.VideoInfo{}, fmt.Errorf("video info: empty id for %s", url)
	}

	return info.toVideoInfo(url), nil
}

// ChannelVideos lists the newest videos of an uploader, at most limit when limit > 0
func (f *implFetcher) ChannelVideos(ctx context.Context, url string, limit int) ([]models.VideoInfo, error) {
	uid, ok := ExtractUID(url)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotChannelURL, url)
	}

	args := []string{"-J", "--flat-playlist"}
	if limit > 0 {
		args = append(args, "--playlist-end", strconv.Itoa(limit))
	}
	args = append(args, SpaceURL(uid))

	f.logger.Info(ctx, "Listing videos of uploader %s", uid)
	out, err := f.run(ctx, f.baseArgs(args...)...)
	if err != nil {
		if strings.Contains(err.Error(), "352") || strings.Contains(strings.ToLower(err.Error()), "rejected") {
			f.logger.Error(ctx, "Request rejected by the site, configure downloader.cookies with a logged-in cookies file")
		}
		return nil, fmt.Errorf("channel videos: %w", err)
	}

	var playlist ytInfo
	if err := json.Unmarshal([]byte(out), &playlist); err != nil {
		return nil, fmt.Errorf("decode channel videos: %w", err)
	}

	videos := make([]models.VideoInfo, 0, len(playlist.Entries))
	for _, entry := range playlist.Entries {
		if entry == nil || entry.ID == "" {
			continue
		}
		videos = append(videos, entry.toVideoInfo(""))
		if limit > 0 && len(videos) == limit {
			break
		}
	}

	f.logger.Info(ctx, "Found %d videos", len(videos))
	return videos, nil
}

// Captions downloads the preferred caption track into workDir and parses it
func (f *implFetcher) Captions(ctx context.Context, info models.VideoInfo, workDir string) ([]models.TimedFragment, error) {
	args := f.baseArgs(
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", strings.Join(f.cfg.Downloader.SubLangs, ","),
		"--sub-format", "srt/vtt/ass/json/best",
		"-o", filepath.Join(workDir, info.ID+".%(ext)s"),
		info.URL,
	)
	if _, err := f.run(ctx, args...); err != nil {
		return nil, fmt.Errorf("download captions: %w", err)
	}

	path, ok := findSubtitle(workDir, info.ID, f.cfg.Downloader.SubLangs)
	if !ok {
		return nil, ErrNoCaptions
	}
	f.logger.Debug(ctx, "Caption file: %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read captions: %w", err)
	}
	fragments, err := subtitle.Parse(path, string(data))
	if err != nil {
		return nil, fmt.Errorf("parse captions: %w", err)
	}
	if !hasText(fragments) {
		return nil, ErrNoCaptions
	}

	return fragments, nil
}

// DownloadAudio fetches the best audio stream into workDir and returns its path
func (f *implFetcher) DownloadAudio(ctx context.Context, info models.VideoInfo, workDir string) (string, error) {
	f.logger.Info(ctx, "Downloading audio: %s", info.URL)

	args := f.baseArgs(
		"-f", "bestaudio/best",
		"--no-playlist",
		"-o", filepath.Join(workDir, info.ID+".%(ext)s"),
		"--print", "after_move:filepath",
		info.URL,
	)
	out, err := f.run(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("download audio: %w", err)
	}

	if path := lastLine(out); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	// older yt-dlp builds ignore --print after_move
	matches, _ := filepath.Glob(filepath.Join(workDir, info.ID+".*"))
	for _, m := range matches {
		if !subtitle.IsSubtitleFile(m) {
			return m, nil
		}
	}
	return "", fmt.Errorf("download audio: no file written for %s", info.ID)
}

func (f *implFetcher) baseArgs(args ...string) []string {
	base := []string{"--no-warnings", "--no-progress"}
	if f.cfg.Downloader.Cookies != "" {
		base = append(base, "--cookies", f.cfg.Downloader.Cookies)
	}
	return append(base, args...)
}

func (f *implFetcher) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Processing.RetrievalTimeout())
	defer cancel()

	f.logger.Debug(ctx, "%s %s", f.cfg.Downloader.Binary, strings.Join(args, " "))
	return f.executor.Execute(ctx, f.cfg.Downloader.Binary, args...)
}

// findSubtitle prefers tracks in langs order, then any subtitle file named after id
func findSubtitle(dir, id string, langs []string) (string, bool) {
	for _, lang := range langs {
		for _, ext := range subtitle.Extensions {
			path := filepath.Join(dir, id+"."+lang+ext)
			if _, err := os.Stat(path); err == nil {
				return path, true
			}
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, id) || !subtitle.IsSubtitleFile(name) {
			continue
		}
		// danmaku tracks are comments, not captions
		if strings.Contains(name, ".danmaku.") {
			continue
		}
		return filepath.Join(dir, name), true
	}
	return "", false
}

func hasText(fragments []models.TimedFragment) bool {
	for _, f := range fragments {
		if strings.TrimSpace(f.Text) != "" {
			return true
		}
	}
	return false
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
