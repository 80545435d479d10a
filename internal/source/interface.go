package source

import (
	"context"

	"github.com/nguyentantai21042004/caption-doc/internal/models"
)

// Fetcher talks to the video site through yt-dlp
type Fetcher interface {
	VideoInfo(ctx context.Context, url string) (models.VideoInfo, error)
	ChannelVideos(ctx context.Context, url string, limit int) ([]models.VideoInfo, error)
	Captions(ctx context.Context, info models.VideoInfo, workDir string) ([]models.TimedFragment, error)
	DownloadAudio(ctx context.Context, info models.VideoInfo, workDir string) (string, error)
}

// Transcriber turns a local audio or video file into timed fragments
type Transcriber interface {
	Transcribe(ctx context.Context, mediaPath, workDir string) ([]models.TimedFragment, error)
}

// Selector picks the transcript source for a video
type Selector interface {
	Select(ctx context.Context, info models.VideoInfo, forceASR bool) (models.Transcript, error)
}
