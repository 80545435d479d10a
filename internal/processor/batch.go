package processor

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/nguyentantai21042004/caption-doc/internal/logger"
	"github.com/nguyentantai21042004/caption-doc/internal/models"
)

// ProcessBatch processes videos with at most processing.max_workers in flight,
// starting at most one video per processing.delay_between_requests.
// A failing video is logged and counted; the batch moves on. Once ctx is
// cancelled no new video starts, while videos already running finish.
func (p *implProcessor) ProcessBatch(ctx context.Context, videos []models.VideoInfo, forceASR bool) Stats {
	startTime := time.Now()
	stats := Stats{Total: len(videos)}

	sem := newSemaphore(p.cfg.Processing.MaxWorkers)
	limiter := rate.NewLimiter(rate.Inf, 1)
	if d := p.cfg.Processing.Delay(); d > 0 {
		limiter = rate.NewLimiter(rate.Every(d), 1)
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	p.logger.Info(ctx, "Batch started: %d videos, %d workers", len(videos), p.cfg.Processing.MaxWorkers)

	for i, video := range videos {
		if p.alreadyProcessed(ctx, video) {
			p.logger.Info(ctx, "[%d/%d] Skipping %s, already processed", i+1, len(videos), video.Title)
			stats.Skipped++
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			stats.Cancelled = len(videos) - i
			break
		}
		if err := sem.acquire(ctx); err != nil {
			stats.Cancelled = len(videos) - i
			break
		}

		wg.Add(1)
		go func(n int, video models.VideoInfo) {
			defer wg.Done()
			defer sem.release()

			runCtx := logger.WithRunID(context.WithoutCancel(ctx))
			p.logger.Info(runCtx, "[%d/%d] %s", n, len(videos), video.Title)

			res, err := p.ProcessVideo(runCtx, video, forceASR)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				p.logger.Error(runCtx, "[%d/%d] Failed %s: %v", n, len(videos), video.ID, err)
				stats.Failures = append(stats.Failures, Failure{VideoID: video.ID, Title: video.Title, Err: err})
				return
			}
			stats.Succeeded++
			stats.Results = append(stats.Results, res)
		}(i+1, video)
	}

	wg.Wait()

	p.logger.Info(ctx, "Batch finished in %s: %d succeeded, %d failed, %d skipped, %d cancelled",
		time.Since(startTime).Round(time.Second), stats.Succeeded, stats.Failed(), stats.Skipped, stats.Cancelled)
	return stats
}

func (p *implProcessor) alreadyProcessed(ctx context.Context, video models.VideoInfo) bool {
	if p.ledger == nil || p.reprocess || video.ID == "" {
		return false
	}
	seen, err := p.ledger.Seen(ctx, video.ID)
	if err != nil {
		p.logger.Warn(ctx, "History lookup failed for %s: %v", video.ID, err)
		return false
	}
	return seen
}
