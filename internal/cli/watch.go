package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/caption-doc/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Convert subtitle and media files dropped into the inbox",
	Long: `Watches paths.inbox. Every subtitle (.srt, .vtt, .ass, .json) or audio/video
file placed there is converted into a Markdown document and then moved to
the inbox's processed/ folder. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	handler := func(ctx context.Context, path string) error {
		_, err := a.processor.ProcessFile(ctx, path)
		return err
	}

	w, err := watcher.New(cfg.Paths.Inbox, handler, a.logger, cfg.Processing.MaxWorkers)
	if err != nil {
		return err
	}
	defer w.Stop()

	a.logger.Info(ctx, "Drop files into %s, documents go to %s. Press Ctrl+C to stop", cfg.Paths.Inbox, cfg.Paths.Output)

	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
