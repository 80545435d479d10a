package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nguyentantai21042004/caption-doc/internal/models"
	"github.com/nguyentantai21042004/caption-doc/internal/processor"
	"github.com/nguyentantai21042004/caption-doc/internal/source"
)

var runCmd = &cobra.Command{
	Use:   "run <url>",
	Short: "Convert a video or a whole channel into Markdown documents",
	Example: `  # One video
  captiondoc run https://www.bilibili.com/video/BV1xx411c7mD

  # The newest 10 videos of a channel, without confirmation
  captiondoc run https://space.bilibili.com/123456 -l 10 -y

  # Skip captions and transcribe the audio
  captiondoc run https://www.bilibili.com/video/BV1xx411c7mD --asr`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntP("limit", "l", 0, "maximum number of channel videos (0 = all)")
	runCmd.Flags().StringP("output", "o", "", "output directory (overrides paths.output)")
	runCmd.Flags().Bool("asr", false, "always transcribe audio instead of using captions")
	runCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation before a channel run")
	runCmd.Flags().Bool("reprocess", false, "process videos already in the history")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	url := strings.TrimSpace(args[0])
	limit, _ := cmd.Flags().GetInt("limit")
	output, _ := cmd.Flags().GetString("output")
	forceASR, _ := cmd.Flags().GetBool("asr")
	yes, _ := cmd.Flags().GetBool("yes")
	reprocess, _ := cmd.Flags().GetBool("reprocess")

	if limit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if output != "" {
		cfg.Paths.Output = output
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, reprocess)
	if err != nil {
		return err
	}
	defer a.Close()

	videos, err := resolveVideos(ctx, a, url, limit)
	if err != nil {
		return err
	}
	if len(videos) == 0 {
		cmd.Println("No videos found.")
		return nil
	}

	if !source.IsVideoURL(url) && !yes {
		if !interactive(cmd.InOrStdin()) {
			return fmt.Errorf("stdin is not a terminal, pass --yes to process %d channel videos", len(videos))
		}
		printVideos(cmd.OutOrStdout(), videos)
		if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Process %d videos?", len(videos))) {
			cmd.Println("Cancelled.")
			return nil
		}
	}

	stats := a.processor.ProcessBatch(ctx, videos, forceASR)
	printStats(cmd.OutOrStdout(), stats)

	if stats.Failed() > 0 {
		return fmt.Errorf("%d of %d videos failed", stats.Failed(), stats.Total)
	}
	if stats.Cancelled > 0 {
		return fmt.Errorf("interrupted, %d videos not processed", stats.Cancelled)
	}
	return nil
}

func resolveVideos(ctx context.Context, a *app, url string, limit int) ([]models.VideoInfo, error) {
	if source.IsVideoURL(url) {
		info, err := a.fetcher.VideoInfo(ctx, url)
		if err != nil {
			return nil, err
		}
		return []models.VideoInfo{info}, nil
	}
	return a.fetcher.ChannelVideos(ctx, url, limit)
}

func printVideos(w io.Writer, videos []models.VideoInfo) {
	fmt.Fprintf(w, "Found %d videos:\n", len(videos))
	for i, v := range videos {
		fmt.Fprintf(w, "  %3d. %s\n", i+1, v.Title)
	}
}

// interactive reports whether r is a terminal. Non-file readers count as interactive.
func interactive(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return true
	}
	return term.IsTerminal(int(f.Fd()))
}

// confirm asks a yes/no question; anything but y or yes is a no
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func printStats(w io.Writer, stats processor.Stats) {
	fmt.Fprintf(w, "\nDone: %d succeeded, %d failed, %d skipped", stats.Succeeded, stats.Failed(), stats.Skipped)
	if stats.Cancelled > 0 {
		fmt.Fprintf(w, ", %d cancelled", stats.Cancelled)
	}
	fmt.Fprintln(w)

	for _, r := range stats.Results {
		fmt.Fprintf(w, "  ✓ %s\n", r.OutputPath)
	}
	for _, f := range stats.Failures {
		fmt.Fprintf(w, "  ✗ %s: %v\n", f.Title, f.Err)
	}
}
