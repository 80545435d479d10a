// Package cli implements the captiondoc command line.
package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/caption-doc/internal/config"
)

const defaultConfigPath = "config.yaml"

// version is set at build time with -ldflags "-X ...cli.version=..."
var version = "dev"

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "captiondoc",
	Short: "Turn video captions and speech into Markdown documents",
	Long: `captiondoc fetches the captions of a video (or transcribes its audio when
there are none), cleans them up and writes a readable Markdown document.
With an LLM configured it can proofread the text or restructure it into
summarized chapters.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "config file (yaml, toml or json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the config file. A missing default file means built-in defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		cmd.PrintErrf("No %s found, using defaults\n", configPath)
		cfg = config.Default()
		err = cfg.Validate()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}
