package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deusflow/headlinegroups/internal/app"
	"github.com/deusflow/headlinegroups/internal/config"
	"github.com/deusflow/headlinegroups/internal/logger"
	"github.com/deusflow/headlinegroups/internal/progress"
	"github.com/deusflow/headlinegroups/internal/rss"
	"github.com/deusflow/headlinegroups/internal/scraper"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagTopic    string
	flagLastWeek bool
	flagFeeds    string
	flagFormat   string
	flagNoImages bool
	flagConfig   string
	flagProgress bool
)

var rootCmd = &cobra.Command{
	Use:   "headlinegroups",
	Short: "Find the stories many outlets are covering",
	Long: "headlinegroups collects headlines from brutalist.report (or a list of RSS feeds), " +
		"groups the ones that report the same story across outlets, names each group and " +
		"finds a representative image for it.",
	SilenceUsage: true,
	RunE:         runAnalysis,
}

func init() {
	rootCmd.Flags().StringVar(&flagTopic, "topic", "", "restrict to one topic (see 'headlinegroups topics')")
	rootCmd.Flags().BoolVar(&flagLastWeek, "last-week", false, "analyse the past week instead of today")
	rootCmd.Flags().StringVar(&flagFeeds, "feeds", "", "YAML feed list to read instead of the aggregator")
	rootCmd.Flags().StringVar(&flagFormat, "format", "json", "output format: json or text")
	rootCmd.Flags().BoolVar(&flagNoImages, "no-images", false, "skip the image lookup")
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.Flags().BoolVar(&flagProgress, "progress", false, "write progress events as JSON lines to stderr")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(topicsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "headlinegroups %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List the available topic filters",
	Run: func(cmd *cobra.Command, args []string) {
		for _, t := range scraper.AvailableTopics {
			fmt.Fprintln(cmd.OutOrStdout(), t)
		}
	},
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	if flagConfig != "" {
		os.Setenv("CONFIG_FILE", flagConfig)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	logger.Init(logger.Options{
		Debug:      cfg.Debug,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})

	if cfg.EnableMonitoring {
		go startMonitoringServer(cfg.MonitoringPort)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := app.Options{Format: flagFormat, Out: cmd.OutOrStdout()}
	if flagProgress {
		opts.Progress = progress.NewJSONLines(cmd.ErrOrStderr())
	}
	if err := app.Run(ctx, cfg, opts); err != nil {
		logger.Error("run failed", "error", err)
		return err
	}
	return nil
}

// applyFlags lets explicitly set flags override the loaded config.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("topic") {
		cfg.Topic = flagTopic
	}
	if flags.Changed("last-week") {
		cfg.LastWeek = flagLastWeek
	}
	if flags.Changed("no-images") {
		cfg.ImagesEnabled = !flagNoImages
	}
	if flagFeeds != "" {
		feeds, err := rss.LoadFeeds(flagFeeds)
		if err != nil {
			return fmt.Errorf("load feeds: %w", err)
		}
		cfg.Feeds = feeds
	}
	if flagFormat != "json" && flagFormat != "text" {
		return fmt.Errorf("unknown format %q, want json or text", flagFormat)
	}
	return cfg.Validate()
}
