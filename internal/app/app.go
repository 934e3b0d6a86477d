// Package app wires a producer, the clustering pipeline and a renderer into
// one run.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/deusflow/headlinegroups/internal/config"
	"github.com/deusflow/headlinegroups/internal/image"
	"github.com/deusflow/headlinegroups/internal/logger"
	"github.com/deusflow/headlinegroups/internal/metrics"
	"github.com/deusflow/headlinegroups/internal/news"
	"github.com/deusflow/headlinegroups/internal/pipeline"
	"github.com/deusflow/headlinegroups/internal/progress"
	"github.com/deusflow/headlinegroups/internal/ratelimit"
	"github.com/deusflow/headlinegroups/internal/render"
	"github.com/deusflow/headlinegroups/internal/retry"
	"github.com/deusflow/headlinegroups/internal/rss"
	"github.com/deusflow/headlinegroups/internal/scraper"
)

// Producer yields the headlines for one run.
type Producer interface {
	Collect(ctx context.Context, topic string, lastWeek bool) (*news.Collection, error)
}

type scraperProducer struct{ s *scraper.Scraper }

func (p scraperProducer) Collect(ctx context.Context, topic string, lastWeek bool) (*news.Collection, error) {
	if lastWeek {
		return p.s.LastWeek(ctx, topic)
	}
	return p.s.Today(ctx, topic)
}

type feedProducer struct {
	f     *rss.Fetcher
	feeds []rss.Feed
}

func (p feedProducer) Collect(ctx context.Context, topic string, _ bool) (*news.Collection, error) {
	c, err := p.f.FetchAll(ctx, p.feeds)
	if err != nil {
		return nil, err
	}
	c.Topic = topic
	return c, nil
}

// Options are the per-invocation settings that do not belong in Config.
type Options struct {
	Format   string
	Out      io.Writer
	Progress progress.Sink
	// Producer overrides the source chosen from the config.
	Producer Producer
}

// NewProducer picks the feed list when one is configured, the aggregator
// otherwise.
func NewProducer(cfg *config.Config, sink progress.Sink) Producer {
	if len(cfg.Feeds) > 0 {
		return feedProducer{
			f:     &rss.Fetcher{Timeout: cfg.RequestTimeout, UserAgent: cfg.UserAgent, Progress: sink},
			feeds: cfg.Feeds,
		}
	}
	rc := retry.RetryConfig{MaxAttempts: cfg.RetryAttempts, Delay: cfg.RetryDelay, Backoff: true}
	return scraperProducer{s: scraper.New(cfg.BaseURL, cfg.RequestTimeout, cfg.UserAgent, rc, sink)}
}

// Run executes one full analysis and writes the report to opts.Out.
func Run(ctx context.Context, cfg *config.Config, opts Options) error {
	err := run(ctx, cfg, opts)
	if err != nil {
		metrics.Global.SetError(err.Error())
	}
	return err
}

func run(ctx context.Context, cfg *config.Config, opts Options) error {
	start := time.Now()
	sink := progress.Multi{progress.Logger{L: logger.Logger}}
	if opts.Progress != nil {
		sink = append(sink, opts.Progress)
	}

	producer := opts.Producer
	if producer == nil {
		producer = NewProducer(cfg, sink)
	}

	logger.Info("starting run", "topic", cfg.Topic, "last_week", cfg.LastWeek, "mode", cfg.Mode().String())
	collection, err := producer.Collect(ctx, cfg.Topic, cfg.LastWeek)
	if err != nil {
		return fmt.Errorf("collect headlines: %w", err)
	}
	headlines := collection.Flatten()
	logger.Info("collected headlines", "sources", len(collection.Order), "headlines", len(headlines))

	p := &pipeline.Pipeline{
		Policy:             cfg.Policy(),
		ImageConcurrency:   cfg.ImageConcurrency,
		Progress:           sink,
		FoldNearDuplicates: cfg.FoldNearDuplicates,
	}
	if cfg.ImagesEnabled {
		budget := ratelimit.NewFetchBudget(cfg.ImageMaxFetches)
		ex := image.NewHTTPExtractor(cfg.ImageTimeout, cfg.UserAgent, budget)
		defer ex.Close()
		p.Images = image.NewResolver(ex, cfg.TrustedOutlets, cfg.ImageMaxAttempts, sink)
		defer func() {
			logger.Debug("image fetch budget", "remaining", budget.Remaining(), "stats", budget.GetStats())
		}()
	}

	res := p.Run(ctx, headlines, cfg.Mode())

	report := render.NewReport(collection.Date, cfg.Topic, cfg.LastWeek, res.Groups)
	if err := render.Write(opts.Out, opts.Format, report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	logger.Info("run finished", "groups", report.TotalGroups, "headlines", report.TotalHeadlines, "took", time.Since(start))
	return nil
}
