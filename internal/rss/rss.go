// Package rss collects headlines from RSS/Atom feeds as an alternative to
// scraping the aggregator.
package rss

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"

	"github.com/deusflow/headlinegroups/internal/logger"
	"github.com/deusflow/headlinegroups/internal/news"
	"github.com/deusflow/headlinegroups/internal/progress"
)

// Feed is one configured source.
type Feed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// FeedsConfig is YAML config structure
// feeds:
//   - name: BBC
//     url: https://...
type FeedsConfig struct {
	Feeds []Feed `yaml:"feeds"`
}

// LoadFeeds reads the feed list from a YAML file.
func LoadFeeds(path string) ([]Feed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg FeedsConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	for i, fd := range cfg.Feeds {
		if fd.URL == "" {
			return nil, fmt.Errorf("feed %d has no url", i)
		}
	}
	return cfg.Feeds, nil
}

// Fetcher downloads feeds and turns their items into headlines.
type Fetcher struct {
	Timeout   time.Duration
	UserAgent string
	Progress  progress.Sink
}

// FetchAll downloads every feed in order. A feed that fails is logged and
// skipped; the call fails only when no feed could be read.
func (f *Fetcher) FetchAll(ctx context.Context, feeds []Feed) (*news.Collection, error) {
	parser := gofeed.NewParser()
	if f.UserAgent != "" {
		parser.UserAgent = f.UserAgent
	}

	c := &news.Collection{Date: time.Now().Format("2006-01-02")}
	ok := 0
	for i, fd := range feeds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		feed, err := f.parse(ctx, parser, fd.URL)
		if err != nil {
			logger.Warn("error parsing feed", "url", fd.URL, "error", err)
		} else {
			ok++
			name := sourceName(fd, feed)
			var headlines []news.Headline
			for _, item := range feed.Items {
				if item == nil {
					continue
				}
				headlines = append(headlines, news.Headline{
					Source: name,
					Title:  strings.TrimSpace(item.Title),
					URL:    strings.TrimSpace(item.Link),
				})
			}
			if len(headlines) > 0 {
				c.Add(name, headlines...)
			}
			logger.Debug("loaded feed", "source", name, "items", len(headlines))
		}
		progress.Emit(f.Progress, progress.Event{
			Phase:     progress.PhaseScrape,
			Message:   "Fetched " + fd.URL,
			Processed: i + 1,
			Total:     len(feeds),
		})
	}

	logger.Info("processed feeds", "ok", ok, "total", len(feeds))
	if ok == 0 && len(feeds) > 0 {
		return nil, fmt.Errorf("none of %d feeds could be read", len(feeds))
	}
	return c, nil
}

func (f *Fetcher) parse(ctx context.Context, parser *gofeed.Parser, url string) (*gofeed.Feed, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	return parser.ParseURLWithContext(url, ctx)
}

func sourceName(fd Feed, feed *gofeed.Feed) string {
	if fd.Name != "" {
		return fd.Name
	}
	if t := strings.TrimSpace(feed.Title); t != "" {
		return t
	}
	return fd.URL
}
