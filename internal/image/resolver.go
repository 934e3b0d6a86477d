package image

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/deusflow/headlinegroups/internal/logger"
	"github.com/deusflow/headlinegroups/internal/metrics"
	"github.com/deusflow/headlinegroups/internal/news"
	"github.com/deusflow/headlinegroups/internal/progress"
)

const DefaultMaxAttempts = 3

// DefaultTrustedOutlets are probed first, in this order.
var DefaultTrustedOutlets = []string{
	"reuters", "associated press", "ap news", "bbc", "npr",
	"new york times", "washington post", "guardian", "wall street journal",
	"bloomberg", "financial times", "cnn", "al jazeera",
	"the verge", "ars technica", "techcrunch", "wired",
}

// Resolver picks a handful of a group's articles and probes them for an image.
type Resolver struct {
	Extractor   Extractor
	Trusted     []string
	MaxAttempts int
	// Shuffle orders the untrusted sources; defaults to math/rand.
	Shuffle  func(n int, swap func(i, j int))
	Progress progress.Sink
}

func NewResolver(ex Extractor, trusted []string, maxAttempts int, sink progress.Sink) *Resolver {
	if len(trusted) == 0 {
		trusted = DefaultTrustedOutlets
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Resolver{
		Extractor:   ex,
		Trusted:     trusted,
		MaxAttempts: maxAttempts,
		Shuffle:     rand.Shuffle,
		Progress:    sink,
	}
}

// Resolve returns either an image or the aggregated reasons none was found.
// It stops at the first article that yields an image.
func (r *Resolver) Resolve(ctx context.Context, headlines []news.Headline, name string) news.Image {
	candidates := r.rank(leadPerSource(headlines))
	if len(candidates) > r.MaxAttempts {
		candidates = candidates[:r.MaxAttempts]
	}

	var (
		attempted []string
		failures  []news.ArticleError
	)
	for i, h := range candidates {
		if ctx.Err() != nil {
			break
		}
		attempted = append(attempted, h.Source)
		progress.Emit(r.Progress, progress.Event{
			Phase:     progress.PhaseImages,
			Message:   fmt.Sprintf("Looking for image for %q from %s...", name, h.Source),
			Processed: i,
			Total:     len(candidates),
		})

		res, err := r.Extractor.Extract(ctx, h.URL)
		if err == nil {
			if res.SourceURL == "" {
				res.SourceURL = h.URL
			}
			res.AttemptedSources = attempted
			metrics.Global.IncrementImagesFound()
			return news.Image{Result: &res}
		}
		logger.Debug("image attempt failed", "topic", name, "source", h.Source, "url", h.URL, "error", err)
		failures = append(failures, news.ArticleError{
			Source:  h.Source,
			URL:     h.URL,
			Kind:    Kind(err),
			Message: err.Error(),
		})
	}

	metrics.Global.IncrementImagesFailed()
	msg := fmt.Sprintf("no image found for %q after %d attempts", name, len(attempted))
	if len(candidates) == 0 {
		msg = fmt.Sprintf("no articles to probe for %q", name)
	}
	return news.Image{Err: &news.ImageError{
		Kind:             KindExtractFailure,
		Message:          msg,
		AttemptedSources: attempted,
		DetailedErrors:   failures,
		TotalAttempts:    len(attempted),
	}}
}

// leadPerSource keeps the first headline of every source, in encounter order.
func leadPerSource(headlines []news.Headline) []news.Headline {
	seen := map[string]bool{}
	var out []news.Headline
	for _, h := range headlines {
		if seen[h.Source] || h.URL == "" {
			continue
		}
		seen[h.Source] = true
		out = append(out, h)
	}
	return out
}

// rank puts trusted outlets first in allowlist order and shuffles the rest.
func (r *Resolver) rank(leads []news.Headline) []news.Headline {
	taken := make([]bool, len(leads))
	var out []news.Headline
	for _, outlet := range r.Trusted {
		outlet = strings.ToLower(outlet)
		for i, h := range leads {
			if !taken[i] && strings.Contains(strings.ToLower(h.Source), outlet) {
				taken[i] = true
				out = append(out, h)
			}
		}
	}
	var rest []news.Headline
	for i, h := range leads {
		if !taken[i] {
			rest = append(rest, h)
		}
	}
	if r.Shuffle != nil {
		r.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	}
	return append(out, rest...)
}
