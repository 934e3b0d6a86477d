// Package pipeline turns a day's (or week's) headlines into ranked, named
// topic groups.
package pipeline

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/adrg/strutil"
	strmetrics "github.com/adrg/strutil/metrics"
	"golang.org/x/sync/errgroup"

	"github.com/deusflow/headlinegroups/internal/cluster"
	"github.com/deusflow/headlinegroups/internal/logger"
	"github.com/deusflow/headlinegroups/internal/metrics"
	"github.com/deusflow/headlinegroups/internal/naming"
	"github.com/deusflow/headlinegroups/internal/news"
	"github.com/deusflow/headlinegroups/internal/progress"
)

// NearDuplicateSimilarity is the Jaro-Winkler similarity above which two
// titles from the same source are treated as one headline when folding.
const NearDuplicateSimilarity = 0.97

// ImageResolver is satisfied by *image.Resolver.
type ImageResolver interface {
	Resolve(ctx context.Context, headlines []news.Headline, name string) news.Image
}

// Pipeline turns raw headlines into ranked, named groups.
type Pipeline struct {
	Policy           cluster.Policy
	Images           ImageResolver // nil disables image lookup
	ImageConcurrency int
	Progress         progress.Sink
	// FoldNearDuplicates drops same-source near-duplicate titles in week
	// modes before clustering. Off by default: repeats count toward the
	// minimum group size.
	FoldNearDuplicates bool
}

// Result is the ranked output of one run.
type Result struct {
	Groups         []news.TopicGroup
	TotalGroups    int
	TotalHeadlines int
}

// Run never fails: the worst case is an empty result.
func (p *Pipeline) Run(ctx context.Context, headlines []news.Headline, mode news.Mode) Result {
	start := time.Now()
	defer func() {
		metrics.Global.RecordProcessingTime(time.Since(start))
		metrics.Global.SetLastRun()
	}()

	input := Ingest(headlines)
	if p.FoldNearDuplicates && mode.Week() {
		input = FoldSimilar(input)
	}
	logger.Info("clustering headlines", "mode", mode.String(), "headlines", len(input), "threshold", p.Policy.Threshold(mode))

	protos := cluster.New(p.Policy, p.Progress).Cluster(input, mode)
	groups := Rank(protos)
	for i := range groups {
		groups[i].Name = naming.Name(groups[i].Headlines)
	}

	if p.Images != nil {
		p.resolveImages(ctx, groups)
	}

	res := Result{Groups: groups, TotalGroups: len(groups)}
	for _, g := range groups {
		res.TotalHeadlines += g.Count
	}
	logger.Info("clustering done", "groups", res.TotalGroups, "headlines", res.TotalHeadlines)
	return res
}

// Rank sorts proto-groups by size, largest first (ties keep creation order),
// and numbers them from 1.
func Rank(protos [][]news.Headline) []news.TopicGroup {
	sorted := append([][]news.Headline(nil), protos...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})
	groups := make([]news.TopicGroup, len(sorted))
	for i, members := range sorted {
		groups[i] = news.TopicGroup{
			ID:          i + 1,
			Headlines:   members,
			Count:       len(members),
			SourceCount: news.CountSources(members),
		}
	}
	return groups
}

func (p *Pipeline) resolveImages(ctx context.Context, groups []news.TopicGroup) {
	limit := p.ImageConcurrency
	if limit <= 0 {
		limit = 1
	}
	total := len(groups)
	progress.Emit(p.Progress, progress.Event{Phase: progress.PhaseImages, Message: "Resolving topic images...", Total: total})

	var finished atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range groups {
		i := i
		g.Go(func() error {
			img := p.Images.Resolve(gctx, groups[i].Headlines, groups[i].Name)
			groups[i].Image = &img
			progress.Emit(p.Progress, progress.Event{
				Phase:     progress.PhaseImages,
				Message:   "Resolved image for " + groups[i].Name,
				Processed: int(finished.Add(1)),
				Total:     total,
			})
			return nil
		})
	}
	_ = g.Wait()
}

// Ingest drops records without a title or URL. Everything else, repeats
// included, goes to the clusterer in encounter order.
func Ingest(headlines []news.Headline) []news.Headline {
	out := make([]news.Headline, 0, len(headlines))
	for _, h := range headlines {
		if !h.Valid() {
			metrics.Global.IncrementHeadlinesSkipped()
			continue
		}
		out = append(out, h)
	}
	metrics.Global.AddHeadlinesIngested(len(out))
	return out
}

// FoldSimilar keeps the first of any titles from the same source that
// are identical or nearly so. Week aggregation tends to list the same story
// on several days with small edits.
func FoldSimilar(headlines []news.Headline) []news.Headline {
	perSource := map[string][]string{}
	jw := strmetrics.NewJaroWinkler()
	jw.CaseSensitive = false

	out := make([]news.Headline, 0, len(headlines))
	for _, h := range headlines {
		if nearDuplicate(h.Title, perSource[h.Source], jw) {
			logger.Debug("folding near-duplicate headline", "source", h.Source, "title", h.Title)
			continue
		}
		perSource[h.Source] = append(perSource[h.Source], h.Title)
		out = append(out, h)
	}
	return out
}

func nearDuplicate(title string, earlier []string, jw *strmetrics.JaroWinkler) bool {
	for _, prev := range earlier {
		if prev == title || strutil.Similarity(title, prev, jw) >= NearDuplicateSimilarity {
			return true
		}
	}
	return false
}
