// Package cluster groups headlines from different sources that report the
// same story.
//
// The pass is greedy and order sensitive: anchors are visited in encounter
// order and an accepted group claims its members for good, so an earlier
// anchor wins any headline it shares with a later one.
package cluster

import (
	"fmt"

	"github.com/deusflow/headlinegroups/internal/metrics"
	"github.com/deusflow/headlinegroups/internal/news"
	"github.com/deusflow/headlinegroups/internal/progress"
	"github.com/deusflow/headlinegroups/internal/similarity"
)

// Policy is the immutable clustering configuration.
type Policy struct {
	Thresholds         map[news.Mode]float64
	MinGroupSize       int
	MinSourceDiversity int
}

// DefaultPolicy returns the stock thresholds. Topic-filtered and week
// corpora are noisier, so they demand more overlap.
func DefaultPolicy() Policy {
	return Policy{
		Thresholds: map[news.Mode]float64{
			news.GeneralToday: 6,
			news.TopicToday:   7.5,
			news.GeneralWeek:  9,
			news.TopicWeek:    10.5,
		},
		MinGroupSize:       5,
		MinSourceDiversity: 3,
	}
}

// Threshold returns the score a headline needs to join an anchor in mode m.
func (p Policy) Threshold(m news.Mode) float64 {
	if t, ok := p.Thresholds[m]; ok {
		return t
	}
	return DefaultPolicy().Thresholds[m]
}

// Validate checks that the policy can produce meaningful groups.
func (p Policy) Validate() error {
	if p.MinGroupSize < 2 {
		return fmt.Errorf("min group size must be at least 2, got %d", p.MinGroupSize)
	}
	if p.MinSourceDiversity < 1 {
		return fmt.Errorf("min source diversity must be at least 1, got %d", p.MinSourceDiversity)
	}
	for m, t := range p.Thresholds {
		if t <= 0 {
			return fmt.Errorf("threshold for %s must be positive, got %v", m, t)
		}
	}
	return nil
}

// Clusterer runs the greedy pass.
type Clusterer struct {
	Policy   Policy
	Score    func(a, b string) float64
	Progress progress.Sink
}

// New returns a Clusterer using the heuristic title scorer.
func New(policy Policy, sink progress.Sink) *Clusterer {
	return &Clusterer{Policy: policy, Score: similarity.Score, Progress: sink}
}

// state is the only mutable value of a pass: titles already claimed.
type state struct {
	consumed map[string]struct{}
}

func (s *state) claimed(title string) bool {
	_, ok := s.consumed[title]
	return ok
}

func (s *state) commit(group []news.Headline) {
	for _, h := range group {
		s.consumed[h.Title] = struct{}{}
	}
}

// Cluster partitions headlines into proto-groups in creation order.
// Headlines without a title or URL are ignored.
func (c *Clusterer) Cluster(headlines []news.Headline, mode news.Mode) [][]news.Headline {
	all := make([]news.Headline, 0, len(headlines))
	for _, h := range headlines {
		if h.Valid() {
			all = append(all, h)
		}
	}

	threshold := c.Policy.Threshold(mode)
	st := &state{consumed: make(map[string]struct{})}
	total := len(all)
	var groups [][]news.Headline

	progress.Emit(c.Progress, progress.Event{Phase: progress.PhaseCluster, Message: "Starting headline analysis...", Total: total})

	for i, anchor := range all {
		if !st.claimed(anchor.Title) {
			candidates := c.candidates(anchor, all, threshold, st)
			if c.accept(candidates) {
				st.commit(candidates)
				groups = append(groups, candidates)
				metrics.Global.IncrementGroupsFormed()
			} else if len(candidates) > 1 {
				metrics.Global.IncrementGroupsRejected()
			}
		}
		progress.Emit(c.Progress, progress.Event{Phase: progress.PhaseCluster, Message: "Analyzing headlines...", Processed: i + 1, Total: total})
	}

	return groups
}

// candidates returns the anchor followed by every unclaimed headline scoring
// at least threshold against it.
func (c *Clusterer) candidates(anchor news.Headline, all []news.Headline, threshold float64, st *state) []news.Headline {
	out := []news.Headline{anchor}
	for _, other := range all {
		if other.Title == anchor.Title || st.claimed(other.Title) {
			continue
		}
		if c.Score(anchor.Title, other.Title) >= threshold {
			out = append(out, other)
		}
	}
	return out
}

func (c *Clusterer) accept(group []news.Headline) bool {
	return len(group) >= c.Policy.MinGroupSize &&
		news.CountSources(group) >= c.Policy.MinSourceDiversity
}
