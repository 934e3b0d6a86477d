package cluster

import (
	"reflect"
	"testing"

	"github.com/deusflow/headlinegroups/internal/news"
	"github.com/deusflow/headlinegroups/internal/progress"
	"github.com/deusflow/headlinegroups/internal/similarity"
)

func h(source, title string) news.Headline {
	return news.Headline{Source: source, Title: title, URL: "https://" + source + ".example/" + title}
}

func storyHeadlines() []news.Headline {
	return []news.Headline{
		h("reuters", "Senate passes sweeping infrastructure spending package"),
		h("bbc", "Senate passes sweeping infrastructure spending package after debate"),
		h("npr", "Senate passes sweeping infrastructure spending package late"),
		h("cnn", "Senate passes sweeping infrastructure spending package tonight"),
		h("bbc", "Senate passes sweeping infrastructure spending package finally"),
		h("npr", "Analysis: senate passes sweeping infrastructure spending package"),
		h("verge", "Local bakery wins regional bread contest"),
	}
}

func TestCluster_SingleStory(t *testing.T) {
	c := New(DefaultPolicy(), nil)
	groups := c.Cluster(storyHeadlines(), news.GeneralToday)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if len(groups[0]) != 6 {
		t.Errorf("expected 6 members, got %d", len(groups[0]))
	}
	if n := news.CountSources(groups[0]); n != 4 {
		t.Errorf("expected 4 sources, got %d", n)
	}
	for _, m := range groups[0] {
		if m.Source == "verge" {
			t.Errorf("unrelated headline joined the group: %q", m.Title)
		}
	}
}

func TestCluster_RejectsLowSourceDiversity(t *testing.T) {
	in := []news.Headline{
		h("a", "Senate passes sweeping infrastructure spending package"),
		h("a", "Senate passes sweeping infrastructure spending package today"),
		h("b", "Senate passes sweeping infrastructure spending package late"),
		h("b", "Senate passes sweeping infrastructure spending package tonight"),
		h("a", "Senate passes sweeping infrastructure spending package finally"),
	}
	if groups := New(DefaultPolicy(), nil).Cluster(in, news.GeneralToday); len(groups) != 0 {
		t.Errorf("expected no groups with 2 sources, got %d", len(groups))
	}
}

func TestCluster_RejectsSmallGroups(t *testing.T) {
	in := storyHeadlines()[:4]
	if groups := New(DefaultPolicy(), nil).Cluster(in, news.GeneralToday); len(groups) != 0 {
		t.Errorf("expected no groups below min size, got %d", len(groups))
	}
}

func TestCluster_SkipsMalformed(t *testing.T) {
	in := append(storyHeadlines(), news.Headline{Source: "x", Title: "Senate passes sweeping infrastructure spending package now"})
	groups := New(DefaultPolicy(), nil).Cluster(in, news.GeneralToday)
	if len(groups) != 1 || len(groups[0]) != 6 {
		t.Fatalf("malformed record should be ignored, got %v", groups)
	}
}

func TestCluster_Deterministic(t *testing.T) {
	c := New(DefaultPolicy(), nil)
	first := c.Cluster(storyHeadlines(), news.GeneralToday)
	second := c.Cluster(storyHeadlines(), news.GeneralToday)
	if !reflect.DeepEqual(first, second) {
		t.Error("two passes over the same input differ")
	}
}

func TestCluster_NonTransitiveBridge(t *testing.T) {
	a := "alpha beta gamma omega sigma kappa"
	b := "alpha beta gamma delta epsilon zeta"
	c := "delta epsilon zeta lambda theta iota"
	in := []news.Headline{
		h("s1", b),
		h("s2", a),
		h("s3", c),
		h("s4", "alpha beta gamma delta epsilon zeta update"),
		h("s1", "alpha beta gamma delta epsilon zeta report"),
	}
	threshold := DefaultPolicy().Threshold(news.GeneralToday)
	if similarity.Score(a, c) >= threshold {
		t.Fatalf("fixture broken: a and c should not match directly")
	}

	groups := New(DefaultPolicy(), nil).Cluster(in, news.GeneralToday)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	titles := map[string]bool{}
	for _, m := range groups[0] {
		titles[m.Title] = true
	}
	if !titles[a] || !titles[b] || !titles[c] {
		t.Errorf("anchor b should pull in both a and c, got %v", titles)
	}
}

// The anchor that comes first claims shared headlines; reordering the input
// changes which group they land in.
func TestCluster_OrderSensitive(t *testing.T) {
	score := func(x, y string) float64 {
		pairs := map[[2]string]bool{}
		link := func(p, q string) { pairs[[2]string{p, q}] = true; pairs[[2]string{q, p}] = true }
		for _, m := range []string{"m1", "m2", "m3", "m4"} {
			link("A", m)
			link("B", m)
		}
		link("B", "b1")
		if pairs[[2]string{x, y}] {
			return 10
		}
		return 0
	}
	mk := func(order ...string) []news.Headline {
		src := map[string]string{"A": "s1", "B": "s2", "m1": "s1", "m2": "s2", "m3": "s3", "m4": "s4", "b1": "s3"}
		var out []news.Headline
		for _, t := range order {
			out = append(out, h(src[t], t))
		}
		return out
	}
	c := &Clusterer{Policy: DefaultPolicy(), Score: score}

	groups := c.Cluster(mk("A", "B", "m1", "m2", "m3", "m4", "b1"), news.GeneralToday)
	if len(groups) != 1 || groups[0][0].Title != "A" {
		t.Fatalf("expected A to anchor the only group, got %v", groups)
	}

	groups = c.Cluster(mk("B", "A", "m1", "m2", "m3", "m4", "b1"), news.GeneralToday)
	if len(groups) != 1 || groups[0][0].Title != "B" || len(groups[0]) != 6 {
		t.Fatalf("expected B to anchor a 6-member group, got %v", groups)
	}
}

func TestCluster_ReportsProgress(t *testing.T) {
	rec := &progress.Recorder{}
	New(DefaultPolicy(), rec).Cluster(storyHeadlines(), news.GeneralToday)
	events := rec.Phase(progress.PhaseCluster)
	if len(events) != len(storyHeadlines())+1 {
		t.Fatalf("expected %d events, got %d", len(storyHeadlines())+1, len(events))
	}
	last := events[len(events)-1]
	if last.Processed != last.Total {
		t.Errorf("last event should be complete, got %+v", last)
	}
}

func TestPolicy_Thresholds(t *testing.T) {
	p := DefaultPolicy()
	if !(p.Threshold(news.GeneralToday) < p.Threshold(news.TopicToday) &&
		p.Threshold(news.GeneralToday) < p.Threshold(news.GeneralWeek)) {
		t.Error("topic and week modes should demand a higher threshold")
	}
	if err := p.Validate(); err != nil {
		t.Errorf("default policy invalid: %v", err)
	}
	if err := (Policy{MinGroupSize: 1, MinSourceDiversity: 1}).Validate(); err == nil {
		t.Error("expected error for min group size 1")
	}
}
