package naming

import (
	"testing"

	"github.com/deusflow/headlinegroups/internal/news"
)

func group(titles ...string) []news.Headline {
	out := make([]news.Headline, len(titles))
	for i, t := range titles {
		out[i] = news.Headline{Source: "s", Title: t, URL: "https://example.com"}
	}
	return out
}

func TestName_FourWordPhrase(t *testing.T) {
	g := group(
		"Federal Reserve interest rate decision looms",
		"Federal Reserve interest rate hike expected",
		"Markets brace for Federal Reserve interest rate call",
		"Federal Reserve interest rate pause surprises investors",
		"Economists debate Federal Reserve interest rate path",
	)
	if got, want := Name(g), "Federal Reserve Interest Rate"; got != want {
		t.Errorf("Name = %q, want %q", got, want)
	}
}

func TestName_ThreeWordPhrase(t *testing.T) {
	g := group(
		"Mars sample return mission delayed",
		"NASA rethinks mars sample return",
		"Budget cuts hit mars sample return",
		"Engineers propose cheaper rover",
		"Scientists dismayed by space budget",
	)
	if got, want := Name(g), "Mars Sample Return"; got != want {
		t.Errorf("Name = %q, want %q", got, want)
	}
}

func TestName_EntityWithContext(t *testing.T) {
	g := group(
		"Tesla recalls vehicles over autopilot flaw",
		"Tesla recalls thousands of vehicles",
		"Regulators probe Tesla autopilot",
		"Tesla autopilot under scrutiny again",
		"Tesla stock slides after recall news",
	)
	if got, want := Name(g), "Tesla Autopilot"; got != want {
		t.Errorf("Name = %q, want %q", got, want)
	}
}

func TestName_EntityWithAction(t *testing.T) {
	g := group(
		"C.E.O.s unveil hiring freeze",
		"C.E.O.s announcement rattles staff",
		"Boards question C.E.O.s pay",
		"Investors grill C.E.O.s quietly",
		"Unions target C.E.O.s bonuses",
	)
	if got, want := Name(g), "CEOs Announcement"; got != want {
		t.Errorf("Name = %q, want %q", got, want)
	}
}

func TestName_EntityWithoutActionFallsThrough(t *testing.T) {
	g := group(
		"C.E.O.s unveil hiring freeze",
		"Boards question C.E.O.s pay",
		"Investors grill C.E.O.s quietly",
		"Unions target C.E.O.s bonuses",
		"Staff cheer C.E.O.s exit",
	)
	// an entity with neither an action word nor a repeated keyword gets the
	// headline fallback, not a pairing with a one-off word
	if got, want := Name(g), "C.E.O.s unveil hiring freeze"; got != want {
		t.Errorf("Name = %q, want %q", got, want)
	}
}

func TestName_KeywordsOnly(t *testing.T) {
	g := group(
		"scientists unveil quantum chip",
		"quantum chip could reshape computing",
		"new quantum processor stuns researchers",
		"chip makers react to quantum news",
		"is quantum computing finally here",
	)
	if got, want := Name(g), "Quantum Chip Computing"; got != want {
		t.Errorf("Name = %q, want %q", got, want)
	}
}

func TestName_FallsBackToTruncatedHeadline(t *testing.T) {
	first := "Volcanic eruption forces evacuation of remote island villages overnight"
	g := group(
		first,
		"Stocks rally on upbeat earnings",
		"Museum returns looted artifacts",
		"Drought threatens coffee harvest",
		"Orchestra cancels winter tour",
	)
	if got, want := Name(g), first[:60]+"..."; got != want {
		t.Errorf("Name = %q, want %q", got, want)
	}
}

func TestName_ShortFallbackNotTruncated(t *testing.T) {
	g := group("Alpha", "Beta", "Gamma", "Delta", "Epsilon")
	if got := Name(g); got != "Alpha" {
		t.Errorf("Name = %q, want %q", got, "Alpha")
	}
}

func TestName_Deterministic(t *testing.T) {
	g := group(
		"Tesla recalls vehicles over autopilot flaw",
		"Tesla recalls thousands of vehicles",
		"Regulators probe Tesla autopilot",
		"Tesla autopilot under scrutiny again",
		"Tesla stock slides after recall news",
	)
	first := Name(g)
	for i := 0; i < 10; i++ {
		if got := Name(g); got != first {
			t.Fatalf("run %d: %q != %q", i, got, first)
		}
	}
}

func TestAcceptable(t *testing.T) {
	cases := map[string]bool{
		"Tesla":                   false,
		"Breaking News Roundup":   false,
		"Quantum Chip":            true,
		"What We Know So Far":     false,
		"Federal Reserve Meeting": true,
	}
	for name, want := range cases {
		if got := acceptable(name); got != want {
			t.Errorf("acceptable(%q) = %v, want %v", name, got, want)
		}
	}
}
