// Package naming derives a short label for a group of related headlines.
package naming

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/deusflow/headlinegroups/internal/news"
	"github.com/deusflow/headlinegroups/internal/normalize"
)

const (
	fallbackRunes  = 60
	contextTopN    = 5
	maxKeywordName = 3
)

var actionStems = []string{
	"announce", "launch", "report", "reveal", "update", "plan",
	"face", "deal", "issue", "problem", "crisis",
}

var genericNames = []string{
	"new report", "breaking news", "latest news", "live updates",
	"top stories", "what we know", "news update",
}

// counter counts occurrences and ranks by count, ties going to the key seen
// first.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(keys ...string) {
	for _, k := range keys {
		if _, ok := c.counts[k]; !ok {
			c.order = append(c.order, k)
		}
		c.counts[k]++
	}
}

func (c *counter) ranked() []string {
	out := append([]string(nil), c.order...)
	sort.SliceStable(out, func(i, j int) bool {
		return c.counts[out[i]] > c.counts[out[j]]
	})
	return out
}

// atLeast returns ranked keys with a count of at least min.
func (c *counter) atLeast(min int) []string {
	var out []string
	for _, k := range c.ranked() {
		if c.counts[k] >= min {
			out = append(out, k)
		}
	}
	return out
}

// profile is what the tiers look at.
type profile struct {
	headlines []news.Headline
	entities  *counter
	keywords  *counter
	trigrams  *counter
	fourgrams *counter
	// per headline
	titleEntities []map[string]bool
	titleTokens   [][]string
	minFrequency  int
}

func build(headlines []news.Headline) *profile {
	p := &profile{
		headlines: headlines,
		entities:  newCounter(),
		keywords:  newCounter(),
		trigrams:  newCounter(),
		fourgrams: newCounter(),
	}
	for _, h := range headlines {
		ents := entityWords(h.Title)
		set := make(map[string]bool, len(ents))
		for _, e := range ents {
			set[e] = true
		}
		p.entities.add(ents...)
		p.titleEntities = append(p.titleEntities, set)

		tokens := normalize.Tokens(h.Title)
		p.keywords.add(tokens...)
		p.titleTokens = append(p.titleTokens, tokens)

		p.trigrams.add(normalize.NGrams(h.Title, 3)...)
		p.fourgrams.add(normalize.NGrams(h.Title, 4)...)
	}
	p.minFrequency = max(2, len(headlines)/4)
	return p
}

// entityWords returns the capitalized words of a title with punctuation
// removed, keeping their original case.
func entityWords(title string) []string {
	var out []string
	for _, w := range strings.Fields(title) {
		w = strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsNumber(r) {
				return r
			}
			return -1
		}, w)
		first, _ := utf8.DecodeRuneInString(w)
		if len(w) > 3 && unicode.IsUpper(first) && !normalize.IsStopWord(strings.ToLower(w)) {
			out = append(out, w)
		}
	}
	return out
}

// Name returns a label for the group. It never returns an empty string for a
// non-empty group.
func Name(headlines []news.Headline) string {
	if len(headlines) == 0 {
		return ""
	}
	p := build(headlines)
	tiers := []func(*profile) string{
		phraseTier(4),
		phraseTier(3),
		entityKeywordTier,
		entityActionTier,
		keywordTier,
	}
	for _, tier := range tiers {
		if name := tier(p); acceptable(name) {
			return name
		}
	}
	return truncate(headlines[0].Title)
}

func phraseTier(n int) func(*profile) string {
	return func(p *profile) string {
		grams := p.trigrams
		if n == 4 {
			grams = p.fourgrams
		}
		if q := grams.atLeast(p.minFrequency); len(q) > 0 {
			return titleCase(q[0])
		}
		return ""
	}
}

func entityKeywordTier(p *profile) string {
	ents := p.entities.atLeast(p.minFrequency)
	keys := p.keywords.atLeast(p.minFrequency)
	if len(ents) == 0 || len(keys) == 0 {
		return ""
	}
	entity := ents[0]
	self := strings.ToLower(entity)

	top := map[string]bool{}
	for i, k := range p.keywords.ranked() {
		if i == contextTopN {
			break
		}
		top[k] = true
	}
	qualifying := map[string]bool{}
	for _, k := range keys {
		qualifying[k] = true
	}

	context := newCounter()
	for i := range p.headlines {
		if !p.titleEntities[i][entity] {
			continue
		}
		for _, t := range p.titleTokens[i] {
			if t != self && qualifying[t] && top[t] {
				context.add(t)
			}
		}
	}
	if r := context.ranked(); len(r) > 0 {
		return entity + " " + titleCase(r[0])
	}
	if k := firstOther(keys, self); k != "" {
		return entity + " " + titleCase(k)
	}
	return entity
}

func entityActionTier(p *profile) string {
	ents := p.entities.atLeast(p.minFrequency)
	if len(ents) == 0 || len(p.keywords.atLeast(p.minFrequency)) > 0 {
		return ""
	}
	entity := ents[0]

	actions := newCounter()
	for i := range p.headlines {
		if !p.titleEntities[i][entity] {
			continue
		}
		for _, t := range p.titleTokens[i] {
			if isAction(t) {
				actions.add(t)
			}
		}
	}
	if r := actions.ranked(); len(r) > 0 {
		return entity + " " + titleCase(r[0])
	}
	// no qualifying keyword exists here, so there is nothing to pair with
	return ""
}

func keywordTier(p *profile) string {
	if len(p.entities.atLeast(p.minFrequency)) > 0 {
		return ""
	}
	keys := p.keywords.atLeast(p.minFrequency)
	if len(keys) > maxKeywordName {
		keys = keys[:maxKeywordName]
	}
	return titleCase(strings.Join(keys, " "))
}

func isAction(token string) bool {
	for _, stem := range actionStems {
		if strings.Contains(token, stem) {
			return true
		}
	}
	return false
}

func firstOther(keys []string, skip string) string {
	for _, k := range keys {
		if k != skip {
			return k
		}
	}
	return ""
}

// acceptable rejects one-word and generic names.
func acceptable(name string) bool {
	if len(strings.Fields(name)) < 2 {
		return false
	}
	lower := strings.ToLower(name)
	for _, g := range genericNames {
		if strings.Contains(lower, g) {
			return false
		}
	}
	return true
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func truncate(title string) string {
	if utf8.RuneCountInString(title) <= fallbackRunes {
		return title
	}
	return string([]rune(title)[:fallbackRunes]) + "..."
}
