// Package similarity scores how likely two headlines report the same story.
package similarity

import (
	"math"
	"strings"

	"github.com/deusflow/headlinegroups/internal/normalize"
)

const (
	minWordOverlap  = 3
	wordOnlyWeight  = 1.5
	wordWeight      = 2
	phraseWeight    = 6
	conflictFactor  = 0.3
	lengthPenaltyPW = 0.5
	maxLengthCost   = 2
)

// conflictPairs are keywords from domains that rarely share a story.
var conflictPairs = [][2]string{
	{"election", "sports"},
	{"politics", "gaming"},
	{"business", "weather"},
	{"covid", "entertainment"},
	{"war", "tech"},
	{"climate", "fashion"},
}

// Score returns a non-negative similarity for two raw titles. It is symmetric
// but not transitive: Score(a, b) and Score(b, c) clearing a threshold says
// nothing about Score(a, c).
func Score(title1, title2 string) float64 {
	tokens1, phrases1 := normalize.Normalize(title1)
	tokens2, phrases2 := normalize.Normalize(title2)

	wordOverlap := overlap(tokens1, tokens2)
	phraseOverlap := overlap(phrases1, phrases2)

	var score float64
	if phraseOverlap == 0 {
		if wordOverlap < minWordOverlap {
			return 0
		}
		score = float64(wordOverlap) * wordOnlyWeight
	} else {
		score = float64(wordOverlap)*wordWeight + float64(phraseOverlap)*phraseWeight
	}

	lower1, lower2 := strings.ToLower(title1), strings.ToLower(title2)
	for _, p := range conflictPairs {
		if conflicts(lower1, lower2, p) {
			score *= conflictFactor
		}
	}

	diff := math.Abs(float64(len(tokens1) - len(tokens2)))
	score -= math.Min(diff*lengthPenaltyPW, maxLengthCost)

	return math.Max(0, score)
}

func conflicts(a, b string, p [2]string) bool {
	return (strings.Contains(a, p[0]) && strings.Contains(b, p[1])) ||
		(strings.Contains(a, p[1]) && strings.Contains(b, p[0]))
}

// overlap is the size of the set intersection of a and b.
func overlap(a, b []string) int {
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	n := 0
	for _, s := range b {
		if _, ok := set[s]; ok {
			n++
			delete(set, s)
		}
	}
	return n
}
