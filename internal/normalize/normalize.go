// Package normalize turns raw headline titles into comparable tokens.
package normalize

import (
	"strings"
	"unicode"
)

// stopWords holds articles, conjunctions, auxiliaries and aggregator noise
// (site abbreviations that show up in titles).
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "but": true, "or": true,
	"for": true, "nor": true, "on": true, "at": true, "to": true, "from": true,
	"by": true, "with": true, "in": true, "of": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true, "did": true,
	"can": true, "could": true, "will": true, "would": true, "shall": true,
	"should": true, "may": true, "might": true, "must": true, "that": true,
	"which": true, "who": true, "whom": true, "this": true, "these": true,
	"those": true, "how": true, "why": true, "when": true, "where": true,
	"what": true, "into": true, "its": true, "than": true, "just": true,
	"know": true, "best": true,
	// aggregator noise
	"hn": true, "nyt": true, "wsj": true, "via": true,
}

// IsStopWord reports whether a lowercased word is in the stop list.
func IsStopWord(w string) bool {
	return stopWords[w]
}

// Significant reports whether a normalized word carries meaning.
func Significant(w string) bool {
	return len(w) > 2 && !stopWords[w]
}

// Words lowercases s, replaces everything that is not a letter, digit or
// space with a space and splits on whitespace.
func Words(s string) []string {
	s = strings.ToLower(s)
	b := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) {
			b = append(b, r)
		} else {
			b = append(b, ' ')
		}
	}
	return strings.Fields(string(b))
}

// Tokens returns the significant words of title, order and duplicates kept.
func Tokens(title string) []string {
	words := Words(title)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if Significant(w) {
			out = append(out, w)
		}
	}
	return out
}

// NGrams returns every run of n adjacent words in title whose members are all
// significant, joined with a single space. A non-significant word breaks the run.
func NGrams(title string, n int) []string {
	if n < 1 {
		return nil
	}
	words := Words(title)
	var out []string
	for i := 0; i+n <= len(words); i++ {
		ok := true
		for _, w := range words[i : i+n] {
			if !Significant(w) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, strings.Join(words[i:i+n], " "))
		}
	}
	return out
}

// Normalize returns the significant tokens and adjacent-pair phrases of title.
func Normalize(title string) (tokens, phrases []string) {
	return Tokens(title), NGrams(title, 2)
}
