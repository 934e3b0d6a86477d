package normalize

import (
	"reflect"
	"testing"
)

func TestTokens(t *testing.T) {
	tests := []struct {
		title string
		want  []string
	}{
		{"The Fed's rate decision: what it means", []string{"fed", "rate", "decision", "means"}},
		{"AI chip war heats up", []string{"chip", "war", "heats"}},
		{"Café owners protest new tax", []string{"café", "owners", "protest", "new", "tax"}},
		{"", []string{}},
	}
	for _, tt := range tests {
		if got := Tokens(tt.title); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokens(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
}

func TestNGrams(t *testing.T) {
	got := NGrams("Mars sample return mission is delayed again", 2)
	want := []string{"mars sample", "sample return", "return mission", "delayed again"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("bigrams = %v, want %v", got, want)
	}
	if g := NGrams("one two", 3); len(g) != 0 {
		t.Errorf("expected no trigrams, got %v", g)
	}
	if NGrams("anything", 0) != nil {
		t.Error("n < 1 should yield nil")
	}
}

func TestSignificant(t *testing.T) {
	for w, want := range map[string]bool{"the": false, "ai": false, "via": false, "war": true, "chip": true} {
		if got := Significant(w); got != want {
			t.Errorf("Significant(%q) = %v", w, got)
		}
	}
}
