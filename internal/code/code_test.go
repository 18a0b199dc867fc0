package code

import (
	"strings"
	"testing"
)

func TestGenerateLengthAndAlphabet(t *testing.T) {
	for i := 0; i < 1000; i++ {
		c := Generate()
		if len(c) != Length {
			t.Fatalf("expected %d characters, got %q", Length, c)
		}
		for _, r := range c {
			if !strings.ContainsRune(Alphabet, r) {
				t.Fatalf("code %q contains %q outside the alphabet", c, r)
			}
		}
	}
}

func TestAlphabetExcludesAmbiguousCharacters(t *testing.T) {
	for _, r := range "0O1I" {
		if strings.ContainsRune(Alphabet, r) {
			t.Fatalf("alphabet must not contain %q", r)
		}
	}
}

func TestGenerateVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		seen[Generate()] = true
	}
	// 100 draws from a 32^6 space colliding down to a single value would
	// mean the randomness source is broken.
	if len(seen) < 2 {
		t.Fatalf("expected varied codes, got %d distinct", len(seen))
	}
}
