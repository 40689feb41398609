package cache

import "testing"

func TestKeyDeterministic(t *testing.T) {
	a := Key("gpt-4o-mini", "Baroque Period", "analyze", 5, "some essay text")
	b := Key("gpt-4o-mini", "Baroque Period", "analyze", 5, "some essay text")
	if a != b {
		t.Errorf("expected identical keys, got %s and %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected sha256 hex key, got %d chars", len(a))
	}
}

func TestKeyChangesWithInputs(t *testing.T) {
	base := Key("gpt-4o-mini", "Deck", "", 5, "text")
	variants := []string{
		Key("gpt-4o", "Deck", "", 5, "text"),
		Key("gpt-4o-mini", "Other Deck", "", 5, "text"),
		Key("gpt-4o-mini", "Deck", "analyze", 5, "text"),
		Key("gpt-4o-mini", "Deck", "", 10, "text"),
		Key("gpt-4o-mini", "Deck", "", 5, "other text"),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d produced the same key as base", i)
		}
	}
}

func TestKeyNoDelimiterCollision(t *testing.T) {
	// The separator keeps "ab"+"c" distinct from "a"+"bc".
	a := Key("m", "ab", "c", 1, "t")
	b := Key("m", "a", "bc", 1, "t")
	if a == b {
		t.Error("expected different keys for shifted fields")
	}
}
