package llm

import (
	"strings"
	"testing"
)

func TestParseCardsStructuredJSON(t *testing.T) {
	content := `{"cards":[{"question":"What is Go?","answer":"A language","tags":["go"]},{"question":"q2","answer":"a2","tags":[]}]}`
	cards, err := ParseCards(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}
	if cards[0].Question != "What is Go?" || cards[0].Tags[0] != "go" {
		t.Errorf("unexpected first card: %+v", cards[0])
	}
}

func TestParseCardsFencedJSON(t *testing.T) {
	content := "```json\n{\"cards\":[{\"question\":\"q\",\"answer\":\"a\",\"tags\":[]}]}\n```"
	cards, err := ParseCards(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("expected 1 card, got %d", len(cards))
	}
}

func TestParseCardsFallbackLines(t *testing.T) {
	content := "What is the capital of France?, Paris\nWho wrote Faust?, Goethe"
	cards, err := ParseCards(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards from fallback, got %d", len(cards))
	}
	if cards[1].Answer != "Goethe" {
		t.Errorf("unexpected answer: %q", cards[1].Answer)
	}
}

func TestParseCardsNoCards(t *testing.T) {
	if _, err := ParseCards("I could not generate any flashcards"); err == nil {
		t.Fatal("expected error for cardless response")
	}
	if _, err := ParseCards(`{"cards":[]}`); err == nil {
		t.Fatal("expected error for empty cards array")
	}
}

func TestSystemPrompt(t *testing.T) {
	p := systemPrompt(Request{DeckName: "Baroque Period", NumCards: 7})
	if !strings.Contains(p, "Create 7 Anki flashcards") {
		t.Errorf("expected card count in prompt:\n%s", p)
	}
	if !strings.Contains(p, `"Baroque Period"`) {
		t.Errorf("expected deck name in prompt:\n%s", p)
	}
	if strings.Contains(p, "Bloom") {
		t.Errorf("did not expect taxonomy mention without a level:\n%s", p)
	}
}

func TestSystemPromptWithLevel(t *testing.T) {
	p := systemPrompt(Request{DeckName: "Deck", NumCards: 5, Level: "analyze"})
	if !strings.Contains(p, "analyze level of Bloom's taxonomy") {
		t.Errorf("expected taxonomy level in prompt:\n%s", p)
	}
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	if _, err := NewOpenAIClient("", "gpt-4o-mini", 0.7, 2048); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"cards":[]}`, `{"cards":[]}`},
		{"```json\n{}\n```", "{}"},
		{"```\n{}\n```", "{}"},
		{"  {} ", "{}"},
	}
	for _, tt := range tests {
		if got := stripFences(tt.in); got != tt.want {
			t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
