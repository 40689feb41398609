package deck

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Card is a single flashcard: question on the front, answer on the back.
type Card struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Tags     []string `json:"tags"`
}

// Levels of Bloom's taxonomy a generation request may target.
var Levels = []string{"remember", "understand", "apply", "analyze", "evaluate", "create"}

var ErrNoCards = errors.New("no usable cards")

// ValidLevel reports whether level names a Bloom's taxonomy level.
// An empty level is valid and means "no preference".
func ValidLevel(level string) bool {
	if level == "" {
		return true
	}
	for _, l := range Levels {
		if l == level {
			return true
		}
	}
	return false
}

// Clean drops cards with an empty question or answer, trims whitespace,
// and caps the result at max cards. Returns ErrNoCards when nothing survives.
func Clean(cards []Card, max int) ([]Card, error) {
	out := make([]Card, 0, len(cards))
	for _, c := range cards {
		c.Question = strings.TrimSpace(c.Question)
		c.Answer = strings.TrimSpace(c.Answer)
		if c.Question == "" || c.Answer == "" {
			continue
		}
		out = append(out, c)
		if max > 0 && len(out) == max {
			break
		}
	}
	if len(out) == 0 {
		return nil, ErrNoCards
	}
	return out, nil
}

// ParseLines recovers cards from a plain "Question, Answer" line format.
// Used as a fallback when the model ignores the structured output contract.
func ParseLines(text string) []Card {
	var cards []Card
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789. ")
		if line == "" {
			continue
		}
		q, a, ok := strings.Cut(line, ",")
		if !ok {
			continue
		}
		q = strings.TrimSpace(q)
		a = strings.TrimSpace(a)
		if q == "" || a == "" {
			continue
		}
		cards = append(cards, Card{Question: q, Answer: a})
	}
	return cards
}

// NameFromFilename derives a deck name from a source filename:
// extension stripped, hyphens and underscores replaced with spaces, title case.
// "baroque-essay.md" becomes "Baroque Essay".
func NameFromFilename(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	words := strings.Fields(base)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	if len(words) == 0 {
		return "Deck"
	}
	return strings.Join(words, " ")
}

// OutputFilename maps a source filename to its flashcard file name,
// e.g. "baroque-essay.md" -> "baroque-essay-flashcards.csv".
func OutputFilename(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return fmt.Sprintf("%s-flashcards.csv", base)
}
