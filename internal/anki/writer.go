package anki

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"ankigen/internal/deck"
)

// Format names an Anki-importable output format.
type Format string

const (
	// FormatCSV is a comma-separated file with a Question,Answer,Tags header.
	FormatCSV Format = "csv"
	// FormatSimple is a two-column front/back CSV without tags.
	FormatSimple Format = "simple"
	// FormatTSV is tab-separated with Anki file headers (#separator, #deck, ...).
	FormatTSV Format = "tsv"
)

// ParseFormat validates a format string, defaulting to CSV when empty.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatSimple:
		return FormatSimple, nil
	case FormatTSV:
		return FormatTSV, nil
	default:
		return "", fmt.Errorf("unsupported format: %q (valid options: csv, simple, tsv)", s)
	}
}

// ContentType returns the MIME type to serve the format with.
func (f Format) ContentType() string {
	if f == FormatTSV {
		return "text/tab-separated-values"
	}
	return "text/csv"
}

// Extension returns the file extension for the format, without the dot.
func (f Format) Extension() string {
	if f == FormatTSV {
		return "tsv"
	}
	return "csv"
}

// Write renders cards in the given format.
func Write(w io.Writer, format Format, deckName string, cards []deck.Card) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, cards)
	case FormatSimple:
		return WriteSimpleCSV(w, cards)
	case FormatTSV:
		return WriteTSV(w, deckName, cards)
	default:
		return fmt.Errorf("unsupported format: %q", format)
	}
}

// WriteCSV writes cards as CSV with a Question,Answer,Tags header.
// Tags are joined with ", " in a single column.
func WriteCSV(w io.Writer, cards []deck.Card) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Question", "Answer", "Tags"}); err != nil {
		return err
	}
	for _, c := range cards {
		if err := cw.Write([]string{c.Question, c.Answer, strings.Join(c.Tags, ", ")}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSimpleCSV writes cards as a minimal front,back CSV.
func WriteSimpleCSV(w io.Writer, cards []deck.Card) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"front", "back"}); err != nil {
		return err
	}
	for _, c := range cards {
		if err := cw.Write([]string{c.Question, c.Answer}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTSV writes cards tab-separated with Anki import headers so the deck
// name and tags column are picked up automatically on import.
func WriteTSV(w io.Writer, deckName string, cards []deck.Card) error {
	headers := fmt.Sprintf("#separator:tab\n#html:false\n#deck:%s\n#tags column:3\n", deckName)
	if _, err := io.WriteString(w, headers); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	for _, c := range cards {
		// Anki tags are space-delimited, so spaces inside a tag are collapsed.
		tags := make([]string, len(c.Tags))
		for i, t := range c.Tags {
			tags[i] = strings.ReplaceAll(t, " ", "-")
		}
		if err := cw.Write([]string{c.Question, c.Answer, strings.Join(tags, " ")}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
