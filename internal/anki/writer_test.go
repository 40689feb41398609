package anki

import (
	"strings"
	"testing"

	"ankigen/internal/deck"
)

var testCards = []deck.Card{
	{Question: "What is Go?", Answer: "A programming language", Tags: []string{"go", "basics"}},
	{Question: "Question, with comma", Answer: "Answer \"quoted\"", Tags: nil},
}

func TestWriteCSV(t *testing.T) {
	var b strings.Builder
	if err := WriteCSV(&b, testCards); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Question,Answer,Tags\n" +
		"What is Go?,A programming language,\"go, basics\"\n" +
		"\"Question, with comma\",\"Answer \"\"quoted\"\"\",\n"
	if b.String() != want {
		t.Errorf("unexpected csv output:\ngot:  %q\nwant: %q", b.String(), want)
	}
}

func TestWriteSimpleCSV(t *testing.T) {
	var b strings.Builder
	if err := WriteSimpleCSV(&b, testCards); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "front,back" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if strings.Contains(b.String(), "basics") {
		t.Error("simple format should not include tags")
	}
}

func TestWriteTSV(t *testing.T) {
	cards := []deck.Card{
		{Question: "q1", Answer: "a1", Tags: []string{"music history", "baroque"}},
	}
	var b strings.Builder
	if err := WriteTSV(&b, "Baroque Period", cards); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := b.String()
	for _, header := range []string{"#separator:tab", "#html:false", "#deck:Baroque Period", "#tags column:3"} {
		if !strings.Contains(out, header+"\n") {
			t.Errorf("missing header %q in output:\n%s", header, out)
		}
	}
	// Spaces inside a tag are collapsed so Anki reads it as one tag.
	if !strings.Contains(out, "q1\ta1\tmusic-history baroque") {
		t.Errorf("unexpected row in output:\n%s", out)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"csv", FormatCSV, false},
		{"simple", FormatSimple, false},
		{"tsv", FormatTSV, false},
		{"apkg", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormat(%q): unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatMetadata(t *testing.T) {
	if FormatTSV.Extension() != "tsv" || FormatCSV.Extension() != "csv" || FormatSimple.Extension() != "csv" {
		t.Error("unexpected extension mapping")
	}
	if FormatTSV.ContentType() != "text/tab-separated-values" {
		t.Errorf("unexpected tsv content type: %s", FormatTSV.ContentType())
	}
	if FormatCSV.ContentType() != "text/csv" {
		t.Errorf("unexpected csv content type: %s", FormatCSV.ContentType())
	}
}
