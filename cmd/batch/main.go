package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ankigen/internal/anki"
	"ankigen/internal/app"
	"ankigen/internal/chunker"
	"ankigen/internal/deck"
	"ankigen/internal/llm"
)

// batch turns a directory of markdown files into one flashcard CSV each,
// without going through the gateway or queue.
func main() {
	inDir := flag.String("in", "essays", "directory containing markdown source files")
	outDir := flag.String("out", "flashcards", "directory to write flashcard CSV files to")
	numCards := flag.Int("cards", 0, "cards to generate per deck (default from NUM_CARDS)")
	level := flag.String("level", "", "optional Bloom's taxonomy level (remember, understand, apply, analyze, evaluate, create)")
	flag.Parse()

	deps, err := app.BuildBatch()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	if *numCards <= 0 {
		*numCards = deps.Config.NumCards
	}
	if !deck.ValidLevel(*level) {
		deps.Log.Error("invalid taxonomy level", "level", *level)
		os.Exit(1)
	}

	processed, err := processDirectory(context.Background(), deps, *inDir, *outDir, *numCards, *level)
	if err != nil {
		deps.Log.Error("batch run failed", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("batch run complete", "processed", processed, "output_dir", *outDir)
}

// processDirectory generates a deck CSV for every .md file in inDir.
// A failure on one file is logged and does not stop the rest.
func processDirectory(ctx context.Context, deps app.BatchDeps, inDir, outDir string, numCards int, level string) (int, error) {
	entries, err := os.ReadDir(inDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read input directory: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	processed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".md") {
			continue
		}
		outPath := filepath.Join(outDir, deck.OutputFilename(entry.Name()))
		if err := processFile(ctx, deps, filepath.Join(inDir, entry.Name()), outPath, numCards, level); err != nil {
			deps.Log.Error("failed to process file", "file", entry.Name(), "err", err)
			continue
		}
		deps.Log.Info("generated flashcards", "file", entry.Name(), "output", outPath)
		processed++
	}
	return processed, nil
}

func processFile(ctx context.Context, deps app.BatchDeps, inPath, outPath string, numCards int, level string) error {
	content, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	deckName := deck.NameFromFilename(inPath)

	text := chunker.Condense(string(content), deps.Config.PromptTokenBudget)
	cards, err := deps.LLM.GenerateCards(ctx, llm.Request{
		Text:     text,
		DeckName: deckName,
		NumCards: numCards,
		Level:    level,
	})
	if err != nil {
		return fmt.Errorf("llm generation failed: %w", err)
	}
	cards, err = deck.Clean(cards, deps.Config.MaxCards)
	if err != nil {
		return fmt.Errorf("model returned %w", err)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := anki.WriteCSV(f, cards); err != nil {
		f.Close()
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return f.Close()
}
