package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"ankigen/internal/anki"
	"ankigen/internal/app"
	"ankigen/internal/deck"
	"ankigen/internal/httputil"
	"ankigen/internal/queue"
	"ankigen/internal/store"
)

type generateTaskPayload struct {
	DeckID   uuid.UUID `json:"deck_id"`
	SourceID uuid.UUID `json:"source_id"`
	DeckName string    `json:"deck_name"`
	NumCards int       `json:"num_cards"`
	Level    string    `json:"level"`
	Force    bool      `json:"force"`
}

type uploadOptions struct {
	DeckName string `validate:"omitempty,max=120"`
	NumCards int    `validate:"omitempty,min=1,max=50"`
	Level    string `validate:"omitempty,oneof=remember understand apply analyze evaluate create"`
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	r := httputil.NewRouter(deps.Log)

	r.Post("/api/sources/upload", uploadHandler(deps))
	r.Get("/api/decks", listDecksHandler(deps))
	r.Get("/api/decks/{id}", getDeckHandler(deps))
	r.Get("/api/decks/{id}/export", exportDeckHandler(deps))
	r.Post("/api/decks/{id}/regenerate", regenerateHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	deps.Log.Info("gateway listening", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		deps.Log.Error("server failed", "err", err)
	}
}

func uploadHandler(deps app.Deps) http.HandlerFunc {
	maxFileSize := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		// Validate file size before parsing
		if r.ContentLength > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			httputil.Fail(deps.Log, w, "file is required", err, http.StatusBadRequest)
			return
		}
		defer file.Close()

		if header.Size > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}

		if !allowedFile(header.Filename) {
			httputil.Fail(deps.Log, w, "unsupported file type (only Markdown, TXT, and PDF allowed)", nil, http.StatusBadRequest)
			return
		}

		opts, err := parseUploadOptions(r, deps.Config.NumCards)
		if err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		if opts.DeckName == "" {
			opts.DeckName = deck.NameFromFilename(header.Filename)
		}

		content, err := io.ReadAll(file)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to read file", err, http.StatusInternalServerError)
			return
		}
		text := extractText(header.Filename, content, deps)
		if strings.TrimSpace(text) == "" {
			httputil.Fail(deps.Log, w, "file contains no text", nil, http.StatusBadRequest)
			return
		}

		src, err := deps.Store.CreateSource(ctx, header.Filename, text)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to persist source", err, http.StatusInternalServerError)
			return
		}
		dk, err := deps.Store.CreateDeck(ctx, src.ID, opts.DeckName)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to persist deck", err, http.StatusInternalServerError)
			return
		}

		payload := generateTaskPayload{
			DeckID:   dk.ID,
			SourceID: src.ID,
			DeckName: opts.DeckName,
			NumCards: opts.NumCards,
			Level:    opts.Level,
		}
		if err := enqueueGenerate(ctx, deps, payload); err != nil {
			fail(deps, ctx, w, "failed to enqueue generation; please retry", err, dk.ID, http.StatusInternalServerError, true)
			return
		}

		httputil.WriteJSON(w, http.StatusAccepted, map[string]any{
			"source_id": src.ID.String(),
			"deck_id":   dk.ID.String(),
			"deck_name": dk.Name,
			"status":    dk.Status,
		})
	}
}

// parseUploadOptions reads optional generation knobs from the multipart form.
func parseUploadOptions(r *http.Request, defaultCards int) (uploadOptions, error) {
	opts := uploadOptions{
		DeckName: strings.TrimSpace(r.FormValue("deck_name")),
		NumCards: defaultCards,
		Level:    strings.TrimSpace(r.FormValue("level")),
	}
	if v := r.FormValue("num_cards"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, fmt.Errorf("num_cards must be an integer: %w", err)
		}
		opts.NumCards = n
	}
	if err := httputil.Validator.Struct(&opts); err != nil {
		return opts, err
	}
	return opts, nil
}

func allowedFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown", ".txt", ".pdf":
		return true
	default:
		return false
	}
}

func enqueueGenerate(ctx context.Context, deps app.Deps, payload generateTaskPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	task := queue.Task{Type: queue.TaskTypeGenerate, Payload: body}
	return queue.EnqueueWithRetry(ctx, deps.Queue, task, 3, 200*time.Millisecond)
}

// fail is a gateway-specific error handler that can mark decks as failed
func fail(deps app.Deps, ctx context.Context, w http.ResponseWriter, message string, err error, deckID uuid.UUID, status int, markFailed bool) {
	log := deps.Log.With("deck_id", deckID)
	if markFailed && deckID != uuid.Nil {
		if upErr := deps.Store.UpdateDeckStatus(ctx, deckID, store.StatusFailed); upErr != nil {
			log.Error("failed to mark deck failed", "err", upErr)
		}
	}

	httputil.Fail(log, w, message, err, status)
}

func listDecksHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		decks, err := deps.Store.ListDecks(r.Context())
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to list decks", err, http.StatusInternalServerError)
			return
		}
		out := make([]map[string]any, 0, len(decks))
		for _, d := range decks {
			out = append(out, deckJSON(d))
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"decks": out})
	}
}

func getDeckHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := deckFromPath(deps, w, r)
		if !ok {
			return
		}
		cards, err := deps.Store.ListCards(r.Context(), d.ID)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to list cards", err, http.StatusInternalServerError)
			return
		}
		body := deckJSON(d)
		cardsOut := make([]map[string]any, 0, len(cards))
		for _, c := range cards {
			cardsOut = append(cardsOut, map[string]any{
				"question": c.Question,
				"answer":   c.Answer,
				"tags":     c.Tags,
			})
		}
		body["cards"] = cardsOut
		httputil.WriteJSON(w, http.StatusOK, body)
	}
}

func exportDeckHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := deckFromPath(deps, w, r)
		if !ok {
			return
		}
		format, err := anki.ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			httputil.Fail(deps.Log, w, err.Error(), err, http.StatusBadRequest)
			return
		}
		if d.Status != store.StatusReady {
			httputil.Fail(deps.Log, w, fmt.Sprintf("deck not ready (status: %s)", d.Status), nil, http.StatusConflict)
			return
		}
		stored, err := deps.Store.ListCards(r.Context(), d.ID)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to list cards", err, http.StatusInternalServerError)
			return
		}
		cards := make([]deck.Card, len(stored))
		for i, c := range stored {
			cards[i] = c.Flashcard()
		}

		var buf bytes.Buffer
		if err := anki.Write(&buf, format, d.Name, cards); err != nil {
			httputil.Fail(deps.Log, w, "failed to render deck", err, http.StatusInternalServerError)
			return
		}
		filename := fmt.Sprintf("%s-flashcards.%s", strings.ReplaceAll(strings.ToLower(d.Name), " ", "-"), format.Extension())
		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.WriteHeader(http.StatusOK)
		if _, err := buf.WriteTo(w); err != nil {
			deps.Log.Error("failed to write export", "err", err)
		}
	}
}

type regenerateRequest struct {
	NumCards int    `json:"num_cards" validate:"omitempty,min=1,max=50"`
	Level    string `json:"level" validate:"omitempty,oneof=remember understand apply analyze evaluate create"`
	Force    bool   `json:"force"`
}

func regenerateHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := deckFromPath(deps, w, r)
		if !ok {
			return
		}

		var req regenerateRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
				return
			}
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		if req.NumCards == 0 {
			req.NumCards = deps.Config.NumCards
		}

		ctx := r.Context()
		if err := deps.Store.UpdateDeckStatus(ctx, d.ID, store.StatusPending); err != nil {
			httputil.Fail(deps.Log, w, "failed to reset deck", err, http.StatusInternalServerError)
			return
		}
		payload := generateTaskPayload{
			DeckID:   d.ID,
			SourceID: d.SourceID,
			DeckName: d.Name,
			NumCards: req.NumCards,
			Level:    req.Level,
			Force:    req.Force,
		}
		if err := enqueueGenerate(ctx, deps, payload); err != nil {
			fail(deps, ctx, w, "failed to enqueue generation; please retry", err, d.ID, http.StatusInternalServerError, true)
			return
		}
		httputil.WriteJSON(w, http.StatusAccepted, map[string]any{
			"deck_id": d.ID.String(),
			"status":  store.StatusPending,
		})
	}
}

// deckFromPath resolves the {id} URL parameter to a deck, writing the error
// response itself when the id is invalid or unknown.
func deckFromPath(deps app.Deps, w http.ResponseWriter, r *http.Request) (store.Deck, bool) {
	idStr := chi.URLParam(r, "id")
	deckID, err := uuid.Parse(idStr)
	if err != nil {
		httputil.Fail(deps.Log, w, "invalid deck id", err, http.StatusBadRequest)
		return store.Deck{}, false
	}
	d, err := deps.Store.GetDeck(r.Context(), deckID)
	if err != nil {
		status := http.StatusInternalServerError
		message := "failed to get deck"
		if errors.Is(err, store.ErrDeckNotFound) {
			status = http.StatusNotFound
			message = "deck not found"
		}
		httputil.Fail(deps.Log, w, message, err, status)
		return store.Deck{}, false
	}
	return d, true
}

func deckJSON(d store.Deck) map[string]any {
	return map[string]any{
		"deck_id":    d.ID.String(),
		"source_id":  d.SourceID.String(),
		"name":       d.Name,
		"status":     d.Status,
		"created_at": d.CreatedAt,
	}
}

// extractText extracts text from uploaded files, with PDF support.
func extractText(filename string, content []byte, deps app.Deps) string {
	if strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		text, err := extractPDF(content)
		if err != nil {
			deps.Log.Warn("pdf extraction failed, using raw bytes", "err", err, "filename", filename)
			return string(content)
		}
		return text
	}
	// Treat other files as plain text
	return string(content)
}

func extractPDF(content []byte) (string, error) {
	reader := bytes.NewReader(content)
	pdfReader, err := pdf.NewReader(reader, int64(len(content)))
	if err != nil {
		return "", err
	}

	var textBuilder strings.Builder
	numPages := pdfReader.NumPage()

	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() || page.V.Key("Contents").Kind() == pdf.Null {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages that fail to extract
			continue
		}
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}
