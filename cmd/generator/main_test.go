package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"ankigen/internal/app"
	"ankigen/internal/cache"
	"ankigen/internal/config"
	"ankigen/internal/deck"
	"ankigen/internal/llm"
	"ankigen/internal/store"
)

func newTestDeps(st store.Store, l llm.Client, c cache.Cache) app.GeneratorDeps {
	return app.GeneratorDeps{
		Store: st,
		LLM:   l,
		Cache: c,
		Config: config.Config{
			LLMModel:          "gpt-4o-mini",
			NumCards:          5,
			MaxCards:          50,
			PromptTokenBudget: 3000,
			CacheTTL:          60,
		},
		Log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func testPayload(deckID, srcID uuid.UUID) generateTaskPayload {
	return generateTaskPayload{
		DeckID:   deckID,
		SourceID: srcID,
		DeckName: "Baroque Period",
		NumCards: 5,
	}
}

func TestHandleGenerateSuccess(t *testing.T) {
	deckID := uuid.New()
	srcID := uuid.New()
	generated := []deck.Card{
		{Question: "q1", Answer: "a1", Tags: []string{"baroque"}},
		{Question: "q2", Answer: "a2"},
	}

	st := new(store.MockStore)
	l := new(llm.MockClient)
	c := new(cache.MockCache)

	st.On("GetSource", mock.Anything, srcID).
		Return(store.Source{ID: srcID, Content: "The Baroque period began around 1600."}, nil).Once()
	st.On("UpdateDeckStatus", mock.Anything, deckID, store.StatusGenerating).Return(nil).Once()
	c.On("GetCards", mock.Anything, mock.Anything).Return(nil, nil).Once()
	l.On("GenerateCards", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		return req.DeckName == "Baroque Period" && req.NumCards == 5
	})).Return(generated, nil).Once()
	st.On("SaveCards", mock.Anything, deckID, generated).
		Return([]store.Card{{DeckID: deckID}, {DeckID: deckID}}, nil).Once()
	st.On("UpdateDeckStatus", mock.Anything, deckID, store.StatusReady).Return(nil).Once()
	c.On("SetCards", mock.Anything, mock.Anything, generated, mock.Anything).Return(nil).Once()

	err := handleGenerate(context.Background(), newTestDeps(st, l, c), testPayload(deckID, srcID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st.AssertExpectations(t)
	l.AssertExpectations(t)
	c.AssertExpectations(t)
}

func TestHandleGenerateCacheHit(t *testing.T) {
	deckID := uuid.New()
	srcID := uuid.New()
	cached := []deck.Card{{Question: "q", Answer: "a"}}

	st := new(store.MockStore)
	l := new(llm.MockClient)
	c := new(cache.MockCache)

	st.On("GetSource", mock.Anything, srcID).
		Return(store.Source{ID: srcID, Content: "text"}, nil).Once()
	st.On("UpdateDeckStatus", mock.Anything, deckID, store.StatusGenerating).Return(nil).Once()
	c.On("GetCards", mock.Anything, mock.Anything).Return(cached, nil).Once()
	st.On("SaveCards", mock.Anything, deckID, cached).
		Return([]store.Card{{DeckID: deckID}}, nil).Once()
	st.On("UpdateDeckStatus", mock.Anything, deckID, store.StatusReady).Return(nil).Once()

	err := handleGenerate(context.Background(), newTestDeps(st, l, c), testPayload(deckID, srcID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// LLM must not be called on a cache hit, and the cache is not rewritten.
	l.AssertNotCalled(t, "GenerateCards", mock.Anything, mock.Anything)
	c.AssertNotCalled(t, "SetCards", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	st.AssertExpectations(t)
}

func TestHandleGenerateForceSkipsCache(t *testing.T) {
	deckID := uuid.New()
	srcID := uuid.New()
	generated := []deck.Card{{Question: "q", Answer: "a"}}

	st := new(store.MockStore)
	l := new(llm.MockClient)
	c := new(cache.MockCache)

	st.On("GetSource", mock.Anything, srcID).
		Return(store.Source{ID: srcID, Content: "text"}, nil).Once()
	st.On("UpdateDeckStatus", mock.Anything, deckID, store.StatusGenerating).Return(nil).Once()
	l.On("GenerateCards", mock.Anything, mock.Anything).Return(generated, nil).Once()
	st.On("SaveCards", mock.Anything, deckID, generated).
		Return([]store.Card{{DeckID: deckID}}, nil).Once()
	st.On("UpdateDeckStatus", mock.Anything, deckID, store.StatusReady).Return(nil).Once()
	c.On("SetCards", mock.Anything, mock.Anything, generated, mock.Anything).Return(nil).Once()

	payload := testPayload(deckID, srcID)
	payload.Force = true
	err := handleGenerate(context.Background(), newTestDeps(st, l, c), payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.AssertNotCalled(t, "GetCards", mock.Anything, mock.Anything)
	st.AssertExpectations(t)
	l.AssertExpectations(t)
	c.AssertExpectations(t)
}

func TestHandleGenerateLLMFailureMarksDeckFailed(t *testing.T) {
	deckID := uuid.New()
	srcID := uuid.New()

	st := new(store.MockStore)
	l := new(llm.MockClient)
	c := new(cache.MockCache)

	st.On("GetSource", mock.Anything, srcID).
		Return(store.Source{ID: srcID, Content: "text"}, nil).Once()
	st.On("UpdateDeckStatus", mock.Anything, deckID, store.StatusGenerating).Return(nil).Once()
	c.On("GetCards", mock.Anything, mock.Anything).Return(nil, nil).Once()
	l.On("GenerateCards", mock.Anything, mock.Anything).
		Return(nil, errors.New("rate limited")).Once()
	st.On("UpdateDeckStatus", mock.Anything, deckID, store.StatusFailed).Return(nil).Once()

	err := handleGenerate(context.Background(), newTestDeps(st, l, c), testPayload(deckID, srcID))
	if err == nil {
		t.Fatal("expected error so the queue can retry")
	}
	st.AssertExpectations(t)
}

func TestHandleGenerateNoUsableCards(t *testing.T) {
	deckID := uuid.New()
	srcID := uuid.New()

	st := new(store.MockStore)
	l := new(llm.MockClient)
	c := new(cache.MockCache)

	st.On("GetSource", mock.Anything, srcID).
		Return(store.Source{ID: srcID, Content: "text"}, nil).Once()
	st.On("UpdateDeckStatus", mock.Anything, deckID, store.StatusGenerating).Return(nil).Once()
	c.On("GetCards", mock.Anything, mock.Anything).Return(nil, nil).Once()
	l.On("GenerateCards", mock.Anything, mock.Anything).
		Return([]deck.Card{{Question: "", Answer: ""}}, nil).Once()
	st.On("UpdateDeckStatus", mock.Anything, deckID, store.StatusFailed).Return(nil).Once()

	err := handleGenerate(context.Background(), newTestDeps(st, l, c), testPayload(deckID, srcID))
	if !errors.Is(err, deck.ErrNoCards) {
		t.Fatalf("expected ErrNoCards, got %v", err)
	}
	st.AssertExpectations(t)
}

func TestHandleGenerateInvalidLevel(t *testing.T) {
	deckID := uuid.New()
	srcID := uuid.New()

	st := new(store.MockStore)
	st.On("UpdateDeckStatus", mock.Anything, deckID, store.StatusFailed).Return(nil).Once()

	payload := testPayload(deckID, srcID)
	payload.Level = "memorize"
	err := handleGenerate(context.Background(), newTestDeps(st, new(llm.MockClient), new(cache.MockCache)), payload)
	if err == nil {
		t.Fatal("expected error for invalid level")
	}
	st.AssertNotCalled(t, "GetSource", mock.Anything, mock.Anything)
	st.AssertExpectations(t)
}

func TestHandleGenerateMissingSource(t *testing.T) {
	deckID := uuid.New()
	srcID := uuid.New()

	st := new(store.MockStore)
	st.On("GetSource", mock.Anything, srcID).
		Return(store.Source{}, store.ErrSourceNotFound).Once()
	st.On("UpdateDeckStatus", mock.Anything, deckID, store.StatusFailed).Return(nil).Once()

	err := handleGenerate(context.Background(), newTestDeps(st, new(llm.MockClient), new(cache.MockCache)), testPayload(deckID, srcID))
	if !errors.Is(err, store.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
	st.AssertExpectations(t)
}

func TestHandleGenerateDefaultsNumCards(t *testing.T) {
	deckID := uuid.New()
	srcID := uuid.New()
	generated := []deck.Card{{Question: "q", Answer: "a"}}

	st := new(store.MockStore)
	l := new(llm.MockClient)
	c := new(cache.MockCache)

	st.On("GetSource", mock.Anything, srcID).
		Return(store.Source{ID: srcID, Content: "text"}, nil).Once()
	st.On("UpdateDeckStatus", mock.Anything, deckID, store.StatusGenerating).Return(nil).Once()
	c.On("GetCards", mock.Anything, mock.Anything).Return(nil, nil).Once()
	l.On("GenerateCards", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		return req.NumCards == 5 // config default applied
	})).Return(generated, nil).Once()
	st.On("SaveCards", mock.Anything, deckID, generated).
		Return([]store.Card{{DeckID: deckID}}, nil).Once()
	st.On("UpdateDeckStatus", mock.Anything, deckID, store.StatusReady).Return(nil).Once()
	c.On("SetCards", mock.Anything, mock.Anything, generated, mock.Anything).Return(nil).Once()

	payload := testPayload(deckID, srcID)
	payload.NumCards = 0
	err := handleGenerate(context.Background(), newTestDeps(st, l, c), payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l.AssertExpectations(t)
}
