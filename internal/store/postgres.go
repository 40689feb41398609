package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"ankigen/internal/deck"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	// Use advisory lock to prevent concurrent migrations from multiple services.
	// Note: In production, use dedicated migration tools (e.g., golang-migrate/migrate)
	// that run as a separate deployment step before app services start.
	const lockID = 462817395 // arbitrary number for this application's migration lock

	var acquired bool
	err := s.db.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, lockID).Scan(&acquired)
	if err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}

	if !acquired {
		// Another service is running migrations; wait briefly and skip
		time.Sleep(2 * time.Second)
		return nil
	}

	// Ensure lock is released when done
	defer func() {
		_, _ = s.db.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID)
	}()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sources (
			id UUID PRIMARY KEY,
			filename TEXT,
			content TEXT,
			created_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS decks (
			id UUID PRIMARY KEY,
			source_id UUID REFERENCES sources(id) ON DELETE CASCADE,
			name TEXT,
			status TEXT,
			created_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS cards (
			id UUID PRIMARY KEY,
			deck_id UUID REFERENCES decks(id) ON DELETE CASCADE,
			ord INT,
			question TEXT,
			answer TEXT,
			tags TEXT[]
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) CreateSource(ctx context.Context, filename, content string) (Source, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx, `INSERT INTO sources(id, filename, content) VALUES($1,$2,$3)`,
		id, filename, content)
	if err != nil {
		return Source{}, err
	}
	return Source{ID: id, Filename: filename, Content: content, CreatedAt: time.Now()}, nil
}

func (s *PostgresStore) GetSource(ctx context.Context, id uuid.UUID) (Source, error) {
	var src Source
	row := s.db.QueryRowContext(ctx, `SELECT id, filename, content, created_at FROM sources WHERE id=$1`, id)
	if err := row.Scan(&src.ID, &src.Filename, &src.Content, &src.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Source{}, ErrSourceNotFound
		}
		return Source{}, fmt.Errorf("failed to get source %s: %w", id, err)
	}
	return src, nil
}

func (s *PostgresStore) CreateDeck(ctx context.Context, sourceID uuid.UUID, name string) (Deck, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx, `INSERT INTO decks(id, source_id, name, status) VALUES($1,$2,$3,$4)`,
		id, sourceID, name, StatusPending)
	if err != nil {
		return Deck{}, err
	}
	return Deck{ID: id, SourceID: sourceID, Name: name, Status: StatusPending, CreatedAt: time.Now()}, nil
}

func (s *PostgresStore) GetDeck(ctx context.Context, id uuid.UUID) (Deck, error) {
	var d Deck
	row := s.db.QueryRowContext(ctx, `SELECT id, source_id, name, status, created_at FROM decks WHERE id=$1`, id)
	if err := row.Scan(&d.ID, &d.SourceID, &d.Name, &d.Status, &d.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Deck{}, ErrDeckNotFound
		}
		return Deck{}, fmt.Errorf("failed to get deck %s: %w", id, err)
	}
	return d, nil
}

func (s *PostgresStore) ListDecks(ctx context.Context) ([]Deck, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, source_id, name, status, created_at FROM decks ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Deck
	for rows.Next() {
		var d Deck
		if err := rows.Scan(&d.ID, &d.SourceID, &d.Name, &d.Status, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateDeckStatus(ctx context.Context, id uuid.UUID, status DeckStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE decks SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDeckNotFound
	}
	return nil
}

// SaveCards replaces the deck's cards in one transaction so regeneration
// never leaves a mix of old and new cards behind.
func (s *PostgresStore) SaveCards(ctx context.Context, deckID uuid.UUID, cards []deck.Card) ([]Card, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE deck_id=$1`, deckID); err != nil {
		return nil, err
	}
	out := make([]Card, 0, len(cards))
	for i, c := range cards {
		cid := uuid.New()
		_, err := tx.ExecContext(ctx, `INSERT INTO cards(id, deck_id, ord, question, answer, tags) VALUES($1,$2,$3,$4,$5,$6)`,
			cid, deckID, i, c.Question, c.Answer, pq.Array(c.Tags))
		if err != nil {
			return nil, err
		}
		out = append(out, Card{
			ID:       cid,
			DeckID:   deckID,
			Index:    i,
			Question: c.Question,
			Answer:   c.Answer,
			Tags:     c.Tags,
		})
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) ListCards(ctx context.Context, deckID uuid.UUID) ([]Card, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, ord, question, answer, tags FROM cards WHERE deck_id=$1 ORDER BY ord`, deckID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Card
	for rows.Next() {
		var c Card
		if err := rows.Scan(&c.ID, &c.Index, &c.Question, &c.Answer, pq.Array(&c.Tags)); err != nil {
			return nil, err
		}
		c.DeckID = deckID
		out = append(out, c)
	}
	return out, rows.Err()
}
