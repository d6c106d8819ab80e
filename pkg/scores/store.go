// Package scores keeps the results of finished games for the lifetime of the
// process. Nothing is written to disk.
package scores

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/trytobebee/snake_io/pkg/game"
)

// Result is one finished game
type Result struct {
	ID        int64     `json:"id"`
	Session   string    `json:"session"`
	Score     int       `json:"score"`
	Length    int       `json:"length"`
	Ticks     int       `json:"ticks"`
	NewRecord bool      `json:"newRecord"`
	EndedAt   time.Time `json:"endedAt"`
}

// Summary aggregates every result in the store
type Summary struct {
	Games   int     `json:"games"`
	Best    int     `json:"best"`
	Average float64 `json:"average"`
}

// Store is an in-memory SQLite table of finished games
type Store struct {
	db *sql.DB
}

// Open creates an empty in-memory store
func Open(ctx context.Context) (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open score database: %w", err)
	}
	// Every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS game_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session TEXT NOT NULL,
			score INTEGER NOT NULL,
			length INTEGER NOT NULL,
			ticks INTEGER NOT NULL,
			new_record INTEGER NOT NULL DEFAULT 0,
			ended_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_game_results_score ON game_results(score DESC)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// Record stores the result of a finished game
func (s *Store) Record(ctx context.Context, session string, ev game.GameOverEvent) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO game_results (session, score, length, ticks, new_record, ended_at) VALUES (?, ?, ?, ?, ?, ?)`,
		session, ev.Score, ev.Length, ev.Ticks, ev.NewRecord, time.Now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to record result: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit results, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]Result, error) {
	return s.query(ctx,
		`SELECT id, session, score, length, ticks, new_record, ended_at FROM game_results ORDER BY id DESC LIMIT ?`, limit)
}

// Top returns up to limit results ordered by score, earliest first on ties
func (s *Store) Top(ctx context.Context, limit int) ([]Result, error) {
	return s.query(ctx,
		`SELECT id, session, score, length, ticks, new_record, ended_at FROM game_results ORDER BY score DESC, id ASC LIMIT ?`, limit)
}

// BySession returns every result of one session, oldest first
func (s *Store) BySession(ctx context.Context, session string) ([]Result, error) {
	return s.query(ctx,
		`SELECT id, session, score, length, ticks, new_record, ended_at FROM game_results WHERE session = ? ORDER BY id ASC`, session)
}

// Summary returns the number of games, the best score and the mean score
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	var sum Summary
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(MAX(score), 0), COALESCE(AVG(score), 0) FROM game_results`).
		Scan(&sum.Games, &sum.Best, &sum.Average)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to summarise results: %w", err)
	}
	return sum, nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			r       Result
			endedAt int64
		)
		if err := rows.Scan(&r.ID, &r.Session, &r.Score, &r.Length, &r.Ticks, &r.NewRecord, &endedAt); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		r.EndedAt = time.Unix(0, endedAt)
		results = append(results, r)
	}
	return results, rows.Err()
}

// Close releases the database. All results are lost.
func (s *Store) Close() error {
	return s.db.Close()
}
