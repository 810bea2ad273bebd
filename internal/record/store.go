// Package record keeps a move log of every stone change in SQLite.
package record

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/coreman2200/funtimes-stoneboard/internal/report"
	"github.com/coreman2200/funtimes-stoneboard/model"
)

// Move is one recorded change.
type Move struct {
	Session string
	Cycle   uint64
	Row     int
	Col     int
	From    model.Stone
	To      model.Stone
	At      time.Time
}

// Store is a report.Reporter that appends every change to the moves table.
// Each Store gets its own session id so runs can be told apart.
type Store struct {
	db      *sql.DB
	session string
}

var _ report.Reporter = (*Store)(nil)

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS moves (
			move_id INTEGER PRIMARY KEY AUTOINCREMENT,
			session TEXT NOT NULL,
			cycle BIGINT NOT NULL,
			board_row INTEGER NOT NULL,
			board_col INTEGER NOT NULL,
			from_stone TEXT NOT NULL,
			to_stone TEXT NOT NULL,
			timestamp TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS moves_session ON moves (session, move_id);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("record: create schema: %w", err)
	}
	return &Store{db: db, session: uuid.NewString()}, nil
}

func (s *Store) Session() string { return s.session }

func (s *Store) Report(ctx context.Context, f report.Frame) error {
	if len(f.Changes) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO moves (session, cycle, board_row, board_col, from_stone, to_stone, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	at := f.At
	if at.IsZero() {
		at = time.Now()
	}
	for _, c := range f.Changes {
		if _, err := stmt.ExecContext(ctx, s.session, int64(f.Seq), c.Row, c.Col, c.From.String(), c.To.String(), at.UTC()); err != nil {
			return fmt.Errorf("record: insert: %w", err)
		}
	}
	return tx.Commit()
}

// Moves returns the moves of a session in the order they were recorded.
func (s *Store) Moves(ctx context.Context, session string) ([]Move, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT session, cycle, board_row, board_col, from_stone, to_stone, timestamp FROM moves WHERE session = ? ORDER BY move_id`, session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var moves []Move
	for rows.Next() {
		var (
			m        Move
			cycle    int64
			from, to string
		)
		if err := rows.Scan(&m.Session, &cycle, &m.Row, &m.Col, &from, &to, &m.At); err != nil {
			return nil, err
		}
		m.Cycle = uint64(cycle)
		m.From, _ = model.ParseStone(from)
		m.To, _ = model.ParseStone(to)
		moves = append(moves, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return moves, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
