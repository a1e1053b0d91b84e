package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var sqliteSchema string

// SQLiteStore persists records to a SQLite database in WAL mode.
type SQLiteStore struct {
	db *sql.DB

	// appendMu serializes Seq allocation across the connection pool.
	appendMu sync.Mutex
}

// NewSQLiteStore opens (or creates) a SQLite event store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlitestore: set WAL mode: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlitestore: create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append stores a record under MAX(seq)+1 of its stream. Records without an
// ID get a fresh one.
func (s *SQLiteStore) Append(ctx context.Context, record Record) (uint64, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	s.appendMu.Lock()
	defer s.appendMu.Unlock()

	var seq uint64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO records (id, run, stream, seq, kind, payload, error, time)
		 SELECT ?, ?, ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?, ?
		   FROM records WHERE stream = ?
		 RETURNING seq`,
		record.ID.String(),
		record.Run.String(),
		record.Stream,
		record.Kind.String(),
		string(record.Payload),
		record.Error,
		record.Time.UTC().Format(time.RFC3339Nano),
		record.Stream,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("sqlitestore: append: %w", err)
	}
	return seq, nil
}

// List returns records for a stream, optionally filtered by afterSeq and limit.
func (s *SQLiteStore) List(ctx context.Context, stream string, afterSeq uint64, limit int) ([]Record, error) {
	query := `SELECT id, run, stream, seq, kind, payload, error, time
	           FROM records WHERE stream = ? AND seq > ? ORDER BY seq ASC`
	args := []any{stream, afterSeq}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: list: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// LatestSeq returns the highest Seq for a stream (0 if none).
func (s *SQLiteStore) LatestSeq(ctx context.Context, stream string) (uint64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(seq) FROM records WHERE stream = ?`, stream,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("sqlitestore: latest seq: %w", err)
	}
	if !seq.Valid || seq.Int64 < 0 {
		return 0, nil
	}
	return uint64(seq.Int64), nil
}

// Streams returns distinct stream names.
func (s *SQLiteStore) Streams(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT stream FROM records ORDER BY stream`)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: streams: %w", err)
	}
	defer rows.Close()

	var streams []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan stream: %w", err)
		}
		streams = append(streams, name)
	}
	return streams, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var (
			r       Record
			id      string
			run     string
			kind    string
			payload string
			timeStr string
		)
		if err := rows.Scan(&id, &run, &r.Stream, &r.Seq, &kind, &payload, &r.Error, &timeStr); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan record: %w", err)
		}

		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("sqlitestore: parse id %q: %w", id, err)
		}
		r.ID = parsed

		if r.Run, err = uuid.Parse(run); err != nil {
			return nil, fmt.Errorf("sqlitestore: parse run %q: %w", run, err)
		}

		if r.Kind, err = parseKind(kind); err != nil {
			return nil, err
		}

		t, err := time.Parse(time.RFC3339Nano, timeStr)
		if err != nil {
			return nil, fmt.Errorf("sqlitestore: parse time %q: %w", timeStr, err)
		}
		r.Time = t

		if payload != "" {
			r.Payload = []byte(payload)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Compile-time interface check.
var _ EventStore = (*SQLiteStore)(nil)
