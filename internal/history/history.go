// Package history keeps a journal of bridge exchanges in PostgreSQL so past
// questions and answers survive the one-shot worker processes.
//
// The journal is optional. A Store implements the bridge's Recorder; when no
// DSN is configured the CLI simply runs without one.
package history

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"finbridge/cli/internal/bridge/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	// DefaultKeep is how many exchanges are retained when Options.Keep is zero.
	DefaultKeep = 500
	// DefaultLimit is the number of entries Recent returns for a non-positive limit.
	DefaultLimit = 20

	maxTextLen = 4000
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS finbridge_exchanges (
	request_id       text PRIMARY KEY,
	kind             text NOT NULL,
	message          text NOT NULL,
	file_name        text,
	status           text NOT NULL,
	response_message text NOT NULL,
	error            text,
	charts           text[] NOT NULL DEFAULT '{}',
	elapsed_ms       bigint NOT NULL,
	created_at       timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS finbridge_exchanges_created_at_idx ON finbridge_exchanges (created_at DESC);
`

// Entry is one recorded exchange.
type Entry struct {
	RequestID       string    `db:"request_id"`
	Kind            string    `db:"kind"`
	Message         string    `db:"message"`
	FileName        *string   `db:"file_name"`
	Status          string    `db:"status"`
	ResponseMessage string    `db:"response_message"`
	Error           *string   `db:"error"`
	Charts          []string  `db:"charts"`
	ElapsedMS       int64     `db:"elapsed_ms"`
	CreatedAt       time.Time `db:"created_at"`
}

// Elapsed returns how long the worker took.
func (e Entry) Elapsed() time.Duration { return time.Duration(e.ElapsedMS) * time.Millisecond }

// Options configures a Store.
type Options struct {
	// Keep bounds the journal size; older entries are pruned on every Record.
	Keep   int
	Logger zerolog.Logger
}

// Store is a PostgreSQL-backed exchange journal.
type Store struct {
	Pool *pgxpool.Pool
	keep int
	log  zerolog.Logger
}

// Open connects to dsn, verifies the connection and ensures the schema exists.
func Open(ctx context.Context, dsn string, opts Options) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse history DSN: %w", err)
	}
	cfg.MaxConns = 4
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect history database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}

	s := New(pool, opts)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool, opts Options) *Store {
	keep := opts.Keep
	if keep <= 0 {
		keep = DefaultKeep
	}
	return &Store{
		Pool: pool,
		keep: keep,
		log:  opts.Logger.With().Str("component", "history").Logger(),
	}
}

// EnsureSchema creates the journal table if needed.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create history schema: %w", err)
	}
	return nil
}

// Record stores one exchange and prunes entries beyond the retention limit.
func (s *Store) Record(ctx context.Context, req model.Request, resp model.Response, elapsed time.Duration) error {
	var fileName *string
	if req.FileData != nil {
		fileName = &req.FileData.Name
	}
	var errText *string
	if resp.Error != "" {
		e := truncate(resp.Error, maxTextLen)
		errText = &e
	}
	charts := resp.Charts
	if charts == nil {
		charts = []string{}
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin history transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO finbridge_exchanges
			(request_id, kind, message, file_name, status, response_message, error, charts, elapsed_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (request_id) DO NOTHING`,
		req.ID, string(req.Kind), truncate(req.Message, maxTextLen), fileName,
		string(resp.Status), truncate(resp.Message, maxTextLen), errText, charts, elapsed.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert exchange: %w", err)
	}

	ct, err := tx.Exec(ctx, `
		DELETE FROM finbridge_exchanges
		WHERE request_id IN (
			SELECT request_id FROM finbridge_exchanges ORDER BY created_at DESC OFFSET $1
		)`, s.keep)
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	s.log.Debug().Str("request_id", req.ID).Int64("pruned", ct.RowsAffected()).Msg("exchange recorded")
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT request_id, kind, message, file_name, status, response_message, error, charts, elapsed_ms, created_at
		FROM finbridge_exchanges
		ORDER BY created_at DESC
		LIMIT $1`, clampLimit(limit, s.keep))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	entries, err := pgx.CollectRows(rows, pgx.RowToStructByName[Entry])
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return entries, nil
}

// Clear deletes every entry and reports how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	ct, err := s.Pool.Exec(ctx, `DELETE FROM finbridge_exchanges`)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return ct.RowsAffected(), nil
}

// Close releases the pool.
func (s *Store) Close() {
	if s != nil && s.Pool != nil {
		s.Pool.Close()
	}
}

func clampLimit(limit, ceiling int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > ceiling {
		return ceiling
	}
	return limit
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
