package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresSink mirrors entries to a PostgreSQL table. Like every Sink it
// remains a best-effort secondary copy: the in-memory Core stays
// authoritative for the lifetime of the process.
type PostgresSink struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresSink creates a PostgresSink backed by the given pool.
func NewPostgresSink(pool *pgxpool.Pool, logger *zap.Logger) *PostgresSink {
	return &PostgresSink{pool: pool, logger: logger}
}

// EnsureSchema creates the ledger table when it does not exist yet.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS dao_ledger (
			height      BIGINT PRIMARY KEY,
			kind        TEXT        NOT NULL,
			ledger_id   TEXT        NOT NULL,
			prev_hash   TEXT        NOT NULL,
			address     TEXT        NOT NULL DEFAULT '',
			score       DOUBLE PRECISION NOT NULL,
			vote_result JSONB       NOT NULL,
			-- microsecond precision; entries are committed with createdAt
			-- already truncated to microseconds so this column round-trips
			-- the exact value that was hashed
			created_at  TIMESTAMPTZ NOT NULL,
			hash        TEXT        NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create dao_ledger table: %w", err)
	}
	return nil
}

// Append implements Sink.
func (s *PostgresSink) Append(ctx context.Context, e *Entry) error {
	voteJSON, err := json.Marshal(e.VoteResult)
	if err != nil {
		return fmt.Errorf("marshal vote result: %w", err)
	}

	if _, err := s.pool.Exec(ctx,
		`INSERT INTO dao_ledger (height, kind, ledger_id, prev_hash, address, score, vote_result, created_at, hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.Height, e.Kind, e.LedgerID, e.PrevHash,
		e.Address, e.Score, voteJSON, e.CreatedAt, e.Hash,
	); err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}

	s.logger.Debug("ledger entry mirrored to postgres", zap.Uint64("height", e.Height))
	return nil
}

// LoadLast implements Sink.
func (s *PostgresSink) LoadLast(ctx context.Context) (*Entry, error) {
	entry := &Entry{}
	var voteJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT height, kind, ledger_id, prev_hash, address, score, vote_result, created_at, hash
		 FROM dao_ledger ORDER BY height DESC LIMIT 1`,
	).Scan(
		&entry.Height, &entry.Kind, &entry.LedgerID, &entry.PrevHash,
		&entry.Address, &entry.Score, &voteJSON, &entry.CreatedAt, &entry.Hash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("read ledger tail: %w", err)
	}
	if err := json.Unmarshal(voteJSON, &entry.VoteResult); err != nil {
		return nil, fmt.Errorf("unmarshal vote result: %w", err)
	}
	return entry, nil
}
