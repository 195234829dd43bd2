// Package history persists every processed query and its ranking to
// PostgreSQL so that past batch runs and HTTP searches can be listed later.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/resilience"
)

// Schema creates the search_runs table.
const Schema = `CREATE TABLE IF NOT EXISTS search_runs (
    id          UUID PRIMARY KEY,
    batch_id    UUID,
    query       TEXT NOT NULL,
    query_limit INTEGER NOT NULL,
    source      TEXT NOT NULL,
    results     JSONB NOT NULL,
    latency_ms  BIGINT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Run is one ranked query. BatchID groups the queries of one query file.
type Run struct {
	ID        uuid.UUID          `json:"id"`
	BatchID   uuid.UUID          `json:"batch_id"`
	Query     string             `json:"query"`
	Limit     int                `json:"limit"`
	Source    string             `json:"source"`
	Results   []ranker.ScoredDoc `json:"results"`
	LatencyMs int64              `json:"latency_ms"`
	CreatedAt time.Time          `json:"created_at"`
}

// Recorder saves one run at a time, as the HTTP handler does.
type Recorder interface {
	SaveRun(ctx context.Context, run Run) error
}

// BatchRecorder saves the runs of one query file together.
type BatchRecorder interface {
	SaveBatch(ctx context.Context, runs []Run) error
}

// Store writes runs to PostgreSQL. Writes go through a circuit breaker so a
// database outage costs one timeout per reset period instead of one per
// query.
type Store struct {
	db      *postgres.Client
	breaker *resilience.CircuitBreaker
	timeout time.Duration
	logger  *slog.Logger
}

func NewStore(db *postgres.Client) *Store {
	return &Store{
		db: db,
		breaker: resilience.NewCircuitBreaker("history-store", resilience.CircuitBreakerConfig{
			FailureThreshold: 3,
			ResetTimeout:     30 * time.Second,
		}),
		timeout: 2 * time.Second,
		logger:  slog.Default().With("component", "history-store"),
	}
}

// EnsureSchema creates the table when it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("creating search_runs table: %w", err)
	}
	return nil
}

// SaveRun inserts run, assigning an ID and timestamp when missing.
func (s *Store) SaveRun(ctx context.Context, run Run) error {
	run = prepare(run)
	data, err := json.Marshal(run.Results)
	if err != nil {
		return fmt.Errorf("marshaling results: %w", err)
	}
	err = s.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, s.timeout, "save-run", func(ctx context.Context) error {
			_, err := s.db.DB.ExecContext(ctx, insertRun,
				run.ID, nullUUID(run.BatchID), run.Query, run.Limit, run.Source, data, run.LatencyMs, run.CreatedAt,
			)
			return err
		})
	})
	if err != nil {
		return fmt.Errorf("saving run %s: %w", run.ID, err)
	}
	s.logger.Debug("run saved", "id", run.ID, "query", run.Query, "results", len(run.Results))
	return nil
}

// SaveBatch inserts all runs in one transaction. Either every run is saved
// or none is.
func (s *Store) SaveBatch(ctx context.Context, runs []Run) error {
	if len(runs) == 0 {
		return nil
	}
	return s.breaker.Execute(func() error {
		return s.db.InTx(ctx, func(tx *sql.Tx) error {
			for _, run := range runs {
				run = prepare(run)
				data, err := json.Marshal(run.Results)
				if err != nil {
					return fmt.Errorf("marshaling results: %w", err)
				}
				if _, err := tx.ExecContext(ctx, insertRun,
					run.ID, nullUUID(run.BatchID), run.Query, run.Limit, run.Source, data, run.LatencyMs, run.CreatedAt,
				); err != nil {
					return fmt.Errorf("saving run %q: %w", run.Query, err)
				}
			}
			return nil
		})
	})
}

// Recent returns the latest runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT id, batch_id, query, query_limit, source, results, latency_ms, created_at
		 FROM search_runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var (
			run     Run
			batchID uuid.NullUUID
			data    []byte
		)
		if err := rows.Scan(&run.ID, &batchID, &run.Query, &run.Limit, &run.Source, &data, &run.LatencyMs, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		if batchID.Valid {
			run.BatchID = batchID.UUID
		}
		if err := json.Unmarshal(data, &run.Results); err != nil {
			s.logger.Warn("skipping corrupt run", "id", run.ID, "error", err)
			continue
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// BreakerState reports whether writes are currently being attempted.
func (s *Store) BreakerState() resilience.State {
	return s.breaker.GetState()
}

const insertRun = `INSERT INTO search_runs
    (id, batch_id, query, query_limit, source, results, latency_ms, created_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func prepare(run Run) Run {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.Results == nil {
		run.Results = []ranker.ScoredDoc{}
	}
	return run
}

func nullUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}
