package history

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/webpage-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/resilience"
)

func TestPrepare(t *testing.T) {
	run := prepare(Run{Query: "cat"})
	assert.NotEqual(t, uuid.Nil, run.ID)
	assert.False(t, run.CreatedAt.IsZero())
	assert.NotNil(t, run.Results)

	id := uuid.New()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	kept := prepare(Run{ID: id, CreatedAt: at})
	assert.Equal(t, id, kept.ID)
	assert.Equal(t, at, kept.CreatedAt)
}

func TestNullUUID(t *testing.T) {
	assert.False(t, nullUUID(uuid.Nil).Valid)
	id := uuid.New()
	assert.Equal(t, uuid.NullUUID{UUID: id, Valid: true}, nullUUID(id))
}

func openStore(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("WS_POSTGRES_TEST") == "" {
		t.Skip("set WS_POSTGRES_TEST=1 to run against a local postgres")
	}
	cfg, err := config.Load("")
	require.NoError(t, err)
	db, err := postgres.New(context.Background(), cfg.Postgres, resilience.RetryConfig{MaxAttempts: 1})
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	s := NewStore(db)
	require.NoError(t, s.EnsureSchema(context.Background()))
	return s
}

func TestStore_SaveAndRecent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	batch := uuid.New()
	query := "history test " + batch.String()

	require.NoError(t, s.SaveRun(ctx, Run{
		BatchID: batch,
		Query:   query,
		Limit:   2,
		Source:  "batch",
		Results: []ranker.ScoredDoc{{Name: "d/a.txt", Priority: 2}},
	}))
	require.NoError(t, s.SaveBatch(ctx, []Run{{Query: query + " 2", Limit: -1, Source: "batch"}}))

	runs, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	var found *Run
	for i := range runs {
		if runs[i].Query == query {
			found = &runs[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, batch, found.BatchID)
	assert.Equal(t, []ranker.ScoredDoc{{Name: "d/a.txt", Priority: 2}}, found.Results)
	assert.Equal(t, resilience.StateClosed, s.BreakerState())
}
