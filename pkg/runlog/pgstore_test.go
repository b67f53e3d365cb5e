package runlog

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgStoreAppendRecent(t *testing.T) {
	url := os.Getenv("TASKPILOT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TASKPILOT_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s := NewPgStore(pool)
	require.NoError(t, s.EnsureTable(ctx))
	_, err = pool.Exec(ctx, `DELETE FROM rank_runs WHERE owner LIKE 'pgtest-%'`)
	require.NoError(t, err)

	start := time.Now().Truncate(time.Microsecond)
	older := &Run{Owner: "pgtest-a", Strategy: "fallback", TaskCount: 2, Updated: 2,
		Details: map[string]any{"oracle_error": "timeout"}, StartedAt: start, FinishedAt: start}
	newer := &Run{Owner: "pgtest-a", Strategy: "oracle", TaskCount: 3, Updated: 3,
		StartedAt: start.Add(time.Second), FinishedAt: start.Add(time.Second)}
	require.NoError(t, s.Append(ctx, older))
	require.NoError(t, s.Append(ctx, newer))
	require.NoError(t, s.Append(ctx, &Run{Owner: "pgtest-b", Strategy: "oracle", StartedAt: start, FinishedAt: start}))

	runs, err := s.Recent(ctx, "pgtest-a", 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.ID, runs[0].ID)
	assert.Equal(t, older.ID, runs[1].ID)
	assert.Equal(t, "timeout", runs[1].Details["oracle_error"])
	assert.Empty(t, runs[0].Details)
}
