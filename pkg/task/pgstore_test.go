package task

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestPgStore connects to TASKPILOT_TEST_DATABASE_URL or skips.
func newTestPgStore(t *testing.T) *PgStore {
	t.Helper()
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
	_, err = pool.Exec(ctx, `DELETE FROM tasks WHERE owner LIKE 'pgtest-%'`)
	require.NoError(t, err)
	return s
}

func TestPgStoreRoundTrip(t *testing.T) {
	s := newTestPgStore(t)
	ctx := context.Background()

	created, err := s.Insert(ctx, &Task{Owner: "pgtest-a", Title: "ship it", Urgency: 3})
	require.NoError(t, err)
	assert.Equal(t, DefaultCategory, created.Category)
	assert.False(t, created.Ranked())

	updated, err := s.Update(ctx, "pgtest-a", created.ID, Fields{Priority: &Priority{Score: MustScore(70), Reason: "due soon"}})
	require.NoError(t, err)
	n, ok := updated.PriorityScore.Int()
	require.True(t, ok)
	assert.Equal(t, 70, n)
	require.NotNil(t, updated.PriorityReason)
	assert.Equal(t, "due soon", *updated.PriorityReason)

	_, err = s.Get(ctx, "pgtest-b", created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Update(ctx, "pgtest-b", created.ID, Fields{Title: strPtr("nope")})
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err = s.Delete(ctx, "pgtest-a", created.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Delete(ctx, "pgtest-a", created.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPgStoreListByPriority(t *testing.T) {
	s := newTestPgStore(t)
	ctx := context.Background()

	first, err := s.Insert(ctx, &Task{Owner: "pgtest-a", Title: "unranked"})
	require.NoError(t, err)
	second, err := s.Insert(ctx, &Task{Owner: "pgtest-a", Title: "ranked", PriorityScore: MustScore(40), PriorityReason: strPtr("r")})
	require.NoError(t, err)

	tasks, err := s.List(ctx, "pgtest-a", Filter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{second.ID, first.ID}, ids(tasks))

	tasks, err = s.List(ctx, "pgtest-a", Filter{Order: ByCreated})
	require.NoError(t, err)
	assert.Equal(t, []int64{first.ID, second.ID}, ids(tasks))
}
