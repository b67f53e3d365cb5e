package runlog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDIsTimeOrderedUUID(t *testing.T) {
	a, b := NewID(), NewID()
	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.NotEqual(t, a, b)
	assert.True(t, a < b, "v7 ids should sort by creation time")
}

func TestMemStoreRecent(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	for i, owner := range []string{"a", "b", "a", "a"} {
		require.NoError(t, s.Append(ctx, &Run{Owner: owner, Strategy: "fallback", Updated: i}))
	}

	runs, err := s.Recent(ctx, "a", 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 3, runs[0].Updated)
	assert.Equal(t, 2, runs[1].Updated)
	for _, r := range runs {
		assert.NotEmpty(t, r.ID)
		assert.NotNil(t, r.Details)
	}

	none, err := s.Recent(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
