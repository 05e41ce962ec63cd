package seen

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "seen.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestMark_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	created, err := s.Mark(ctx, "v1|100|0", ts)
	require.NoError(t, err)
	assert.True(t, created)

	// Second mark reports already-present, never errors.
	created, err = s.Mark(ctx, "v1|100|0", ts.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, created)
}

func TestMark_NeverOverwritesFirstSeen(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	first := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)

	_, err := s.Mark(ctx, "v1|200|0", first)
	require.NoError(t, err)
	_, err = s.Mark(ctx, "v1|200|0", later)
	require.NoError(t, err)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	require.NotNil(t, st.NewestSeenAt)
	assert.Equal(t, first, st.NewestSeenAt.UTC())
}

func TestHas(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok, err := s.Has(ctx, "v1|300|0")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Mark(ctx, "v1|300|0", time.Now())
	require.NoError(t, err)

	ok, err = s.Has(ctx, "v1|300|0")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Re-running the migration against an initialized store is safe.
	require.NoError(t, s.Migrate(ctx))

	_, err := s.Mark(ctx, "v1|400|0", time.Now())
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Total)
}

func TestStats_Empty(t *testing.T) {
	s := newTestStore(t)

	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, st.Total)
	assert.Nil(t, st.NewestSeenAt)
}
