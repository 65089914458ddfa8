package docstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	id, err := s.Add(ctx, "widgets", &widget{Name: "bolt", Qty: 4, Price: 1.5})
	require.NoError(t, err)

	var got widget
	require.NoError(t, s.Get(ctx, "widgets", id, &got))
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "bolt", got.Name)
	assert.Equal(t, 4, got.Qty)
	assert.Equal(t, 1.5, got.Price)
}

func TestSQLiteGetMissing(t *testing.T) {
	s := newTestSQLite(t)
	var got widget
	assert.ErrorIs(t, s.Get(context.Background(), "widgets", "nope", &got), ErrNotFound)
}

func TestSQLiteQueryFilter(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	for _, w := range []widget{
		{Name: "bolt", Owner: "alice"},
		{Name: "nut", Owner: "bob"},
		{Name: "washer", Owner: "alice"},
	} {
		w := w
		_, err := s.Add(ctx, "widgets", &w)
		require.NoError(t, err)
	}

	var got []*widget
	require.NoError(t, s.Query(ctx, "widgets", map[string]interface{}{"owner": "alice"}, &got))
	require.Len(t, got, 2)
	for _, w := range got {
		assert.Equal(t, "alice", w.Owner)
	}

	got = nil
	require.NoError(t, s.Query(ctx, "widgets", nil, &got))
	assert.Len(t, got, 3)
}

func TestSQLiteUpdateMerges(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	id, err := s.Add(ctx, "widgets", &widget{Name: "bolt", Qty: 4})
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, "widgets", id, map[string]interface{}{"qty": 7}))

	var got widget
	require.NoError(t, s.Get(ctx, "widgets", id, &got))
	assert.Equal(t, 7, got.Qty)
	assert.Equal(t, "bolt", got.Name)

	assert.ErrorIs(t, s.Update(ctx, "widgets", "nope", map[string]interface{}{"qty": 1}), ErrNotFound)
}

func TestSQLiteDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	id, err := s.Add(ctx, "widgets", &widget{Name: "bolt"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "widgets", id))

	var got widget
	assert.ErrorIs(t, s.Get(ctx, "widgets", id, &got), ErrNotFound)
	assert.NoError(t, s.Delete(ctx, "widgets", id))
}

func TestSQLiteCommitBatch(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	writes := []Write{
		{Collection: "widgets", Doc: &widget{Name: "a"}},
		{Collection: "widgets", Doc: &widget{Name: "b"}},
	}
	require.NoError(t, s.CommitBatch(ctx, writes))

	var got []*widget
	require.NoError(t, s.Query(ctx, "widgets", nil, &got))
	assert.Len(t, got, 2)
}
