package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Idempotent(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "cache.db")

	s1, err := Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	// Re-opening applies pragmas and schema again without error.
	s2, err := Open(dbPath)
	require.NoError(t, err)
	assert.NoError(t, s2.Close())
}

func TestRecordRunAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, r := range []Run{
		{ID: "run-1", Unit: "a.veilb", Backend: "ir-json", ManifestDigest: "d1", EngineVersion: "0.1.0", SchemaVersion: 1},
		{ID: "run-2", Unit: "b.veilb", Backend: "ir-json", ManifestDigest: "d2", EngineVersion: "0.1.0", SchemaVersion: 1},
	} {
		require.NoError(t, s.RecordRun(ctx, r))
	}

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Newest first; run-2 ties on created_at and wins on id.
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, "run-1", runs[1].ID)
	assert.Equal(t, "b.veilb", runs[0].Unit)
	assert.NotEmpty(t, runs[0].CreatedAt)

	limited, err := s.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "run-2", limited[0].ID)
}

func TestRecordRun_DuplicateIDFails(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r := Run{ID: "run-1", Unit: "a.veilb", Backend: "ir-json", ManifestDigest: "d1", EngineVersion: "0.1.0", SchemaVersion: 1}
	require.NoError(t, s.RecordRun(ctx, r))
	assert.Error(t, s.RecordRun(ctx, r))
}

func TestWasEmittedAndMarkEmitted(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.RecordRun(ctx, Run{
		ID: "run-1", Unit: "a.veilb", Backend: "ir-json",
		ManifestDigest: "d1", EngineVersion: "0.1.0", SchemaVersion: 1,
	}))

	seen, err := s.WasEmitted(ctx, "abc123", "ir-json")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, s.MarkEmitted(ctx, CachedItem{
		Digest: "abc123", Backend: "ir-json", Path: "demo::inc", Kind: "function", RunID: "run-1",
	}))

	seen, err = s.WasEmitted(ctx, "abc123", "ir-json")
	require.NoError(t, err)
	assert.True(t, seen)

	// The digest is per backend: another backend has not rendered it.
	seen, err = s.WasEmitted(ctx, "abc123", "other")
	require.NoError(t, err)
	assert.False(t, seen)
}

// Re-marking the same digest updates the row instead of erroring.
func TestMarkEmitted_Upsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"run-1", "run-2"} {
		require.NoError(t, s.RecordRun(ctx, Run{
			ID: id, Unit: "a.veilb", Backend: "ir-json",
			ManifestDigest: "d", EngineVersion: "0.1.0", SchemaVersion: 1,
		}))
	}

	item := CachedItem{Digest: "abc123", Backend: "ir-json", Path: "demo::inc", Kind: "function", RunID: "run-1"}
	require.NoError(t, s.MarkEmitted(ctx, item))
	item.RunID = "run-2"
	require.NoError(t, s.MarkEmitted(ctx, item))

	items, err := s.ItemsForRun(ctx, "run-2")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "abc123", items[0].Digest)

	old, err := s.ItemsForRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, old)
}

func TestItemsForRun_PathOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.RecordRun(ctx, Run{
		ID: "run-1", Unit: "a.veilb", Backend: "ir-json",
		ManifestDigest: "d", EngineVersion: "0.1.0", SchemaVersion: 1,
	}))

	for _, it := range []CachedItem{
		{Digest: "d2", Backend: "ir-json", Path: "demo::zeta", Kind: "function", RunID: "run-1"},
		{Digest: "d1", Backend: "ir-json", Path: "demo::alpha", Kind: "function", RunID: "run-1"},
	} {
		require.NoError(t, s.MarkEmitted(ctx, it))
	}

	items, err := s.ItemsForRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "demo::alpha", items[0].Path)
	assert.Equal(t, "demo::zeta", items[1].Path)
}
