package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "data", "subtranslate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_AddAndRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Add(ctx, Record{
		InputFile:  "a.srt",
		OutputFile: "a_en_fr_both.srt",
		SrcLang:    "en",
		TargetLang: "fr",
		Mode:       "split",
		Status:     "success",
		Chars:      1234,
		Duration:   3500 * time.Millisecond,
		CreatedAt:  time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	second, err := store.Add(ctx, Record{
		InputFile:  "b.srt",
		SrcLang:    "en",
		TargetLang: "fr",
		Mode:       "naive",
		Status:     "error",
		Message:    "parse failed",
		CreatedAt:  time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	records, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// newest first
	assert.Equal(t, "b.srt", records[0].InputFile)
	assert.Equal(t, "error", records[0].Status)
	assert.Equal(t, "parse failed", records[0].Message)

	assert.Equal(t, "a.srt", records[1].InputFile)
	assert.Equal(t, 1234, records[1].Chars)
	assert.Equal(t, 3500*time.Millisecond, records[1].Duration)
	assert.Equal(t, time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC), records[1].CreatedAt)
}

func TestStore_RecentLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.Add(ctx, Record{
			InputFile:  "file.srt",
			SrcLang:    "en",
			TargetLang: "de",
			Mode:       "split",
			Status:     "success",
			CreatedAt:  time.Date(2026, 8, 1, 10, i, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}

	records, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestStore_RecentEmpty(t *testing.T) {
	store := newTestStore(t)

	records, err := store.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subtranslate.db")

	store, err := NewStore(path)
	require.NoError(t, err)
	_, err = store.Add(context.Background(), Record{
		InputFile: "a.srt", SrcLang: "en", TargetLang: "fr", Mode: "split", Status: "success",
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestNewStore_RequiresPath(t *testing.T) {
	_, err := NewStore("  ")
	require.Error(t, err)
}
