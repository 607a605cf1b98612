package checkpoint

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tboy1337/SubtranSlate/internal/subtitle"
)

func TestEncodeDecodeEntries_RoundTrip(t *testing.T) {
	entries := []subtitle.Entry{
		{Index: 1, Start: 1500 * time.Millisecond, End: 3 * time.Second, Content: "Hello\nworld."},
		{Index: 2, Start: 61*time.Second + 250*time.Millisecond, End: 65 * time.Second, Content: "Second line.", Opaque: "X1:10"},
	}

	decoded, err := DecodeEntries(EncodeEntries(entries))
	require.NoError(t, err)
	assert.Equal(t, entries, decoded)
}

func TestDecodeEntries_BadTimestamp(t *testing.T) {
	_, err := DecodeEntries([]Entry{{Index: 1, Start: "not-a-duration", End: "3s"}})
	require.Error(t, err)

	_, err = DecodeEntries([]Entry{{Index: 1, Start: "3s", End: "later"}})
	require.Error(t, err)
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	outputPath := filepath.Join(dir, "movie_en_fr_both.srt")
	store := NewStore(outputPath)

	cp := &Checkpoint{
		Status:     StatusTranslating,
		InputFile:  "movie.srt",
		OutputFile: outputPath,
		SrcLang:    "en",
		TargetLang: "fr",
		Mode:       "split",
		Both:       true,
		Progress:   42.5,
		ParsedSubtitles: EncodeEntries([]subtitle.Entry{
			{Index: 1, Start: time.Second, End: 2 * time.Second, Content: "Hi."},
		}),
		PartialTranslation: "Salut.\n",
	}
	store.Save(cp)

	assert.Equal(t, outputPath+".checkpoint", store.Path())

	loaded, ok := NewStore(outputPath).Load()
	require.True(t, ok)
	assert.Equal(t, cp, loaded)
}

func TestStore_LoadMissing(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "out.srt"))

	cp, ok := store.Load()
	assert.False(t, ok)
	assert.Nil(t, cp)
}

func TestStore_LoadCorrupted(t *testing.T) {
	dir := t.TempDir()
	outputPath := filepath.Join(dir, "out.srt")
	require.NoError(t, os.WriteFile(outputPath+".checkpoint", []byte("{ not json"), 0o644))

	cp, ok := NewStore(outputPath).Load()
	assert.False(t, ok)
	assert.Nil(t, cp)
}

func TestStore_SaveFailureIsSilent(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing", "out.srt"))

	// must not panic or create the directory
	store.Save(&Checkpoint{Status: StatusComplete, Progress: 100})

	_, ok := store.Load()
	assert.False(t, ok)
}

func TestStore_Remove(t *testing.T) {
	dir := t.TempDir()
	outputPath := filepath.Join(dir, "out.srt")
	store := NewStore(outputPath)

	store.Save(&Checkpoint{Status: StatusComplete, Progress: 100})
	_, ok := store.Load()
	require.True(t, ok)

	store.Remove()
	_, ok = store.Load()
	assert.False(t, ok)

	// removing twice is fine
	store.Remove()
}

func TestBatchStore_RecordAndReload(t *testing.T) {
	dir := t.TempDir()

	store := NewBatchStore(dir, "en", "zh-CN")
	assert.Equal(t, filepath.Join(dir, "batch_state_en_zh-CN.json"), store.Path())

	store.Record("a.srt", FileResult{Status: FileSuccess, Output: "a_en_zh-CN_both.srt"})
	store.Record("b.srt", FileResult{Status: FileRateLimited, Message: "too many requests", Output: "b_en_zh-CN_both.srt"})
	store.Record("c.srt", FileResult{Status: FileError, Message: "parse failed"})

	reloaded := NewBatchStore(dir, "en", "zh-CN")

	res, ok := reloaded.Get("a.srt")
	require.True(t, ok)
	assert.Equal(t, FileSuccess, res.Status)

	res, ok = reloaded.Get("b.srt")
	require.True(t, ok)
	assert.Equal(t, FileRateLimited, res.Status)
	assert.Equal(t, "too many requests", res.Message)

	_, ok = reloaded.Get("d.srt")
	assert.False(t, ok)

	assert.Len(t, reloaded.Snapshot(), 3)
}

func TestBatchStore_OverwritesPreviousOutcome(t *testing.T) {
	dir := t.TempDir()
	store := NewBatchStore(dir, "en", "fr")

	store.Record("a.srt", FileResult{Status: FileRateLimited, Message: "throttled"})
	store.Record("a.srt", FileResult{Status: FileSuccess, Output: "a_en_fr_both.srt"})

	res, ok := NewBatchStore(dir, "en", "fr").Get("a.srt")
	require.True(t, ok)
	assert.Equal(t, FileSuccess, res.Status)
	assert.Empty(t, res.Message)
}

func TestBatchStore_IgnoresCorruptState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch_state_en_fr.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	store := NewBatchStore(dir, "en", "fr")
	assert.Empty(t, store.Snapshot())
}

func TestBatchStore_ConcurrentRecords(t *testing.T) {
	dir := t.TempDir()
	store := NewBatchStore(dir, "en", "fr")

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			store.Record(filepath.Join(dir, "in", string(rune('a'+n))+".srt"), FileResult{Status: FileSuccess})
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	assert.Len(t, store.Snapshot(), 8)
}
