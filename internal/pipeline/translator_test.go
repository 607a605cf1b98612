package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tboy1337/SubtranSlate/internal/checkpoint"
	"github.com/tboy1337/SubtranSlate/internal/history"
	"github.com/tboy1337/SubtranSlate/internal/subtitle"
	"github.com/tboy1337/SubtranSlate/internal/translate"
)

// mockTranslator uppercases lines unless fn overrides the behavior.
type mockTranslator struct {
	mu    sync.Mutex
	calls []string
	fn    func(batch string) (string, error)
}

func (m *mockTranslator) Translate(ctx context.Context, text, srcLang, targetLang string) (string, error) {
	return m.TranslateLines(ctx, []string{text}, srcLang, targetLang, nil)
}

func (m *mockTranslator) TranslateLines(_ context.Context, lines []string, _, _ string, progress translate.ProgressFunc) (string, error) {
	batch := strings.Join(lines, "\n")
	m.mu.Lock()
	m.calls = append(m.calls, batch)
	m.mu.Unlock()

	if m.fn != nil {
		return m.fn(batch)
	}
	if progress != nil {
		progress(len(lines), len(lines), strings.ToUpper(batch))
	}
	return strings.ToUpper(batch), nil
}

func (m *mockTranslator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type pipelineSleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *pipelineSleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return nil
}

func (r *pipelineSleepRecorder) all() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

func writeSRT(t *testing.T, path string, entries []subtitle.Entry) {
	t.Helper()
	require.NoError(t, subtitle.WriteFile(path, entries))
}

func twoEntries() []subtitle.Entry {
	return []subtitle.Entry{
		{Index: 1, Start: 0, End: 2 * time.Second, Content: "Hello"},
		{Index: 2, Start: 3 * time.Second, End: 5 * time.Second, Content: "world."},
	}
}

func TestTranslateFile_AutoDetectsSourceLanguage(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.srt")
	output := filepath.Join(dir, "out.srt")
	writeSRT(t, input, []subtitle.Entry{
		{Index: 1, Start: 0, End: 2 * time.Second, Content: "The quick brown fox jumps over the lazy dog."},
		{Index: 2, Start: 3 * time.Second, End: 5 * time.Second, Content: "This is another perfectly ordinary English sentence."},
	})

	mock := &mockTranslator{}
	store, err := history.NewStore(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	defer store.Close()
	p := New(mock, WithHistory(store))

	err = p.TranslateFile(context.Background(), input, output, "auto", "fr",
		Options{Encoding: "UTF-8", Mode: "naive", Both: false, Resume: false})
	require.NoError(t, err)

	records, err := store.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "en", records[0].SrcLang)
}

func TestTranslateFile_AutoDetectFailsOnEmptyContent(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.srt")
	writeSRT(t, input, []subtitle.Entry{
		{Index: 1, Start: 0, End: time.Second, Content: "12345"},
	})

	p := New(&mockTranslator{})
	err := p.TranslateFile(context.Background(), input, filepath.Join(dir, "out.srt"), "auto", "fr",
		Options{Encoding: "UTF-8", Mode: "naive", Resume: false})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "detect source language")
}

func TestTranslateFile_NaiveMode(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.srt")
	output := filepath.Join(dir, "out.srt")
	writeSRT(t, input, twoEntries())

	mock := &mockTranslator{}
	p := New(mock)

	err := p.TranslateFile(context.Background(), input, output, "en", "fr",
		Options{Encoding: "UTF-8", Mode: "naive", Both: false, Resume: false})
	require.NoError(t, err)

	result, err := subtitle.ReadFile(output, "UTF-8")
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "HELLO", strings.TrimSpace(result[0].Content))
	assert.Equal(t, "WORLD.", strings.TrimSpace(result[1].Content))

	// resume disabled leaves no checkpoint behind
	_, err = os.Stat(output + ".checkpoint")
	assert.True(t, os.IsNotExist(err))
}

func TestTranslateFile_NaiveModeKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.srt")
	output := filepath.Join(dir, "out.srt")
	writeSRT(t, input, twoEntries())

	p := New(&mockTranslator{})
	err := p.TranslateFile(context.Background(), input, output, "en", "fr",
		Options{Encoding: "UTF-8", Mode: "naive", Both: true, Resume: false})
	require.NoError(t, err)

	result, err := subtitle.ReadFile(output, "UTF-8")
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "HELLO\nHello", strings.TrimSpace(result[0].Content))
}

func TestTranslateFile_SplitModeRealigns(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.srt")
	output := filepath.Join(dir, "out.srt")
	// one sentence spanning two dialogue entries
	writeSRT(t, input, twoEntries())

	mock := &mockTranslator{}
	p := New(mock)

	err := p.TranslateFile(context.Background(), input, output, "en", "fr",
		Options{Encoding: "UTF-8", Mode: "split", Both: false, Space: true, Resume: true})
	require.NoError(t, err)

	result, err := subtitle.ReadFile(output, "UTF-8")
	require.NoError(t, err)
	require.Len(t, result, 2)

	// the cut must land on the space boundary of "HELLO WORLD."
	assert.Equal(t, "HELLO", strings.TrimSpace(result[0].Content))
	assert.Equal(t, "WORLD.", strings.TrimSpace(result[1].Content))

	// the single request carried the whole sentence
	require.Equal(t, 1, mock.callCount())
	assert.Equal(t, "Hello world.", mock.calls[0])

	// checkpoint ends up marked complete
	cp, ok := checkpoint.NewStore(output).Load()
	require.True(t, ok)
	assert.Equal(t, checkpoint.StatusComplete, cp.Status)
}

func TestTranslateFile_CompleteCheckpointSkipsAllWork(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out.srt")
	checkpoint.NewStore(output).Save(&checkpoint.Checkpoint{
		Status:   checkpoint.StatusComplete,
		Progress: 100,
	})

	mock := &mockTranslator{}
	p := New(mock)

	// the input path does not exist, proving it is never read
	err := p.TranslateFile(context.Background(), filepath.Join(dir, "missing.srt"), output, "en", "fr",
		Options{Encoding: "UTF-8", Mode: "split", Resume: true})
	require.NoError(t, err)
	assert.Zero(t, mock.callCount())
}

func TestTranslateFile_ResumesFromPartialTranslation(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out.srt")
	checkpoint.NewStore(output).Save(&checkpoint.Checkpoint{
		Status:             checkpoint.StatusTranslating,
		Mode:               "naive",
		Progress:           50,
		ParsedSubtitles:    checkpoint.EncodeEntries(twoEntries()),
		PartialTranslation: "BONJOUR\nMONDE.",
	})

	mock := &mockTranslator{}
	p := New(mock)

	// entries and translation both come from the checkpoint
	err := p.TranslateFile(context.Background(), filepath.Join(dir, "missing.srt"), output, "en", "fr",
		Options{Encoding: "UTF-8", Mode: "naive", Both: false, Resume: true})
	require.NoError(t, err)
	assert.Zero(t, mock.callCount())

	result, err := subtitle.ReadFile(output, "UTF-8")
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "BONJOUR", strings.TrimSpace(result[0].Content))
	assert.Equal(t, "MONDE.", strings.TrimSpace(result[1].Content))
}

func TestTranslateFile_RateLimitRetriesThenSucceeds(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.srt")
	output := filepath.Join(dir, "out.srt")
	writeSRT(t, input, twoEntries())

	attempts := 0
	mock := &mockTranslator{}
	mock.fn = func(batch string) (string, error) {
		attempts++
		if attempts <= 2 {
			return "", &translate.Error{Kind: translate.KindRateLimited, Op: "request"}
		}
		return strings.ToUpper(batch), nil
	}

	rec := &pipelineSleepRecorder{}
	p := New(mock)
	p.sleep = rec.sleep

	err := p.TranslateFile(context.Background(), input, output, "en", "fr",
		Options{Encoding: "UTF-8", Mode: "naive", Resume: false})
	require.NoError(t, err)

	assert.Equal(t, 3, mock.callCount())
	assert.Equal(t, []time.Duration{60 * time.Second, 120 * time.Second}, rec.all())
}

func TestTranslateFile_RateLimitExhausted(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.srt")
	output := filepath.Join(dir, "out.srt")
	writeSRT(t, input, twoEntries())

	mock := &mockTranslator{}
	mock.fn = func(string) (string, error) {
		return "", &translate.Error{Kind: translate.KindRateLimited, Op: "request"}
	}

	rec := &pipelineSleepRecorder{}
	p := New(mock)
	p.sleep = rec.sleep

	err := p.TranslateFile(context.Background(), input, output, "en", "fr",
		Options{Encoding: "UTF-8", Mode: "naive", Resume: false})
	require.Error(t, err)
	assert.True(t, translate.IsRateLimited(err))
	assert.Equal(t, 3, mock.callCount())
}

func TestTranslateFile_ParseErrorPropagates(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "broken.srt")
	require.NoError(t, os.WriteFile(input, []byte("1\nnot a timestamp\ntext\n"), 0o644))

	p := New(&mockTranslator{})
	err := p.TranslateFile(context.Background(), input, filepath.Join(dir, "out.srt"), "en", "fr",
		Options{Encoding: "UTF-8", Mode: "naive", Resume: false})
	require.Error(t, err)

	var perr *subtitle.ParseError
	assert.True(t, errors.As(err, &perr))
}

func TestTranslateFile_RecordsHistory(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.srt")
	output := filepath.Join(dir, "out.srt")
	writeSRT(t, input, twoEntries())

	store, err := history.NewStore(filepath.Join(dir, "subtranslate.db"))
	require.NoError(t, err)
	defer store.Close()

	p := New(&mockTranslator{}, WithHistory(store))
	require.NoError(t, p.TranslateFile(context.Background(), input, output, "en", "fr",
		Options{Encoding: "UTF-8", Mode: "naive", Resume: false}))

	records, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "success", records[0].Status)
	assert.Equal(t, input, records[0].InputFile)
	assert.Greater(t, records[0].Chars, 0)
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "movie_en_zh-CN_both.srt", OutputName("/media/movie.srt", "en", "zh-CN", true))
	assert.Equal(t, "movie_en_fr_only.srt", OutputName("movie.srt", "en", "fr", false))
}
