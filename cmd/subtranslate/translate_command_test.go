package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tboy1337/SubtranSlate/internal/checkpoint"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SUBTRANSLATE_DATA_DIR", t.TempDir())

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTranslateRejectsInvalidMode(t *testing.T) {
	_, err := runCommand(t, "translate", "input.srt", "--mode", "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid translation mode")
}

func TestTranslateRejectsUnknownService(t *testing.T) {
	_, err := runCommand(t, "translate", "input.srt", "--service", "deepl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported translation service")
}

func TestTranslateMissingInputFileErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.srt")
	_, err := runCommand(t, "translate", missing, "--mode", "naive")
	require.Error(t, err)
}

func TestTranslateRequiresArgs(t *testing.T) {
	_, err := runCommand(t, "translate")
	require.Error(t, err)
}

func TestHistoryCommandEmptyStore(t *testing.T) {
	out, err := runCommand(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No translation runs recorded yet.")
}

func TestWatchRejectsInvalidCron(t *testing.T) {
	dir := t.TempDir()
	_, err := runCommand(t, "watch", dir, dir, "--cron", "not a schedule")
	require.Error(t, err)
}

func TestBatchSummaryLine(t *testing.T) {
	assert.Equal(t, "Batch finished: 2 translated, 1 failed, 1 rate limited", batchSummaryLine(2, 1, 1))
}

func TestPrintBatchSummaryListsFailures(t *testing.T) {
	cmd := newTranslateCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)

	printBatchSummary(cmd, checkpoint.BatchState{
		"a.srt": {Status: checkpoint.FileSuccess, Output: "a_en_fr_both.srt"},
		"b.srt": {Status: checkpoint.FileError, Message: "boom"},
		"c.srt": {Status: checkpoint.FileRateLimited},
	})

	assert.Contains(t, out.String(), "failed: b.srt (boom)")
	assert.Contains(t, out.String(), "rate limited: c.srt")
	assert.Contains(t, out.String(), "1 translated, 1 failed, 1 rate limited")
}
