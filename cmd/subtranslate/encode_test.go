package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tboy1337/SubtranSlate/internal/subtitle"
)

func TestTargetEncodingsExplicitList(t *testing.T) {
	targets := targetEncodings("utf-8, big5 ,", false, false, "en")
	assert.Equal(t, []string{"utf-8", "big5"}, targets)
}

func TestTargetEncodingsRecommended(t *testing.T) {
	targets := targetEncodings("", false, true, "th")
	assert.Equal(t, subtitle.RecommendedEncodings("th"), targets)
}

func TestTargetEncodingsAll(t *testing.T) {
	targets := targetEncodings("", true, false, "en")
	assert.Equal(t, subtitle.CommonEncodings, targets)
}

func TestTargetEncodingsDefault(t *testing.T) {
	targets := targetEncodings("", false, false, "en")
	assert.Equal(t, defaultTargetEncodings, targets)
}

func TestEncodedOutputName(t *testing.T) {
	assert.Equal(t, "movie-big5.srt", encodedOutputName("/tmp/movie.srt", "big5"))
}

func TestEncodedOutputNameStripsExistingSuffix(t *testing.T) {
	assert.Equal(t, "movie-big5.srt", encodedOutputName("movie-utf-8.srt", "big5"))
	assert.Equal(t, "movie-utf-8.srt", encodedOutputName("movie-tis-620.srt", "utf-8"))
}

func TestEncodeFileWritesTargets(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "show.srt")
	content := "1\n00:00:01,000 --> 00:00:02,000\nHello\n\n"
	require.NoError(t, os.WriteFile(input, []byte(content), 0o644))

	cmd := newEncodeCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)

	err := encodeFile(cmd, input, dir, "", []string{"utf-8", "utf-8-sig"})
	require.NoError(t, err)

	plain, err := os.ReadFile(filepath.Join(dir, "show-utf-8.srt"))
	require.NoError(t, err)
	assert.Equal(t, content, string(plain))

	bom, err := os.ReadFile(filepath.Join(dir, "show-utf-8-sig.srt"))
	require.NoError(t, err)
	assert.Equal(t, "\xef\xbb\xbf"+content, string(bom))
}

func TestEncodeCommandListEncodings(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"encode", "--list-encodings"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "utf-8\n")
	assert.Contains(t, out.String(), "big5\n")
}

func TestEncodeCommandRequiresInput(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"encode"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input file")
}

func TestEncodeBatchConvertsMatches(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	for _, name := range []string{"a.srt", "b.srt"} {
		content := "1\n00:00:01,000 --> 00:00:02,000\nLine\n\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	cmd := newEncodeCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, encodeBatch(cmd, dir, outDir, "utf-8", "*.srt", []string{"utf-8-sig"}))
	assert.FileExists(t, filepath.Join(outDir, "a-utf-8-sig.srt"))
	assert.FileExists(t, filepath.Join(outDir, "b-utf-8-sig.srt"))
	assert.Contains(t, out.String(), "2 converted, 0 failed")
}
