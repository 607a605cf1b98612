package translate

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSign_KnownValues(t *testing.T) {
	gen := NewTokenGenerator()

	cases := []struct {
		text string
		want string
	}{
		{"a", "372634.236526"},
		{"Hello, world!", "881330.739014"},
		{"你好，世界", "414672.26532"},
		{"The quick brown fox jumps over the lazy dog.", "444313.62445"},
		{"", "557215.963819"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, gen.Sign(tc.text), "text %q", tc.text)
	}
}

func TestSign_Deterministic(t *testing.T) {
	gen := NewTokenGenerator()
	first := gen.Sign("subtitle line")
	second := gen.Sign("subtitle line")
	assert.Equal(t, first, second)
}

func TestSign_PartsRelated(t *testing.T) {
	gen := NewTokenGenerator()
	token := gen.Sign("some input text")

	parts := strings.SplitN(token, ".", 2)
	require.Len(t, parts, 2)

	head, err := strconv.ParseInt(parts[0], 10, 64)
	require.NoError(t, err)
	tail, err := strconv.ParseInt(parts[1], 10, 64)
	require.NoError(t, err)

	assert.Less(t, head, int64(1e6))
	assert.Equal(t, head^tkSalt, tail)
}
