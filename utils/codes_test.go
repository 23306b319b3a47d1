package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAccessCode(t *testing.T) {
	code, err := GenerateAccessCode()
	require.NoError(t, err)

	parts := strings.Split(code, "-")
	require.Len(t, parts, 3)
	for _, part := range parts {
		assert.Len(t, part, 4)
		for _, c := range part {
			assert.Contains(t, codeAlphabet, string(c))
		}
	}

	// no ambiguous characters
	for _, forbidden := range []string{"0", "O", "1", "I", "L"} {
		assert.NotContains(t, code, forbidden)
	}
}

func TestGenerateAccessCodeUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code, err := GenerateAccessCode()
		require.NoError(t, err)
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}
