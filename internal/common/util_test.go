package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRandByteArray_Length(t *testing.T) {
	a := GenerateRandByteArray(24)
	b := GenerateRandByteArray(24)
	require.Len(t, a, 24)
	require.Len(t, b, 24)
	if string(a) == string(b) {
		t.Logf("two random arrays are identical; extremely unlikely")
	}
}

func TestWipeByteArray(t *testing.T) {
	buf := []byte("secret")
	WipeByteArray(buf)
	assert.Equal(t, make([]byte, 6), buf)

	WipeByteArray(nil)
}

func TestSentinels_MatchWhenWrapped(t *testing.T) {
	err := fmt.Errorf("import: %w", ErrInvalidBackup)
	assert.True(t, errors.Is(err, ErrInvalidBackup))
	assert.False(t, errors.Is(err, ErrInvalidSecretAnswer))
}
