package vaulterr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestCode_Wrapped verifies that codes survive %w wrapping and that every
// sentinel has a distinct code and name.
func TestCode_Wrapped(t *testing.T) {
	require := require.New(t)

	require.Equal(uint32(0), Code(nil))
	require.Equal("Ok", Name(nil))

	wrapped := fmt.Errorf("claim index 3: %w", ErrAlreadyClaimed)
	require.Equal(uint32(7), Code(wrapped))
	require.Equal("AlreadyClaimed", Name(wrapped))

	require.Equal(UnknownCode, Code(errors.New("disk on fire")))
	require.Equal("Unknown", Name(errors.New("disk on fire")))

	seenCodes := map[uint32]bool{}
	seenNames := map[string]bool{}
	for _, c := range codes {
		require.False(seenCodes[c.code], "duplicate code %d", c.code)
		seenCodes[c.code] = true
		name := Name(c.err)
		require.NotEqual("Unknown", name)
		require.False(seenNames[name], "duplicate name %s", name)
		seenNames[name] = true
	}
}
