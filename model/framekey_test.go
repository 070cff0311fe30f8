package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameKey(t *testing.T) {
	t.Run("Format", func(t *testing.T) {
		c := Coordinate{Position: 1, Channel: 2, Slice: 3, Frame: 4}
		assert.Equal(t, "FrameKey-1-4-2-3", FrameKey(c))
	})

	t.Run("RoundTrip", func(t *testing.T) {
		e := Extents{Positions: 2, Channels: 3, Slices: 2, Frames: 4}
		for i := 0; i < e.NumFrames(); i++ {
			c := e.CoordinateAt(i)
			parsed, legacy, err := ParseFrameKey(FrameKey(c))
			require.NoError(t, err)
			assert.False(t, legacy)
			assert.Equal(t, c, parsed)
		}
	})

	t.Run("Injective", func(t *testing.T) {
		e := Extents{Positions: 2, Channels: 2, Slices: 2, Frames: 2}
		seen := make(map[string]bool)
		for i := 0; i < e.NumFrames(); i++ {
			key := FrameKey(e.CoordinateAt(i))
			require.False(t, seen[key], key)
			seen[key] = true
		}
	})

	t.Run("Legacy", func(t *testing.T) {
		c, legacy, err := ParseFrameKey("FrameKey-4-2-3")
		require.NoError(t, err)
		assert.True(t, legacy)
		assert.Equal(t, Coordinate{Position: 0, Channel: 2, Slice: 3, Frame: 4}, c)
	})

	t.Run("Malformed", func(t *testing.T) {
		for _, key := range []string{
			"FrameKey",
			"FrameKey-1",
			"FrameKey-1-2",
			"FrameKey-1-2-3-4-5",
			"FrameKey-a-2-3",
			"Summary",
		} {
			_, _, err := ParseFrameKey(key)
			assert.ErrorIs(t, err, ErrMalformedFrameKey, key)
		}
	})

	t.Run("IsFrameKey", func(t *testing.T) {
		assert.True(t, IsFrameKey("FrameKey-0-0-0-0"))
		assert.True(t, IsFrameKey("FrameKey-1-2-3"))
		assert.False(t, IsFrameKey("Summary"))
	})
}
