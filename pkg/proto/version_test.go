package proto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProtocolVersion(t *testing.T) {
	for _, s := range []string{"1.14", "1.15", "1.16", "1.17", "1.18", "1.19"} {
		v, err := ParseProtocolVersion(s)
		require.NoError(t, err)
		assert.Equal(t, s, v.String())
	}

	for _, s := range []string{"1.13", "1.20", "0.14", "2.14", "1.", ".14", "", "1", "1.x"} {
		_, err := ParseProtocolVersion(s)
		assert.Error(t, err, s)
	}
}

func TestNegotiate(t *testing.T) {
	t.Run("full overlap picks broker max", func(t *testing.T) {
		v, ok := Negotiate(14, 19)
		require.True(t, ok)
		assert.Equal(t, V1_19, v)
	})

	t.Run("client max below broker max", func(t *testing.T) {
		v, ok := Negotiate(14, 16)
		require.True(t, ok)
		assert.Equal(t, V1_16, v)
	})

	t.Run("client newer than broker", func(t *testing.T) {
		v, ok := Negotiate(15, 25)
		require.True(t, ok)
		assert.Equal(t, V1_19, v)
	})

	t.Run("no overlap above", func(t *testing.T) {
		_, ok := Negotiate(20, 25)
		assert.False(t, ok)
	})

	t.Run("no overlap below", func(t *testing.T) {
		_, ok := Negotiate(10, 13)
		assert.False(t, ok)
	})

	t.Run("inverted window", func(t *testing.T) {
		_, ok := Negotiate(19, 14)
		assert.False(t, ok)
	})
}

func TestVersionOrdering(t *testing.T) {
	assert.True(t, V1_16.AtLeast(V1_16))
	assert.True(t, V1_18.AtLeast(V1_16))
	assert.False(t, V1_15.AtLeast(V1_16))
	assert.True(t, V1_15.Before(V1_16))
	assert.False(t, V1_16.Before(V1_16))
}
