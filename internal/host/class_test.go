package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClassRoundTrip(t *testing.T) {
	for _, c := range Classes() {
		got, err := ParseClass(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	got, err := ParseClass("  BOSS ")
	require.NoError(t, err)
	assert.Equal(t, ClassBoss, got)

	_, err = ParseClass("dragon")
	assert.Error(t, err)
	assert.Equal(t, "class(42)", Class(42).String())
}
