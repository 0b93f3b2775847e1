package ids

import (
	"testing"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	a := New()
	b := New()

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 27)

	_, err := ksuid.Parse(a)
	require.NoError(t, err)
}
