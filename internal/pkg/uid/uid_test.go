package uid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandom_Generate(t *testing.T) {
	g := NewRandom(0)
	seen := map[string]struct{}{}
	for range 500 {
		id := g.Generate()
		assert.Len(t, id, 32)
		assert.NotContains(t, id, "=")
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 500)
}

func TestUUID_Generate(t *testing.T) {
	id, err := uuid.Parse(NewUUID().Generate())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestSnowflake_Generate(t *testing.T) {
	g, err := NewSnowflake()
	require.NoError(t, err)

	a, b := g.Generate(), g.Generate()
	assert.Positive(t, a)
	assert.Greater(t, b, a)
}
