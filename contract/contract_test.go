package contract

import (
	"testing"

	"github.com/govm-net/harness/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(core.Environment) {}

func TestRegister(t *testing.T) {
	c := New("sample")
	assert.Equal(t, "sample", c.Name())

	require.NoError(t, c.Register("b", noop))
	require.NoError(t, c.Register("a", noop))

	assert.ErrorIs(t, c.Register("a", noop), ErrDuplicateEndpoint)
	assert.ErrorIs(t, c.Register("", noop), ErrInvalidEndpoint)
	assert.ErrorIs(t, c.Register("c", nil), ErrInvalidEndpoint)

	assert.Equal(t, []string{"a", "b"}, c.Functions())

	_, ok := c.Endpoint("a")
	assert.True(t, ok)
	_, ok = c.Endpoint("missing")
	assert.False(t, ok)
}

func TestMustRegisterPanicsOnDuplicate(t *testing.T) {
	c := New("sample").MustRegister("a", noop)
	assert.Panics(t, func() {
		c.MustRegister("a", noop)
	})
}
