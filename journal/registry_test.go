package journal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopJournal struct{ params map[string]any }

func (j *nopJournal) Record(context.Context, *Entry) error          { return nil }
func (j *nopJournal) List(context.Context, Filter) ([]Entry, error) { return nil, nil }
func (j *nopJournal) Close() error                                  { return nil }

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	constructor := func(params map[string]any) (Journal, error) {
		return &nopJournal{params: params}, nil
	}

	assert.Equal(t, MemoryBackend, r.DefaultBackendType())
	_, err := r.Get("", nil)
	assert.Error(t, err)

	require.NoError(t, r.Register("nop", constructor))
	assert.Error(t, r.Register("nop", constructor))
	assert.Error(t, r.SetDefault("missing"))

	require.NoError(t, r.SetDefault("nop"))
	assert.Equal(t, BackendType("nop"), r.DefaultBackendType())

	j, err := r.Get("", map[string]any{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, "v", j.(*nopJournal).params["k"])

	require.NoError(t, r.Register("another", constructor))
	assert.Equal(t, []BackendType{"another", "nop"}, r.ListRegistered())
}
