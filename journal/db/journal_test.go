package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/govm-net/harness/core"
	"github.com/govm-net/harness/journal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *Journal {
	t.Helper()
	j, err := NewJournal(map[string]any{
		"db_path": filepath.Join(t.TempDir(), "journal.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		j.Close()
	})
	return j.(*Journal)
}

func TestRecordAndList(t *testing.T) {
	ctx := context.Background()
	j := setupTestDB(t)

	fixtureAddr := core.AddressFromString("0000000000000000000000000000000000000042")
	other := core.AddressFromString("00000000000000000000000000000000000000aa")

	echo := &journal.Entry{
		Contract:   fixtureAddr,
		Function:   "echo",
		Arguments:  [][]byte{{0x07}},
		ReturnCode: core.Ok,
		ReturnData: [][]byte{{0x07}},
	}
	fail := &journal.Entry{
		Contract:      fixtureAddr,
		Function:      "fail",
		ReturnCode:    core.UserError,
		ReturnMessage: "fail",
	}
	answer := &journal.Entry{
		Contract:   other,
		Function:   "answer",
		ReturnCode: core.Ok,
		ReturnData: [][]byte{{0x2a}},
	}
	for _, e := range []*journal.Entry{echo, fail, answer} {
		require.NoError(t, j.Record(ctx, e))
		assert.NotZero(t, e.ID)
	}

	all, err := j.List(ctx, journal.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "answer", all[0].Function)
	assert.Equal(t, other, all[0].Contract)
	assert.Equal(t, [][]byte{{0x2a}}, all[0].ReturnData)

	byContract, err := j.List(ctx, journal.Filter{Contract: &fixtureAddr})
	require.NoError(t, err)
	require.Len(t, byContract, 2)
	assert.Equal(t, "fail", byContract[0].Function)
	assert.Equal(t, core.UserError, byContract[0].ReturnCode)
	assert.Equal(t, "fail", byContract[0].ReturnMessage)
	assert.Empty(t, byContract[0].ReturnData)
	assert.Equal(t, [][]byte{{0x07}}, byContract[1].Arguments)

	limited, err := j.List(ctx, journal.Filter{Function: "echo", Limit: 5})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, echo.ID, limited[0].ID)
}

func TestReopenKeepsEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := journal.Get(journal.DBBackend, map[string]any{"db_path": path})
	require.NoError(t, err)
	require.NoError(t, j.Record(ctx, &journal.Entry{Function: "answer", ReturnData: [][]byte{{}}}))
	require.NoError(t, j.Close())

	j, err = journal.Get(journal.DBBackend, map[string]any{"db_path": path})
	require.NoError(t, err)
	defer j.Close()

	entries, err := j.List(ctx, journal.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, [][]byte{{}}, entries[0].ReturnData)
}
