package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/govm-net/harness/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager(t *testing.T) {
	tmpDir := t.TempDir()

	manager, err := NewManager(tmpDir)
	require.NoError(t, err)

	addr := core.AddressFromString("1234567890abcdef1234567890abcdef12345678")
	code := []byte("\x00asm\x01\x00\x00\x00")

	require.NoError(t, manager.RegisterCode(addr, code, []string{"answer", "echo"}))

	contractDir := filepath.Join(tmpDir, addr.String())
	assert.DirExists(t, contractDir)
	assert.FileExists(t, filepath.Join(contractDir, "code.wasm"))
	assert.FileExists(t, filepath.Join(contractDir, "metadata.json"))
	assert.True(t, manager.Exists(addr))

	contractCode, err := manager.GetCode(addr)
	require.NoError(t, err)
	assert.Equal(t, code, contractCode.Code)
	assert.Equal(t, []string{"answer", "echo"}, contractCode.Endpoints)
	assert.Equal(t, addr, contractCode.Address)

	err = manager.RegisterCode(addr, code, nil)
	assert.ErrorIs(t, err, ErrContractExists)
}

func TestGetMissingCode(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	require.NoError(t, err)

	_, err = manager.GetCode(core.AddressFromString("1111111111111111111111111111111111111111"))
	assert.ErrorIs(t, err, core.ErrContractNotFound)
}

func TestCorruptedCode(t *testing.T) {
	tmpDir := t.TempDir()
	manager, err := NewManager(tmpDir)
	require.NoError(t, err)

	addr := core.AddressFromString("2222222222222222222222222222222222222222")
	require.NoError(t, manager.RegisterCode(addr, []byte("original"), nil))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, addr.String(), "code.wasm"), []byte("tampered"), 0644))

	_, err = manager.GetCode(addr)
	assert.ErrorIs(t, err, ErrCodeCorrupted)
}

func TestListAndDelete(t *testing.T) {
	tmpDir := t.TempDir()
	manager, err := NewManager(tmpDir)
	require.NoError(t, err)

	first := core.AddressFromString("0000000000000000000000000000000000000001")
	second := core.AddressFromString("0000000000000000000000000000000000000002")
	require.NoError(t, manager.RegisterCode(second, []byte("b"), nil))
	require.NoError(t, manager.RegisterCode(first, []byte("a"), nil))
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, "not-a-contract"), 0755))

	addresses, err := manager.List()
	require.NoError(t, err)
	assert.Equal(t, []core.Address{first, second}, addresses)

	require.NoError(t, manager.Delete(first))
	assert.False(t, manager.Exists(first))
	assert.ErrorIs(t, manager.Delete(first), core.ErrContractNotFound)

	addresses, err = manager.List()
	require.NoError(t, err)
	assert.Equal(t, []core.Address{second}, addresses)
}
