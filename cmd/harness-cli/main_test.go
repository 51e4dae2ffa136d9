package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govm-net/harness/api"
	"github.com/govm-net/harness/fixture"
)

type testEnv struct {
	repo string
	db   string
}

func newTestEnv(t *testing.T) *testEnv {
	dir := t.TempDir()
	return &testEnv{
		repo: filepath.Join(dir, "contracts"),
		db:   filepath.Join(dir, "journal.db"),
	}
}

// run executes the CLI with args and returns its standard output
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--repo", e.repo, "--db", e.db, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func decodeOutput(t *testing.T, stdout string) (string, outputView) {
	t.Helper()
	status, body, found := strings.Cut(stdout, "\n")
	require.True(t, found)
	var view outputView
	require.NoError(t, json.Unmarshal([]byte(body), &view))
	return status, view
}

func TestRunFixture(t *testing.T) {
	env := newTestEnv(t)

	stdout, err := env.run(t, "run", "fixture", "answer")
	require.NoError(t, err)
	status, view := decodeOutput(t, stdout)
	assert.Equal(t, "Status: Ok", status)
	assert.Equal(t, []string{"2a"}, view.ReturnData)
	assert.Equal(t, fixture.Address.String(), view.Contract)

	stdout, err = env.run(t, "run", "fixture", "echo", "0xffffffffffffffff")
	require.NoError(t, err)
	_, view = decodeOutput(t, stdout)
	assert.Equal(t, []string{"ffffffffffffffff"}, view.ReturnData)

	stdout, err = env.run(t, "run", "fixture", "fail")
	require.NoError(t, err)
	status, view = decodeOutput(t, stdout)
	assert.Equal(t, "Status: User Error", status)
	assert.Equal(t, "fail", view.ReturnMessage)
	assert.Empty(t, view.ReturnData)

	stdout, err = env.run(t, "run", fixture.Address.String(), "echo")
	require.NoError(t, err)
	_, view = decodeOutput(t, stdout)
	assert.Equal(t, "user error", view.ReturnCode)
}

func TestRunErrors(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "run", "fixture")
	assert.Error(t, err, "function missing")

	_, err = env.run(t, "run", "fixture", "echo", "xyz")
	assert.Error(t, err, "bad hex")

	_, err = env.run(t, "run", "nobody", "answer")
	assert.Error(t, err)

	_, err = env.run(t, "--journal", "redis", "run", "fixture", "answer")
	assert.Error(t, err)
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "run", "fixture", "answer")
	require.NoError(t, err)
	_, err = env.run(t, "run", "fixture", "echo", "07")
	require.NoError(t, err)
	_, err = env.run(t, "query", "fixture", "answer_wrong")
	require.NoError(t, err)

	stdout, err := env.run(t, "history")
	require.NoError(t, err)
	var entries []entryView
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
	require.Len(t, entries, 2, "queries are not journaled")
	assert.Equal(t, "echo", entries[0].Function)
	assert.Equal(t, []string{"07"}, entries[0].Arguments)
	assert.Equal(t, "answer", entries[1].Function)

	stdout, err = env.run(t, "history", "--contract", "fixture", "--function", "answer", "-n", "1")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"2a"}, entries[0].ReturnData)
}

func TestDeployAndRun(t *testing.T) {
	env := newTestEnv(t)
	wasmFile := filepath.Join(t.TempDir(), "fixture.wasm")
	require.NoError(t, os.WriteFile(wasmFile, fixture.WasmCode, 0644))

	stdout, err := env.run(t, "deploy", "-f", wasmFile)
	require.NoError(t, err)
	address := api.DefaultContractAddressGenerator(fixture.WasmCode).String()
	assert.Contains(t, stdout, "Contract address: "+address)

	stdout, err = env.run(t, "endpoints", address)
	require.NoError(t, err)
	assert.Equal(t, "answer\nanswer_wrong\necho\nfail\n", stdout)

	stdout, err = env.run(t, "run", address, "answer_wrong")
	require.NoError(t, err)
	_, view := decodeOutput(t, stdout)
	assert.Equal(t, []string{"18"}, view.ReturnData)

	_, err = env.run(t, "deploy")
	assert.Error(t, err, "file flag is required")
}

func TestEndpointsFixture(t *testing.T) {
	env := newTestEnv(t)
	stdout, err := env.run(t, "endpoints", "fixture")
	require.NoError(t, err)
	assert.Equal(t, "answer\nanswer_wrong\necho\nfail\n", stdout)
}

func TestInspect(t *testing.T) {
	env := newTestEnv(t)
	wasmFile := filepath.Join(t.TempDir(), "fixture.wasm")
	require.NoError(t, os.WriteFile(wasmFile, fixture.WasmCode, 0644))

	stdout, err := env.run(t, "inspect", wasmFile)
	require.NoError(t, err)
	assert.Contains(t, stdout, "  - env.signalError\n")
	assert.Contains(t, stdout, "  - echo\n")
	assert.Contains(t, stdout, "Deployable: yes")
}

func TestConfigFile(t *testing.T) {
	env := newTestEnv(t)
	configFile := filepath.Join(t.TempDir(), "harness.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("journal:\n  type: memory\n"), 0644))

	_, err := env.run(t, "--config", configFile, "run", "fixture", "answer")
	require.NoError(t, err)

	stdout, err := env.run(t, "--config", configFile, "history")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", stdout, "memory journal does not outlive the process")
}

func TestScenario(t *testing.T) {
	env := newTestEnv(t)

	stdout, err := env.run(t, "scenario", "../../fixture/fixture.scen.yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "PASS ../../fixture/fixture.scen.yaml")
	assert.True(t, strings.HasSuffix(stdout, "SUCCESS\n"))

	dir := t.TempDir()
	failing := filepath.Join(dir, "wrong.scen.yaml")
	require.NoError(t, os.WriteFile(failing, []byte(`
steps:
  - contract: fixture
    function: answer_wrong
    expect:
      u64: [42]
`), 0644))

	stdout, err = env.run(t, "scenario", dir)
	assert.Error(t, err)
	assert.Contains(t, stdout, "FAIL "+failing)
	assert.NotContains(t, stdout, "SUCCESS")

	stdout, err = env.run(t, "history")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", stdout, "scenarios do not write the configured journal")
}
