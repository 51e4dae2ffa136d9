package wasi

import (
	"context"
	"math"
	"os"
	"testing"
	"time"

	"github.com/govm-net/harness/core"
	"github.com/govm-net/harness/fixture"
	"github.com/govm-net/harness/testcommon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hostcallsAddress = core.AddressFromString("00000000000000000000000000000000000000aa")

func newTestVM(t *testing.T) *WazeroVM {
	t.Helper()
	vm, err := NewWazeroVM(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() {
		vm.Close(context.Background())
	})
	return vm
}

func readTestdata(t *testing.T, name string) []byte {
	t.Helper()
	code, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return code
}

func TestFixtureOverWasm(t *testing.T) {
	vm := newTestVM(t)
	ctx := context.Background()
	code := fixture.WasmCode

	run := func(function string, args ...[]byte) *testcommon.OutputVerifier {
		out, err := vm.Execute(ctx, fixture.Address, code, function, args)
		return testcommon.NewOutputVerifier(t, out, err)
	}

	run("answer").Ok().ReturnU64(42)
	run("answer_wrong").Ok().ReturnU64(24)
	for _, v := range []uint64{0, 7, math.MaxUint64} {
		run("echo", core.EncodeU64(v)).Ok().ReturnU64(v)
	}
	run("echo").UserError().Fault(core.ErrArgumentCount).NoReturnData()
	run("echo", []byte{1}, []byte{2}).UserError().Fault(core.ErrArgumentCount).NoReturnData()
	run("echo", []byte{1, 0, 0, 0, 0, 0, 0, 0, 0}).ExecutionFailed().Fault(core.ErrDecode).ReturnMessage("argument out of range")
	run("fail").UserError().Fault(core.ErrSignalError).ReturnMessage("fail").NoReturnData()
	run("missing").FunctionNotFound()
	run("memory").FunctionNotFound()
}

func TestValidate(t *testing.T) {
	vm := newTestVM(t)
	ctx := context.Background()

	assert.NoError(t, vm.Validate(ctx, fixture.WasmCode))
	assert.NoError(t, vm.Validate(ctx, readTestdata(t, "hostcalls.wasm")))
	assert.ErrorIs(t, vm.Validate(ctx, readTestdata(t, "bad_import.wasm")), core.ErrContractInvalid)
	assert.ErrorIs(t, vm.Validate(ctx, []byte("not wasm")), core.ErrContractInvalid)
	assert.ErrorIs(t, vm.Validate(ctx, nil), core.ErrContractInvalid)
}

func TestExports(t *testing.T) {
	vm := newTestVM(t)
	ctx := context.Background()

	functions, err := vm.Exports(ctx, fixture.WasmCode)
	require.NoError(t, err)
	assert.Equal(t, []string{"answer", "answer_wrong", "echo", "fail"}, functions)

	functions, err = vm.Exports(ctx, readTestdata(t, "hostcalls.wasm"))
	require.NoError(t, err)
	assert.NotContains(t, functions, "identity")
	assert.Contains(t, functions, "copy_first")
	assert.Contains(t, functions, "spin")
}

func TestHostCalls(t *testing.T) {
	vm := newTestVM(t)
	ctx := context.Background()
	code := readTestdata(t, "hostcalls.wasm")

	run := func(function string, args ...[]byte) *testcommon.OutputVerifier {
		out, err := vm.Execute(ctx, hostcallsAddress, code, function, args)
		return testcommon.NewOutputVerifier(t, out, err)
	}

	run("copy_first", []byte("hello")).Ok().ReturnData([]byte("hello"))
	run("copy_first").ExecutionFailed().Fault(core.ErrIndexOutOfRange)
	run("arg_length", []byte("x")).Ok().NoReturnData()
	run("trap").ExecutionFailed().ReturnMessageContains("unreachable")
	run("finish_then_trap").ExecutionFailed().NoReturnData()
	run("oob_signal").ExecutionFailed().Fault(core.ErrBadBounds)
	run("identity").FunctionWrongSignature()
}

func TestUnknownImportIsContractInvalid(t *testing.T) {
	vm := newTestVM(t)

	out, err := vm.Execute(context.Background(), hostcallsAddress, readTestdata(t, "bad_import.wasm"), "run", nil)
	testcommon.NewOutputVerifier(t, out, err).ReturnCode(core.ContractInvalid)
}

func TestInvalidCode(t *testing.T) {
	vm := newTestVM(t)

	out, err := vm.Execute(context.Background(), hostcallsAddress, []byte("garbage"), "run", nil)
	testcommon.NewOutputVerifier(t, out, err).ReturnCode(core.ContractInvalid)
}

func TestCanceledContext(t *testing.T) {
	vm := newTestVM(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := vm.Execute(ctx, fixture.Address, fixture.WasmCode, "answer", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCanceledDuringCall(t *testing.T) {
	vm := newTestVM(t)
	code := readTestdata(t, "hostcalls.wasm")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	out, err := vm.Execute(ctx, hostcallsAddress, code, "spin", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, out)

	// the runtime stays usable for later calls
	out, err = vm.Execute(context.Background(), hostcallsAddress, code, "copy_first", [][]byte{[]byte("ok")})
	testcommon.NewOutputVerifier(t, out, err).Ok().ReturnData([]byte("ok"))
}

func TestForget(t *testing.T) {
	vm := newTestVM(t)
	ctx := context.Background()

	_, err := vm.Exports(ctx, fixture.WasmCode)
	require.NoError(t, err)
	require.Len(t, vm.compiled, 1)

	vm.Forget(ctx, fixture.WasmCode)
	assert.Empty(t, vm.compiled)
}

func TestImports(t *testing.T) {
	vm := newTestVM(t)

	imports, err := vm.Imports(context.Background(), fixture.WasmCode)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"env.checkNumArguments",
		"env.getNumArguments",
		"env.signalError",
		"env.smallIntFinishUnsigned",
		"env.smallIntGetUnsignedArgument",
	}, imports)

	_, err = vm.Imports(context.Background(), []byte("not wasm"))
	assert.Error(t, err)
}
