// Package fixture is the reference contract used to validate the harness:
// four endpoints exercising argument passing, result finishing and error
// signaling. It ships as native Go endpoints and as an equivalent
// WebAssembly module.
package fixture

import (
	_ "embed"

	"github.com/govm-net/harness/contract"
	"github.com/govm-net/harness/core"
)

// Name is the alias the fixture is registered under
const Name = "fixture"

// Address is where the native fixture lives inside an engine
var Address = core.AddressFromString("0000000000000000000000000000000000000042")

// WasmCode is the WebAssembly build of the fixture; see fixture.wat
//
//go:embed fixture.wasm
var WasmCode []byte

// Answer finishes 42
func Answer(env core.Environment) {
	env.FinishU64(42)
}

// AnswerWrong finishes 24. Tests use it as the negative case for Answer.
func AnswerWrong(env core.Environment) {
	env.FinishU64(24)
}

// Echo receives a u64 as its only argument and returns it back
func Echo(env core.Environment) {
	env.CheckNumArguments(1)

	arg := env.GetArgumentU64(0)

	env.FinishU64(arg)
}

// Fail always signals an error with payload "fail"
func Fail(env core.Environment) {
	env.SignalError([]byte("fail"))
}

// New returns the fixture's dispatch table
func New() *contract.Contract {
	return contract.New(Name).
		MustRegister("answer", Answer).
		MustRegister("answer_wrong", AnswerWrong).
		MustRegister("echo", Echo).
		MustRegister("fail", Fail)
}
