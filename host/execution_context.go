// Package host implements the execution environment adapter seen by
// contract endpoints and turns a finished invocation into an Output.
package host

import (
	"context"
	"errors"
	"fmt"

	"github.com/govm-net/harness/core"
)

// ExecutionContext is the adapter for a single endpoint invocation. It owns
// the argument list, the result buffer and the terminal fault, and is
// discarded once the invocation completes.
type ExecutionContext struct {
	contract  core.Address
	function  string
	arguments [][]byte
	results   [][]byte
	fault     *core.Fault
}

var _ core.Environment = (*ExecutionContext)(nil)

// NewExecutionContext creates the adapter for one invocation. Arguments are copied.
func NewExecutionContext(contract core.Address, function string, arguments [][]byte) *ExecutionContext {
	args := make([][]byte, len(arguments))
	for i, arg := range arguments {
		args[i] = append([]byte{}, arg...)
	}
	return &ExecutionContext{
		contract:  contract,
		function:  function,
		arguments: args,
	}
}

// Contract returns the address of the contract being invoked
func (c *ExecutionContext) Contract() core.Address {
	return c.contract
}

// Function returns the name of the endpoint being invoked
func (c *ExecutionContext) Function() string {
	return c.function
}

// NumArguments returns the number of arguments of the invocation
func (c *ExecutionContext) NumArguments() int {
	c.ensureRunning()
	return len(c.arguments)
}

// CheckNumArguments aborts with ErrArgumentCount unless there are exactly expected arguments
func (c *ExecutionContext) CheckNumArguments(expected int) {
	c.ensureRunning()
	if len(c.arguments) != expected {
		c.Abort(core.NewFault(core.ErrArgumentCount, "expected %d, got %d", expected, len(c.arguments)))
	}
}

// GetArgument returns a copy of the argument at index
func (c *ExecutionContext) GetArgument(index int) []byte {
	c.ensureRunning()
	if index < 0 || index >= len(c.arguments) {
		c.Abort(core.NewFault(core.ErrIndexOutOfRange, "index %d, have %d", index, len(c.arguments)))
	}
	return append([]byte{}, c.arguments[index]...)
}

// GetArgumentU64 decodes the argument at index as an unsigned 64-bit integer
func (c *ExecutionContext) GetArgumentU64(index int) uint64 {
	arg := c.GetArgument(index)
	value, err := core.DecodeU64(arg)
	if err != nil {
		c.Abort(core.NewFault(core.ErrDecode, "argument %d: %x", index, arg))
	}
	return value
}

// Finish appends a copy of data to the results
func (c *ExecutionContext) Finish(data []byte) {
	c.ensureRunning()
	c.results = append(c.results, append([]byte{}, data...))
}

// FinishU64 appends the canonical encoding of value to the results
func (c *ExecutionContext) FinishU64(value uint64) {
	c.Finish(core.EncodeU64(value))
}

// SignalError ends the invocation with message as the error payload
func (c *ExecutionContext) SignalError(message []byte) {
	c.ensureRunning()
	c.Abort(core.Signal(message))
}

// Abort records fault as the reason the invocation ended and unwinds the
// endpoint. Only the first fault is kept.
func (c *ExecutionContext) Abort(fault *core.Fault) {
	if c.fault == nil {
		c.fault = fault
	}
	panic(c.fault)
}

// Fault returns the terminal fault, or nil while the invocation is healthy
func (c *ExecutionContext) Fault() *core.Fault {
	return c.fault
}

// Results returns the values finished so far
func (c *ExecutionContext) Results() [][]byte {
	return c.results
}

func (c *ExecutionContext) ensureRunning() {
	if c.fault != nil {
		panic(c.fault)
	}
}

// Run executes body as the invocation and builds its Output. Aborts and
// unexpected panics inside body are recovered here.
func (c *ExecutionContext) Run(body func()) (out *Output) {
	defer func() {
		if r := recover(); r != nil {
			out = c.outputFromPanic(r)
		}
	}()
	body()
	if c.fault != nil {
		// the endpoint swallowed its own abort
		return FaultOutput(c.contract, c.function, c.fault)
	}
	return &Output{
		Contract:   c.contract,
		Function:   c.function,
		ReturnCode: core.Ok,
		ReturnData: c.results,
	}
}

func (c *ExecutionContext) outputFromPanic(r any) *Output {
	if c.fault != nil {
		return FaultOutput(c.contract, c.function, c.fault)
	}
	if fault, ok := core.AsFault(r); ok {
		return FaultOutput(c.contract, c.function, fault)
	}
	var err error
	if e, ok := r.(error); ok {
		err = fmt.Errorf("%w: %w", core.ErrExecutionFailed, e)
	} else {
		err = fmt.Errorf("%w: %v", core.ErrExecutionFailed, r)
	}
	return FaultOutput(c.contract, c.function, &core.Fault{Err: err})
}

// Invoke runs endpoint against a fresh ExecutionContext. Nothing survives
// from one call to the next.
func Invoke(contract core.Address, function string, endpoint core.Endpoint, arguments [][]byte) *Output {
	exec := NewExecutionContext(contract, function, arguments)
	return exec.Run(func() {
		endpoint(exec)
	})
}

type executionContextKey struct{}

// WithExecutionContext attaches exec to ctx so host functions can find the
// adapter of the invocation they serve.
func WithExecutionContext(ctx context.Context, exec *ExecutionContext) context.Context {
	return context.WithValue(ctx, executionContextKey{}, exec)
}

// ErrNoExecutionContext signals a host call made outside of an invocation
var ErrNoExecutionContext = errors.New("no execution context")

// ExecutionContextFrom returns the adapter attached by WithExecutionContext
func ExecutionContextFrom(ctx context.Context) (*ExecutionContext, error) {
	exec, ok := ctx.Value(executionContextKey{}).(*ExecutionContext)
	if !ok || exec == nil {
		return nil, ErrNoExecutionContext
	}
	return exec, nil
}
