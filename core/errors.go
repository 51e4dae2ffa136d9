package core

import (
	"errors"
	"fmt"
)

// ErrArgumentCount signals that an endpoint received the wrong number of arguments
var ErrArgumentCount = errors.New("wrong number of arguments")

// ErrIndexOutOfRange signals that the argument index is out of range
var ErrIndexOutOfRange = errors.New("argument index out of range")

// ErrDecode signals that an argument does not hold a valid unsigned 64-bit integer
var ErrDecode = errors.New("argument out of range")

// ErrSignalError is given when the contract signals an error
var ErrSignalError = errors.New("error signalled by smartcontract")

// ErrExecutionFailed signals that the execution failed
var ErrExecutionFailed = errors.New("execution failed")

// ErrBadBounds signals that a memory access fell outside the contract memory
var ErrBadBounds = fmt.Errorf("%w (bad bounds)", ErrExecutionFailed)

// ErrInvalidFunction signals that the function is invalid
var ErrInvalidFunction = errors.New("invalid function")

// ErrFuncNotFound signals that the function does not exist
var ErrFuncNotFound = fmt.Errorf("%w (not found)", ErrInvalidFunction)

// ErrFunctionNonvoidSignature signals that the exported function takes parameters or returns values
var ErrFunctionNonvoidSignature = fmt.Errorf("%w (nonvoid signature)", ErrInvalidFunction)

// ErrContractInvalid signals that the contract code is invalid
var ErrContractInvalid = errors.New("invalid contract code")

// ErrContractNotFound signals that the contract was not found
var ErrContractNotFound = fmt.Errorf("%w (not found)", ErrContractInvalid)

// Fault aborts an invocation. Err is one of the sentinel errors above and
// Message carries the diagnostic payload: the contract's own bytes for a
// signalled error, host detail for everything else.
type Fault struct {
	Err     error
	Message []byte
}

// NewFault builds a host fault with a formatted detail message
func NewFault(err error, format string, args ...any) *Fault {
	return &Fault{
		Err:     err,
		Message: []byte(fmt.Sprintf(format, args...)),
	}
}

// Signal builds the fault raised by SignalError. The payload is kept verbatim.
func Signal(message []byte) *Fault {
	return &Fault{
		Err:     ErrSignalError,
		Message: append([]byte{}, message...),
	}
}

func (f *Fault) Error() string {
	if len(f.Message) == 0 {
		return f.Err.Error()
	}
	return fmt.Sprintf("%s: %s", f.Err, f.Message)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// Signalled reports whether the contract raised this fault itself
func (f *Fault) Signalled() bool {
	return errors.Is(f.Err, ErrSignalError)
}

// ReturnMessage is the text surfaced to whoever invoked the contract.
// A signalled payload is passed through untouched.
func (f *Fault) ReturnMessage() string {
	if f.Signalled() {
		return string(f.Message)
	}
	return f.Err.Error()
}

// ReturnCode classifies the fault the way it is reported to the caller
func (f *Fault) ReturnCode() ReturnCode {
	switch {
	case errors.Is(f.Err, ErrSignalError),
		errors.Is(f.Err, ErrArgumentCount):
		return UserError
	case errors.Is(f.Err, ErrFuncNotFound):
		return FunctionNotFound
	case errors.Is(f.Err, ErrFunctionNonvoidSignature):
		return FunctionWrongSignature
	case errors.Is(f.Err, ErrContractNotFound):
		return ContractNotFound
	case errors.Is(f.Err, ErrContractInvalid):
		return ContractInvalid
	default:
		return ExecutionFailed
	}
}

// AsFault extracts a Fault from a recovered panic value or an error chain
func AsFault(v any) (*Fault, bool) {
	switch x := v.(type) {
	case *Fault:
		return x, x != nil
	case error:
		var fault *Fault
		if errors.As(x, &fault) {
			return fault, true
		}
	}
	return nil, false
}
