// Package testcommon holds assertions shared by the harness test suites.
package testcommon

import (
	"fmt"
	"testing"

	"github.com/govm-net/harness/core"
	"github.com/govm-net/harness/host"
	"github.com/stretchr/testify/require"
)

// OutputVerifier holds the output to be verified
type OutputVerifier struct {
	Output *host.Output
	T      testing.TB
}

// NewOutputVerifier builds a new verifier. The host error must be nil and
// the output present.
func NewOutputVerifier(t testing.TB, output *host.Output, err error) *OutputVerifier {
	t.Helper()
	require.Nil(t, err, "Error is not nil")
	require.NotNil(t, output, "Provided Output is nil")

	return &OutputVerifier{
		Output: output,
		T:      t,
	}
}

// Ok verifies if return code is core.Ok
func (v *OutputVerifier) Ok() *OutputVerifier {
	return v.ReturnCode(core.Ok)
}

// UserError verifies if return code is core.UserError
func (v *OutputVerifier) UserError() *OutputVerifier {
	return v.ReturnCode(core.UserError)
}

// FunctionNotFound verifies if return code is core.FunctionNotFound
func (v *OutputVerifier) FunctionNotFound() *OutputVerifier {
	return v.ReturnCode(core.FunctionNotFound)
}

// FunctionWrongSignature verifies if return code is core.FunctionWrongSignature
func (v *OutputVerifier) FunctionWrongSignature() *OutputVerifier {
	return v.ReturnCode(core.FunctionWrongSignature)
}

// ContractNotFound verifies if return code is core.ContractNotFound
func (v *OutputVerifier) ContractNotFound() *OutputVerifier {
	return v.ReturnCode(core.ContractNotFound)
}

// ExecutionFailed verifies if return code is core.ExecutionFailed
func (v *OutputVerifier) ExecutionFailed() *OutputVerifier {
	return v.ReturnCode(core.ExecutionFailed)
}

// ReturnCode verifies if ReturnCode of output is the same as the provided one
func (v *OutputVerifier) ReturnCode(code core.ReturnCode) *OutputVerifier {
	v.T.Helper()
	require.Equal(v.T, code, v.Output.ReturnCode, "ReturnCode (message: %q)", v.Output.ReturnMessage)
	return v
}

// ReturnMessage verifies if ReturnMessage of output is the same as the provided one
func (v *OutputVerifier) ReturnMessage(message string) *OutputVerifier {
	v.T.Helper()
	require.Equal(v.T, message, v.Output.ReturnMessage, "ReturnMessage")
	return v
}

// ReturnMessageContains verifies if ReturnMessage of output contains the provided one
func (v *OutputVerifier) ReturnMessageContains(message string) *OutputVerifier {
	v.T.Helper()
	require.Contains(v.T, v.Output.ReturnMessage, message, "ReturnMessage")
	return v
}

// Fault verifies that the invocation ended with a fault of the given kind
func (v *OutputVerifier) Fault(kind error) *OutputVerifier {
	v.T.Helper()
	require.ErrorIs(v.T, v.Output.Err(), kind, "Fault")
	return v
}

// ReturnData verifies the raw finished values
func (v *OutputVerifier) ReturnData(data ...[]byte) *OutputVerifier {
	v.T.Helper()
	require.Len(v.T, v.Output.ReturnData, len(data), "ReturnData length")
	for i := range data {
		require.Equal(v.T, data[i], v.Output.ReturnData[i], "ReturnData[%d]", i)
	}
	return v
}

// ReturnU64 verifies the finished values decoded as unsigned integers
func (v *OutputVerifier) ReturnU64(values ...uint64) *OutputVerifier {
	v.T.Helper()
	require.NoError(v.T, ExpectU64(v.Output, values...), "ReturnU64")
	return v
}

// NoReturnData verifies that nothing was finished
func (v *OutputVerifier) NoReturnData() *OutputVerifier {
	v.T.Helper()
	require.Empty(v.T, v.Output.ReturnData, "ReturnData")
	return v
}

// ExpectU64 compares the finished values against expected and reports the
// first difference as an error instead of failing a test.
func ExpectU64(output *host.Output, expected ...uint64) error {
	values, err := output.ReturnU64s()
	if err != nil {
		return err
	}
	if len(values) != len(expected) {
		return fmt.Errorf("expected %d return values, got %d", len(expected), len(values))
	}
	for i := range expected {
		if values[i] != expected[i] {
			return fmt.Errorf("return value %d: expected %d, got %d", i, expected[i], values[i])
		}
	}
	return nil
}
