package host

import (
	"fmt"

	"github.com/govm-net/harness/core"
)

// Output is what the caller of the environment observes once an invocation ends
type Output struct {
	Contract      core.Address    `json:"contract"`
	Function      string          `json:"function"`
	ReturnCode    core.ReturnCode `json:"return_code"`
	ReturnData    [][]byte        `json:"return_data"`
	ReturnMessage string          `json:"return_message,omitempty"`

	fault *core.Fault
}

// FaultOutput reports an invocation that ended with fault. Results finished
// before the fault are not part of the output.
func FaultOutput(contract core.Address, function string, fault *core.Fault) *Output {
	return &Output{
		Contract:      contract,
		Function:      function,
		ReturnCode:    fault.ReturnCode(),
		ReturnMessage: fault.ReturnMessage(),
		fault:         fault,
	}
}

// Err returns the fault that ended the invocation, nil on success
func (o *Output) Err() error {
	if o.fault == nil {
		return nil
	}
	return o.fault
}

// Fault returns the terminal fault, nil on success
func (o *Output) Fault() *core.Fault {
	return o.fault
}

// ReturnU64s decodes every finished value as an unsigned 64-bit integer
func (o *Output) ReturnU64s() ([]uint64, error) {
	values := make([]uint64, len(o.ReturnData))
	for i, data := range o.ReturnData {
		value, err := core.DecodeU64(data)
		if err != nil {
			return nil, fmt.Errorf("return value %d: %w", i, err)
		}
		values[i] = value
	}
	return values, nil
}
