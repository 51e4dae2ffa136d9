package core

import "fmt"

// ReturnCode is the outcome class of an invocation
type ReturnCode int

const (
	Ok                     ReturnCode = 0
	FunctionNotFound       ReturnCode = 1
	FunctionWrongSignature ReturnCode = 2
	ContractNotFound       ReturnCode = 3
	UserError              ReturnCode = 4
	ContractInvalid        ReturnCode = 9
	ExecutionFailed        ReturnCode = 10
)

var returnCodeNames = map[ReturnCode]string{
	Ok:                     "ok",
	FunctionNotFound:       "function not found",
	FunctionWrongSignature: "wrong signature for function",
	ContractNotFound:       "contract not found",
	UserError:              "user error",
	ContractInvalid:        "contract invalid",
	ExecutionFailed:        "execution failed",
}

func (code ReturnCode) String() string {
	if name, ok := returnCodeNames[code]; ok {
		return name
	}
	return fmt.Sprintf("unknown return code %d", int(code))
}

// MarshalText renders the code by name so JSON and YAML output stay readable
func (code ReturnCode) MarshalText() ([]byte, error) {
	return []byte(code.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText
func (code *ReturnCode) UnmarshalText(text []byte) error {
	parsed, err := ParseReturnCode(string(text))
	if err != nil {
		return err
	}
	*code = parsed
	return nil
}

// ParseReturnCode resolves a code from its name
func ParseReturnCode(name string) (ReturnCode, error) {
	for code, codeName := range returnCodeNames {
		if codeName == name {
			return code, nil
		}
	}
	return 0, fmt.Errorf("unknown return code %q", name)
}
