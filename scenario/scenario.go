// Package scenario runs declarative step files against a contract engine.
// A scenario file is YAML: a list of deploy, run and query steps, each with
// an optional expected outcome.
package scenario

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/govm-net/harness/core"
	"github.com/govm-net/harness/host"
	"github.com/govm-net/harness/testcommon"
)

// FileSuffix marks scenario files when a whole directory is run
const FileSuffix = ".scen.yaml"

// Step kinds
const (
	StepDeploy = "deploy"
	StepRun    = "run"
	StepQuery  = "query"
)

var (
	// ErrInvalidScenario signals a scenario file that cannot be run
	ErrInvalidScenario = errors.New("invalid scenario")
	// ErrUnexpectedOutcome signals a step whose outcome differs from its expectation
	ErrUnexpectedOutcome = errors.New("unexpected outcome")
)

type Scenario struct {
	Name    string `yaml:"name"`
	Comment string `yaml:"comment,omitempty"`
	Steps   []Step `yaml:"steps"`
}

// Step is one action of a scenario. Kind defaults to run.
type Step struct {
	Kind    string `yaml:"step,omitempty"`
	Comment string `yaml:"comment,omitempty"`

	// deploy: Code is a wasm file relative to the scenario file and ID
	// names the deployed contract for later steps
	ID   string `yaml:"id,omitempty"`
	Code string `yaml:"code,omitempty"`

	// run and query
	Contract  string   `yaml:"contract,omitempty"`
	Function  string   `yaml:"function,omitempty"`
	Arguments []string `yaml:"arguments,omitempty"`
	Expect    *Expect  `yaml:"expect,omitempty"`
}

// Expect describes the outcome of a step. Unset fields are not checked,
// except Status which defaults to ok. With Mismatch set the step passes
// only when the outcome does not meet the rest of the expectation.
type Expect struct {
	Status   string   `yaml:"status,omitempty"`
	Out      []string `yaml:"out,omitempty"`
	U64      []uint64 `yaml:"u64,omitempty"`
	Message  *string  `yaml:"message,omitempty"`
	Mismatch bool     `yaml:"mismatch,omitempty"`
}

// Load reads and validates a scenario file
func Load(path string) (*Scenario, error) {
	rawData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Parse(rawData)
}

// Parse decodes and validates a scenario. Unknown keys are rejected.
func Parse(data []byte) (*Scenario, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var s Scenario
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidScenario)
	}
	for i := range s.Steps {
		if err := s.Steps[i].validate(); err != nil {
			return fmt.Errorf("%w: step %d: %w", ErrInvalidScenario, i, err)
		}
	}
	return nil
}

func (st *Step) kind() string {
	if st.Kind == "" {
		return StepRun
	}
	return st.Kind
}

func (st *Step) validate() error {
	switch st.kind() {
	case StepDeploy:
		if st.Code == "" {
			return errors.New("deploy needs code")
		}
		if st.ID == "" {
			return errors.New("deploy needs an id")
		}
	case StepRun, StepQuery:
		if st.Contract == "" || st.Function == "" {
			return errors.New("contract and function are required")
		}
		if _, err := DecodeArguments(st.Arguments); err != nil {
			return err
		}
		if st.Expect != nil {
			return st.Expect.validate()
		}
	default:
		return fmt.Errorf("unknown step %q", st.Kind)
	}
	return nil
}

func (e *Expect) validate() error {
	if e.Status != "" {
		if _, err := core.ParseReturnCode(e.Status); err != nil {
			return err
		}
	}
	_, err := DecodeArguments(e.Out)
	return err
}

// Check compares out against the expectation
func (e *Expect) Check(out *host.Output) error {
	err := e.compare(out)
	if e.Mismatch {
		if err == nil {
			return fmt.Errorf("%w: outcome was expected to differ", ErrUnexpectedOutcome)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnexpectedOutcome, err)
	}
	return nil
}

func (e *Expect) compare(out *host.Output) error {
	status := core.Ok
	if e.Status != "" {
		status, _ = core.ParseReturnCode(e.Status)
	}
	if out.ReturnCode != status {
		return fmt.Errorf("return code: expected %s, got %s (%q)", status, out.ReturnCode, out.ReturnMessage)
	}

	if e.Message != nil && *e.Message != out.ReturnMessage {
		return fmt.Errorf("return message: expected %q, got %q", *e.Message, out.ReturnMessage)
	}

	if e.Out != nil {
		expected, _ := DecodeArguments(e.Out)
		if len(expected) != len(out.ReturnData) {
			return fmt.Errorf("expected %d return values, got %d", len(expected), len(out.ReturnData))
		}
		for i := range expected {
			if !bytes.Equal(expected[i], out.ReturnData[i]) {
				return fmt.Errorf("return value %d: expected %x, got %x", i, expected[i], out.ReturnData[i])
			}
		}
	}

	if e.U64 != nil {
		return testcommon.ExpectU64(out, e.U64...)
	}
	return nil
}

// DecodeArguments turns hex strings into raw bytes. A 0x prefix is optional,
// an odd digit count gets a leading zero and "" is an empty argument.
func DecodeArguments(args []string) ([][]byte, error) {
	arguments := make([][]byte, len(args))
	for i, arg := range args {
		arg = strings.TrimPrefix(strings.TrimPrefix(arg, "0x"), "0X")
		if len(arg)%2 == 1 {
			arg = "0" + arg
		}
		decoded, err := hex.DecodeString(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d is not hex: %w", i, err)
		}
		arguments[i] = decoded
	}
	return arguments, nil
}
