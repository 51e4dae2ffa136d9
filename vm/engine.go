package vm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/govm-net/harness/api"
	"github.com/govm-net/harness/contract"
	"github.com/govm-net/harness/core"
	"github.com/govm-net/harness/host"
	"github.com/govm-net/harness/journal"
	_ "github.com/govm-net/harness/journal/db"
	_ "github.com/govm-net/harness/journal/memory"
	"github.com/govm-net/harness/repository"
	"github.com/govm-net/harness/wasi"
)

// ErrInvalidArguments signals arguments rejected before the invocation starts
var ErrInvalidArguments = errors.New("invalid arguments")

// Engine is responsible for contract deployment and execution
type Engine struct {
	config      *Config
	wazeroVM    *wasi.WazeroVM
	codeManager *repository.Manager
	journal     journal.Journal

	nativesLock sync.RWMutex
	natives     map[core.Address]*contract.Contract
	names       map[string]core.Address
}

var _ api.VM = (*Engine)(nil)

// Config represents engine configuration
type Config struct {
	MaxContractSize uint64         // Maximum contract size
	MaxArguments    int            // Maximum number of arguments per invocation
	MaxArgumentSize int            // Maximum size of one argument
	CodeManagerDir  string         // Code manager storage directory
	JournalType     string         // Journal backend type
	JournalParams   map[string]any // Journal backend parameters
}

// DefaultConfig returns a configuration storing code under codeDir and
// journaling in memory
func DefaultConfig(codeDir string) *Config {
	limits := api.DefaultContractConfig()
	return &Config{
		MaxContractSize: limits.MaxCodeSize,
		MaxArguments:    limits.MaxArguments,
		MaxArgumentSize: limits.MaxArgumentSize,
		CodeManagerDir:  codeDir,
		JournalType:     string(journal.MemoryBackend),
	}
}

// NewEngine creates a new contract engine
func NewEngine(config *Config) (*Engine, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	codeManager, err := repository.NewManager(config.CodeManagerDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create code manager: %w", err)
	}

	j, err := journal.Get(journal.BackendType(config.JournalType), config.JournalParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	wazeroVM, err := wasi.NewWazeroVM(context.Background())
	if err != nil {
		j.Close()
		return nil, fmt.Errorf("failed to create wazero engine: %w", err)
	}

	return &Engine{
		config:      config,
		wazeroVM:    wazeroVM,
		codeManager: codeManager,
		journal:     j,
		natives:     make(map[core.Address]*contract.Contract),
		names:       make(map[string]core.Address),
	}, nil
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	if config.MaxContractSize == 0 {
		return fmt.Errorf("invalid max contract size: %d", config.MaxContractSize)
	}

	if config.MaxArguments <= 0 {
		return fmt.Errorf("invalid max arguments: %d", config.MaxArguments)
	}

	if config.MaxArgumentSize <= 0 {
		return fmt.Errorf("invalid max argument size: %d", config.MaxArgumentSize)
	}

	if config.CodeManagerDir == "" {
		return fmt.Errorf("code manager directory is empty")
	}

	return nil
}

// RegisterNative makes a Go contract callable at addr and by its name
func (e *Engine) RegisterNative(addr core.Address, c *contract.Contract) error {
	if addr == core.ZeroAddress {
		return fmt.Errorf("native contract %s needs an address", c.Name())
	}
	if e.codeManager.Exists(addr) {
		return fmt.Errorf("address %s already holds deployed code", addr)
	}

	e.nativesLock.Lock()
	defer e.nativesLock.Unlock()

	if _, exists := e.natives[addr]; exists {
		return fmt.Errorf("native contract already registered at %s", addr)
	}
	if _, exists := e.names[c.Name()]; exists {
		return fmt.Errorf("native contract name %s already registered", c.Name())
	}
	e.natives[addr] = c
	e.names[c.Name()] = addr
	return nil
}

func (e *Engine) native(addr core.Address) (*contract.Contract, bool) {
	e.nativesLock.RLock()
	defer e.nativesLock.RUnlock()
	c, ok := e.natives[addr]
	return c, ok
}

// Resolve turns a native contract name or a hex address into an address
func (e *Engine) Resolve(ref string) (core.Address, error) {
	e.nativesLock.RLock()
	addr, ok := e.names[ref]
	e.nativesLock.RUnlock()
	if ok {
		return addr, nil
	}

	addr = core.AddressFromString(ref)
	if addr == core.ZeroAddress {
		return core.ZeroAddress, fmt.Errorf("%w: %q is neither a contract name nor an address", core.ErrContractNotFound, ref)
	}
	return addr, nil
}

// DeployContract deploys WebAssembly code at the address derived from it
func (e *Engine) DeployContract(ctx context.Context, code []byte) (core.Address, error) {
	contractAddr := api.DefaultContractAddressGenerator(code)
	return contractAddr, e.DeployContractWithAddress(ctx, code, contractAddr)
}

// DeployContractWithAddress deploys WebAssembly code at contractAddr
func (e *Engine) DeployContractWithAddress(ctx context.Context, code []byte, contractAddr core.Address) error {
	if uint64(len(code)) > e.config.MaxContractSize {
		return fmt.Errorf("%w: code size %d exceeds %d", core.ErrContractInvalid, len(code), e.config.MaxContractSize)
	}
	if _, ok := e.native(contractAddr); ok {
		return fmt.Errorf("address %s is taken by a native contract", contractAddr)
	}

	if err := e.wazeroVM.Validate(ctx, code); err != nil {
		return fmt.Errorf("contract validation failed: %w", err)
	}

	endpoints, err := e.wazeroVM.Exports(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to list contract endpoints: %w", err)
	}
	if len(endpoints) == 0 {
		return fmt.Errorf("%w: no endpoints exported", core.ErrContractInvalid)
	}

	if err := e.codeManager.RegisterCode(contractAddr, code, endpoints); err != nil {
		return fmt.Errorf("failed to save contract code: %w", err)
	}

	slog.Info("contract deployed", "address", contractAddr, "endpoints", endpoints)
	return nil
}

// DeleteContract removes deployed code
func (e *Engine) DeleteContract(ctx context.Context, contractAddr core.Address) error {
	code, err := e.codeManager.GetCode(contractAddr)
	if err != nil {
		return err
	}
	e.wazeroVM.Forget(ctx, code.Code)
	return e.codeManager.Delete(contractAddr)
}

// Contracts lists native and deployed contract addresses
func (e *Engine) Contracts() ([]core.Address, error) {
	deployed, err := e.codeManager.List()
	if err != nil {
		return nil, err
	}

	e.nativesLock.RLock()
	addresses := make([]core.Address, 0, len(e.natives)+len(deployed))
	for addr := range e.natives {
		addresses = append(addresses, addr)
	}
	e.nativesLock.RUnlock()

	addresses = append(addresses, deployed...)
	sort.Slice(addresses, func(i, j int) bool {
		return addresses[i].String() < addresses[j].String()
	})
	return addresses, nil
}

// Endpoints lists the functions a contract exposes
func (e *Engine) Endpoints(ctx context.Context, contractAddr core.Address) ([]string, error) {
	if c, ok := e.native(contractAddr); ok {
		return c.Functions(), nil
	}
	code, err := e.codeManager.GetCode(contractAddr)
	if err != nil {
		return nil, err
	}
	return code.Endpoints, nil
}

// Execute runs function on a contract and journals the outcome
func (e *Engine) Execute(ctx context.Context, contractAddr core.Address, function string, args ...[]byte) (*host.Output, error) {
	out, err := e.run(ctx, contractAddr, function, args)
	if err != nil {
		return nil, err
	}

	if err := e.journal.Record(ctx, journal.NewEntry(out, args)); err != nil {
		return out, fmt.Errorf("failed to journal invocation: %w", err)
	}
	return out, nil
}

// Query runs function on a contract without journaling
func (e *Engine) Query(ctx context.Context, contractAddr core.Address, function string, args ...[]byte) (*host.Output, error) {
	return e.run(ctx, contractAddr, function, args)
}

func (e *Engine) run(ctx context.Context, contractAddr core.Address, function string, args [][]byte) (*host.Output, error) {
	if err := e.validateArguments(args); err != nil {
		return nil, err
	}

	var out *host.Output
	if c, ok := e.native(contractAddr); ok {
		if endpoint, found := c.Endpoint(function); found {
			out = host.Invoke(contractAddr, function, endpoint, args)
		} else {
			out = host.FaultOutput(contractAddr, function, core.NewFault(core.ErrFuncNotFound, "%s", function))
		}
	} else {
		code, err := e.codeManager.GetCode(contractAddr)
		switch {
		case errors.Is(err, core.ErrContractNotFound):
			out = host.FaultOutput(contractAddr, function, core.NewFault(core.ErrContractNotFound, "%s", contractAddr))
		case err != nil:
			return nil, fmt.Errorf("failed to load contract code: %w", err)
		default:
			out, err = e.wazeroVM.Execute(ctx, contractAddr, code.Code, function, args)
			if err != nil {
				return nil, fmt.Errorf("failed to execute %s: %w", function, err)
			}
		}
	}

	slog.Debug("contract executed",
		"contract", contractAddr,
		"function", function,
		"args", len(args),
		"code", out.ReturnCode,
		"message", out.ReturnMessage)
	return out, nil
}

func (e *Engine) validateArguments(args [][]byte) error {
	if len(args) > e.config.MaxArguments {
		return fmt.Errorf("%w: %d arguments exceed %d", ErrInvalidArguments, len(args), e.config.MaxArguments)
	}
	for i, arg := range args {
		if len(arg) > e.config.MaxArgumentSize {
			return fmt.Errorf("%w: argument %d is %d bytes, limit %d", ErrInvalidArguments, i, len(arg), e.config.MaxArgumentSize)
		}
	}
	return nil
}

// History returns journaled invocations
func (e *Engine) History(ctx context.Context, filter journal.Filter) ([]journal.Entry, error) {
	return e.journal.List(ctx, filter)
}

// Close closes the engine
func (e *Engine) Close() error {
	var errs []error
	if err := e.wazeroVM.Close(context.Background()); err != nil {
		errs = append(errs, err)
	}
	if err := e.journal.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close journal: %w", err))
	}
	return errors.Join(errs...)
}
