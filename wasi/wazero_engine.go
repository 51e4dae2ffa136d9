// Package wasi runs WebAssembly contracts on wazero. Contracts import the
// execution environment from the "env" host module.
package wasi

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	api1 "github.com/govm-net/harness/api"
	"github.com/govm-net/harness/core"
	"github.com/govm-net/harness/host"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// WazeroVM implements a virtual machine using wazero
type WazeroVM struct {
	runtime   wazero.Runtime
	envModule api.Module

	// compiled modules keyed by code hash
	compiledLock sync.Mutex
	compiled     map[[32]byte]wazero.CompiledModule
}

// NewWazeroVM creates a runtime with the env host module instantiated
func NewWazeroVM(ctx context.Context) (*WazeroVM, error) {
	runtime := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCloseOnContextDone(true))

	envModule, err := instantiateEnv(ctx, runtime)
	if err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate env module: %w", err)
	}

	return &WazeroVM{
		runtime:   runtime,
		envModule: envModule,
		compiled:  make(map[[32]byte]wazero.CompiledModule),
	}, nil
}

func (vm *WazeroVM) compile(ctx context.Context, code []byte) (wazero.CompiledModule, error) {
	if len(code) == 0 {
		return nil, errors.New("contract code cannot be empty")
	}
	hash := sha256.Sum256(code)

	vm.compiledLock.Lock()
	defer vm.compiledLock.Unlock()

	if compiled, ok := vm.compiled[hash]; ok {
		return compiled, nil
	}
	compiled, err := vm.runtime.CompileModule(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to compile WebAssembly module: %w", err)
	}
	slog.Debug("compiled contract", "hash", fmt.Sprintf("%x", hash[:8]), "size", len(code))
	vm.compiled[hash] = compiled
	return compiled, nil
}

// Validate checks that code compiles and only imports functions the host provides
func (vm *WazeroVM) Validate(ctx context.Context, code []byte) error {
	compiled, err := vm.compile(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrContractInvalid, err)
	}
	for _, def := range compiled.ImportedFunctions() {
		moduleName, name, _ := def.Import()
		if moduleName != api1.HostModule || !isHostFunction(name) {
			return fmt.Errorf("%w: unknown import %s.%s", core.ErrContractInvalid, moduleName, name)
		}
	}
	if len(compiled.ImportedMemories()) > 0 {
		return fmt.Errorf("%w: contracts must not import memory", core.ErrContractInvalid)
	}
	return nil
}

// Exports lists the endpoints of code: exported functions without params or results
func (vm *WazeroVM) Exports(ctx context.Context, code []byte) ([]string, error) {
	compiled, err := vm.compile(ctx, code)
	if err != nil {
		return nil, err
	}
	var functions []string
	for name, def := range compiled.ExportedFunctions() {
		if isVoid(def) {
			functions = append(functions, name)
		}
	}
	sort.Strings(functions)
	return functions, nil
}

// Imports lists the functions code imports as module.name, sorted
func (vm *WazeroVM) Imports(ctx context.Context, code []byte) ([]string, error) {
	compiled, err := vm.compile(ctx, code)
	if err != nil {
		return nil, err
	}
	var imports []string
	for _, def := range compiled.ImportedFunctions() {
		moduleName, name, _ := def.Import()
		imports = append(imports, moduleName+"."+name)
	}
	sort.Strings(imports)
	return imports, nil
}

// Execute instantiates code and runs function with args. Each call gets its
// own module instance and its own execution context.
func (vm *WazeroVM) Execute(ctx context.Context, contract core.Address, code []byte, function string, args [][]byte) (*host.Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	compiled, err := vm.compile(ctx, code)
	if err != nil {
		return host.FaultOutput(contract, function, core.NewFault(core.ErrContractInvalid, "%v", err)), nil
	}

	exec := host.NewExecutionContext(contract, function, args)
	callCtx := host.WithExecutionContext(ctx, exec)

	config := wazero.NewModuleConfig().WithName("").WithStartFunctions()
	module, err := vm.runtime.InstantiateModule(callCtx, compiled, config)
	if err != nil {
		return host.FaultOutput(contract, function, core.NewFault(core.ErrContractInvalid, "%v", err)), nil
	}
	defer module.Close(ctx)

	fn := module.ExportedFunction(function)
	if fn == nil {
		return host.FaultOutput(contract, function, core.NewFault(core.ErrFuncNotFound, "%s", function)), nil
	}
	if !isVoid(fn.Definition()) {
		return host.FaultOutput(contract, function, core.NewFault(core.ErrFunctionNonvoidSignature, "%s", function)), nil
	}

	out := exec.Run(func() {
		if _, err := fn.Call(callCtx); err != nil {
			panic(err)
		}
	})
	if err := ctx.Err(); err != nil {
		// the runtime closed the module when ctx was done
		return nil, err
	}
	slog.Debug("wasm call finished", "contract", contract, "function", function, "code", out.ReturnCode)
	return out, nil
}

// Forget drops the compiled module cached for code
func (vm *WazeroVM) Forget(ctx context.Context, code []byte) {
	hash := sha256.Sum256(code)

	vm.compiledLock.Lock()
	defer vm.compiledLock.Unlock()

	if compiled, ok := vm.compiled[hash]; ok {
		compiled.Close(ctx)
		delete(vm.compiled, hash)
	}
}

// Close closes the virtual machine
func (vm *WazeroVM) Close(ctx context.Context) error {
	if err := vm.runtime.Close(ctx); err != nil {
		return fmt.Errorf("failed to close wazero runtime: %w", err)
	}
	return nil
}

func isVoid(def api.FunctionDefinition) bool {
	return len(def.ParamTypes()) == 0 && len(def.ResultTypes()) == 0
}
