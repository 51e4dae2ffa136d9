package wasi

import (
	"context"

	api1 "github.com/govm-net/harness/api"
	"github.com/govm-net/harness/core"
	"github.com/govm-net/harness/host"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

const (
	getNumArgumentsName             = "getNumArguments"
	checkNumArgumentsName           = "checkNumArguments"
	getArgumentLengthName           = "getArgumentLength"
	getArgumentName                 = "getArgument"
	smallIntGetUnsignedArgumentName = "smallIntGetUnsignedArgument"
	smallIntFinishUnsignedName      = "smallIntFinishUnsigned"
	finishName                      = "finish"
	signalErrorName                 = "signalError"
)

var hostFunctionNames = map[string]bool{
	getNumArgumentsName:             true,
	checkNumArgumentsName:           true,
	getArgumentLengthName:           true,
	getArgumentName:                 true,
	smallIntGetUnsignedArgumentName: true,
	smallIntFinishUnsignedName:      true,
	finishName:                      true,
	signalErrorName:                 true,
}

func isHostFunction(name string) bool {
	return hostFunctionNames[name]
}

// instantiateEnv registers the execution environment. The functions hold no
// state: every call resolves the adapter of the running invocation from ctx.
func instantiateEnv(ctx context.Context, runtime wazero.Runtime) (api.Module, error) {
	builder := runtime.NewHostModuleBuilder(api1.HostModule)

	builder.NewFunctionBuilder().
		WithResultNames("count").
		WithFunc(func(ctx context.Context) int32 {
			return int32(executionContext(ctx).NumArguments())
		}).
		Export(getNumArgumentsName)

	builder.NewFunctionBuilder().
		WithParameterNames("expected").
		WithFunc(func(ctx context.Context, expected int32) {
			executionContext(ctx).CheckNumArguments(int(expected))
		}).
		Export(checkNumArgumentsName)

	builder.NewFunctionBuilder().
		WithParameterNames("id").
		WithResultNames("length").
		WithFunc(func(ctx context.Context, id int32) int32 {
			return int32(len(executionContext(ctx).GetArgument(int(id))))
		}).
		Export(getArgumentLengthName)

	builder.NewFunctionBuilder().
		WithParameterNames("id", "argOffset").
		WithResultNames("length").
		WithFunc(func(ctx context.Context, m api.Module, id int32, argOffset uint32) int32 {
			exec := executionContext(ctx)
			arg := exec.GetArgument(int(id))
			memStore(exec, m, argOffset, arg)
			return int32(len(arg))
		}).
		Export(getArgumentName)

	builder.NewFunctionBuilder().
		WithParameterNames("id").
		WithResultNames("value").
		WithFunc(func(ctx context.Context, id int32) uint64 {
			return executionContext(ctx).GetArgumentU64(int(id))
		}).
		Export(smallIntGetUnsignedArgumentName)

	builder.NewFunctionBuilder().
		WithParameterNames("value").
		WithFunc(func(ctx context.Context, value uint64) {
			executionContext(ctx).FinishU64(value)
		}).
		Export(smallIntFinishUnsignedName)

	builder.NewFunctionBuilder().
		WithParameterNames("dataOffset", "length").
		WithFunc(func(ctx context.Context, m api.Module, dataOffset, length uint32) {
			exec := executionContext(ctx)
			exec.Finish(memLoad(exec, m, dataOffset, length))
		}).
		Export(finishName)

	builder.NewFunctionBuilder().
		WithParameterNames("messageOffset", "messageLength").
		WithFunc(func(ctx context.Context, m api.Module, messageOffset, messageLength uint32) {
			exec := executionContext(ctx)
			exec.SignalError(memLoad(exec, m, messageOffset, messageLength))
		}).
		Export(signalErrorName)

	return builder.Instantiate(ctx)
}

func executionContext(ctx context.Context) *host.ExecutionContext {
	exec, err := host.ExecutionContextFrom(ctx)
	if err != nil {
		panic(err)
	}
	return exec
}

func memLoad(exec *host.ExecutionContext, m api.Module, offset, length uint32) []byte {
	mem := m.Memory()
	if mem == nil {
		exec.Abort(core.NewFault(core.ErrBadBounds, "contract has no memory"))
	}
	data, ok := mem.Read(offset, length)
	if !ok {
		exec.Abort(core.NewFault(core.ErrBadBounds, "read %d bytes at %d", length, offset))
	}
	return append([]byte{}, data...)
}

func memStore(exec *host.ExecutionContext, m api.Module, offset uint32, data []byte) {
	mem := m.Memory()
	if mem == nil {
		exec.Abort(core.NewFault(core.ErrBadBounds, "contract has no memory"))
	}
	if !mem.Write(offset, data) {
		exec.Abort(core.NewFault(core.ErrBadBounds, "write %d bytes at %d", len(data), offset))
	}
}
