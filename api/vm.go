// Package api provides the host-facing interface of the harness.
// Contracts never import it; they only see core.Environment.
package api

import (
	"context"
	"crypto/sha256"

	"github.com/govm-net/harness/core"
	"github.com/govm-net/harness/host"
)

// VM deploys contract code and invokes endpoints
type VM interface {
	// DeployContract stores code and returns the address it was deployed to
	DeployContract(ctx context.Context, code []byte) (core.Address, error)

	// Execute invokes function on a contract and records the outcome.
	// Contract-level failures are reported in the Output; the error is
	// reserved for host failures.
	Execute(ctx context.Context, contract core.Address, function string, args ...[]byte) (*host.Output, error)

	// Query invokes function without recording the outcome
	Query(ctx context.Context, contract core.Address, function string, args ...[]byte) (*host.Output, error)

	// Endpoints lists the functions a contract exposes
	Endpoints(ctx context.Context, contract core.Address) ([]string, error)

	Close() error
}

// HostModule is the import namespace contracts link their host calls against
const HostModule = "env"

// ContractConfig defines limits applied to deployed code and invocations
type ContractConfig struct {
	// MaxCodeSize is the maximum size of contract code in bytes
	MaxCodeSize uint64

	// MaxArguments is the maximum number of arguments of one invocation
	MaxArguments int

	// MaxArgumentSize is the maximum size of a single argument in bytes
	MaxArgumentSize int
}

// DefaultContractConfig returns a default configuration for contracts
func DefaultContractConfig() ContractConfig {
	return ContractConfig{
		MaxCodeSize:     1024 * 1024, // 1MB
		MaxArguments:    255,
		MaxArgumentSize: 64 * 1024,
	}
}

// DefaultContractAddressGenerator derives a contract address from its code
var DefaultContractAddressGenerator = func(code []byte) core.Address {
	hash := sha256.Sum256(code)
	var addr core.Address
	copy(addr[:], hash[:len(addr)])
	return addr
}
