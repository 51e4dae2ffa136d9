// Package core defines what a contract endpoint sees while it runs.
// Endpoints talk to the host only through the Environment they receive,
// so this is the only package a contract author needs to import.
package core

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Address identifies a contract known to the harness
type Address [20]byte

var ZeroAddress = Address{}

func (addr Address) String() string {
	return hex.EncodeToString(addr[:])
}

// AddressFromString decodes a hex address, with or without a 0x prefix.
// Malformed input yields ZeroAddress.
func AddressFromString(str string) Address {
	addr, err := parseAddress(str)
	if err != nil {
		return ZeroAddress
	}
	return addr
}

func parseAddress(str string) (Address, error) {
	str = strings.TrimPrefix(strings.TrimPrefix(str, "0x"), "0X")
	data, err := hex.DecodeString(str)
	if err != nil {
		return ZeroAddress, err
	}
	if len(data) != len(Address{}) {
		return ZeroAddress, fmt.Errorf("address is %d bytes, want %d", len(data), len(Address{}))
	}
	return Address(data), nil
}

func (addr Address) MarshalText() ([]byte, error) {
	return []byte(addr.String()), nil
}

func (addr *Address) UnmarshalText(text []byte) error {
	parsed, err := parseAddress(string(text))
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", text, err)
	}
	*addr = parsed
	return nil
}

// Environment is the execution environment adapter handed to an endpoint.
// It lives for exactly one invocation.
//
// Operations that fail do not return errors: they abort the invocation and
// the host reports the failure to its caller. Once the invocation has been
// aborted every further call raises the same abort again.
type Environment interface {
	// NumArguments returns the number of arguments of this invocation.
	NumArguments() int
	// CheckNumArguments aborts with ErrArgumentCount on mismatch.
	CheckNumArguments(expected int)
	// GetArgument returns the raw argument bytes, aborting with ErrIndexOutOfRange.
	GetArgument(index int) []byte
	// GetArgumentU64 aborts with ErrIndexOutOfRange or ErrDecode.
	GetArgumentU64(index int) uint64

	// Finish appends raw bytes to the result buffer.
	Finish(data []byte)
	// FinishU64 appends the canonical encoding of value.
	FinishU64(value uint64)

	// SignalError terminates the invocation with message as the reason.
	SignalError(message []byte)
}

// Endpoint is an externally callable entry point of a contract.
// Arguments and results flow through env, never through the Go signature.
type Endpoint func(env Environment)
