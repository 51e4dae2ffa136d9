package repository

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/govm-net/harness/core"
)

const (
	codeFileName     = "code.wasm"
	metadataFileName = "metadata.json"
)

var (
	// ErrContractExists signals that code is already registered under the address
	ErrContractExists = errors.New("contract already exists")
	// ErrCodeCorrupted signals that the stored code no longer matches its hash
	ErrCodeCorrupted = errors.New("contract code corrupted")
)

// Manager stores deployed contract code on disk, one directory per address
type Manager struct {
	rootDir string
}

// ContractCode is a deployed contract as kept by the manager
type ContractCode struct {
	Address    core.Address
	Code       []byte
	Endpoints  []string
	UpdateTime time.Time
	Hash       [32]byte
}

// ContractMetadata is persisted next to the code
type ContractMetadata struct {
	Hash       string    `json:"hash"`
	UpdateTime time.Time `json:"update_time"`
	Endpoints  []string  `json:"endpoints"`
}

// NewManager creates a code manager rooted at rootDir
func NewManager(rootDir string) (*Manager, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		slog.Error("failed to create root directory", "dir", rootDir, "error", err)
		return nil, fmt.Errorf("failed to create root directory: %w", err)
	}

	return &Manager{
		rootDir: rootDir,
	}, nil
}

// RegisterCode stores code and the endpoints it exports under address
func (m *Manager) RegisterCode(address core.Address, code []byte, endpoints []string) error {
	contractDir := m.getContractDir(address)
	if _, err := os.Stat(contractDir); err == nil {
		return fmt.Errorf("%w: %s", ErrContractExists, address)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check contract directory: %w", err)
	}

	if err := os.MkdirAll(contractDir, 0755); err != nil {
		return fmt.Errorf("failed to create contract directory: %w", err)
	}

	contractCode := &ContractCode{
		Address:    address,
		Code:       code,
		Endpoints:  endpoints,
		UpdateTime: time.Now(),
		Hash:       sha256.Sum256(code),
	}
	if err := m.saveContractFiles(contractCode); err != nil {
		os.RemoveAll(contractDir)
		return fmt.Errorf("failed to save contract files: %w", err)
	}

	slog.Debug("registered contract code", "address", address, "size", len(code), "endpoints", endpoints)
	return nil
}

// GetCode loads the contract stored under address
func (m *Manager) GetCode(address core.Address) (*ContractCode, error) {
	return m.loadContractCode(address)
}

// Exists reports whether code is registered under address
func (m *Manager) Exists(address core.Address) bool {
	_, err := os.Stat(filepath.Join(m.getContractDir(address), codeFileName))
	return err == nil
}

// Delete removes the contract stored under address
func (m *Manager) Delete(address core.Address) error {
	if !m.Exists(address) {
		return fmt.Errorf("%w: %s", core.ErrContractNotFound, address)
	}
	if err := os.RemoveAll(m.getContractDir(address)); err != nil {
		return fmt.Errorf("failed to delete contract: %w", err)
	}
	return nil
}

// List returns the addresses of all stored contracts in sorted order
func (m *Manager) List() ([]core.Address, error) {
	entries, err := os.ReadDir(m.rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read root directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		addr := core.AddressFromString(entry.Name())
		if addr == core.ZeroAddress || !m.Exists(addr) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	addresses := make([]core.Address, len(names))
	for i, name := range names {
		addresses[i] = core.AddressFromString(name)
	}
	return addresses, nil
}

func (m *Manager) getContractDir(address core.Address) string {
	return filepath.Join(m.rootDir, address.String())
}

func (m *Manager) saveContractFiles(code *ContractCode) error {
	dir := m.getContractDir(code.Address)

	if err := os.WriteFile(filepath.Join(dir, codeFileName), code.Code, 0644); err != nil {
		return fmt.Errorf("failed to save code: %w", err)
	}

	metadata := ContractMetadata{
		Hash:       hex.EncodeToString(code.Hash[:]),
		UpdateTime: code.UpdateTime,
		Endpoints:  code.Endpoints,
	}
	metadataBytes, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, metadataFileName), metadataBytes, 0644); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	return nil
}

func (m *Manager) loadContractCode(address core.Address) (*ContractCode, error) {
	dir := m.getContractDir(address)

	code, err := os.ReadFile(filepath.Join(dir, codeFileName))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", core.ErrContractNotFound, address)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read code: %w", err)
	}

	metadataBytes, err := os.ReadFile(filepath.Join(dir, metadataFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	var metadata ContractMetadata
	if err := json.Unmarshal(metadataBytes, &metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	hash := sha256.Sum256(code)
	if hex.EncodeToString(hash[:]) != metadata.Hash {
		return nil, fmt.Errorf("%w: %s", ErrCodeCorrupted, address)
	}

	return &ContractCode{
		Address:    address,
		Code:       code,
		Endpoints:  metadata.Endpoints,
		UpdateTime: metadata.UpdateTime,
		Hash:       hash,
	}, nil
}
