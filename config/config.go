// Package config loads harness settings from a YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/govm-net/harness/api"
	"github.com/govm-net/harness/journal"
	"github.com/govm-net/harness/vm"
)

type EngineConfig struct {
	CodeDir         string `yaml:"code_dir"`
	MaxContractSize uint64 `yaml:"max_contract_size"`
	MaxArguments    int    `yaml:"max_arguments"`
	MaxArgumentSize int    `yaml:"max_argument_size"`
}

type JournalConfig struct {
	Type string `yaml:"type"`
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Journal JournalConfig `yaml:"journal"`
	Log     LogConfig     `yaml:"log"`
}

// Default returns the settings used when no file is given
func Default() *Config {
	limits := api.DefaultContractConfig()
	return &Config{
		Engine: EngineConfig{
			CodeDir:         "./contracts",
			MaxContractSize: limits.MaxCodeSize,
			MaxArguments:    limits.MaxArguments,
			MaxArgumentSize: limits.MaxArgumentSize,
		},
		Journal: JournalConfig{
			Type: string(journal.DBBackend),
			Path: "./journal.db",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads path on top of Default. Keys missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	rawData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(rawData, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		return err
	}
	switch journal.BackendType(cfg.Journal.Type) {
	case journal.MemoryBackend:
	case journal.DBBackend:
		if cfg.Journal.Path == "" {
			return fmt.Errorf("journal path is required for the %s backend", journal.DBBackend)
		}
	default:
		return fmt.Errorf("unknown journal type: %q", cfg.Journal.Type)
	}
	return nil
}

// EngineConfig converts the file settings into an engine configuration
func (cfg *Config) EngineConfig() *vm.Config {
	ec := &vm.Config{
		MaxContractSize: cfg.Engine.MaxContractSize,
		MaxArguments:    cfg.Engine.MaxArguments,
		MaxArgumentSize: cfg.Engine.MaxArgumentSize,
		CodeManagerDir:  cfg.Engine.CodeDir,
		JournalType:     cfg.Journal.Type,
	}
	if journal.BackendType(cfg.Journal.Type) == journal.DBBackend {
		ec.JournalParams = map[string]any{"db_path": cfg.Journal.Path}
	}
	return ec
}

// ParseLevel maps a level name to a slog level
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return l, nil
}
