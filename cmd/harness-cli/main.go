package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/govm-net/harness/config"
	"github.com/govm-net/harness/fixture"
	"github.com/govm-net/harness/vm"
)

// app holds the global flags shared by every command
type app struct {
	configPath  string
	repoDir     string
	dbPath      string
	journalType string
	logLevel    string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "harness-cli",
		Short: "Contract harness command line tool",
		Long: `Contract harness command line tool for deploying WebAssembly contracts and
running their endpoints. The built-in fixture contract is always available by name.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	flags.StringVarP(&a.repoDir, "repo", "r", "", "Directory holding deployed contract code")
	flags.StringVar(&a.dbPath, "db", "", "Journal database file")
	flags.StringVar(&a.journalType, "journal", "", "Journal backend (memory or db)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newDeployCmd(a),
		newRunCmd(a, "run", true),
		newRunCmd(a, "query", false),
		newEndpointsCmd(a),
		newHistoryCmd(a),
		newInspectCmd(a),
		newScenarioCmd(a),
	)
	return rootCmd
}

// setup loads the configuration file and applies flag overrides
func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if a.repoDir != "" {
		cfg.Engine.CodeDir = a.repoDir
	}
	if a.dbPath != "" {
		cfg.Journal.Path = a.dbPath
	}
	if a.journalType != "" {
		cfg.Journal.Type = a.journalType
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))

	a.cfg = cfg
	return nil
}

// openEngine creates an engine with the fixture contract registered
func (a *app) openEngine() (*vm.Engine, error) {
	engineConfig := a.cfg.EngineConfig()
	slog.Debug("opening engine", "code_dir", engineConfig.CodeManagerDir, "journal", engineConfig.JournalType)

	engine, err := vm.NewEngine(engineConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create VM engine: %w", err)
	}
	if err := engine.RegisterNative(fixture.Address, fixture.New()); err != nil {
		engine.Close()
		return nil, fmt.Errorf("failed to register fixture: %w", err)
	}
	return engine, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
