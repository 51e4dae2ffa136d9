package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/govm-net/harness/fixture"
	"github.com/govm-net/harness/journal"
	"github.com/govm-net/harness/scenario"
	"github.com/govm-net/harness/vm"
)

func newScenarioCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scenario <file|dir>",
		Short: "Run scenario files",
		Long: `Run a scenario file, or every *` + scenario.FileSuffix + ` file under a directory.
Each file runs against a fresh engine with its own code directory and an
in-memory journal, so scenarios never see each other's deployments.
Example: harness-cli scenario fixture/fixture.scen.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := scenario.NewRunner(a.newScenarioWorld).Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s: %v\n", r.Path, r.Err)
					continue
				}
				fmt.Fprintf(out, "PASS %s (%d steps)\n", r.Path, r.Steps)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d scenarios failed", failed, len(results))
			}
			fmt.Fprintln(out, "SUCCESS")
			return nil
		},
	}
}

// scenarioWorld is an engine whose code directory is removed on Close
type scenarioWorld struct {
	*vm.Engine
	dir string
}

func (w *scenarioWorld) Close() error {
	err := w.Engine.Close()
	os.RemoveAll(w.dir)
	return err
}

// newScenarioWorld opens a throwaway engine with the configured limits
func (a *app) newScenarioWorld(ctx context.Context) (scenario.Executor, error) {
	dir, err := os.MkdirTemp("", "harness-scenario-")
	if err != nil {
		return nil, err
	}

	engineConfig := a.cfg.EngineConfig()
	engineConfig.CodeManagerDir = dir
	engineConfig.JournalType = string(journal.MemoryBackend)
	engineConfig.JournalParams = nil

	engine, err := vm.NewEngine(engineConfig)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to create VM engine: %w", err)
	}
	world := &scenarioWorld{Engine: engine, dir: dir}
	if err := engine.RegisterNative(fixture.Address, fixture.New()); err != nil {
		world.Close()
		return nil, fmt.Errorf("failed to register fixture: %w", err)
	}
	return world, nil
}
