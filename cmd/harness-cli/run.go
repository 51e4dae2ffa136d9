package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/govm-net/harness/scenario"
)

// newRunCmd builds run (journaled) and query (not journaled), which share
// their arguments and output
func newRunCmd(a *app, use string, journaled bool) *cobra.Command {
	short := "Run a contract endpoint and journal the outcome"
	if !journaled {
		short = "Run a contract endpoint without journaling"
	}

	return &cobra.Command{
		Use:   use + " <contract> <function> [hex-args...]",
		Short: short,
		Long: short + `.
The contract is a deployed address or the name of a built-in contract.
Arguments are hex strings, optionally 0x-prefixed; "" is an empty argument.
Example: harness-cli ` + use + ` fixture echo 0x2a`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			arguments, err := scenario.DecodeArguments(args[2:])
			if err != nil {
				return err
			}

			engine, err := a.openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			address, err := engine.Resolve(args[0])
			if err != nil {
				return err
			}

			execute := engine.Query
			if journaled {
				execute = engine.Execute
			}
			output, err := execute(cmd.Context(), address, args[1], arguments...)
			if err != nil {
				return fmt.Errorf("failed to execute contract: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), statusLine(output.ReturnCode))
			return printJSON(cmd.OutOrStdout(), newOutputView(output))
		},
	}
}
