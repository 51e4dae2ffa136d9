package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/govm-net/harness/wasi"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.wasm>",
		Short: "Show the imports and endpoints of a WebAssembly file without deploying it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read WebAssembly file: %w", err)
			}

			ctx := cmd.Context()
			wazeroVM, err := wasi.NewWazeroVM(ctx)
			if err != nil {
				return err
			}
			defer wazeroVM.Close(ctx)

			imports, err := wazeroVM.Imports(ctx, code)
			if err != nil {
				return err
			}
			endpoints, err := wazeroVM.Exports(ctx, code)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Imports:")
			for _, name := range imports {
				fmt.Fprintf(out, "  - %s\n", name)
			}
			fmt.Fprintln(out, "Endpoints:")
			for _, name := range endpoints {
				fmt.Fprintf(out, "  - %s\n", name)
			}
			if err := wazeroVM.Validate(ctx, code); err != nil {
				fmt.Fprintf(out, "Deployable: no (%v)\n", err)
			} else {
				fmt.Fprintln(out, "Deployable: yes")
			}
			return nil
		},
	}
}
