package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newDeployCmd(a *app) *cobra.Command {
	var codeFile string

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy a WebAssembly contract",
		Long: `Deploy a WebAssembly contract. Its address is derived from the code.
Example: harness-cli deploy -f contract.wasm -r /path/to/repo`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := os.ReadFile(codeFile)
			if err != nil {
				return fmt.Errorf("failed to read code file: %w", err)
			}

			engine, err := a.openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			address, err := engine.DeployContract(cmd.Context(), code)
			if err != nil {
				return fmt.Errorf("failed to deploy contract: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Contract deployed successfully!\n")
			fmt.Fprintf(out, "Contract address: %s\n", address)
			fmt.Fprintf(out, "Contract files are stored in: %s\n", filepath.Join(a.cfg.Engine.CodeDir, address.String()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&codeFile, "file", "f", "", "WebAssembly file of the contract (required)")
	cmd.MarkFlagRequired("file")
	return cmd
}
