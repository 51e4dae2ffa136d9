package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEndpointsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "endpoints <contract>",
		Short: "List the endpoints of a contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := a.openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			address, err := engine.Resolve(args[0])
			if err != nil {
				return err
			}
			functions, err := engine.Endpoints(cmd.Context(), address)
			if err != nil {
				return err
			}
			for _, function := range functions {
				fmt.Fprintln(cmd.OutOrStdout(), function)
			}
			return nil
		},
	}
}
