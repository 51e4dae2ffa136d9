package main

import (
	"github.com/spf13/cobra"

	"github.com/govm-net/harness/core"
	"github.com/govm-net/harness/journal"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		contract string
		function string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show journaled invocations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := a.openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			filter := journal.Filter{Function: function, Limit: limit}
			if contract != "" {
				var address core.Address
				if address, err = engine.Resolve(contract); err != nil {
					return err
				}
				filter.Contract = &address
			}

			entries, err := engine.History(cmd.Context(), filter)
			if err != nil {
				return err
			}

			views := make([]entryView, 0, len(entries))
			for i := range entries {
				views = append(views, newEntryView(&entries[i]))
			}
			return printJSON(cmd.OutOrStdout(), views)
		},
	}

	cmd.Flags().StringVar(&contract, "contract", "", "Only invocations of this contract")
	cmd.Flags().StringVar(&function, "function", "", "Only invocations of this function")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of entries, 0 for all")
	return cmd
}
