package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bilancio/internal/core"
)

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Inspect budgets",
	}
	cmd.AddCommand(listBudgetsCmd())
	return cmd
}

func listBudgetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every stored budget",
		Long:  `List every stored budget regardless of month visibility, with category links merged.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer closeBackend(res)

			budgets, err := res.Months.Budgets(cmd.Context())
			if err != nil {
				return err
			}
			if len(budgets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No budgets found.")
				return nil
			}

			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tNAME\tLIMIT\tMONTH\tRECURRENT\tACTIVE\tCATEGORY")
			for _, b := range budgets {
				month := "-"
				if b.YearMonth != nil {
					month = b.YearMonth.String()
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\t%t\t%s\n",
					b.ID, b.Name, core.FormatAmount(b.Limit), month,
					b.IsRecurrent, b.IsRecurrenceActive, optionalID(b.CategoryID))
			}
			return w.Flush()
		},
	}
}
