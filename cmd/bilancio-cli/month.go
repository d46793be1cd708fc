package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bilancio/internal/aggregate"
	"bilancio/internal/core"
)

func monthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "month",
		Short: "Show month summaries",
	}
	cmd.AddCommand(showMonthCmd())
	return cmd
}

func showMonthCmd() *cobra.Command {
	var showTransactions bool

	cmd := &cobra.Command{
		Use:   "show [YYYY-MM]",
		Short: "Show totals, balance and budget usage of a month",
		Long:  `Show the aggregated figures of a month. Without an argument the current month is shown.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := parseMonthArg(args)
			if err != nil {
				return err
			}
			res, err := openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer closeBackend(res)

			view, err := res.Months.LoadMonth(cmd.Context(), month)
			if err != nil {
				return err
			}
			s := view.Summary
			out := cmd.OutOrStdout()

			w := newTable(out)
			fmt.Fprintf(w, "Month\t%s\n", month)
			fmt.Fprintf(w, "Initial balance\t%s\n", core.FormatAmount(view.Data.InitialBalance))
			fmt.Fprintf(w, "Income\t%s\n", core.FormatAmount(s.Income))
			fmt.Fprintf(w, "Expenses\t%s\n", core.FormatAmount(s.Expenses))
			fmt.Fprintf(w, "Investments\t%s\n", core.FormatAmount(s.Investments))
			fmt.Fprintf(w, "Balance\t%s\n", core.FormatAmount(s.Balance))
			fmt.Fprintf(w, "Budgeted\t%s\n", core.FormatAmount(s.Budgeted))
			fmt.Fprintf(w, "Used\t%s\n", core.FormatAmount(s.Used))
			fmt.Fprintf(w, "Estimated balance\t%s\n", core.FormatAmount(s.EstimatedBalance))
			if err := w.Flush(); err != nil {
				return err
			}

			if len(s.Budgets) > 0 {
				fmt.Fprintln(out)
				if err := writeBudgetUsage(cmd, s.Budgets); err != nil {
					return err
				}
			}

			if showTransactions && len(view.Data.Transactions) > 0 {
				fmt.Fprintln(out)
				w := newTable(out)
				fmt.Fprintln(w, "ID\tDATE\tTYPE\tAMOUNT\tBUDGET\tCATEGORY\tDESCRIPTION")
				for _, t := range view.Data.Transactions {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
						t.ID, t.Date, t.Type, core.FormatAmount(t.Amount),
						optionalID(t.BudgetID), optionalID(t.CategoryID), t.Description)
				}
				return w.Flush()
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showTransactions, "transactions", "t", false, "also list the month's transactions")
	return cmd
}

func writeBudgetUsage(cmd *cobra.Command, usage []aggregate.BudgetUsage) error {
	w := newTable(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tBUDGET\tLIMIT\tUSED\tREMAINING\t%\tSEVERITY")
	for _, u := range usage {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
			u.Budget.ID, u.Budget.Name,
			core.FormatAmount(u.Budget.Limit), core.FormatAmount(u.Used), core.FormatAmount(u.Remaining),
			u.Percentage, u.Severity)
	}
	return w.Flush()
}
