package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bilancio/internal/core"
)

func balanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Manage month initial balances",
	}
	cmd.AddCommand(setBalanceCmd())
	return cmd
}

func setBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <YYYY-MM> <amount>",
		Short: "Set the initial balance of a month",
		Long:  `Set the initial balance of a month. The amount may be negative and is rounded to two decimals.`,
		Example: `  bilancio-cli balance set 2025-01 1000
  bilancio-cli balance set 2025-02 -- -250.50`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := core.ParseMonthKey(args[0])
			if err != nil {
				return err
			}
			raw := strings.TrimSpace(args[1])
			balance, err := core.ParseAmount(strings.TrimPrefix(raw, "-"))
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}
			if strings.HasPrefix(raw, "-") {
				balance = balance.Neg()
			}

			res, err := openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer closeBackend(res)

			if err := res.Months.SaveInitialBalance(cmd.Context(), month, balance); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initial balance of %s set to %s\n", month, core.FormatAmount(balance))
			return nil
		},
	}
}
