package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bilancio/internal/cli"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/sheets"
	"bilancio/internal/sheets/memory"
	"bilancio/internal/worker"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export month summaries",
		Long: `Write month summaries to the configured export backend (EXPORT_BACKEND).

With the memory backend the exported rows are printed instead.`,
	}
	cmd.AddCommand(exportMonthCmd())
	cmd.AddCommand(exportRangeCmd())
	return cmd
}

func exportMonthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "month [YYYY-MM]",
		Short: "Export one month, the current one by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := parseMonthArg(args)
			if err != nil {
				return err
			}
			return runExport(cmd, month, month)
		},
	}
}

func exportRangeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "range <from YYYY-MM> <to YYYY-MM>",
		Short: "Export every month in an inclusive range",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			first, err := core.ParseMonthKey(args[0])
			if err != nil {
				return err
			}
			last, err := core.ParseMonthKey(args[1])
			if err != nil {
				return err
			}
			return runExport(cmd, first, last)
		},
	}
}

func runExport(cmd *cobra.Command, first, last core.MonthKey) error {
	ctx := cmd.Context()
	res, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer closeBackend(res)

	writer, err := cli.NewSummaryWriter(ctx, cfg, base.WithComponent(log.ComponentSheets).Logger)
	if err != nil {
		return err
	}
	n, err := worker.NewExportWorker(res.Months, writer).ExportRange(ctx, first, last)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if mem, ok := writer.(*memory.Store); ok {
		w := newTable(out)
		fmt.Fprintln(w, strings.Join(sheets.Header, "\t"))
		for _, row := range mem.Rows() {
			cells := make([]string, 0, len(sheets.Header))
			for _, v := range row.Values() {
				cells = append(cells, fmt.Sprint(v))
			}
			fmt.Fprintln(w, strings.Join(cells, "\t"))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "Exported %d month(s)\n", n)
	return nil
}
