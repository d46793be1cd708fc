package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"bilancio/internal/backend"
	"bilancio/internal/core"
)

var timeNow = time.Now

// openBackend wires the backend for a single command. Commands read fresh
// data, so the month view cache is disabled.
func openBackend(ctx context.Context) (*backend.Result, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	backendCfg.CacheSize = 0
	res, err := backend.NewFactory(base.Logger).Create(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open backend: %w", err)
	}
	return res, nil
}

func closeBackend(res *backend.Result) {
	if err := res.Cleanup(); err != nil {
		logger.Warn("Backend cleanup failed", "error", err)
	}
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func optionalID(id *int64) string {
	if id == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *id)
}

func parseMonthArg(args []string) (core.MonthKey, error) {
	if len(args) == 0 {
		return core.MonthOf(timeNow()), nil
	}
	return core.ParseMonthKey(args[0])
}
