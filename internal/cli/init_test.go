package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"bilancio/internal/config"
	"bilancio/internal/sheets/memory"
)

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := SetupLogger(&config.Config{LogFormat: "json", LogLevel: "warn"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line logged at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("expected JSON warn line, got %s", out)
	}
}

func TestNewSummaryWriter(t *testing.T) {
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	w, err := NewSummaryWriter(context.Background(), &config.Config{ExportBackend: "memory"}, discard)
	if err != nil {
		t.Fatalf("NewSummaryWriter() = %v", err)
	}
	if _, ok := w.(*memory.Store); !ok {
		t.Errorf("writer = %T, want *memory.Store", w)
	}

	if _, err := NewSummaryWriter(context.Background(), &config.Config{ExportBackend: "ftp"}, discard); err == nil {
		t.Error("expected error for unknown export backend")
	}
	if _, err := NewSummaryWriter(context.Background(), &config.Config{ExportBackend: "sheets"}, discard); err == nil {
		t.Error("expected error without a spreadsheet id")
	}
}
