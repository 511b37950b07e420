package backend

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"bizdash/internal/config"
	"bizdash/internal/core"
)

func quietFactory() Factory {
	return NewFactory(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name       string
		config     Config
		wantErr    bool
		wantLedger bool
	}{
		{"memory", Config{Type: MemoryBackend, DataDirectory: dir}, false, true},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "bizdash.db")}, false, false},
		{"unknown type", Config{Type: "sheets"}, true, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true, false},
		{"spreadsheet without credentials", Config{Type: MemoryBackend, GoogleSpreadsheetID: "abc"}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := quietFactory().CreateBackend(ctx, tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateBackend() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer b.Close()

			if err := b.Store.Ping(ctx); err != nil {
				t.Fatalf("ping: %v", err)
			}
			if (b.Ledger != nil) != tt.wantLedger {
				t.Errorf("ledger present = %v, want %v", b.Ledger != nil, tt.wantLedger)
			}
			if b.AMQP != nil {
				t.Errorf("AMQP should stay disabled without a URL")
			}
			if _, err := b.Store.CreateProject(ctx, core.Project{UserID: "u1", Title: "Smoke"}); err != nil {
				t.Errorf("create project: %v", err)
			}
		})
	}
}

func TestBackendCloseRunsInReverse(t *testing.T) {
	var order []int
	b := &Backend{}
	b.onClose(func() error { order = append(order, 1); return nil })
	b.onClose(func() error { order = append(order, 2); return errors.New("second") })

	err := b.Close()
	if err == nil || err.Error() != "second" {
		t.Errorf("Close() error = %v", err)
	}
	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Errorf("close order = %v", order)
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close() should be a no-op, got %v", err)
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Error("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:       "sqlite",
		SQLiteDBPath:      "/var/lib/bizdash/bizdash.db",
		AMQPRenderQueue:   "render",
		AMQPReminderQueue: "remind",
	})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.DataDirectory != "/var/lib/bizdash" || cfg.AMQPRenderQueue != "render" {
		t.Errorf("unexpected backend config: %+v", cfg)
	}
}
