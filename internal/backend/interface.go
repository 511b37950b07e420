package backend

import (
	"context"
	"errors"

	"bizdash/internal/amqp"
	"bizdash/internal/sheets"
	"bizdash/internal/storage"
)

// Backend bundles the record store with the optional outward integrations.
// AMQP and Ledger are nil when not configured; Categories is nil when there
// is nothing to import from.
type Backend struct {
	Store      storage.RecordStore
	AMQP       *amqp.Client
	Ledger     sheets.InvoiceLedger
	Categories sheets.CategorySource

	cleanups []func() error
}

// Close releases every resource the factory opened, in reverse order.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.cleanups) - 1; i >= 0; i-- {
		if err := b.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.cleanups = nil
	return errors.Join(errs...)
}

func (b *Backend) onClose(fn func() error) {
	b.cleanups = append(b.cleanups, fn)
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Backend, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string

	AMQPURL           string
	AMQPExchange      string
	AMQPRenderQueue   string
	AMQPReminderQueue string

	GoogleSpreadsheetID      string
	GoogleInvoicesSheet      string
	GoogleCategoriesSheet    string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// DataDirectory holds seed files for the memory backend.
	DataDirectory string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
