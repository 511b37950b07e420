package backend

import (
	"context"
	"fmt"
	"log/slog"

	"bizdash/internal/amqp"
	gsheet "bizdash/internal/sheets/google"
	sheetsmem "bizdash/internal/sheets/memory"
	"bizdash/internal/storage"
	"bizdash/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend opens the record store and then the optional broker and
// spreadsheet. A broker that cannot be reached is logged and left out; a
// configured spreadsheet that cannot be opened is an error.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	b := &Backend{}
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		b.Store = repo
		b.onClose(repo.Close)
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		b.Store = memory.New()
		ledger := sheetsmem.NewFromFile(config.DataDirectory)
		b.Ledger = ledger
		b.Categories = ledger
		f.logger.Info("Initialized memory backend", "data_directory", config.DataDirectory)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	if config.GoogleSpreadsheetID != "" {
		cli, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   config.GoogleSpreadsheetID,
			InvoicesSheet:   config.GoogleInvoicesSheet,
			CategoriesSheet: config.GoogleCategoriesSheet,
			CredentialsJSON: []byte(config.GoogleServiceAccountJSON),
			CredentialsFile: config.GoogleServiceAccountFile,
		})
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		b.Ledger = cli
		b.Categories = cli
		f.logger.Info("Initialized Google Sheets ledger", "spreadsheet_id", config.GoogleSpreadsheetID)
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPRenderQueue, config.AMQPReminderQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without messaging", "error", err)
		} else {
			b.AMQP = client
			b.onClose(client.Close)
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"render_queue", config.AMQPRenderQueue,
				"reminder_queue", config.AMQPReminderQueue)
		}
	}

	return b, nil
}
