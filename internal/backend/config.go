package backend

import (
	"fmt"
	"path/filepath"

	"bizdash/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		AMQPURL:           appConfig.AMQPURL,
		AMQPExchange:      appConfig.AMQPExchange,
		AMQPRenderQueue:   appConfig.AMQPRenderQueue,
		AMQPReminderQueue: appConfig.AMQPReminderQueue,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleInvoicesSheet:      appConfig.GoogleInvoicesSheet,
		GoogleCategoriesSheet:    appConfig.GoogleCategoriesSheet,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,

		// seed files live next to the database
		DataDirectory: filepath.Dir(appConfig.SQLiteDBPath),
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	if c.AMQPURL != "" && (c.AMQPRenderQueue == "" || c.AMQPReminderQueue == "") {
		return fmt.Errorf("AMQP queues are required when an AMQP URL is set")
	}
	if c.GoogleSpreadsheetID != "" && c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
		return fmt.Errorf("Google credentials are required when a spreadsheet is set")
	}
	return nil
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	return []string{SQLiteBackend.String(), MemoryBackend.String()}
}
