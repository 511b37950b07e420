package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// InvoiceRenderMessage asks a worker to render a stored invoice into a
// workbook. It carries only the identifiers, the worker loads the invoice and
// its project from the database.
type InvoiceRenderMessage struct {
	InvoiceID uuid.UUID `json:"invoice_id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewInvoiceRenderMessage(invoiceID uuid.UUID, userID string) *InvoiceRenderMessage {
	return &InvoiceRenderMessage{
		InvoiceID: invoiceID,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

func (m *InvoiceRenderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func InvoiceRenderMessageFromJSON(data []byte) (*InvoiceRenderMessage, error) {
	var msg InvoiceRenderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// JobReminderMessage announces that a job's reminder window has opened.
type JobReminderMessage struct {
	JobID       uuid.UUID `json:"job_id"`
	UserID      string    `json:"user_id"`
	PersonName  string    `json:"person_name"`
	Title       string    `json:"title"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Timestamp   time.Time `json:"timestamp"`
}

func (m *JobReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func JobReminderMessageFromJSON(data []byte) (*JobReminderMessage, error) {
	var msg JobReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
