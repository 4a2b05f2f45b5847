package ai

import (
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// Operation labels for audit entries
const (
	OperationText       = "text"
	OperationStructured = "structured_text"
	OperationImage      = "image"
)

// AuditEntry records one external AI call
type AuditEntry struct {
	ID        string    `json:"id" badgerhold:"index"`
	Timestamp time.Time `json:"timestamp"`
	Operation string    `json:"operation"`
	Provider  string    `json:"provider"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	Duration  int64     `json:"duration_ms"`
}

// AuditLogger records external AI operations for later inspection
type AuditLogger interface {
	LogOperation(operation, provider string, success bool, duration time.Duration, err error)
	GetRecent(limit int) ([]AuditEntry, error)
	Close() error
}

// BadgerAuditLogger implements AuditLogger on a badgerhold store
type BadgerAuditLogger struct {
	store  *badgerhold.Store
	logger arbor.ILogger
}

// NewBadgerAuditLogger creates a badgerhold-backed audit logger
func NewBadgerAuditLogger(store *badgerhold.Store, logger arbor.ILogger) *BadgerAuditLogger {
	return &BadgerAuditLogger{
		store:  store,
		logger: logger,
	}
}

// LogOperation writes one audit entry. Failures are logged, never surfaced,
// so auditing cannot fail a generation step.
func (l *BadgerAuditLogger) LogOperation(operation, provider string, success bool, duration time.Duration, opErr error) {
	entry := AuditEntry{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Operation: operation,
		Provider:  provider,
		Success:   success,
		Duration:  duration.Milliseconds(),
	}
	if opErr != nil {
		entry.Error = opErr.Error()
	}

	if err := l.store.Insert(entry.ID, entry); err != nil {
		l.logger.Warn().Err(err).Str("operation", operation).Msg("Failed to write audit entry")
	}
}

// GetRecent retrieves the most recent audit entries
func (l *BadgerAuditLogger) GetRecent(limit int) ([]AuditEntry, error) {
	var entries []AuditEntry
	query := badgerhold.Where("ID").Ne("").SortBy("Timestamp").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := l.store.Find(&entries, query); err != nil {
		return nil, err
	}
	return entries, nil
}

// Close cleans up resources (no-op, the store is owned by the caller)
func (l *BadgerAuditLogger) Close() error {
	return nil
}

// NullAuditLogger is a no-op implementation used when auditing is disabled
type NullAuditLogger struct{}

// NewNullAuditLogger creates a new null audit logger
func NewNullAuditLogger() *NullAuditLogger {
	return &NullAuditLogger{}
}

// LogOperation does nothing (no-op)
func (l *NullAuditLogger) LogOperation(operation, provider string, success bool, duration time.Duration, err error) {
}

// GetRecent returns an empty slice (no-op)
func (l *NullAuditLogger) GetRecent(limit int) ([]AuditEntry, error) {
	return []AuditEntry{}, nil
}

// Close does nothing (no-op)
func (l *NullAuditLogger) Close() error {
	return nil
}
