// Package audit defines the audit-event collaborator for the document-check
// pipeline. Emission transport belongs to the surrounding platform; the core
// only needs the port and a log-backed sink for local running and tests.
package audit

import (
	"context"
	"log/slog"
	"time"
)

// Actions emitted by the pipeline.
const (
	ActionCheckCompleted   = "document_check_completed"
	ActionCheckRetryAsked  = "document_check_retry_requested"
	ActionCredentialIssued = "credential_issued"
)

// Event captures one auditable action. Extension carries action-specific
// data (scores, contra-indicator codes); it must never contain raw identity
// fields.
type Event struct {
	Timestamp time.Time
	SessionID string
	Action    string
	Extension map[string]any
}

// Publisher is the emission port. Implementations must not block the request
// path on downstream transport.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// LogPublisher writes audit events to the structured log.
type LogPublisher struct {
	log *slog.Logger
}

func NewLogPublisher(log *slog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Emit(_ context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	p.log.Info("audit event",
		"action", event.Action,
		"session_id", event.SessionID,
		"timestamp", event.Timestamp.UTC().Format(time.RFC3339),
		"extension", event.Extension,
	)
	return nil
}

var _ Publisher = (*LogPublisher)(nil)
