// Package tracer provides a lightweight tracing abstraction for the
// document-check pipeline, keeping the domain packages decoupled from
// OpenTelemetry APIs. Production wiring uses the OTel adapter; tests use the
// noop implementation.
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks the span as failed.
	End(err error)

	// SetAttributes adds key-value pairs to the span.
	SetAttributes(attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute is a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: int64(value)}
}

// HashDocumentNumber returns a truncated SHA-256 of a document number so
// traces can be correlated without exposing the number itself.
func HashDocumentNumber(documentNumber string) string {
	if documentNumber == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(documentNumber))
	return hex.EncodeToString(sum[:8])
}

// Span names used by the document-check pipeline.
const (
	SpanDocumentCheck   = "document.check"
	SpanCredentialIssue = "credential.issue"
)

// Attribute keys.
const (
	AttrProvider      = "provider"
	AttrDocumentHash  = "document_hash"
	AttrOutcome       = "outcome"
	AttrVerified      = "verified"
	AttrValidityScore = "validity_score"
	AttrStrengthScore = "strength_score"
)
