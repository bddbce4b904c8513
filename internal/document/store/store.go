// Package store persists document-check results keyed by session. The
// storage schema beyond these fields belongs to the surrounding platform;
// this module only needs get/put semantics.
package store

import (
	"context"
	"errors"

	"passport-cri/internal/document/models"
)

// ErrNotFound is returned when no result exists for a session key.
var ErrNotFound = errors.New("document check result not found")

// Store is the persistence collaborator for DocumentCheckResults.
type Store interface {
	Put(ctx context.Context, sessionID string, result models.DocumentCheckResult) error
	Get(ctx context.Context, sessionID string) (*models.DocumentCheckResult, error)
}
