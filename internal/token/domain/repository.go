package domain

import (
	"context"
	"time"
)

// Store is the persistence contract consumed by the lifecycle manager.
//
// The two read methods enforce the secret-exclusion policy at the data
// access boundary: Get never loads the access or refresh token columns,
// GetWithSecrets loads the whole row.
type Store interface {
	Get(ctx context.Context, subject string, provider Provider) (*TokenRecord, error)
	GetWithSecrets(ctx context.Context, subject string, provider Provider) (*TokenRecord, error)

	// Upsert atomically creates or fully replaces the record for
	// (subject, provider), converting the payload's relative expiries
	// to absolute timestamps as of the store clock's now.
	Upsert(ctx context.Context, subject string, provider Provider, payload TokenPayload) error

	// Delete is idempotent; deleting an absent record is not an error.
	Delete(ctx context.Context, subject string, provider Provider) error

	// FindExpiringWithin returns records whose access token expires
	// within the window and which still carry a refresh token. It loads
	// secrets: the results feed directly into refresh calls.
	FindExpiringWithin(ctx context.Context, window time.Duration) ([]TokenRecord, error)
}
