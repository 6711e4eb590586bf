package domain

import (
	"context"
	"time"
)

// Service is the token lifecycle manager: the single component that
// decides whether a stored token is usable, drives refresh, and writes
// token state.
type Service interface {
	// GetValidAccessToken returns an access token that is valid right
	// now, refreshing on demand when the stored one has expired and the
	// record is refreshable. It never refreshes tokens that are merely
	// near expiry; that is the sweep's job.
	GetValidAccessToken(ctx context.Context, subject string) (string, error)

	// StoreTokens persists a fresh exchange result for the subject,
	// replacing any previous record.
	StoreTokens(ctx context.Context, subject string, payload TokenPayload) error

	// Revoke deletes the subject's token record. Idempotent.
	Revoke(ctx context.Context, subject string) error

	// HasValidToken reports token validity without leaking error detail.
	HasValidToken(ctx context.Context, subject string) bool

	// SweepExpiring refreshes every refreshable record expiring within
	// the window. Per-record failures are isolated and reported in the
	// result; the sweep itself never fails.
	SweepExpiring(ctx context.Context, window time.Duration) SweepResult
}
