package domain

import "errors"

var (
	// ErrNoToken means no record exists for the subject at all.
	ErrNoToken = errors.New("no token stored")
	// ErrReauthorizationRequired means the access token is expired and
	// the record cannot be refreshed; the subject must run the
	// authorization flow again.
	ErrReauthorizationRequired = errors.New("reauthorization required")
	// ErrRefreshFailed wraps a failed refresh exchange. The stored
	// record is left untouched.
	ErrRefreshFailed = errors.New("token refresh failed")
	// ErrTokenNotFound is the store-level miss.
	ErrTokenNotFound = errors.New("token record not found")
)
