// Package domain contains core types for the token lifecycle service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Provider identifies an external OAuth authorization server. Modeled as
// an open string so additional providers can be added without schema
// changes.
type Provider string

const ProviderLinkedIn Provider = "linkedin"

// TokenRecord is the single durable token row per (subject, provider).
// Secret columns are never loaded on the default read path; callers must
// ask the store for them explicitly.
type TokenRecord struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	Subject          string       `gorm:"column:subject;type:text;not null;uniqueIndex:idx_oauth_tokens_subject_provider,priority:1"`
	Provider         Provider     `gorm:"column:provider;type:text;not null;uniqueIndex:idx_oauth_tokens_subject_provider,priority:2"`
	AccessToken      string       `gorm:"column:access_token;type:text;not null" json:"-"`
	RefreshToken     *string      `gorm:"column:refresh_token;type:text" json:"-"`
	TokenType        string       `gorm:"column:token_type;type:text"`
	AccessExpiresAt  time.Time    `gorm:"column:access_expires_at;not null;index"`
	RefreshExpiresAt *time.Time   `gorm:"column:refresh_expires_at"`
	Scope            string       `gorm:"column:scope;type:text"`
	CreatedAt        time.Time    `gorm:"column:created_at;not null"`
	UpdatedAt        time.Time    `gorm:"column:updated_at;not null"`
}

// TableName sets the database table name.
func (TokenRecord) TableName() string { return "oauth_tokens" }

// Refreshable reports whether the record carries a refresh token whose
// own expiry (if any) is still in the future. An absent refresh expiry
// means the refresh token does not expire.
func (r *TokenRecord) Refreshable(now time.Time) bool {
	if r.RefreshToken == nil || *r.RefreshToken == "" {
		return false
	}
	if r.RefreshExpiresAt == nil {
		return true
	}
	return r.RefreshExpiresAt.After(now)
}

// AccessExpired reports whether the access token is no longer usable.
func (r *TokenRecord) AccessExpired(now time.Time) bool {
	return !r.AccessExpiresAt.After(now)
}

// TokenPayload is the raw result of a provider token-endpoint exchange,
// with relative expiries exactly as the provider reported them. The
// store converts them to absolute timestamps once, at write time.
type TokenPayload struct {
	AccessToken      string
	ExpiresIn        int64
	RefreshToken     string
	RefreshExpiresIn int64
	TokenType        string
	Scope            string
}

// SweepError records one failed refresh inside a batch sweep.
type SweepError struct {
	Subject string `json:"subject"`
	Err     error  `json:"-"`
	Message string `json:"message"`
}

// SweepResult aggregates the outcome of one refresh sweep.
type SweepResult struct {
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Errors    []SweepError `json:"errors,omitempty"`
}
