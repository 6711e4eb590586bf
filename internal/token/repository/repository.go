// Package repository implements the token store on gorm.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/linkpulse/internal/clock"
	"github.com/smallbiznis/linkpulse/internal/token/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// publicColumns is the default projection. The secret columns are only
// ever selected by GetWithSecrets and FindExpiringWithin.
var publicColumns = []string{
	"id", "subject", "provider", "token_type",
	"access_expires_at", "refresh_expires_at", "scope",
	"created_at", "updated_at",
}

var replacedColumns = []string{
	"access_token", "refresh_token", "token_type",
	"access_expires_at", "refresh_expires_at", "scope", "updated_at",
}

type store struct {
	db    *gorm.DB
	genID *snowflake.Node
	clock clock.Clock
}

func New(db *gorm.DB, genID *snowflake.Node, clk clock.Clock) domain.Store {
	return &store{db: db, genID: genID, clock: clk}
}

func (s *store) Get(ctx context.Context, subject string, provider domain.Provider) (*domain.TokenRecord, error) {
	return s.get(ctx, subject, provider, false)
}

func (s *store) GetWithSecrets(ctx context.Context, subject string, provider domain.Provider) (*domain.TokenRecord, error) {
	return s.get(ctx, subject, provider, true)
}

func (s *store) get(ctx context.Context, subject string, provider domain.Provider, withSecrets bool) (*domain.TokenRecord, error) {
	query := s.db.WithContext(ctx)
	if !withSecrets {
		query = query.Select(publicColumns)
	}

	var rec domain.TokenRecord
	err := query.
		Where("subject = ? AND provider = ?", subject, provider).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Upsert replaces the whole record for (subject, provider). Relative
// expiries are converted to absolute timestamps here, once, against the
// store clock; they are never recomputed later.
func (s *store) Upsert(ctx context.Context, subject string, provider domain.Provider, payload domain.TokenPayload) error {
	now := s.clock.Now()

	rec := domain.TokenRecord{
		ID:              s.genID.Generate(),
		Subject:         subject,
		Provider:        provider,
		AccessToken:     payload.AccessToken,
		TokenType:       payload.TokenType,
		AccessExpiresAt: now.Add(time.Duration(payload.ExpiresIn) * time.Second),
		Scope:           payload.Scope,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if payload.RefreshToken != "" {
		rt := payload.RefreshToken
		rec.RefreshToken = &rt
		if payload.RefreshExpiresIn > 0 {
			exp := now.Add(time.Duration(payload.RefreshExpiresIn) * time.Second)
			rec.RefreshExpiresAt = &exp
		}
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subject"}, {Name: "provider"}},
			DoUpdates: clause.AssignmentColumns(replacedColumns),
		}).
		Create(&rec).Error
}

func (s *store) Delete(ctx context.Context, subject string, provider domain.Provider) error {
	return s.db.WithContext(ctx).
		Where("subject = ? AND provider = ?", subject, provider).
		Delete(&domain.TokenRecord{}).Error
}

func (s *store) FindExpiringWithin(ctx context.Context, window time.Duration) ([]domain.TokenRecord, error) {
	cutoff := s.clock.Now().Add(window)

	var recs []domain.TokenRecord
	err := s.db.WithContext(ctx).
		Where("access_expires_at <= ? AND refresh_token IS NOT NULL AND refresh_token <> ''", cutoff).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}
