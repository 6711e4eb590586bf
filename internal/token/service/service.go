// Package service implements the token lifecycle manager.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smallbiznis/linkpulse/internal/clock"
	"github.com/smallbiznis/linkpulse/internal/config"
	obsmetrics "github.com/smallbiznis/linkpulse/internal/observability/metrics"
	"github.com/smallbiznis/linkpulse/internal/oauth"
	"github.com/smallbiznis/linkpulse/internal/token/domain"
	"go.uber.org/zap"
)

type service struct {
	store    domain.Store
	exchange oauth.Client
	clock    clock.Clock
	log      *zap.Logger
	metrics  *obsmetrics.TokenMetrics
	provider domain.Provider

	// refreshThreshold gates the batch sweep only. Interactive reads
	// return any token that is still unexpired, even inside the
	// threshold window: the sweep pre-empts expiry so interactive
	// callers do not pay refresh latency.
	refreshThreshold time.Duration
}

func New(cfg config.Config, store domain.Store, exchange oauth.Client, clk clock.Clock, log *zap.Logger, metrics *obsmetrics.TokenMetrics) domain.Service {
	threshold := cfg.RefreshThreshold
	if threshold <= 0 {
		threshold = 24 * time.Hour
	}
	return &service{
		store:            store,
		exchange:         exchange,
		clock:            clk,
		log:              log.Named("token.lifecycle"),
		metrics:          metrics,
		provider:         domain.Provider(cfg.Provider.Name),
		refreshThreshold: threshold,
	}
}

func (s *service) GetValidAccessToken(ctx context.Context, subject string) (string, error) {
	rec, err := s.store.GetWithSecrets(ctx, subject, s.provider)
	if errors.Is(err, domain.ErrTokenNotFound) {
		return "", domain.ErrNoToken
	}
	if err != nil {
		return "", err
	}

	now := s.clock.Now()
	if !rec.AccessExpired(now) {
		return rec.AccessToken, nil
	}
	if !rec.Refreshable(now) {
		return "", domain.ErrReauthorizationRequired
	}

	payload, err := s.refresh(ctx, rec)
	if err != nil {
		return "", err
	}
	return payload.AccessToken, nil
}

// refresh performs exactly one refresh exchange and replaces the stored
// record. On any failure the stale record is left untouched.
func (s *service) refresh(ctx context.Context, rec *domain.TokenRecord) (*domain.TokenPayload, error) {
	start := s.clock.Now()
	payload, err := s.exchange.Refresh(ctx, *rec.RefreshToken)
	s.metrics.ObserveExchange(time.Since(start))
	if err != nil {
		s.metrics.IncRefresh("failure")
		s.log.Warn("refresh exchange failed",
			zap.String("subject", rec.Subject),
			zap.Error(err),
		)
		return nil, fmt.Errorf("refresh %q: %w", rec.Subject, errors.Join(domain.ErrRefreshFailed, err))
	}

	if err := s.store.Upsert(ctx, rec.Subject, rec.Provider, *payload); err != nil {
		s.metrics.IncRefresh("failure")
		return nil, fmt.Errorf("persist refreshed token %q: %w", rec.Subject, err)
	}

	s.metrics.IncRefresh("success")
	s.log.Info("access token refreshed",
		zap.String("subject", rec.Subject),
		zap.Int64("expires_in", payload.ExpiresIn),
	)
	return payload, nil
}

func (s *service) StoreTokens(ctx context.Context, subject string, payload domain.TokenPayload) error {
	return s.store.Upsert(ctx, subject, s.provider, payload)
}

func (s *service) Revoke(ctx context.Context, subject string) error {
	return s.store.Delete(ctx, subject, s.provider)
}

func (s *service) HasValidToken(ctx context.Context, subject string) bool {
	_, err := s.GetValidAccessToken(ctx, subject)
	return err == nil
}

func (s *service) SweepExpiring(ctx context.Context, window time.Duration) domain.SweepResult {
	if window <= 0 {
		window = s.refreshThreshold
	}
	s.metrics.IncSweepRun()

	var result domain.SweepResult
	recs, err := s.store.FindExpiringWithin(ctx, window)
	if err != nil {
		s.log.Error("sweep query failed", zap.Error(err))
		result.Failed = 1
		result.Errors = append(result.Errors, domain.SweepError{
			Err:     err,
			Message: "query expiring tokens",
		})
		return result
	}

	now := s.clock.Now()
	for i := range recs {
		rec := &recs[i]
		if !rec.Refreshable(now) {
			// Cannot happen through the store query, but a record may
			// lose its refresh token between query and refresh.
			continue
		}
		if _, err := s.refresh(ctx, rec); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, domain.SweepError{
				Subject: rec.Subject,
				Err:     err,
				Message: err.Error(),
			})
			s.metrics.IncSweepRecord("failure")
			continue
		}
		result.Succeeded++
		s.metrics.IncSweepRecord("success")
	}

	s.log.Info("refresh sweep finished",
		zap.Duration("window", window),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
	)
	return result
}
