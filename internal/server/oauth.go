package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/linkpulse/internal/auth/domain"
	"github.com/smallbiznis/linkpulse/internal/oauth"
	"github.com/smallbiznis/linkpulse/internal/statestore"
	"go.uber.org/zap"
)

// Provider error codes LinkedIn returns when the member backs out of the
// consent screen.
var userCancelledCodes = map[string]bool{
	"user_cancelled_login":     true,
	"user_cancelled_authorize": true,
}

type userResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ProfileURL string `json:"profileUrl,omitempty"`
}

// StartAuthorization begins the three-legged flow: generate a state
// nonce, persist the in-flight session, redirect to the provider.
func (s *Server) StartAuthorization(c *gin.Context) {
	provider := strings.TrimSpace(c.Param("provider"))
	if provider != s.cfg.Provider.Name {
		AbortWithError(c, ErrNotFound)
		return
	}

	state, err := oauth.GenerateState()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	authURL, err := oauth.BuildAuthorizationURL(s.cfg.Provider, state)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	err = s.states.Save(c.Request.Context(), statestore.AuthorizationSession{
		State:     state,
		Provider:  provider,
		ReturnTo:  sanitizeReturnTo(c.Query("returnTo")),
		CreatedAt: time.Now().UTC(),
	}, s.cfg.StateTTL)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Redirect(http.StatusFound, authURL)
}

// HandleCallback finishes the flow: validate state, exchange the code,
// resolve identity, create or load the local user, persist tokens,
// establish the session.
func (s *Server) HandleCallback(c *gin.Context) {
	provider := strings.TrimSpace(c.Param("provider"))
	if provider != s.cfg.Provider.Name {
		AbortWithError(c, ErrNotFound)
		return
	}

	if providerErr := strings.TrimSpace(c.Query("error")); providerErr != "" {
		s.log.Info("authorization denied at provider",
			zap.String("provider", provider),
			zap.String("error", providerErr),
			zap.String("description", c.Query("error_description")),
		)
		c.JSON(http.StatusOK, gin.H{
			"success":       false,
			"userCancelled": userCancelledCodes[providerErr],
			"error":         "authorization_denied",
		})
		return
	}

	state := strings.TrimSpace(c.Query("state"))
	if state == "" {
		AbortWithError(c, oauth.ErrMissingState)
		return
	}
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		AbortWithError(c, oauth.ErrMissingCode)
		return
	}

	// Single-use: the stored session is consumed no matter how the rest
	// of the callback goes.
	stored, err := s.states.Consume(c.Request.Context(), state)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	expected := ""
	if stored != nil {
		expected = stored.State
	}
	if err := oauth.ValidateState(expected, state); err != nil {
		AbortWithError(c, err)
		return
	}

	payload, err := s.exchange.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	identity, err := s.exchange.FetchIdentity(c.Request.Context(), payload.AccessToken)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	user, err := s.findOrCreateUser(c.Request.Context(), provider, identity)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.tokens.StoreTokens(c.Request.Context(), identity.Subject, *payload); err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Issue(c, user.ID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": userResponse{
			ID:         user.ID.String(),
			Name:       user.Name,
			ProfileURL: user.ProfileURL,
		},
	})
}

// AuthStatus reports authentication state without ever rejecting.
func (s *Server) AuthStatus(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"user": userResponse{
			ID:         user.ID.String(),
			Name:       user.Name,
			ProfileURL: user.ProfileURL,
		},
	})
}

// Logout revokes stored tokens and destroys the session. Idempotent.
func (s *Server) Logout(c *gin.Context) {
	if user, ok := s.resolveSessionUser(c); ok {
		if err := s.tokens.Revoke(c.Request.Context(), user.ExternalID); err != nil {
			AbortWithError(c, err)
			return
		}
	}
	s.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ForceRefresh resolves a currently valid access token, refreshing if
// needed, and returns it to the caller.
func (s *Server) ForceRefresh(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	token, err := s.tokens.GetValidAccessToken(c.Request.Context(), user.ExternalID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"accessToken": token,
	})
}

func (s *Server) findOrCreateUser(ctx context.Context, provider string, identity *oauth.Identity) (*authdomain.User, error) {
	user, err := s.users.FindByExternalID(ctx, identity.Subject)
	if err == nil {
		fields := map[string]any{}
		if identity.Name != "" && identity.Name != user.Name {
			fields["name"] = identity.Name
		}
		if identity.Email != "" && identity.Email != user.Email {
			fields["email"] = identity.Email
		}
		if len(fields) > 0 {
			fields["updated_at"] = time.Now().UTC()
			if err := s.users.UpdateFields(ctx, user.ID, fields); err != nil {
				return nil, err
			}
		}
		return user, nil
	}
	if !errors.Is(err, authdomain.ErrUserNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	user = &authdomain.User{
		ID:         s.genID.Generate(),
		ExternalID: identity.Subject,
		Provider:   provider,
		Name:       identity.Name,
		Email:      identity.Email,
		ProfileURL: identity.PictureURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// sanitizeReturnTo only accepts local paths, never absolute URLs.
func sanitizeReturnTo(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return ""
	}
	return raw
}
