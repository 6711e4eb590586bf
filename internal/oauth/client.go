package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/linkpulse/internal/config"
	"github.com/smallbiznis/linkpulse/internal/token/domain"
)

// Client performs the wire exchanges against the provider. Isolating
// them behind an interface lets the lifecycle manager be tested with a
// fake and zero network dependency.
type Client interface {
	// ExchangeCode trades an authorization code for a token payload.
	// Exactly one network call; no retries.
	ExchangeCode(ctx context.Context, code string) (*domain.TokenPayload, error)
	// Refresh trades a refresh token for a new token payload.
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPayload, error)
	// FetchIdentity resolves the bearer token to a normalized identity.
	FetchIdentity(ctx context.Context, accessToken string) (*Identity, error)
}

// Identity is the provider's view of the authenticated principal.
type Identity struct {
	Subject    string
	Name       string
	Email      string
	PictureURL string
}

type httpClient struct {
	cfg  config.ProviderConfig
	http *http.Client
}

// NewClient builds the HTTP client with the configured overall timeout.
func NewClient(cfg config.Config) Client {
	timeout := cfg.ExchangeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpClient{
		cfg:  cfg.Provider,
		http: &http.Client{Timeout: timeout},
	}
}

func (c *httpClient) ExchangeCode(ctx context.Context, code string) (*domain.TokenPayload, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.cfg.RedirectURI)
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	return c.tokenRequest(ctx, form)
}

func (c *httpClient) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPayload, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	return c.tokenRequest(ctx, form)
}

type tokenResponse struct {
	AccessToken           string `json:"access_token"`
	ExpiresIn             int64  `json:"expires_in"`
	RefreshToken          string `json:"refresh_token"`
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in"`
	TokenType             string `json:"token_type"`
	Scope                 string `json:"scope"`
}

type tokenError struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (c *httpClient) tokenRequest(ctx context.Context, form url.Values) (*domain.TokenPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var provErr tokenError
		if err := json.Unmarshal(body, &provErr); err == nil && provErr.Code != "" {
			return nil, &ExchangeError{
				Status:      resp.StatusCode,
				Code:        provErr.Code,
				Description: provErr.Description,
			}
		}
		return nil, &ExchangeError{
			Status: resp.StatusCode,
			Code:   "invalid_response",
		}
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil || token.AccessToken == "" {
		return nil, &ExchangeError{
			Status: resp.StatusCode,
			Code:   "invalid_response",
		}
	}

	return &domain.TokenPayload{
		AccessToken:      token.AccessToken,
		ExpiresIn:        token.ExpiresIn,
		RefreshToken:     token.RefreshToken,
		RefreshExpiresIn: token.RefreshTokenExpiresIn,
		TokenType:        token.TokenType,
		Scope:            token.Scope,
	}, nil
}

func (c *httpClient) FetchIdentity(ctx context.Context, accessToken string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &IdentityError{
			Status:  resp.StatusCode,
			Message: strings.TrimSpace(string(body)),
		}
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &IdentityError{Status: resp.StatusCode, Message: "malformed identity response"}
	}

	identity := &Identity{
		Subject:    firstClaim(payload, "sub", "id"),
		Name:       firstClaim(payload, "name", "localizedFirstName"),
		Email:      firstClaim(payload, "email"),
		PictureURL: firstClaim(payload, "picture"),
	}
	if identity.Name == "" {
		identity.Name = strings.TrimSpace(firstClaim(payload, "given_name") + " " + firstClaim(payload, "family_name"))
	}
	if identity.Subject == "" {
		return nil, &IdentityError{Status: resp.StatusCode, Message: "identity response missing subject"}
	}
	return identity, nil
}

func firstClaim(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := payload[key]; ok {
			if str, ok := value.(string); ok && strings.TrimSpace(str) != "" {
				return strings.TrimSpace(str)
			}
		}
	}
	return ""
}
