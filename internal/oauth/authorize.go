// Package oauth implements the provider-facing half of the three-legged
// authorization-code flow: state generation, authorization URL building,
// and the token/identity endpoint client.
package oauth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/smallbiznis/linkpulse/internal/config"
)

const stateTokenSize = 32

// GenerateState returns a cryptographically random, URL-safe state
// nonce. 32 bytes gives 256 bits of entropy.
func GenerateState() (string, error) {
	buf := make([]byte, stateTokenSize)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// BuildAuthorizationURL builds the provider redirect URL for the given
// state. Pure function of configuration plus state; no I/O.
func BuildAuthorizationURL(cfg config.ProviderConfig, state string) (string, error) {
	parsed, err := url.Parse(cfg.AuthURL)
	if err != nil {
		return "", err
	}
	query := parsed.Query()
	query.Set("response_type", "code")
	query.Set("client_id", cfg.ClientID)
	query.Set("redirect_uri", cfg.RedirectURI)
	if len(cfg.Scopes) > 0 {
		query.Set("scope", strings.Join(cfg.Scopes, " "))
	}
	query.Set("state", state)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// ValidateState compares the stored state against the one returned by
// the provider. Both must be present; a missing expected value is a
// failure, never a pass.
func ValidateState(expected, received string) error {
	if strings.TrimSpace(received) == "" {
		return ErrMissingState
	}
	if expected == "" {
		return ErrStateMismatch
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
		return ErrStateMismatch
	}
	return nil
}
