package oauth

import (
	"errors"
	"net/url"
	"testing"

	"github.com/smallbiznis/linkpulse/internal/config"
)

var testProvider = config.ProviderConfig{
	Name:        "linkedin",
	ClientID:    "client-id",
	AuthURL:     "https://www.linkedin.com/oauth/v2/authorization",
	RedirectURI: "http://localhost:8080/auth/linkedin/callback",
	Scopes:      []string{"openid", "profile", "email"},
}

func TestGenerateStateUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		state, err := GenerateState()
		if err != nil {
			t.Fatalf("generate state: %v", err)
		}
		if len(state) < 40 {
			t.Fatalf("state too short for 256 bits of entropy: %q", state)
		}
		if seen[state] {
			t.Fatalf("duplicate state generated: %q", state)
		}
		seen[state] = true
	}
}

func TestBuildAuthorizationURL(t *testing.T) {
	authURL, err := BuildAuthorizationURL(testProvider, "state-123")
	if err != nil {
		t.Fatalf("build url: %v", err)
	}

	parsed, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("parse result: %v", err)
	}
	query := parsed.Query()

	cases := map[string]string{
		"response_type": "code",
		"client_id":     "client-id",
		"redirect_uri":  "http://localhost:8080/auth/linkedin/callback",
		"scope":         "openid profile email",
		"state":         "state-123",
	}
	for key, want := range cases {
		if got := query.Get(key); got != want {
			t.Errorf("query %s: got %q want %q", key, got, want)
		}
	}
	if parsed.Host != "www.linkedin.com" {
		t.Errorf("unexpected host %q", parsed.Host)
	}
}

func TestBuildAuthorizationURLDeterministic(t *testing.T) {
	first, err := BuildAuthorizationURL(testProvider, "s")
	if err != nil {
		t.Fatalf("build url: %v", err)
	}
	second, err := BuildAuthorizationURL(testProvider, "s")
	if err != nil {
		t.Fatalf("build url: %v", err)
	}
	if first != second {
		t.Fatalf("url must be deterministic: %q vs %q", first, second)
	}
}

func TestValidateState(t *testing.T) {
	cases := []struct {
		name     string
		expected string
		received string
		want     error
	}{
		{"match", "abc", "abc", nil},
		{"mismatch", "abc", "xyz", ErrStateMismatch},
		{"missing received", "abc", "", ErrMissingState},
		{"missing expected", "", "abc", ErrStateMismatch},
		{"both missing", "", "", ErrMissingState},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateState(tc.expected, tc.received)
			if !errors.Is(err, tc.want) && !(err == nil && tc.want == nil) {
				t.Fatalf("got %v want %v", err, tc.want)
			}
		})
	}
}
