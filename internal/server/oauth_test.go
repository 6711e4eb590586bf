package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authrepo "github.com/smallbiznis/linkpulse/internal/auth/repository"
	"github.com/smallbiznis/linkpulse/internal/auth/session"
	"github.com/smallbiznis/linkpulse/internal/clock"
	"github.com/smallbiznis/linkpulse/internal/config"
	obsmetrics "github.com/smallbiznis/linkpulse/internal/observability/metrics"
	"github.com/smallbiznis/linkpulse/internal/oauth"
	"github.com/smallbiznis/linkpulse/internal/statestore"
	tokendomain "github.com/smallbiznis/linkpulse/internal/token/domain"
	tokenrepo "github.com/smallbiznis/linkpulse/internal/token/repository"
	tokenservice "github.com/smallbiznis/linkpulse/internal/token/service"
	authdomain "github.com/smallbiznis/linkpulse/internal/auth/domain"
	"github.com/smallbiznis/linkpulse/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeExchange struct {
	exchangeCalls int
	payload       *tokendomain.TokenPayload
	identity      *oauth.Identity
	err           error
}

func (f *fakeExchange) ExchangeCode(context.Context, string) (*tokendomain.TokenPayload, error) {
	f.exchangeCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

func (f *fakeExchange) Refresh(context.Context, string) (*tokendomain.TokenPayload, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

func (f *fakeExchange) FetchIdentity(context.Context, string) (*oauth.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

type testHarness struct {
	server   *Server
	exchange *fakeExchange
	states   statestore.Store
	tokens   tokendomain.Store
}

func newTestServer(t *testing.T) *testHarness {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&authdomain.User{}, &tokendomain.TokenRecord{}))

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	cfg := config.Config{
		Environment:   "development",
		ListenAddr:    ":0",
		SessionSecret: "test-secret",
		SessionTTL:    time.Hour,
		StateTTL:      10 * time.Minute,
		Provider: config.ProviderConfig{
			Name:        "linkedin",
			ClientID:    "client-id",
			AuthURL:     "https://www.linkedin.com/oauth/v2/authorization",
			RedirectURI: "http://localhost:8080/auth/linkedin/callback",
			Scopes:      []string{"openid", "profile", "email"},
		},
		RefreshThreshold: 24 * time.Hour,
	}

	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	tokenStore := tokenrepo.New(conn, node, clk)
	exchange := &fakeExchange{}
	tokenSvc := tokenservice.New(cfg, tokenStore, exchange, clk, zap.NewNop(), obsmetrics.NewTestTokenMetrics())
	states := statestore.NewMemoryStore()

	srv := NewServer(Params{
		Engine:   NewEngine(cfg, zap.NewNop()),
		Config:   cfg,
		Log:      zap.NewNop(),
		Tokens:   tokenSvc,
		Exchange: exchange,
		States:   states,
		Users:    authrepo.New(conn),
		Sessions: session.NewManager(cfg),
		GenID:    node,
	})
	srv.RegisterAuthRoutes()

	return &testHarness{
		server:   srv,
		exchange: exchange,
		states:   states,
		tokens:   tokenStore,
	}
}

func (h *testHarness) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.server.engine.ServeHTTP(w, req)
	return w
}

func (h *testHarness) seedState(t *testing.T, state string) {
	t.Helper()
	err := h.states.Save(context.Background(), statestore.AuthorizationSession{
		State:     state,
		Provider:  "linkedin",
		CreatedAt: time.Now(),
	}, 10*time.Minute)
	require.NoError(t, err)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestStartAuthorizationRedirects(t *testing.T) {
	h := newTestServer(t)

	w := h.do(httptest.NewRequest(http.MethodGet, "/auth/linkedin", nil))
	require.Equal(t, http.StatusFound, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "www.linkedin.com", location.Host)

	state := location.Query().Get("state")
	require.NotEmpty(t, state)
	require.Equal(t, "code", location.Query().Get("response_type"))

	// The redirect's state must be findable exactly once.
	stored, err := h.states.Consume(context.Background(), state)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestStartAuthorizationUnknownProvider(t *testing.T) {
	h := newTestServer(t)

	w := h.do(httptest.NewRequest(http.MethodGet, "/auth/github", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCallbackUserCancelled(t *testing.T) {
	h := newTestServer(t)

	w := h.do(httptest.NewRequest(http.MethodGet,
		"/auth/linkedin/callback?error=user_cancelled_authorize&error_description=denied", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	require.Equal(t, false, body["success"])
	require.Equal(t, true, body["userCancelled"])
	require.Zero(t, h.exchange.exchangeCalls, "no token exchange may be attempted")
}

func TestCallbackOtherProviderError(t *testing.T) {
	h := newTestServer(t)

	w := h.do(httptest.NewRequest(http.MethodGet,
		"/auth/linkedin/callback?error=server_error", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	require.Equal(t, false, body["success"])
	require.Equal(t, false, body["userCancelled"])
}

func TestCallbackSuccess(t *testing.T) {
	h := newTestServer(t)
	h.seedState(t, "good-state")
	h.exchange.payload = &tokendomain.TokenPayload{
		AccessToken:  "acc",
		ExpiresIn:    5184000,
		RefreshToken: "ref",
		TokenType:    "Bearer",
	}
	h.exchange.identity = &oauth.Identity{
		Subject: "ext-1",
		Name:    "Ada Lovelace",
		Email:   "ada@example.com",
	}

	w := h.do(httptest.NewRequest(http.MethodGet,
		"/auth/linkedin/callback?code=auth-code&state=good-state", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	require.Equal(t, true, body["success"])
	user := body["user"].(map[string]any)
	require.Equal(t, "Ada Lovelace", user["name"])

	// Tokens persisted under the provider subject.
	rec, err := h.tokens.GetWithSecrets(context.Background(), "ext-1", tokendomain.ProviderLinkedIn)
	require.NoError(t, err)
	require.Equal(t, "acc", rec.AccessToken)

	// Session established.
	cookies := w.Result().Cookies()
	var found bool
	for _, cookie := range cookies {
		if cookie.Name == session.DefaultCookieName && cookie.Value != "" {
			found = true
		}
	}
	require.True(t, found, "session cookie must be set")
}

func TestCallbackStateMismatch(t *testing.T) {
	h := newTestServer(t)
	h.seedState(t, "expected-state")

	w := h.do(httptest.NewRequest(http.MethodGet,
		"/auth/linkedin/callback?code=auth-code&state=wrong-state", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Zero(t, h.exchange.exchangeCalls)

	body := decodeBody(t, w)
	errPayload := body["error"].(map[string]any)
	require.Equal(t, "state_mismatch", errPayload["type"])
}

func TestCallbackStateReuseRejected(t *testing.T) {
	h := newTestServer(t)
	h.seedState(t, "one-shot")
	h.exchange.payload = &tokendomain.TokenPayload{AccessToken: "acc", ExpiresIn: 3600}
	h.exchange.identity = &oauth.Identity{Subject: "ext-2", Name: "n"}

	first := h.do(httptest.NewRequest(http.MethodGet,
		"/auth/linkedin/callback?code=c&state=one-shot", nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := h.do(httptest.NewRequest(http.MethodGet,
		"/auth/linkedin/callback?code=c&state=one-shot", nil))
	require.Equal(t, http.StatusBadRequest, second.Code)
}

func TestCallbackMissingParams(t *testing.T) {
	h := newTestServer(t)

	w := h.do(httptest.NewRequest(http.MethodGet, "/auth/linkedin/callback?code=c", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	require.Equal(t, "missing_state", body["error"].(map[string]any)["type"])

	w = h.do(httptest.NewRequest(http.MethodGet, "/auth/linkedin/callback?state=s", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
	body = decodeBody(t, w)
	require.Equal(t, "missing_code", body["error"].(map[string]any)["type"])
}

func TestCallbackExchangeFailure(t *testing.T) {
	h := newTestServer(t)
	h.seedState(t, "s1")
	h.exchange.err = &oauth.ExchangeError{
		Status: http.StatusUnauthorized,
		Code:   "invalid_client",
	}

	w := h.do(httptest.NewRequest(http.MethodGet,
		"/auth/linkedin/callback?code=c&state=s1", nil))
	require.Equal(t, http.StatusBadGateway, w.Code)

	body := decodeBody(t, w)
	require.Equal(t, "token_exchange_failed", body["error"].(map[string]any)["type"])
}

func TestStatusAnonymous(t *testing.T) {
	h := newTestServer(t)

	w := h.do(httptest.NewRequest(http.MethodGet, "/auth/status", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	require.Equal(t, false, body["authenticated"])
}

func TestStatusAuthenticated(t *testing.T) {
	h := newTestServer(t)
	cookie := loginTestUser(t, h)

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	req.AddCookie(cookie)
	w := h.do(req)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	require.Equal(t, true, body["authenticated"])
	require.NotNil(t, body["user"])
}

func TestRefreshRequiresAuth(t *testing.T) {
	h := newTestServer(t)

	w := h.do(httptest.NewRequest(http.MethodPost, "/auth/refresh", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshReturnsToken(t *testing.T) {
	h := newTestServer(t)
	cookie := loginTestUser(t, h)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(cookie)
	w := h.do(req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	require.Equal(t, true, body["success"])
	require.Equal(t, "acc", body["accessToken"])
}

func TestLogoutRevokesTokens(t *testing.T) {
	h := newTestServer(t)
	cookie := loginTestUser(t, h)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(cookie)
	w := h.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	_, err := h.tokens.Get(context.Background(), "ext-login", tokendomain.ProviderLinkedIn)
	require.True(t, errors.Is(err, tokendomain.ErrTokenNotFound))

	// Logout again without a live session still succeeds.
	w = h.do(httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

// loginTestUser runs the callback flow and returns the session cookie.
func loginTestUser(t *testing.T, h *testHarness) *http.Cookie {
	t.Helper()
	h.seedState(t, "login-state")
	h.exchange.payload = &tokendomain.TokenPayload{
		AccessToken:  "acc",
		ExpiresIn:    5184000,
		RefreshToken: "ref",
	}
	h.exchange.identity = &oauth.Identity{Subject: "ext-login", Name: "Ada"}

	w := h.do(httptest.NewRequest(http.MethodGet,
		"/auth/linkedin/callback?code=c&state=login-state", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == session.DefaultCookieName {
			return cookie
		}
	}
	t.Fatal("session cookie not found")
	return nil
}
