// Package session manages the auth session cookie. The cookie value is
// the user id plus an HMAC tag, so no session table is required.
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/linkpulse/internal/config"
	"go.uber.org/fx"
)

const DefaultCookieName = "_sid"

var Module = fx.Module("auth.session",
	fx.Provide(NewManager),
)

// Manager manages auth session cookies.
type Manager struct {
	cookieName string
	secure     bool
	secret     []byte
	ttl        time.Duration
}

func NewManager(cfg config.Config) *Manager {
	return &Manager{
		cookieName: DefaultCookieName,
		secure:     cfg.AuthCookieSecure,
		secret:     []byte(cfg.SessionSecret),
		ttl:        cfg.SessionTTL,
	}
}

func (m *Manager) CookieName() string {
	return m.cookieName
}

// Issue sets the session cookie for the user.
func (m *Manager) Issue(c *gin.Context, userID snowflake.ID) {
	value := m.sign(userID.String())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, value, int(m.ttl.Seconds()), "/", "", m.secure, true)
}

// Subject returns the authenticated user id from the session cookie, if
// the cookie is present and its tag verifies.
func (m *Manager) Subject(c *gin.Context) (snowflake.ID, bool) {
	value, err := c.Cookie(m.cookieName)
	if err != nil || strings.TrimSpace(value) == "" {
		return 0, false
	}

	idPart, tag, found := strings.Cut(value, ".")
	if !found {
		return 0, false
	}
	expected := m.tag(idPart)
	if !hmac.Equal([]byte(tag), []byte(expected)) {
		return 0, false
	}

	id, err := snowflake.ParseString(idPart)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (m *Manager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, "", -1, "/", "", m.secure, true)
}

func (m *Manager) sign(id string) string {
	return id + "." + m.tag(id)
}

func (m *Manager) tag(id string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(id))
	return hex.EncodeToString(mac.Sum(nil))
}
