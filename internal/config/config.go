package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	ListenAddr  string

	SessionSecret    string
	AuthCookieSecure bool

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	RedisAddr     string
	RedisPassword string

	Provider ProviderConfig

	RefreshThreshold time.Duration
	ExchangeTimeout  time.Duration
	SweepInterval    time.Duration
	StateTTL         time.Duration
	SessionTTL       time.Duration
}

// ProviderConfig holds the OAuth provider settings. Defaults target
// LinkedIn but every endpoint is overridable.
type ProviderConfig struct {
	Name         string
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	RedirectURI  string
	Scopes       []string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	authCookieSecure := environment == "production"
	if !authCookieSecure {
		authCookieSecure = getenvBool("AUTH_COOKIE_SECURE", false)
	}

	return Config{
		AppName:          getenv("APP_SERVICE", "linkpulse"),
		AppVersion:       getenv("APP_VERSION", "0.1.0"),
		Environment:      environment,
		ListenAddr:       getenv("LISTEN_ADDR", ":8080"),
		SessionSecret:    strings.TrimSpace(getenv("SESSION_SECRET", "")),
		AuthCookieSecure: authCookieSecure,

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "linkpulse"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),

		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		Provider: ProviderConfig{
			Name:         getenv("OAUTH_PROVIDER", "linkedin"),
			ClientID:     strings.TrimSpace(getenv("LINKEDIN_CLIENT_ID", "")),
			ClientSecret: strings.TrimSpace(getenv("LINKEDIN_CLIENT_SECRET", "")),
			AuthURL:      getenv("LINKEDIN_AUTH_URL", "https://www.linkedin.com/oauth/v2/authorization"),
			TokenURL:     getenv("LINKEDIN_TOKEN_URL", "https://www.linkedin.com/oauth/v2/accessToken"),
			UserInfoURL:  getenv("LINKEDIN_USERINFO_URL", "https://api.linkedin.com/v2/userinfo"),
			RedirectURI:  getenv("LINKEDIN_REDIRECT_URI", "http://localhost:8080/auth/linkedin/callback"),
			Scopes:       parseScopes(getenv("LINKEDIN_SCOPES", "openid profile email")),
		},

		RefreshThreshold: getenvDuration("TOKEN_REFRESH_THRESHOLD", 24*time.Hour),
		ExchangeTimeout:  getenvDuration("TOKEN_EXCHANGE_TIMEOUT", 10*time.Second),
		SweepInterval:    getenvDuration("TOKEN_SWEEP_INTERVAL", 24*time.Hour),
		StateTTL:         getenvDuration("OAUTH_STATE_TTL", 10*time.Minute),
		SessionTTL:       getenvDuration("SESSION_TTL", 7*24*time.Hour),
	}
}

// IsDevelopment reports whether detailed provider errors may be exposed.
func (c Config) IsDevelopment() bool {
	return c.Environment != "production"
}

func parseScopes(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ' ' || r == ','
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
