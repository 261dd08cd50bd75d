// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
// All timing knobs are named fields with sensible defaults rather than
// magic numbers in the coordinator.
type Config struct {
	// DatabaseURL is the Postgres DSN; empty runs sessiond on the in-memory store.
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// SessionLifetime is how long a session lives on creation or extension (e.g. "15m").
	SessionLifetime string `mapstructure:"SESSION_LIFETIME"`
	// PollInterval is how often the coordinator revalidates the session (e.g. "5m").
	PollInterval string `mapstructure:"POLL_INTERVAL"`
	// NearExpiryThreshold is the remaining lifetime at which the renewal prompt appears (e.g. "1m").
	NearExpiryThreshold string `mapstructure:"NEAR_EXPIRY_THRESHOLD"`
	// PromptGrace is how long an unresolved renewal prompt is allowed to sit before forced logout (e.g. "60s").
	PromptGrace string `mapstructure:"PROMPT_GRACE"`
	// LogoutNotice is how long the logged-out message is shown before navigating to login (e.g. "5s").
	LogoutNotice string `mapstructure:"LOGOUT_NOTICE"`
	// ActivityDebounce is the quiet window that collapses interaction bursts into one renewal (e.g. "30s").
	ActivityDebounce string `mapstructure:"ACTIVITY_DEBOUNCE"`

	// AuthRoutes is a comma-separated list of route prefixes on which polling
	// and login redirects are suppressed (e.g. "/login,/register").
	AuthRoutes string `mapstructure:"AUTH_ROUTES"`

	// JWTPublicKey is the PEM-encoded public key or path to file used to
	// validate the access credential. Empty runs sessiond with a static credential.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the expected iss claim on the access credential.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the expected aud claim on the access credential.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// CredentialTokenFile is the path the JWT credential provider reads the
	// current access token from. Required when JWTPublicKey is set.
	CredentialTokenFile string `mapstructure:"CREDENTIAL_TOKEN_FILE"`

	// SessionUserID and SessionUserRole identify the bound identity when
	// running with the static credential provider (no JWT_PUBLIC_KEY).
	SessionUserID   string `mapstructure:"SESSION_USER_ID"`
	SessionUserRole string `mapstructure:"SESSION_USER_ROLE"`

	// OTLPEndpoint enables telemetry export when set (e.g. http://localhost:4317).
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext export even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("SESSION_LIFETIME", "15m")
	v.SetDefault("POLL_INTERVAL", "5m")
	v.SetDefault("NEAR_EXPIRY_THRESHOLD", "1m")
	v.SetDefault("PROMPT_GRACE", "60s")
	v.SetDefault("LOGOUT_NOTICE", "5s")
	v.SetDefault("ACTIVITY_DEBOUNCE", "30s")
	v.SetDefault("AUTH_ROUTES", "/login,/register,/forgot-password")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "pos-auth")
	v.SetDefault("JWT_AUDIENCE", "pos-api")
	v.SetDefault("CREDENTIAL_TOKEN_FILE", "")
	v.SetDefault("SESSION_USER_ID", "")
	v.SetDefault("SESSION_USER_ROLE", "normal")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.JWTPublicKey != "" && cfg.CredentialTokenFile == "" {
		return nil, errors.New("config: CREDENTIAL_TOKEN_FILE must be set when JWT_PUBLIC_KEY is set")
	}
	if cfg.SessionLifetimeDuration() <= cfg.NearExpiryDuration() {
		return nil, errors.New("config: SESSION_LIFETIME must be greater than NEAR_EXPIRY_THRESHOLD")
	}

	return &cfg, nil
}

// SessionLifetimeDuration parses SessionLifetime. Returns 15m if unset or invalid.
func (c *Config) SessionLifetimeDuration() time.Duration {
	return durationOr(c.SessionLifetime, 15*time.Minute)
}

// PollIntervalDuration parses PollInterval. Returns 5m if unset or invalid.
func (c *Config) PollIntervalDuration() time.Duration {
	return durationOr(c.PollInterval, 5*time.Minute)
}

// NearExpiryDuration parses NearExpiryThreshold. Returns 1m if unset or invalid.
func (c *Config) NearExpiryDuration() time.Duration {
	return durationOr(c.NearExpiryThreshold, time.Minute)
}

// PromptGraceDuration parses PromptGrace. Returns 60s if unset or invalid.
func (c *Config) PromptGraceDuration() time.Duration {
	return durationOr(c.PromptGrace, 60*time.Second)
}

// LogoutNoticeDuration parses LogoutNotice. Returns 5s if unset or invalid.
func (c *Config) LogoutNoticeDuration() time.Duration {
	return durationOr(c.LogoutNotice, 5*time.Second)
}

// ActivityDebounceDuration parses ActivityDebounce. Returns 30s if unset or invalid.
func (c *Config) ActivityDebounceDuration() time.Duration {
	return durationOr(c.ActivityDebounce, 30*time.Second)
}

// AuthRoutesList returns the auth route prefixes from the comma-separated config.
func (c *Config) AuthRoutesList() []string {
	if c == nil || c.AuthRoutes == "" {
		return nil
	}
	parts := strings.Split(c.AuthRoutes, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func durationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
