package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.SessionLifetime != "15m" {
		t.Errorf("SessionLifetime = %q, want %q", cfg.SessionLifetime, "15m")
	}
	if cfg.PollInterval != "5m" {
		t.Errorf("PollInterval = %q, want %q", cfg.PollInterval, "5m")
	}
	if cfg.NearExpiryThreshold != "1m" {
		t.Errorf("NearExpiryThreshold = %q, want %q", cfg.NearExpiryThreshold, "1m")
	}
	if cfg.PromptGrace != "60s" {
		t.Errorf("PromptGrace = %q, want %q", cfg.PromptGrace, "60s")
	}
	if cfg.LogoutNotice != "5s" {
		t.Errorf("LogoutNotice = %q, want %q", cfg.LogoutNotice, "5s")
	}
	if cfg.ActivityDebounce != "30s" {
		t.Errorf("ActivityDebounce = %q, want %q", cfg.ActivityDebounce, "30s")
	}
	if cfg.JWTIssuer != "pos-auth" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "pos-auth")
	}
	if cfg.JWTAudience != "pos-api" {
		t.Errorf("JWTAudience = %q, want %q", cfg.JWTAudience, "pos-api")
	}
	if cfg.SessionUserRole != "normal" {
		t.Errorf("SessionUserRole = %q, want %q", cfg.SessionUserRole, "normal")
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("SESSION_LIFETIME", "20m")
	os.Setenv("POLL_INTERVAL", "30s")
	os.Setenv("AUTH_ROUTES", "/signin, /signup")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SessionLifetimeDuration() != 20*time.Minute {
		t.Errorf("SessionLifetimeDuration = %v, want 20m", cfg.SessionLifetimeDuration())
	}
	if cfg.PollIntervalDuration() != 30*time.Second {
		t.Errorf("PollIntervalDuration = %v, want 30s", cfg.PollIntervalDuration())
	}
	routes := cfg.AuthRoutesList()
	if len(routes) != 2 || routes[0] != "/signin" || routes[1] != "/signup" {
		t.Errorf("AuthRoutesList = %v, want [/signin /signup]", routes)
	}
}

func TestLoad_DurationFallbacks(t *testing.T) {
	os.Clearenv()
	os.Setenv("PROMPT_GRACE", "not-a-duration")
	os.Setenv("LOGOUT_NOTICE", "-3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PromptGraceDuration() != 60*time.Second {
		t.Errorf("PromptGraceDuration = %v, want fallback 60s", cfg.PromptGraceDuration())
	}
	if cfg.LogoutNoticeDuration() != 5*time.Second {
		t.Errorf("LogoutNoticeDuration = %v, want fallback 5s", cfg.LogoutNoticeDuration())
	}
}

func TestLoad_JWTRequiresTokenFile(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_PUBLIC_KEY", "-----BEGIN PUBLIC KEY-----")

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail when JWT_PUBLIC_KEY is set without CREDENTIAL_TOKEN_FILE")
	}
}

func TestLoad_LifetimeMustExceedThreshold(t *testing.T) {
	os.Clearenv()
	os.Setenv("SESSION_LIFETIME", "30s")
	os.Setenv("NEAR_EXPIRY_THRESHOLD", "1m")

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail when SESSION_LIFETIME <= NEAR_EXPIRY_THRESHOLD")
	}
}
