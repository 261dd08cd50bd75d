// sessiond runs the session lifecycle coordinator as a standalone process:
// it binds the configured identity, polls the session store, and logs state
// transitions. SIGUSR1 feeds the activity detector, which makes it easy to
// exercise extension behaviour from a shell.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pos-session-manager/internal/audit"
	"pos-session-manager/internal/config"
	"pos-session-manager/internal/coordinator"
	"pos-session-manager/internal/credential"
	"pos-session-manager/internal/db"
	"pos-session-manager/internal/policy"
	"pos-session-manager/internal/session/repository"
	"pos-session-manager/internal/telemetry"
	otelsetup "pos-session-manager/internal/telemetry/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, "sessiond", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	recorder, err := telemetry.NewRecorder(providers.MeterProvider, providers.LoggerProvider)
	if err != nil {
		log.Fatalf("telemetry recorder: %v", err)
	}

	var store repository.Repository
	var auditor audit.Recorder
	if cfg.DatabaseURL != "" {
		sqlDB, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer sqlDB.Close()
		store = repository.NewPostgresRepository(sqlDB)
		auditor = audit.NewLogger(audit.NewPostgresRepository(sqlDB))
		log.Println("using postgres session store")
	} else {
		store = repository.NewMemoryRepository()
		auditor = audit.NewLogger(nil)
		log.Println("DATABASE_URL not set; using in-memory session store")
	}

	creds, identity, err := buildCredentials(ctx, cfg)
	if err != nil {
		log.Fatalf("credentials: %v", err)
	}

	eval, err := policy.NewOPAEvaluator("")
	if err != nil {
		log.Fatalf("policy: %v", err)
	}

	activity := coordinator.NewChannelSource()
	coord, err := coordinator.New(coordinator.Options{
		Store:       store,
		Credentials: creds,
		Policy:      eval,
		Timings: coordinator.Timings{
			SessionLifetime:     cfg.SessionLifetimeDuration(),
			PollInterval:        cfg.PollIntervalDuration(),
			NearExpiryThreshold: cfg.NearExpiryDuration(),
			PromptGrace:         cfg.PromptGraceDuration(),
			LogoutNotice:        cfg.LogoutNoticeDuration(),
			ActivityDebounce:    cfg.ActivityDebounceDuration(),
		},
		AuthRoutes: cfg.AuthRoutesList(),
		Sources:    []coordinator.Source{activity},
		Recorder:   recorder,
		Audit:      auditor,
	})
	if err != nil {
		log.Fatalf("coordinator: %v", err)
	}

	sub := coord.AddObserver(logState)
	defer sub.Remove()

	if err := coord.Initialize(ctx, identity); err != nil {
		log.Fatalf("initialize: %v", err)
	}
	log.Printf("session coordinator running for user %s (role %s)", identity.UserID, identity.Role)

	usr1 := make(chan os.Signal, 1)
	signal.Notify(usr1, syscall.SIGUSR1)
	go func() {
		for range usr1 {
			activity.Signal()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down session coordinator...")
	coord.Teardown()
	log.Println("session coordinator stopped")
}

// buildCredentials picks the JWT-backed provider when a public key is
// configured, falling back to the static provider for local runs.
func buildCredentials(ctx context.Context, cfg *config.Config) (credential.Provider, coordinator.Identity, error) {
	if cfg.JWTPublicKey != "" {
		key, err := credential.ParsePublicKey(cfg.JWTPublicKey)
		if err != nil {
			return nil, coordinator.Identity{}, err
		}
		provider := credential.NewJWTProvider(key, cfg.JWTIssuer, cfg.JWTAudience,
			&credential.FileTokenSource{Path: cfg.CredentialTokenFile})

		userID := cfg.SessionUserID
		if userID == "" {
			cred, err := provider.Current(ctx)
			if err != nil {
				return nil, coordinator.Identity{}, err
			}
			if cred == nil {
				log.Fatalf("credentials: no signed-in credential at %s; sign in first or set SESSION_USER_ID", cfg.CredentialTokenFile)
			}
			userID = cred.UserID
		}
		return provider, coordinator.Identity{UserID: userID, Role: cfg.SessionUserRole}, nil
	}

	if cfg.SessionUserID == "" {
		log.Fatalf("credentials: set SESSION_USER_ID (static mode) or JWT_PUBLIC_KEY (token mode)")
	}
	return credential.NewStatic(cfg.SessionUserID),
		coordinator.Identity{UserID: cfg.SessionUserID, Role: cfg.SessionUserRole}, nil
}

// logState prints each published snapshot so lifecycle transitions are
// visible in the process log.
func logState(s coordinator.State) {
	switch {
	case s.ShowLogoutMessage:
		log.Println("state: logged out")
	case s.Session == nil:
		log.Println("state: no session")
	case s.ShowExtensionPrompt:
		log.Printf("state: session %s near expiry (expires %s), extension prompt showing",
			s.Session.ID, s.Session.ExpiresAt.Format(time.RFC3339))
	default:
		log.Printf("state: session %s active, expires %s (extended %d times)",
			s.Session.ID, s.Session.ExpiresAt.Format(time.RFC3339), s.Session.ExtensionCount)
	}
	if s.DemoMessage != "" {
		log.Printf("state: advisory: %s", s.DemoMessage)
	}
}
