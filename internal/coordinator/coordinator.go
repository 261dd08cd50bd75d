// Package coordinator implements the session lifecycle state machine. One
// coordinator instance owns the poll timer, the current session record, and
// the observer fan-out; UI surfaces only read snapshots and call Extend or
// Logout. Construct exactly one per process and share it.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"pos-session-manager/internal/audit"
	"pos-session-manager/internal/clock"
	"pos-session-manager/internal/credential"
	"pos-session-manager/internal/policy"
	"pos-session-manager/internal/session/domain"
	"pos-session-manager/internal/session/repository"
	"pos-session-manager/internal/telemetry"
)

// Sentinel errors surfaced by coordinator operations.
var (
	ErrNotInitialized = errors.New("coordinator is not initialized")
)

// opTimeout bounds store and credential calls made from timer callbacks and
// the poll loop, which have no caller-supplied context.
const opTimeout = 10 * time.Second

// advisoryFallback is shown when the policy denies an extension without
// providing its own advisory text.
const advisoryFallback = "This account type is not permitted to extend its session."

// advisoryExtendFailed is shown when a best-effort extension write fails; the
// session continues on its existing expiry.
const advisoryExtendFailed = "Your session could not be extended right now; it remains valid until its current expiry."

// Identity is the read-only context supplied by the authentication layer at
// initialization. The coordinator never mutates it.
type Identity struct {
	UserID string
	Role   string
}

// Timings holds the named timing constants of the lifecycle protocol.
type Timings struct {
	// SessionLifetime is applied on creation and on each extension.
	SessionLifetime time.Duration
	// PollInterval is the period of the expiration check.
	PollInterval time.Duration
	// NearExpiryThreshold is the remaining lifetime that triggers the prompt.
	NearExpiryThreshold time.Duration
	// PromptGrace is how long an unresolved prompt may sit before forced logout.
	PromptGrace time.Duration
	// LogoutNotice is how long the logged-out message is shown before navigation.
	LogoutNotice time.Duration
	// ActivityDebounce is the quiet window of the activity detector.
	ActivityDebounce time.Duration
}

// DefaultTimings returns the standard protocol timings.
func DefaultTimings() Timings {
	return Timings{
		SessionLifetime:     15 * time.Minute,
		PollInterval:        5 * time.Minute,
		NearExpiryThreshold: time.Minute,
		PromptGrace:         60 * time.Second,
		LogoutNotice:        5 * time.Second,
		ActivityDebounce:    30 * time.Second,
	}
}

// Options configures a Coordinator. Store, Credentials, and Policy are
// required; everything else has a working default.
type Options struct {
	Store       repository.Repository
	Credentials credential.Provider
	Policy      policy.Evaluator
	Navigator   Navigator           // nil: NopNavigator
	Clock       clock.Clock         // nil: clock.Real
	Timings     Timings             // zero value: DefaultTimings
	AuthRoutes  []string            // nil: DefaultAuthRoutes
	Sources     []Source            // interaction sources for the detector
	Recorder    *telemetry.Recorder // optional
	Audit       audit.Recorder      // optional
}

// Coordinator is the session lifecycle state machine.
type Coordinator struct {
	store      repository.Repository
	creds      credential.Provider
	policy     policy.Evaluator
	nav        Navigator
	clk        clock.Clock
	timings    Timings
	authRoutes []string
	sources    []Source
	recorder   *telemetry.Recorder
	auditor    audit.Recorder

	registry *Registry
	detector *Detector

	mu          sync.Mutex
	identity    *Identity
	session     *domain.Session
	showPrompt  bool
	showLogout  bool
	demoMessage string
	// gen is bumped whenever the identity binding changes (teardown, logout,
	// identity switch). Async results and timer callbacks carry the gen they
	// were issued under and are dropped when it has moved on, so a slow fetch
	// can never resurrect a session that was logged out meanwhile.
	gen        uint64
	checking   bool // coalesces overlapping expiration checks
	pollStop   chan struct{}
	pollTicker clock.Ticker
	graceTimer clock.Timer
	notice     clock.Timer
}

// New returns a Coordinator built from opts.
func New(opts Options) (*Coordinator, error) {
	if opts.Store == nil {
		return nil, errors.New("coordinator: Store is required")
	}
	if opts.Credentials == nil {
		return nil, errors.New("coordinator: Credentials is required")
	}
	if opts.Policy == nil {
		return nil, errors.New("coordinator: Policy is required")
	}
	if opts.Navigator == nil {
		opts.Navigator = NopNavigator{}
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Timings == (Timings{}) {
		opts.Timings = DefaultTimings()
	}
	if opts.AuthRoutes == nil {
		opts.AuthRoutes = DefaultAuthRoutes
	}

	c := &Coordinator{
		store:      opts.Store,
		creds:      opts.Credentials,
		policy:     opts.Policy,
		nav:        opts.Navigator,
		clk:        opts.Clock,
		timings:    opts.Timings,
		authRoutes: opts.AuthRoutes,
		sources:    opts.Sources,
		recorder:   opts.Recorder,
		auditor:    opts.Audit,
		registry:   NewRegistry(),
	}
	c.detector = NewDetector(opts.Clock, opts.Timings.ActivityDebounce, c.onActivity)
	return c, nil
}

// Initialize binds the coordinator to identity, starts the recurring
// expiration poll, attaches the activity detector, and runs the first check
// immediately. Calling it again with the same identity is a no-op; a
// different identity tears the old binding down first, so stale timers from
// the previous identity never keep firing.
func (c *Coordinator) Initialize(ctx context.Context, id Identity) error {
	if id.UserID == "" {
		return errors.New("coordinator: identity must have a user id")
	}

	c.mu.Lock()
	if c.identity != nil && *c.identity == id && c.pollStop != nil {
		c.mu.Unlock()
		return nil
	}
	c.stopLocked()
	c.identity = &id
	c.session = nil
	c.showPrompt = false
	c.showLogout = false
	c.demoMessage = ""
	stop := make(chan struct{})
	c.pollStop = stop
	ticker, ticks := c.clk.NewTicker(c.timings.PollInterval)
	c.pollTicker = ticker
	c.mu.Unlock()

	c.detector.Detach()
	c.detector.Attach(c.sources...)
	go c.pollLoop(stop, ticks)

	c.CheckExpiration(ctx)
	return nil
}

// Teardown stops the poll timer, detaches the activity detector, clears the
// observer set, and resets the coordinator. Safe to call when already torn down.
func (c *Coordinator) Teardown() {
	c.mu.Lock()
	c.stopLocked()
	c.identity = nil
	c.session = nil
	c.showPrompt = false
	c.showLogout = false
	c.demoMessage = ""
	c.mu.Unlock()

	c.detector.Detach()
	c.registry.Clear()
}

// AddObserver registers cb for state snapshots and returns its subscription.
// Observers never own timers, so any number of UI mounts may subscribe.
func (c *Coordinator) AddObserver(cb Observer) *Subscription {
	return c.registry.Subscribe(cb)
}

// Snapshot returns the current state.
func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// CheckExpiration runs one expiration check cycle: revalidate the credential,
// reconcile the stored session (creating one when none exists), classify its
// remaining lifetime, and notify observers. Invoked by every poll tick; safe
// to call directly. While the active route is within the authentication flow
// the check is a no-op. Overlapping invocations coalesce: only one cycle runs
// at a time, so two concurrent checks can never both create a session.
func (c *Coordinator) CheckExpiration(ctx context.Context) {
	c.mu.Lock()
	if c.identity == nil || c.pollStop == nil || c.checking {
		c.mu.Unlock()
		return
	}
	if isAuthRoute(c.nav.CurrentRoute(), c.authRoutes) {
		c.mu.Unlock()
		return
	}
	c.checking = true
	gen := c.gen
	id := *c.identity
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.checking = false
		c.mu.Unlock()
	}()

	c.recorder.PollCycle(ctx)

	cred, err := c.creds.Current(ctx)
	if err != nil {
		log.Printf("coordinator: credential check failed: %v", err)
		cred = nil
	}
	if cred == nil || cred.UserID != id.UserID {
		// Credential gone or belongs to someone else: implicit logout.
		c.handleSignedOut(gen)
		return
	}

	now := c.clk.Now()
	sess, err := c.store.LatestValid(ctx, id.UserID, now)
	if err != nil {
		// Read failures degrade to "no session found" and take the create path.
		log.Printf("coordinator: session fetch failed for user %s: %v", id.UserID, err)
		sess = nil
	}
	if sess == nil {
		sess = domain.New(id.UserID, id.Role, now, c.timings.SessionLifetime)
		if err := c.store.Create(ctx, sess); err != nil {
			log.Printf("coordinator: session create failed for user %s: %v", id.UserID, err)
			c.forceLogout(ctx, gen, "session_create_failed")
			return
		}
		c.recorder.SessionCreated(ctx, id.UserID, sess.ID)
		c.recordAudit(ctx, id.UserID, sess.ID, audit.ActionSessionCreated, "")
	}

	state := domain.Classify(now, sess.ExpiresAt, c.timings.NearExpiryThreshold)
	log.Printf("coordinator: user %s session %s %s (%.1f minutes remaining)",
		id.UserID, sess.ID, state, domain.MinutesRemaining(now, sess.ExpiresAt))

	c.mu.Lock()
	if c.gen != gen {
		// Identity changed or logged out while the fetch was in flight.
		c.mu.Unlock()
		return
	}
	c.session = sess

	switch state {
	case domain.Expired:
		c.mu.Unlock()
		c.forceLogout(ctx, gen, "session_expired")
		return
	case domain.NearExpiry:
		c.mu.Unlock()
		dec, err := c.policy.ExtensionAllowed(ctx, id.Role)
		if err != nil {
			// Fail closed: treat as ineligible, no prompt.
			log.Printf("coordinator: extension policy failed for role %q: %v", id.Role, err)
			dec = policy.Decision{}
		}
		c.mu.Lock()
		if c.gen != gen {
			c.mu.Unlock()
			return
		}
		if dec.Allowed && !c.showPrompt {
			c.showPrompt = true
			c.armGraceTimerLocked(gen)
		}
		// Restricted roles are never prompted; they ride out the remaining lifetime.
		c.mu.Unlock()
	case domain.Healthy:
		// A fresh or externally extended session supersedes any pending prompt.
		c.showPrompt = false
		c.cancelGraceLocked()
		c.mu.Unlock()
	}

	c.publish()
}

// Extend pushes the session's expiry forward by the standard lifetime. For
// extension-ineligible roles storage is never touched; observers receive the
// policy's advisory instead. Storage failures are advisory too: failing to
// extend must not end a session before its actual expiry.
func (c *Coordinator) Extend(ctx context.Context) error {
	c.mu.Lock()
	if c.identity == nil {
		c.mu.Unlock()
		return ErrNotInitialized
	}
	id := *c.identity
	sess := c.session
	gen := c.gen
	c.mu.Unlock()

	dec, err := c.policy.ExtensionAllowed(ctx, id.Role)
	if err != nil {
		log.Printf("coordinator: extension policy failed for role %q: %v", id.Role, err)
		dec = policy.Decision{}
	}
	if !dec.Allowed {
		advisory := dec.Advisory
		if advisory == "" {
			advisory = advisoryFallback
		}
		c.recorder.ExtensionDenied(ctx, id.Role)
		c.recordAudit(ctx, id.UserID, sessionID(sess), audit.ActionExtensionDenied, "role="+id.Role)
		c.setAdvisory(gen, advisory)
		return nil
	}
	if sess == nil {
		// Nothing bound yet; the next poll tick will create a session.
		return nil
	}

	until := c.clk.Now().Add(c.timings.SessionLifetime)
	updated, err := c.store.Extend(ctx, sess.ID, until)
	if err != nil {
		log.Printf("coordinator: extend failed for session %s: %v", sess.ID, err)
		c.setAdvisory(gen, advisoryExtendFailed)
		return nil
	}
	c.recorder.ExtensionGranted(ctx, id.UserID, updated.ID, updated.ExtensionCount)
	c.recordAudit(ctx, id.UserID, updated.ID, audit.ActionSessionExtended,
		fmt.Sprintf("extension_count=%d", updated.ExtensionCount))

	c.mu.Lock()
	if c.gen != gen {
		// Superseded by logout or identity switch; do not resurrect.
		c.mu.Unlock()
		return nil
	}
	c.session = updated
	c.showPrompt = false
	c.demoMessage = ""
	c.cancelGraceLocked()
	c.mu.Unlock()

	c.publish()
	return nil
}

// Logout signs out of the authentication layer, invalidates the bound session
// row, shows the logged-out notice, and navigates to the login surface after
// the notice window. Idempotent.
func (c *Coordinator) Logout(ctx context.Context) error {
	c.mu.Lock()
	if c.identity == nil && c.session == nil {
		c.mu.Unlock()
		return nil
	}
	sess := c.session
	var userID string
	if c.identity != nil {
		userID = c.identity.UserID
	}
	c.stopLocked()
	c.identity = nil
	c.session = nil
	c.showPrompt = false
	c.demoMessage = ""
	c.showLogout = true
	gen := c.gen
	c.mu.Unlock()

	c.detector.Detach()
	if err := c.creds.SignOut(ctx); err != nil {
		log.Printf("coordinator: sign out failed: %v", err)
	}
	if sess != nil {
		if err := c.store.Invalidate(ctx, sess.ID, c.clk.Now()); err != nil {
			log.Printf("coordinator: invalidate failed for session %s: %v", sess.ID, err)
		}
		c.recordAudit(ctx, userID, sess.ID, audit.ActionLogout, "")
	}
	c.publish()

	c.mu.Lock()
	if c.gen == gen {
		c.notice = c.clk.AfterFunc(c.timings.LogoutNotice, func() { c.finishLogout(gen) })
	}
	c.mu.Unlock()
	return nil
}

// --- internals ---

// pollLoop drives CheckExpiration until stop is closed. It is a cooperative
// repeating task bound to the current identity binding.
func (c *Coordinator) pollLoop(stop chan struct{}, ticks <-chan time.Time) {
	for {
		select {
		case <-stop:
			return
		case <-ticks:
			ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
			c.CheckExpiration(ctx)
			cancel()
		}
	}
}

// onActivity is the detector's renew callback: qualifying activity extends
// the session. No session bound means no renewal.
func (c *Coordinator) onActivity() {
	c.mu.Lock()
	idle := c.identity == nil || c.session == nil
	c.mu.Unlock()
	if idle {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := c.Extend(ctx); err != nil {
		log.Printf("coordinator: activity extend failed: %v", err)
	}
}

// forceLogout terminates the credential and session after an expiry or a
// fatal store failure, shows the logged-out notice, and schedules navigation.
func (c *Coordinator) forceLogout(ctx context.Context, gen uint64, reason string) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	sess := c.session
	var userID string
	if c.identity != nil {
		userID = c.identity.UserID
	}
	c.stopLocked()
	c.identity = nil
	c.session = nil
	c.showPrompt = false
	c.demoMessage = ""
	c.showLogout = true
	newGen := c.gen
	c.mu.Unlock()

	c.detector.Detach()
	if err := c.creds.SignOut(ctx); err != nil {
		log.Printf("coordinator: sign out failed: %v", err)
	}
	if sess != nil {
		if err := c.store.Invalidate(ctx, sess.ID, c.clk.Now()); err != nil {
			log.Printf("coordinator: invalidate failed for session %s: %v", sess.ID, err)
		}
	}
	c.recorder.ForcedLogout(ctx, userID, reason)
	c.recordAudit(ctx, userID, sessionID(sess), audit.ActionForcedLogout, "reason="+reason)
	c.publish()

	c.mu.Lock()
	if c.gen == newGen {
		c.notice = c.clk.AfterFunc(c.timings.LogoutNotice, func() { c.finishLogout(newGen) })
	}
	c.mu.Unlock()
}

// handleSignedOut reacts to a missing or mismatched credential: the user is
// already logged out elsewhere, so drop local state and redirect without a
// notice. Never redirects while on an authentication route.
func (c *Coordinator) handleSignedOut(gen uint64) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.stopLocked()
	c.identity = nil
	c.session = nil
	c.showPrompt = false
	c.showLogout = false
	c.demoMessage = ""
	c.mu.Unlock()

	c.detector.Detach()
	c.publish()
	if !isAuthRoute(c.nav.CurrentRoute(), c.authRoutes) {
		c.nav.NavigateToLogin()
	}
}

// finishLogout clears the logged-out notice after its display window and
// navigates to the login surface.
func (c *Coordinator) finishLogout(gen uint64) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.showLogout = false
	c.notice = nil
	c.mu.Unlock()

	c.publish()
	if !isAuthRoute(c.nav.CurrentRoute(), c.authRoutes) {
		c.nav.NavigateToLogin()
	}
}

// onGraceExpired fires when the near-expiry prompt sat unresolved for the
// whole grace window. Forced logout only applies if the session has actually
// expired by now; an extension from another tab keeps the user in.
func (c *Coordinator) onGraceExpired(gen uint64) {
	c.mu.Lock()
	if c.gen != gen || !c.showPrompt || c.session == nil {
		c.mu.Unlock()
		return
	}
	expiresAt := c.session.ExpiresAt
	c.graceTimer = nil
	c.mu.Unlock()

	if c.clk.Now().Before(expiresAt) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	c.forceLogout(ctx, gen, "prompt_unresolved")
}

// armGraceTimerLocked starts the bounded prompt window. Callers hold c.mu.
func (c *Coordinator) armGraceTimerLocked(gen uint64) {
	c.cancelGraceLocked()
	c.graceTimer = c.clk.AfterFunc(c.timings.PromptGrace, func() { c.onGraceExpired(gen) })
}

func (c *Coordinator) cancelGraceLocked() {
	if c.graceTimer != nil {
		c.graceTimer.Stop()
		c.graceTimer = nil
	}
}

// stopLocked halts polling and cancels all timers, and bumps the generation
// so in-flight async results are dropped. Callers hold c.mu.
func (c *Coordinator) stopLocked() {
	c.gen++
	if c.pollStop != nil {
		close(c.pollStop)
		c.pollStop = nil
	}
	if c.pollTicker != nil {
		c.pollTicker.Stop()
		c.pollTicker = nil
	}
	c.cancelGraceLocked()
	if c.notice != nil {
		c.notice.Stop()
		c.notice = nil
	}
}

func (c *Coordinator) setAdvisory(gen uint64, advisory string) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.demoMessage = advisory
	c.mu.Unlock()
	c.publish()
}

func (c *Coordinator) stateLocked() State {
	return State{
		Session:             c.session.Clone(),
		ShowExtensionPrompt: c.showPrompt,
		ShowLogoutMessage:   c.showLogout,
		DemoMessage:         c.demoMessage,
	}
}

func (c *Coordinator) publish() {
	c.mu.Lock()
	state := c.stateLocked()
	c.mu.Unlock()
	c.registry.Publish(state)
}

func (c *Coordinator) recordAudit(ctx context.Context, userID, sessID, action, metadata string) {
	if c.auditor == nil {
		return
	}
	c.auditor.Record(ctx, userID, sessID, action, metadata)
}

func sessionID(s *domain.Session) string {
	if s == nil {
		return ""
	}
	return s.ID
}
