// Package telemetry counts session lifecycle outcomes and emits lifecycle
// events as OTel log records. All recording is best-effort and must never
// affect coordinator behavior.
package telemetry

import (
	"context"
	"strconv"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// Recorder holds the session lifecycle instruments. A nil *Recorder is safe
// to call; every method is a no-op on it.
type Recorder struct {
	sessionsCreated   metric.Int64Counter
	extensionsGranted metric.Int64Counter
	extensionsDenied  metric.Int64Counter
	forcedLogouts     metric.Int64Counter
	pollCycles        metric.Int64Counter
	logger            otellog.Logger
}

// NewRecorder creates the lifecycle instruments on mp's meter and, when lp is
// non-nil, a logger for lifecycle event records.
func NewRecorder(mp metric.MeterProvider, lp *sdklog.LoggerProvider) (*Recorder, error) {
	meter := mp.Meter("pos-session-manager")

	r := &Recorder{}
	var err error
	if r.sessionsCreated, err = meter.Int64Counter("session.created",
		metric.WithDescription("Sessions created by the coordinator")); err != nil {
		return nil, err
	}
	if r.extensionsGranted, err = meter.Int64Counter("session.extensions.granted",
		metric.WithDescription("Session extensions applied")); err != nil {
		return nil, err
	}
	if r.extensionsDenied, err = meter.Int64Counter("session.extensions.denied",
		metric.WithDescription("Session extensions rejected by role policy")); err != nil {
		return nil, err
	}
	if r.forcedLogouts, err = meter.Int64Counter("session.forced_logouts",
		metric.WithDescription("Forced logouts by reason")); err != nil {
		return nil, err
	}
	if r.pollCycles, err = meter.Int64Counter("session.poll_cycles",
		metric.WithDescription("Expiration check cycles run")); err != nil {
		return nil, err
	}
	if lp != nil {
		r.logger = lp.Logger("pos-session-manager")
	}
	return r, nil
}

// SessionCreated records a session creation for userID.
func (r *Recorder) SessionCreated(ctx context.Context, userID, sessionID string) {
	if r == nil {
		return
	}
	r.sessionsCreated.Add(ctx, 1)
	r.emit(ctx, "session_created",
		otellog.String("user_id", userID),
		otellog.String("session_id", sessionID))
}

// ExtensionGranted records a successful extension and the session's running count.
func (r *Recorder) ExtensionGranted(ctx context.Context, userID, sessionID string, count int) {
	if r == nil {
		return
	}
	r.extensionsGranted.Add(ctx, 1)
	r.emit(ctx, "session_extended",
		otellog.String("user_id", userID),
		otellog.String("session_id", sessionID),
		otellog.String("extension_count", strconv.Itoa(count)))
}

// ExtensionDenied records a policy rejection for role.
func (r *Recorder) ExtensionDenied(ctx context.Context, role string) {
	if r == nil {
		return
	}
	r.extensionsDenied.Add(ctx, 1)
	r.emit(ctx, "extension_denied", otellog.String("role", role))
}

// ForcedLogout records a forced logout with its reason.
func (r *Recorder) ForcedLogout(ctx context.Context, userID, reason string) {
	if r == nil {
		return
	}
	r.forcedLogouts.Add(ctx, 1)
	r.emit(ctx, "forced_logout",
		otellog.String("user_id", userID),
		otellog.String("reason", reason))
}

// PollCycle records one expiration check.
func (r *Recorder) PollCycle(ctx context.Context) {
	if r == nil {
		return
	}
	r.pollCycles.Add(ctx, 1)
}

func (r *Recorder) emit(ctx context.Context, eventType string, attrs ...otellog.KeyValue) {
	if r.logger == nil {
		return
	}
	rec := otellog.Record{}
	rec.SetTimestamp(time.Now().UTC())
	rec.SetBody(otellog.StringValue(eventType))
	rec.AddAttributes(otellog.String("event_type", eventType))
	rec.AddAttributes(attrs...)
	r.logger.Emit(ctx, rec)
}
