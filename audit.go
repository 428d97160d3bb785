package accountkit

import (
	"context"
	"errors"
	"io"
	"time"

	internalaudit "github.com/onyinyechiekezie/accountkit/internal/audit"
)

const (
	auditEventSignupSuccess       = "signup_success"
	auditEventSignupRejected      = "signup_rejected"
	auditEventSignupPendingResent = "signup_pending_resent"
	auditEventVerifySuccess       = "verify_success"
	auditEventVerifyFailure       = "verify_failure"
	auditEventLoginSuccess        = "login_success"
	auditEventLoginFailure        = "login_failure"
	auditEventLoginUnverified     = "login_unverified"
	auditEventResendSuccess       = "resend_success"
	auditEventResendFailure       = "resend_failure"
	auditEventRateLimitTriggered  = "rate_limit_triggered"
	auditEventNotifyFailure       = "notify_failure"
)

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer], one object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	identity string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Identity:  identity,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = code
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) emitRateLimit(ctx context.Context, identity string) {
	e.metricInc(MetricRateLimitHit)
	e.emitAudit(ctx, auditEventRateLimitTriggered, false, identity, nil, func() map[string]string {
		return map[string]string{
			"scope": "login",
		}
	})
}

func auditErrorCode(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidIdentityFormat):
		return "invalid_identity"
	case errors.Is(err, ErrIdentityAlreadyVerified),
		errors.Is(err, ErrAccountAlreadyVerified):
		return "already_verified"
	case errors.Is(err, ErrVerificationAlreadyPending):
		return "verification_pending"
	case errors.Is(err, ErrTokenInvalid):
		return "invalid_token"
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrTokenAlreadyUsed):
		return "token_used"
	case errors.Is(err, ErrRateLimitExceeded):
		return "rate_limited"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrEmailNotVerified):
		return "email_not_verified"
	case errors.Is(err, ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, ErrStorageUnavailable),
		errors.Is(err, ErrSessionUnavailable):
		return "backend_unavailable"
	default:
		return "internal_error"
	}
}
