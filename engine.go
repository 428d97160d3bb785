package accountkit

import (
	"context"
	"errors"
	"fmt"
	"time"

	internalaudit "github.com/onyinyechiekezie/accountkit/internal/audit"
	"github.com/onyinyechiekezie/accountkit/internal/attempts"
)

// Engine owns the account lifecycle state machine: signup, email
// verification, login, and verification resend. Construct one with
// [Builder.Build]; it is immutable afterwards and safe for concurrent use
// when its collaborators are.
type Engine struct {
	config   Config
	repo     AccountRepository
	hasher   CredentialHasher
	tokens   TokenSource
	notifier Notifier
	sessions SessionIssuer
	limiter  *attempts.Limiter
	audit    *internalaudit.Dispatcher
	metrics  *Metrics
	now      func() time.Time
}

// Close flushes the audit dispatcher. The engine must not be used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// AuditDropped reports how many audit events were shed because the buffer
// was full. Only non-zero when AuditConfig.DropIfFull is set.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// LoginFailures reports the in-window failed login count for identity.
func (e *Engine) LoginFailures(identity string) int {
	if e == nil || e.limiter == nil {
		return 0
	}
	return e.limiter.Failures(identity, e.now())
}

func (e *Engine) ready() error {
	if e == nil || e.repo == nil || e.hasher == nil || e.tokens == nil {
		return ErrEngineNotReady
	}
	return nil
}

// notifyVerification triggers the notifier as a fire-and-forget side effect.
// Delivery failures are audited and counted, never surfaced: the state
// transition that preceded the send is already committed.
func (e *Engine) notifyVerification(ctx context.Context, identity, token string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.SendVerification(ctx, identity, token); err != nil {
		e.metricInc(MetricNotifyFailure)
		e.emitAudit(ctx, auditEventNotifyFailure, false, identity, err, nil)
	}
}

const tokenRefreshAttempts = 3

// refreshVerification replaces the account's live token and expiry and
// persists the change. Concurrent writers race last-write-wins: on a version
// or token collision the account is re-read and the write retried, so the
// most recent caller's token ends up being the only valid one. Returns
// [ErrAccountAlreadyVerified] if a concurrent verify won in the meantime.
func (e *Engine) refreshVerification(ctx context.Context, account *Account) (*Account, error) {
	for attempt := 0; ; attempt++ {
		token, err := e.tokens.NewToken()
		if err != nil {
			return nil, fmt.Errorf("%w: token source: %v", ErrStorageUnavailable, err)
		}

		next := account.Clone()
		next.Status = StatusPendingVerification
		next.VerificationToken = token
		next.TokenExpiry = e.now().Add(e.config.Verification.TokenTTL)

		saved, err := e.repo.Save(ctx, next)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, ErrVersionConflict) && !errors.Is(err, ErrDuplicateToken) {
			return nil, err
		}
		if attempt+1 >= tokenRefreshAttempts {
			return nil, fmt.Errorf("%w: token refresh contention", ErrStorageUnavailable)
		}

		current, err := e.repo.FindByIdentity(ctx, account.Identity)
		if err != nil {
			return nil, err
		}
		if current.Status == StatusVerified {
			return nil, ErrAccountAlreadyVerified
		}
		account = current
	}
}
