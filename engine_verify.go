package accountkit

import (
	"context"
	"errors"
	"time"
)

// VerifyEmail redeems a verification token and moves the account to
// [StatusVerified], clearing the token and its expiry.
//
// The transition is at-most-one-winner: of two concurrent calls with the
// same token exactly one succeeds, and the loser observes [ErrTokenInvalid]
// or [ErrTokenAlreadyUsed]. An expired token fails with [ErrTokenExpired]
// and is left in place so a later resend supersedes it.
func (e *Engine) VerifyEmail(ctx context.Context, token string) (*VerifyResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if token == "" {
		e.metricInc(MetricVerifyFailure)
		e.emitAudit(ctx, auditEventVerifyFailure, false, "", ErrTokenInvalid, func() map[string]string {
			return map[string]string{
				"reason": "empty_token",
			}
		})
		return nil, ErrTokenInvalid
	}

	account, err := e.repo.FindByLiveToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.metricInc(MetricVerifyFailure)
			e.emitAudit(ctx, auditEventVerifyFailure, false, "", ErrTokenInvalid, nil)
			return nil, ErrTokenInvalid
		}
		return nil, err
	}

	// Should be unreachable while the token-clearing invariant holds, but a
	// replay can slip in between the index read and the clear.
	if account.Status == StatusVerified {
		e.metricInc(MetricVerifyFailure)
		e.emitAudit(ctx, auditEventVerifyFailure, false, account.Identity, ErrTokenAlreadyUsed, nil)
		return nil, ErrTokenAlreadyUsed
	}

	if !account.TokenExpiry.IsZero() && !e.now().Before(account.TokenExpiry) {
		e.metricInc(MetricVerifyFailure)
		e.emitAudit(ctx, auditEventVerifyFailure, false, account.Identity, ErrTokenExpired, nil)
		return nil, ErrTokenExpired
	}

	next := account.Clone()
	next.Status = StatusVerified
	next.VerificationToken = ""
	next.TokenExpiry = time.Time{}

	saved, err := e.repo.Save(ctx, next)
	if err != nil {
		if errors.Is(err, ErrVersionConflict) {
			return nil, e.verifyConflict(ctx, account.Identity)
		}
		return nil, err
	}

	e.metricInc(MetricVerifySuccess)
	e.emitAudit(ctx, auditEventVerifySuccess, true, saved.Identity, nil, nil)

	return &VerifyResult{
		Identity: saved.Identity,
		Message:  "Email verified successfully. You can now log in.",
		Status:   saved.Status,
	}, nil
}

// verifyConflict classifies a lost verify race: the account changed under
// us, so either the winner already verified it, or a token refresh made our
// token stale.
func (e *Engine) verifyConflict(ctx context.Context, identity string) error {
	var lost error = ErrTokenInvalid
	if current, err := e.repo.FindByIdentity(ctx, identity); err == nil && current.Status == StatusVerified {
		lost = ErrTokenAlreadyUsed
	}

	e.metricInc(MetricVerifyFailure)
	e.emitAudit(ctx, auditEventVerifyFailure, false, identity, lost, func() map[string]string {
		return map[string]string{
			"reason": "lost_verify_race",
		}
	})
	return lost
}
