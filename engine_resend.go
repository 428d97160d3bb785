package accountkit

import (
	"context"
	"errors"
)

// ResendVerification issues a fresh verification token for a pending
// account and sends a new link. The previous token becomes permanently
// invalid. Safe to call repeatedly; each call produces a new token.
func (e *Engine) ResendVerification(ctx context.Context, identity string) error {
	if err := e.ready(); err != nil {
		return err
	}

	account, err := e.repo.FindByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.metricInc(MetricResendFailure)
			e.emitAudit(ctx, auditEventResendFailure, false, identity, ErrAccountNotFound, nil)
			return ErrAccountNotFound
		}
		return err
	}

	if account.Status == StatusVerified {
		e.metricInc(MetricResendFailure)
		e.emitAudit(ctx, auditEventResendFailure, false, identity, ErrAccountAlreadyVerified, nil)
		return ErrAccountAlreadyVerified
	}

	refreshed, err := e.refreshVerification(ctx, account)
	if err != nil {
		if errors.Is(err, ErrAccountAlreadyVerified) {
			e.metricInc(MetricResendFailure)
			e.emitAudit(ctx, auditEventResendFailure, false, identity, ErrAccountAlreadyVerified, nil)
			return ErrAccountAlreadyVerified
		}
		return err
	}

	e.notifyVerification(ctx, refreshed.Identity, refreshed.VerificationToken)

	e.metricInc(MetricResendSuccess)
	e.emitAudit(ctx, auditEventResendSuccess, true, identity, nil, nil)
	return nil
}
