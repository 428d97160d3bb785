package accountkit

import (
	"context"
	"errors"
	"fmt"
)

// Login authenticates identity with secret and mints a session token.
//
// The rate limiter is consulted before storage or hashing: a limited
// identity is rejected with [ErrRateLimitExceeded] without revealing
// whether it exists. Unknown identities and wrong secrets both fail with
// the indistinguishable [ErrInvalidCredentials]. A correct secret against a
// pending account triggers one fresh verification send and fails with
// [ErrEmailNotVerified]. Success clears the identity's failure record.
func (e *Engine) Login(ctx context.Context, identity, secret string) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if e.sessions == nil || e.limiter == nil {
		return nil, ErrEngineNotReady
	}

	if e.limiter.Limited(identity, e.now()) {
		e.metricInc(MetricLoginRateLimited)
		e.emitRateLimit(ctx, identity)
		e.emitAudit(ctx, auditEventLoginFailure, false, identity, ErrRateLimitExceeded, nil)
		return nil, ErrRateLimitExceeded
	}

	account, err := e.repo.FindByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, identity, ErrInvalidCredentials, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := e.hasher.Verify(secret, account.CredentialHash)
	if err != nil || !ok {
		e.limiter.RecordFailure(identity, e.now())
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, identity, ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	if account.Status != StatusVerified {
		return nil, e.loginUnverified(ctx, account)
	}

	e.limiter.Reset(identity)

	sessionToken, err := e.sessions.Mint(account.Identity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, account.Identity, nil, nil)

	return &LoginResult{
		Identity:     account.Identity,
		Message:      "Login successful",
		SessionToken: sessionToken,
		Status:       account.Status,
	}, nil
}

// loginUnverified handles a correct secret against a pending account: a
// fresh link is issued and sent so the caller can complete verification
// without a separate resend call, then the login itself fails.
func (e *Engine) loginUnverified(ctx context.Context, account *Account) error {
	refreshed, err := e.refreshVerification(ctx, account)
	if err != nil {
		if errors.Is(err, ErrAccountAlreadyVerified) {
			// Verified between the credential check and the refresh; make
			// the caller retry rather than minting off stale state.
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, account.Identity, ErrInvalidCredentials, nil)
			return ErrInvalidCredentials
		}
		return err
	}

	e.notifyVerification(ctx, refreshed.Identity, refreshed.VerificationToken)

	e.metricInc(MetricLoginUnverified)
	e.emitAudit(ctx, auditEventLoginUnverified, false, account.Identity, ErrEmailNotVerified, nil)
	return ErrEmailNotVerified
}
