package accountkit

import (
	"context"
	"errors"
)

// Signup registers identity with secret and sends a verification link.
//
// Against a verified account it fails with [ErrIdentityAlreadyVerified] and
// writes nothing. Against a pending account it replaces the live token,
// sends a fresh link, and fails with the soft error
// [ErrVerificationAlreadyPending]: the caller learns a link was resent, not
// that a new account exists. Otherwise a new pending account is created and
// the result includes the verification token. That exposure is deliberate
// and limited to this initial-creation path.
func (e *Engine) Signup(ctx context.Context, identity, secret string) (*SignupResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	if err := validateIdentity(identity); err != nil {
		e.metricInc(MetricSignupRejected)
		e.emitAudit(ctx, auditEventSignupRejected, false, identity, err, func() map[string]string {
			return map[string]string{
				"reason": "identity_format",
			}
		})
		return nil, err
	}

	existing, err := e.repo.FindByIdentity(ctx, identity)
	switch {
	case err == nil:
		return e.signupExisting(ctx, existing)
	case errors.Is(err, ErrAccountNotFound):
		return e.signupCreate(ctx, identity, secret)
	default:
		return nil, err
	}
}

func (e *Engine) signupExisting(ctx context.Context, account *Account) (*SignupResult, error) {
	if account.Status == StatusVerified {
		e.metricInc(MetricSignupRejected)
		e.emitAudit(ctx, auditEventSignupRejected, false, account.Identity, ErrIdentityAlreadyVerified, nil)
		return nil, ErrIdentityAlreadyVerified
	}

	refreshed, err := e.refreshVerification(ctx, account)
	if err != nil {
		if errors.Is(err, ErrAccountAlreadyVerified) {
			// A concurrent verify won while we were reissuing.
			e.metricInc(MetricSignupRejected)
			e.emitAudit(ctx, auditEventSignupRejected, false, account.Identity, ErrIdentityAlreadyVerified, nil)
			return nil, ErrIdentityAlreadyVerified
		}
		return nil, err
	}

	e.notifyVerification(ctx, refreshed.Identity, refreshed.VerificationToken)

	e.metricInc(MetricSignupPendingResent)
	e.emitAudit(ctx, auditEventSignupPendingResent, true, refreshed.Identity, nil, nil)
	return nil, ErrVerificationAlreadyPending
}

func (e *Engine) signupCreate(ctx context.Context, identity, secret string) (*SignupResult, error) {
	hash, err := e.hasher.Hash(secret)
	if err != nil {
		return nil, err
	}
	token, err := e.tokens.NewToken()
	if err != nil {
		return nil, err
	}

	now := e.now()
	account := &Account{
		Identity:          identity,
		CredentialHash:    hash,
		Status:            StatusPendingVerification,
		VerificationToken: token,
		TokenExpiry:       now.Add(e.config.Verification.TokenTTL),
		CreatedAt:         now,
	}

	saved, err := e.repo.Save(ctx, account)
	if err != nil {
		if errors.Is(err, ErrDuplicateIdentity) {
			// Lost a creation race; treat it as signup against the account
			// that beat us.
			current, ferr := e.repo.FindByIdentity(ctx, identity)
			if ferr != nil {
				return nil, ferr
			}
			return e.signupExisting(ctx, current)
		}
		return nil, err
	}

	e.notifyVerification(ctx, saved.Identity, saved.VerificationToken)

	e.metricInc(MetricSignupSuccess)
	e.emitAudit(ctx, auditEventSignupSuccess, true, saved.Identity, nil, nil)

	return &SignupResult{
		Message:           "Account created, please verify your email",
		Identity:          saved.Identity,
		Status:            saved.Status,
		VerificationToken: saved.VerificationToken,
	}, nil
}
