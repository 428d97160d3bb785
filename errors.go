package accountkit

import "errors"

var (
	// ErrInvalidIdentityFormat rejects identities that do not look like an
	// email address. Storage is never touched on this path.
	ErrInvalidIdentityFormat = errors.New("invalid identity format")
	// ErrIdentityAlreadyVerified rejects signup against a verified account.
	ErrIdentityAlreadyVerified = errors.New("identity already verified")
	// ErrVerificationAlreadyPending is the soft error for signup against a
	// pending account: a fresh link was sent, no new account was created.
	ErrVerificationAlreadyPending = errors.New("verification already pending, link resent")
	// ErrTokenInvalid covers unknown, already-cleared, and never-issued tokens.
	ErrTokenInvalid = errors.New("invalid verification token")
	// ErrTokenExpired means the token was found but its expiry has passed.
	// The account stays pending and the token stays in place until a resend
	// supersedes it.
	ErrTokenExpired = errors.New("verification token expired")
	// ErrTokenAlreadyUsed means the account behind the token is already
	// verified; the token was replayed.
	ErrTokenAlreadyUsed = errors.New("verification token already used")
	// ErrRateLimitExceeded rejects login before the repository or hasher
	// are consulted.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrInvalidCredentials is identical for unknown identities and wrong
	// secrets; it leaks nothing about account existence.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailNotVerified rejects login on a pending account. A fresh
	// verification link has already been sent when this is returned.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrAccountNotFound is returned by resend and by repositories on a miss.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountAlreadyVerified rejects resend for a verified account.
	ErrAccountAlreadyVerified = errors.New("account already verified")

	// ErrStorageUnavailable wraps repository faults.
	ErrStorageUnavailable = errors.New("account storage unavailable")
	// ErrSessionUnavailable wraps session issuance faults.
	ErrSessionUnavailable = errors.New("session issuer unavailable")
	// ErrEngineNotReady is returned when the engine is missing a mandatory
	// collaborator.
	ErrEngineNotReady = errors.New("engine not initialized")

	// ErrVersionConflict is the repository's optimistic-concurrency
	// rejection: the record changed since it was read.
	ErrVersionConflict = errors.New("account version conflict")
	// ErrDuplicateIdentity rejects creating an account whose identity exists.
	ErrDuplicateIdentity = errors.New("duplicate identity")
	// ErrDuplicateToken rejects a save that would give two accounts the same
	// live verification token.
	ErrDuplicateToken = errors.New("duplicate verification token")
)

// Kind is the stable machine-readable classification exposed to transport
// layers. Every domain error maps to exactly one kind.
type Kind string

const (
	KindInvalidIdentityFormat   Kind = "INVALID_IDENTITY_FORMAT"
	KindIdentityAlreadyVerified Kind = "IDENTITY_ALREADY_VERIFIED"
	KindVerificationPending     Kind = "VERIFICATION_PENDING"
	KindTokenInvalid            Kind = "TOKEN_INVALID"
	KindTokenExpired            Kind = "TOKEN_EXPIRED"
	KindTokenAlreadyUsed        Kind = "TOKEN_ALREADY_USED"
	KindRateLimited             Kind = "RATE_LIMITED"
	KindInvalidCredentials      Kind = "INVALID_CREDENTIALS"
	KindEmailNotVerified        Kind = "EMAIL_NOT_VERIFIED"
	KindAccountNotFound         Kind = "ACCOUNT_NOT_FOUND"
	KindAccountAlreadyVerified  Kind = "ACCOUNT_ALREADY_VERIFIED"
	KindInfrastructure          Kind = "INFRASTRUCTURE"
)

// KindOf classifies err. Unrecognized errors, including repository and
// session faults, collapse into [KindInfrastructure] so internals never
// leak upward. KindOf(nil) is the empty kind.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidIdentityFormat):
		return KindInvalidIdentityFormat
	case errors.Is(err, ErrIdentityAlreadyVerified):
		return KindIdentityAlreadyVerified
	case errors.Is(err, ErrVerificationAlreadyPending):
		return KindVerificationPending
	case errors.Is(err, ErrTokenInvalid):
		return KindTokenInvalid
	case errors.Is(err, ErrTokenExpired):
		return KindTokenExpired
	case errors.Is(err, ErrTokenAlreadyUsed):
		return KindTokenAlreadyUsed
	case errors.Is(err, ErrRateLimitExceeded):
		return KindRateLimited
	case errors.Is(err, ErrInvalidCredentials):
		return KindInvalidCredentials
	case errors.Is(err, ErrEmailNotVerified):
		return KindEmailNotVerified
	case errors.Is(err, ErrAccountNotFound):
		return KindAccountNotFound
	case errors.Is(err, ErrAccountAlreadyVerified):
		return KindAccountAlreadyVerified
	default:
		return KindInfrastructure
	}
}
