package accountkit

import (
	"context"
	"time"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus uint8

const (
	// StatusPendingVerification marks an account whose email ownership has
	// not been proven yet. A live verification token is always present.
	StatusPendingVerification AccountStatus = iota
	// StatusVerified marks an account whose email ownership was proven.
	// Token and expiry are always cleared. The transition is one-way.
	StatusVerified
)

func (s AccountStatus) String() string {
	switch s {
	case StatusPendingVerification:
		return "PENDING_VERIFICATION"
	case StatusVerified:
		return "VERIFIED"
	default:
		return "UNKNOWN"
	}
}

// Account is the durable entity managed by the engine.
//
// Invariants, enforced by the engine and the repository together:
//
//   - StatusVerified implies VerificationToken == "" and TokenExpiry.IsZero().
//   - StatusPendingVerification implies VerificationToken != "".
//   - A non-empty VerificationToken is unique across all accounts.
//   - Identity is unique and immutable once created.
type Account struct {
	// Identity is the case-sensitive email address keying the account.
	Identity string
	// CredentialHash is the opaque one-way hash of the secret. The raw
	// secret is never stored.
	CredentialHash string
	Status         AccountStatus
	// VerificationToken is the live token, empty once verified.
	VerificationToken string
	// TokenExpiry is the instant the live token stops being acceptable.
	// Zero iff VerificationToken is empty.
	TokenExpiry time.Time
	// Version is the optimistic-concurrency counter. [AccountRepository.Save]
	// rejects writes whose Version does not match the stored record, which
	// is what makes the verify transition at-most-one-winner.
	Version   uint64
	CreatedAt time.Time
}

// Clone returns a deep copy. Repositories hand out clones so callers cannot
// alias stored state.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

// AccountRepository is the durable store contract. Implementations must be
// safe for concurrent use.
//
// Save is an upsert guarded by Account.Version: a new account must carry
// Version 0, an update must carry the Version it was read with. On success
// the stored record's version is advanced and the updated account returned.
// Save enforces identity uniqueness ([ErrDuplicateIdentity]) and, for
// non-empty tokens, system-wide token uniqueness ([ErrDuplicateToken]).
// Storage faults are reported wrapped in [ErrStorageUnavailable].
type AccountRepository interface {
	// FindByIdentity returns the account keyed by identity, or
	// [ErrAccountNotFound].
	FindByIdentity(ctx context.Context, identity string) (*Account, error)
	// FindByLiveToken returns the account currently holding token as its
	// live verification token, or [ErrAccountNotFound]. Expired-but-uncleared
	// tokens are still live; expiry is the engine's judgement, not the
	// repository's.
	FindByLiveToken(ctx context.Context, token string) (*Account, error)
	// Save upserts the account under the optimistic version check and
	// returns the stored record.
	Save(ctx context.Context, account *Account) (*Account, error)
}

// CredentialHasher is the one-way secret hashing capability. Hash output is
// self-describing (salt and parameters travel inside the encoded string).
type CredentialHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, encodedHash string) (bool, error)
}

// TokenSource yields unguessable, effectively unique verification tokens.
type TokenSource interface {
	NewToken() (string, error)
}

// Notifier delivers a verification link for token to the identity's address.
// Errors are absorbed by the engine; delivery is the notifier's concern.
type Notifier interface {
	SendVerification(ctx context.Context, identity, token string) error
}

// SessionIssuer mints the bearer token returned by a successful login.
type SessionIssuer interface {
	Mint(identity string) (string, error)
}

// SignupResult is returned by [Engine.Signup] when a new account was created.
// VerificationToken is exposed on this path only, as a documented exception
// for API clients that drive the verification step themselves.
type SignupResult struct {
	Message           string
	Identity          string
	Status            AccountStatus
	VerificationToken string
}

// VerifyResult is returned by [Engine.VerifyEmail].
type VerifyResult struct {
	Identity string
	Message  string
	Status   AccountStatus
}

// LoginResult is returned by [Engine.Login].
type LoginResult struct {
	Identity     string
	Message      string
	SessionToken string
	Status       AccountStatus
}
