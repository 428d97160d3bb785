package accountkit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoginSuccess(t *testing.T) {
	fx := newTestEngine(t)
	ctx := context.Background()

	verifiedAccount(t, fx, "alice@example.com", "correct-horse")

	result, err := fx.engine.Login(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.Message != "Login successful" {
		t.Errorf("unexpected message: %q", result.Message)
	}
	if result.SessionToken == "" {
		t.Error("expected a session token")
	}
	if result.Status != StatusVerified {
		t.Errorf("status = %v, want verified", result.Status)
	}
}

func TestLoginWrongSecret(t *testing.T) {
	fx := newTestEngine(t)
	ctx := context.Background()

	verifiedAccount(t, fx, "alice@example.com", "correct-horse")

	if _, err := fx.engine.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login error = %v, want ErrInvalidCredentials", err)
	}
	if got := fx.engine.LoginFailures("alice@example.com"); got != 1 {
		t.Errorf("failure count = %d, want 1", got)
	}
}

func TestLoginUnknownIdentityIndistinguishable(t *testing.T) {
	fx := newTestEngine(t)
	ctx := context.Background()

	verifiedAccount(t, fx, "alice@example.com", "correct-horse")

	known := func() error {
		_, err := fx.engine.Login(ctx, "alice@example.com", "wrong")
		return err
	}()
	unknown := func() error {
		_, err := fx.engine.Login(ctx, "ghost@example.com", "wrong")
		return err
	}()

	if !errors.Is(known, ErrInvalidCredentials) || !errors.Is(unknown, ErrInvalidCredentials) {
		t.Fatalf("known = %v, unknown = %v; both must be ErrInvalidCredentials", known, unknown)
	}
	if known.Error() != unknown.Error() {
		t.Error("existing and missing identities must fail identically")
	}
}

func TestLoginRateLimitLocksOutAndRecovers(t *testing.T) {
	fx := newTestEngine(t)
	ctx := context.Background()

	verifiedAccount(t, fx, "alice@example.com", "correct-horse")
	max := fx.engine.config.RateLimit.MaxFailures

	for i := 0; i < max; i++ {
		if _, err := fx.engine.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d error = %v, want ErrInvalidCredentials", i+1, err)
		}
	}

	// Even the correct secret is rejected once the threshold is hit.
	if _, err := fx.engine.Login(ctx, "alice@example.com", "correct-horse"); !errors.Is(err, ErrRateLimitExceeded) {
		t.Fatalf("Login error = %v, want ErrRateLimitExceeded", err)
	}

	fx.clock.Advance(fx.engine.config.RateLimit.Window + time.Second)

	result, err := fx.engine.Login(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login after window failed: %v", err)
	}
	if result.SessionToken == "" {
		t.Error("expected session token after window elapsed")
	}
	if got := fx.engine.LoginFailures("alice@example.com"); got != 0 {
		t.Errorf("failure count after success = %d, want 0", got)
	}
}

func TestLoginRateLimitedBeforeCredentialCheck(t *testing.T) {
	fx := newTestEngine(t)
	ctx := context.Background()

	verifiedAccount(t, fx, "alice@example.com", "correct-horse")
	for i := 0; i < fx.engine.config.RateLimit.MaxFailures; i++ {
		fx.engine.Login(ctx, "alice@example.com", "wrong")
	}
	failures := fx.engine.LoginFailures("alice@example.com")

	if _, err := fx.engine.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, ErrRateLimitExceeded) {
		t.Fatalf("Login error = %v, want ErrRateLimitExceeded", err)
	}
	if got := fx.engine.LoginFailures("alice@example.com"); got != failures {
		t.Errorf("limited attempt recorded a failure: %d -> %d", failures, got)
	}
}

func TestLoginUnverifiedSendsOneFreshLink(t *testing.T) {
	fx := newTestEngine(t)
	ctx := context.Background()

	original := signupPending(t, fx, "alice@example.com", "correct-horse")
	sendsBefore := fx.notifier.count()

	result, err := fx.engine.Login(ctx, "alice@example.com", "correct-horse")
	if !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("Login error = %v, want ErrEmailNotVerified", err)
	}
	if result != nil {
		t.Errorf("expected nil result, got %+v", result)
	}

	if got := fx.notifier.count(); got != sendsBefore+1 {
		t.Fatalf("expected exactly one additional send, got %d", got-sendsBefore)
	}
	fresh := fx.notifier.last(t).token
	if fresh == original {
		t.Error("unverified login must issue a fresh token")
	}

	// A correct secret against a pending account is not a failed credential.
	if got := fx.engine.LoginFailures("alice@example.com"); got != 0 {
		t.Errorf("failure count = %d, want 0", got)
	}

	if _, err := fx.engine.VerifyEmail(ctx, original); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("old token error = %v, want ErrTokenInvalid", err)
	}
	if _, err := fx.engine.VerifyEmail(ctx, fresh); err != nil {
		t.Fatalf("fresh token verify failed: %v", err)
	}

	if _, err := fx.engine.Login(ctx, "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("Login after verification failed: %v", err)
	}
}

func TestLoginUnverifiedWrongSecretStaysGeneric(t *testing.T) {
	fx := newTestEngine(t)
	ctx := context.Background()

	signupPending(t, fx, "alice@example.com", "correct-horse")
	sends := fx.notifier.count()

	// A wrong secret must not disclose the pending state or trigger mail.
	if _, err := fx.engine.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login error = %v, want ErrInvalidCredentials", err)
	}
	if fx.notifier.count() != sends {
		t.Error("wrong secret against pending account must not send mail")
	}
	if got := fx.engine.LoginFailures("alice@example.com"); got != 1 {
		t.Errorf("failure count = %d, want 1", got)
	}
}

func TestLoginSessionIssuerFailure(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	repo := NewMemoryRepository()

	engine, err := New().
		WithConfig(testEngineConfig()).
		WithRepository(repo).
		WithSessionIssuer(failingIssuer{}).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	ctx := context.Background()
	result, err := engine.Signup(ctx, "alice@example.com", "pw")
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if _, err := engine.VerifyEmail(ctx, result.VerificationToken); err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}

	if _, err := engine.Login(ctx, "alice@example.com", "pw"); !errors.Is(err, ErrSessionUnavailable) {
		t.Fatalf("Login error = %v, want ErrSessionUnavailable", err)
	}
}

type failingIssuer struct{}

func (failingIssuer) Mint(string) (string, error) {
	return "", errors.New("signer offline")
}
