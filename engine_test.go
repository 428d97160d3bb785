package accountkit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{t: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type sentMail struct {
	identity string
	token    string
}

type recordingNotifier struct {
	mu    sync.Mutex
	sends []sentMail
	fail  error
}

func (n *recordingNotifier) SendVerification(_ context.Context, identity, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.sends = append(n.sends, sentMail{identity: identity, token: token})
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sends)
}

func (n *recordingNotifier) last(t *testing.T) sentMail {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sends) == 0 {
		t.Fatal("expected at least one verification send")
	}
	return n.sends[len(n.sends)-1]
}

type seqTokenSource struct {
	mu sync.Mutex
	n  int
}

func (s *seqTokenSource) NewToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("token-%d", s.n), nil
}

type engineFixture struct {
	engine   *Engine
	repo     *MemoryRepository
	notifier *recordingNotifier
	clock    *fakeClock
}

func testEngineConfig() Config {
	cfg := defaultConfig()
	cfg.Password = PasswordConfig{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}
	cfg.Session.PrivateKey = []byte("unit-test-signing-secret")
	cfg.Metrics.Enabled = true
	return cfg
}

func newTestEngine(t *testing.T) *engineFixture {
	t.Helper()

	clock := newFakeClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	repo := NewMemoryRepository()
	notifier := &recordingNotifier{}

	engine, err := New().
		WithConfig(testEngineConfig()).
		WithRepository(repo).
		WithNotifier(notifier).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return &engineFixture{
		engine:   engine,
		repo:     repo,
		notifier: notifier,
		clock:    clock,
	}
}

// signupPending registers identity and returns the live verification token.
func signupPending(t *testing.T, fx *engineFixture, identity, secret string) string {
	t.Helper()

	result, err := fx.engine.Signup(context.Background(), identity, secret)
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if result.VerificationToken == "" {
		t.Fatal("expected verification token on signup")
	}
	return result.VerificationToken
}

// verifiedAccount registers identity and completes email verification.
func verifiedAccount(t *testing.T, fx *engineFixture, identity, secret string) {
	t.Helper()

	token := signupPending(t, fx, identity, secret)
	if _, err := fx.engine.VerifyEmail(context.Background(), token); err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}
}

func mustFind(t *testing.T, repo *MemoryRepository, identity string) *Account {
	t.Helper()

	account, err := repo.FindByIdentity(context.Background(), identity)
	if err != nil {
		t.Fatalf("FindByIdentity(%q) failed: %v", identity, err)
	}
	return account
}
