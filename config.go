package accountkit

import (
	"errors"
	"time"
)

// Config tunes the engine. Zero values are filled in from defaultConfig by
// the [Builder]; a fully custom Config must pass Validate.
type Config struct {
	Verification VerificationConfig
	RateLimit    RateLimitConfig
	Password     PasswordConfig
	Session      SessionConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

// VerificationConfig controls token lifetime and link construction.
type VerificationConfig struct {
	// TokenTTL is the horizon after which a live token stops verifying.
	TokenTTL time.Duration
	// LinkBaseURL is the externally visible verification endpoint; the
	// token is appended as a ?token= query parameter.
	LinkBaseURL string
}

// RateLimitConfig controls the sliding-window login failure limiter.
type RateLimitConfig struct {
	// Window is the tracking horizon; failures older than now-Window no
	// longer count.
	Window time.Duration
	// MaxFailures is the threshold at which login is rejected outright.
	MaxFailures int
}

// PasswordConfig carries the argon2id parameters for the default hasher.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// SessionConfig configures the default session token issuer.
type SessionConfig struct {
	TTL           time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull sheds events instead of blocking emitters when the buffer
	// is full. Dropped counts are reported by [Engine.AuditDropped].
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the configuration the [Builder] starts from: 24h
// verification tokens, 5 failures per 10 minute login window, and argon2id
// costs suitable for a server. Session signing material is left empty and
// must be supplied before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Verification: VerificationConfig{
			TokenTTL:    24 * time.Hour,
			LinkBaseURL: "http://localhost:8080/api/v1/auth/verify",
		},
		RateLimit: RateLimitConfig{
			Window:      10 * time.Minute,
			MaxFailures: 5,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Session: SessionConfig{
			TTL:           time.Hour,
			SigningMethod: "hs256",
			Issuer:        "accountkit",
		},
		Audit: AuditConfig{
			BufferSize: 256,
		},
	}
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.Verification.TokenTTL <= 0 {
		return errors.New("verification token TTL must be positive")
	}
	if c.RateLimit.Window <= 0 {
		return errors.New("rate limit window must be positive")
	}
	if c.RateLimit.MaxFailures <= 0 {
		return errors.New("rate limit failure threshold must be positive")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session TTL must be positive")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("audit buffer size must be positive when audit is enabled")
	}
	return nil
}

func cloneConfig(c Config) Config {
	out := c
	out.Session.PrivateKey = cloneBytes(c.Session.PrivateKey)
	out.Session.PublicKey = cloneBytes(c.Session.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
