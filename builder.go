package accountkit

import (
	"errors"
	"time"

	"github.com/onyinyechiekezie/accountkit/internal/attempts"
	internalaudit "github.com/onyinyechiekezie/accountkit/internal/audit"
	"github.com/onyinyechiekezie/accountkit/jwt"
	"github.com/onyinyechiekezie/accountkit/password"
)

// Builder assembles an [Engine]. A repository is mandatory; every other
// collaborator has a default: argon2id hashing, UUID tokens, a no-op
// notifier, and a JWT session issuer built from [SessionConfig].
type Builder struct {
	config Config

	repo      AccountRepository
	hasher    CredentialHasher
	tokens    TokenSource
	notifier  Notifier
	sessions  SessionIssuer
	auditSink AuditSink
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRepository sets the durable account store. Required.
func (b *Builder) WithRepository(repo AccountRepository) *Builder {
	b.repo = repo
	return b
}

// WithHasher overrides the default argon2id credential hasher.
func (b *Builder) WithHasher(h CredentialHasher) *Builder {
	b.hasher = h
	return b
}

// WithTokenSource overrides the default UUID token source.
func (b *Builder) WithTokenSource(ts TokenSource) *Builder {
	b.tokens = ts
	return b
}

// WithNotifier sets the verification link deliverer.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithSessionIssuer overrides the default JWT session issuer. When set,
// SessionConfig signing material is not required.
func (b *Builder) WithSessionIssuer(s SessionIssuer) *Builder {
	b.sessions = s
	return b
}

// WithAuditSink enables auditing into sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithClock injects the time source used for token expiry and the rate
// limit window. Defaults to [time.Now].
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates configuration and wiring and returns the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.repo == nil {
		return nil, errors.New("account repository required")
	}

	engine := &Engine{
		config:   cfg,
		repo:     b.repo,
		hasher:   b.hasher,
		tokens:   b.tokens,
		notifier: b.notifier,
		sessions: b.sessions,
		now:      b.now,
	}

	if engine.now == nil {
		engine.now = time.Now
	}
	if engine.tokens == nil {
		engine.tokens = UUIDTokenSource{}
	}
	if engine.notifier == nil {
		engine.notifier = noopNotifier{}
	}

	if engine.hasher == nil {
		ph, err := password.NewArgon2(password.Config{
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
		})
		if err != nil {
			return nil, err
		}
		engine.hasher = ph
	}

	if engine.sessions == nil {
		if len(cfg.Session.PrivateKey) == 0 {
			return nil, errors.New("session signing key required (or provide a SessionIssuer)")
		}
		jm, err := jwt.NewManager(jwt.Config{
			TTL:           cfg.Session.TTL,
			SigningMethod: jwt.SigningMethod(cfg.Session.SigningMethod),
			PrivateKey:    cloneBytes(cfg.Session.PrivateKey),
			PublicKey:     cloneBytes(cfg.Session.PublicKey),
			Issuer:        cfg.Session.Issuer,
		})
		if err != nil {
			return nil, err
		}
		engine.sessions = jm
	}

	engine.limiter = attempts.New(attempts.Config{
		Window:      cfg.RateLimit.Window,
		MaxFailures: cfg.RateLimit.MaxFailures,
	})
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
