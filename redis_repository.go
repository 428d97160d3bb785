package accountkit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisSaveRetries = 3

// RedisRepository is an AccountRepository backed by Redis. Each account is a
// hash keyed by identity, with a separate token index key mapping the live
// verification token back to its identity. Token index keys carry no TTL:
// expiry is a domain decision made by the engine, and an expired token must
// stay resolvable so callers can be told it expired rather than that it
// never existed.
//
// Save runs under a WATCH/MULTI optimistic transaction so compare-and-set
// semantics hold across processes.
type RedisRepository struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisRepository wraps client. prefix defaults to "ak" when empty.
func NewRedisRepository(client redis.UniversalClient, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "ak"
	}
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) accountKey(identity string) string {
	return r.prefix + ":acct:" + identity
}

func (r *RedisRepository) tokenKey(token string) string {
	return r.prefix + ":tok:" + token
}

func (r *RedisRepository) FindByIdentity(ctx context.Context, identity string) (*Account, error) {
	fields, err := r.client.HGetAll(ctx, r.accountKey(identity)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: redis: %v", ErrStorageUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, ErrAccountNotFound
	}
	return decodeAccountFields(fields)
}

func (r *RedisRepository) FindByLiveToken(ctx context.Context, token string) (*Account, error) {
	if token == "" {
		return nil, ErrAccountNotFound
	}
	identity, err := r.client.Get(ctx, r.tokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: redis: %v", ErrStorageUnavailable, err)
	}
	account, err := r.FindByIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}
	// The index can lag a concurrent replace by a beat; trust the record.
	if account.VerificationToken != token {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// Save upserts the account under compare-and-set rules, retrying a handful
// of times when the optimistic transaction loses to a concurrent writer on
// an unrelated key. A genuine version mismatch is reported as
// ErrVersionConflict without retrying.
func (r *RedisRepository) Save(ctx context.Context, account *Account) (*Account, error) {
	acctKey := r.accountKey(account.Identity)

	var stored *Account
	txn := func(tx *redis.Tx) error {
		fields, err := tx.HGetAll(ctx, acctKey).Result()
		if err != nil {
			return fmt.Errorf("%w: redis: %v", ErrStorageUnavailable, err)
		}

		var current *Account
		if len(fields) > 0 {
			current, err = decodeAccountFields(fields)
			if err != nil {
				return err
			}
		}

		switch {
		case current == nil && account.Version != 0:
			return ErrVersionConflict
		case current != nil && account.Version == 0:
			return ErrDuplicateIdentity
		case current != nil && account.Version != current.Version:
			return ErrVersionConflict
		}

		if account.VerificationToken != "" {
			owner, err := tx.Get(ctx, r.tokenKey(account.VerificationToken)).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return fmt.Errorf("%w: redis: %v", ErrStorageUnavailable, err)
			}
			if err == nil && owner != account.Identity {
				return ErrDuplicateToken
			}
		}

		next := account.Clone()
		next.Version++

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, acctKey, encodeAccountFields(next))
			if current != nil && current.VerificationToken != "" && current.VerificationToken != next.VerificationToken {
				pipe.Del(ctx, r.tokenKey(current.VerificationToken))
			}
			if next.VerificationToken != "" {
				pipe.Set(ctx, r.tokenKey(next.VerificationToken), next.Identity, 0)
			}
			return nil
		})
		if err != nil {
			return err
		}
		stored = next
		return nil
	}

	for attempt := 0; attempt < redisSaveRetries; attempt++ {
		err := r.client.Watch(ctx, txn, acctKey)
		if err == nil {
			return stored, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			// Someone touched the account key between WATCH and EXEC. That
			// writer bumped the version, so a retry with our stale version
			// will report the conflict precisely.
			continue
		}
		if errors.Is(err, ErrVersionConflict) || errors.Is(err, ErrDuplicateIdentity) ||
			errors.Is(err, ErrDuplicateToken) || errors.Is(err, ErrStorageUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: redis: %v", ErrStorageUnavailable, err)
	}
	return nil, ErrVersionConflict
}

const (
	fieldIdentity  = "identity"
	fieldHash      = "credential_hash"
	fieldStatus    = "status"
	fieldToken     = "verification_token"
	fieldExpiry    = "token_expiry"
	fieldVersion   = "version"
	fieldCreatedAt = "created_at"
)

func encodeAccountFields(a *Account) map[string]any {
	var expiry, created int64
	if !a.TokenExpiry.IsZero() {
		expiry = a.TokenExpiry.UnixNano()
	}
	if !a.CreatedAt.IsZero() {
		created = a.CreatedAt.UnixNano()
	}
	return map[string]any{
		fieldIdentity:  a.Identity,
		fieldHash:      a.CredentialHash,
		fieldStatus:    int(a.Status),
		fieldToken:     a.VerificationToken,
		fieldExpiry:    expiry,
		fieldVersion:   a.Version,
		fieldCreatedAt: created,
	}
}

func decodeAccountFields(fields map[string]string) (*Account, error) {
	status, err := strconv.Atoi(fields[fieldStatus])
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt account record: status %q", ErrStorageUnavailable, fields[fieldStatus])
	}
	version, err := strconv.ParseUint(fields[fieldVersion], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt account record: version %q", ErrStorageUnavailable, fields[fieldVersion])
	}

	account := &Account{
		Identity:          fields[fieldIdentity],
		CredentialHash:    fields[fieldHash],
		Status:            AccountStatus(status),
		VerificationToken: fields[fieldToken],
		Version:           version,
	}
	if account.TokenExpiry, err = decodeNanoTime(fields[fieldExpiry]); err != nil {
		return nil, err
	}
	if account.CreatedAt, err = decodeNanoTime(fields[fieldCreatedAt]); err != nil {
		return nil, err
	}
	return account, nil
}

func decodeNanoTime(raw string) (time.Time, error) {
	if raw == "" || raw == "0" {
		return time.Time{}, nil
	}
	nanos, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: corrupt account record: timestamp %q", ErrStorageUnavailable, raw)
	}
	return time.Unix(0, nanos), nil
}
