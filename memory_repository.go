package accountkit

import (
	"context"
	"sync"
)

// MemoryRepository is an in-process AccountRepository backed by maps. It
// implements full compare-and-set semantics on Save, so it is suitable for
// tests and single-process deployments, not just as a stub.
type MemoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]*Account
	tokens   map[string]string // live token -> identity
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		accounts: make(map[string]*Account),
		tokens:   make(map[string]string),
	}
}

func (r *MemoryRepository) FindByIdentity(ctx context.Context, identity string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[identity]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return account.Clone(), nil
}

func (r *MemoryRepository) FindByLiveToken(ctx context.Context, token string) (*Account, error) {
	if token == "" {
		return nil, ErrAccountNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	identity, ok := r.tokens[token]
	if !ok {
		return nil, ErrAccountNotFound
	}
	account, ok := r.accounts[identity]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return account.Clone(), nil
}

// Save upserts the account under compare-and-set rules. A Version of zero
// asserts the identity does not exist yet; any other Version must match the
// stored record exactly. On success the stored copy, with Version advanced,
// is returned.
func (r *MemoryRepository) Save(ctx context.Context, account *Account) (*Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.accounts[account.Identity]
	switch {
	case !exists && account.Version != 0:
		return nil, ErrVersionConflict
	case exists && account.Version == 0:
		return nil, ErrDuplicateIdentity
	case exists && account.Version != current.Version:
		return nil, ErrVersionConflict
	}

	if account.VerificationToken != "" {
		if owner, taken := r.tokens[account.VerificationToken]; taken && owner != account.Identity {
			return nil, ErrDuplicateToken
		}
	}

	if exists && current.VerificationToken != "" && current.VerificationToken != account.VerificationToken {
		delete(r.tokens, current.VerificationToken)
	}
	if account.VerificationToken != "" {
		r.tokens[account.VerificationToken] = account.Identity
	}

	stored := account.Clone()
	stored.Version++
	r.accounts[stored.Identity] = stored
	return stored.Clone(), nil
}

// Len reports the number of stored accounts.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts)
}
