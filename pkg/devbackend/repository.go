package devbackend

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/socialconnect/pkg/errors"
)

// Account is a backend user record
type Account struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash []byte
	Game         string
	Links        []LinkedIdentity
	CreatedAt    time.Time
	LastLoginAt  time.Time
}

// LinkedIdentity ties an external provider identity to an account
type LinkedIdentity struct {
	Type       string
	ExternalID string
	Profile    map[string]any
	LinkedAt   time.Time
}

// Repository stores accounts
type Repository interface {
	Create(ctx context.Context, account Account) (Account, error)
	Update(ctx context.Context, account Account) (Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (Account, error)
	FindByUsername(ctx context.Context, username string) (Account, error)
	FindByLink(ctx context.Context, accountType, externalID string) (Account, error)
	// Link resolves an external identity in one step. An account already
	// holding the identity is returned, unless owner is set and differs. Otherwise
	// the identity is attached to owner, or to a new account built from fresh
	// when owner is uuid.Nil. created reports the last case.
	Link(ctx context.Context, owner uuid.UUID, link LinkedIdentity, fresh Account) (account Account, created bool, err error)
}

// InMemoryRepository is a Repository backed by a map
type InMemoryRepository struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]Account
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{accounts: make(map[uuid.UUID]Account)}
}

func (r *InMemoryRepository) Create(ctx context.Context, account Account) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.create(account)
}

// create stores account; the caller holds r.mu
func (r *InMemoryRepository) create(account Account) (Account, error) {
	if account.hasPassword() && r.usernameTaken(account.Username) {
		return Account{}, errors.AlreadyExists("username", account.Username)
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	r.accounts[account.ID] = clone(account)
	return clone(account), nil
}

// usernameTaken reports whether a password account uses username.
// Link-only accounts carry generated names and never sign in by username.
func (r *InMemoryRepository) usernameTaken(username string) bool {
	if username == "" {
		return false
	}
	for _, existing := range r.accounts {
		if existing.hasPassword() && strings.EqualFold(existing.Username, username) {
			return true
		}
	}
	return false
}

func (r *InMemoryRepository) Update(ctx context.Context, account Account) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.ID]; !ok {
		return Account{}, errors.NotFound("account", account.ID.String())
	}
	r.accounts[account.ID] = clone(account)
	return clone(account), nil
}

func (r *InMemoryRepository) FindByID(ctx context.Context, id uuid.UUID) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[id]
	if !ok {
		return Account{}, errors.NotFound("account", id.String())
	}
	return clone(account), nil
}

func (r *InMemoryRepository) FindByUsername(ctx context.Context, username string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, account := range r.accounts {
		if account.hasPassword() && strings.EqualFold(account.Username, username) {
			return clone(account), nil
		}
	}
	return Account{}, errors.NotFound("account", username)
}

func (r *InMemoryRepository) FindByLink(ctx context.Context, accountType, externalID string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if account, ok := r.findLink(accountType, externalID); ok {
		return clone(account), nil
	}
	return Account{}, errors.NotFound("linked account", accountType+":"+externalID)
}

func (r *InMemoryRepository) Link(ctx context.Context, owner uuid.UUID, link LinkedIdentity, fresh Account) (Account, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if linked, ok := r.findLink(link.Type, link.ExternalID); ok {
		if owner != uuid.Nil && linked.ID != owner {
			return Account{}, false, errors.AlreadyExists("linked account", link.Type+":"+link.ExternalID)
		}
		linked.LastLoginAt = link.LinkedAt
		r.accounts[linked.ID] = clone(linked)
		return clone(linked), false, nil
	}

	if owner != uuid.Nil {
		account, ok := r.accounts[owner]
		if !ok {
			return Account{}, false, errors.NotFound("account", owner.String())
		}
		account = clone(account)
		account.Links = append(account.Links, link)
		account.LastLoginAt = link.LinkedAt
		r.accounts[account.ID] = clone(account)
		return clone(account), false, nil
	}

	fresh.Links = []LinkedIdentity{link}
	fresh.LastLoginAt = link.LinkedAt
	account, err := r.create(fresh)
	if err != nil {
		return Account{}, false, err
	}
	return account, true, nil
}

// findLink looks up the account holding an identity; the caller holds r.mu
func (r *InMemoryRepository) findLink(accountType, externalID string) (Account, bool) {
	for _, account := range r.accounts {
		for _, link := range account.Links {
			if link.Type == accountType && link.ExternalID == externalID {
				return account, true
			}
		}
	}
	return Account{}, false
}

func (a Account) hasPassword() bool {
	return len(a.PasswordHash) > 0
}

// clone returns a copy that shares no slices with the stored record
func clone(a Account) Account {
	a.PasswordHash = append([]byte(nil), a.PasswordHash...)
	a.Links = append([]LinkedIdentity(nil), a.Links...)
	return a
}
