package devbackend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tendant/socialconnect/pkg/errors"
)

// Service implements the account operations behind the HTTP API
type Service struct {
	repo       Repository
	bcryptCost int
	logger     *slog.Logger
	now        func() time.Time
}

type ServiceOption func(*Service)

func WithBcryptCost(cost int) ServiceOption {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(repo Repository, opts ...ServiceOption) *Service {
	s := &Service{
		repo:       repo,
		bcryptCost: bcrypt.DefaultCost,
		logger:     slog.Default(),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a password account
func (s *Service) Register(ctx context.Context, username, password, email, game string) (Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return Account{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to hash password")
	}

	account, err := s.repo.Create(ctx, Account{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Game:         game,
	})
	if err != nil {
		return Account{}, err
	}
	s.logger.Info("account registered", "account_id", account.ID, "username", username, "game", game)
	return account, nil
}

// Authenticate checks a username and password
func (s *Service) Authenticate(ctx context.Context, username, password string) (Account, error) {
	account, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeNotFound) {
			return Account{}, errors.Unauthorized("Invalid username or password")
		}
		return Account{}, err
	}
	if len(account.PasswordHash) == 0 {
		return Account{}, errors.Unauthorized("Invalid username or password")
	}
	if err := bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(password)); err != nil {
		return Account{}, errors.Unauthorized("Invalid username or password")
	}

	account.LastLoginAt = s.now()
	return s.repo.Update(ctx, account)
}

// Connect returns the account linked to an external identity. When current is
// set the identity is linked to that account; otherwise an existing link is
// reused or a new account is created. created reports the last case.
func (s *Service) Connect(ctx context.Context, current uuid.UUID, accountType, externalID string, profile map[string]any) (Account, bool, error) {
	if accountType == "" || externalID == "" {
		return Account{}, false, errors.InvalidInput("id", "type and id are required")
	}

	email, _ := profile["email"].(string)
	link := LinkedIdentity{Type: accountType, ExternalID: externalID, Profile: profile, LinkedAt: s.now()}
	account, created, err := s.repo.Link(ctx, current, link, Account{
		Username: fmt.Sprintf("%s-%s", accountType, externalID),
		Email:    email,
	})
	if err != nil {
		return Account{}, false, err
	}

	switch {
	case created:
		s.logger.Info("account created from external identity", "account_id", account.ID, "type", accountType)
	case current != uuid.Nil:
		s.logger.Info("external identity linked", "account_id", account.ID, "type", accountType)
	}
	return account, created, nil
}

// Get returns an account by id
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Account, error) {
	return s.repo.FindByID(ctx, id)
}
