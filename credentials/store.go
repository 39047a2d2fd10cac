package credentials

import (
	"context"
	stderrors "errors"

	"github.com/jrsteele09/go-auth-sessions/internal/errors"
	"github.com/jrsteele09/go-auth-sessions/users"
	pkgerrors "github.com/pkg/errors"
)

var (
	// ErrEmailTaken is returned by Register when any identity already uses the email
	ErrEmailTaken = stderrors.New("email already registered")
	// ErrInvalidCredentials covers unknown email, inactive identity and wrong password alike
	ErrInvalidCredentials = stderrors.New("invalid credentials")
	// ErrPasswordTooLong is returned when a new password exceeds users.MaxPasswordBytes
	ErrPasswordTooLong = stderrors.New("password too long")
)

// dummyPassword is hashed once so unknown emails still pay for a bcrypt comparison
const dummyPassword = "dummy-password-for-timing"

// Store registers identities and validates their passwords.
type Store struct {
	repo      Repo
	hasher    Hasher
	dummyHash string
}

func NewStore(repo Repo, hasher Hasher) (*Store, error) {
	if repo == nil {
		return nil, pkgerrors.New("[NewStore] credentials repo is required")
	}
	if hasher == nil {
		return nil, pkgerrors.New("[NewStore] hasher is required")
	}
	dummy, err := hasher.Hash(context.Background(), dummyPassword)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[NewStore] dummy hash")
	}
	return &Store{repo: repo, hasher: hasher, dummyHash: dummy}, nil
}

// Register creates an active, non-admin identity with a hashed password.
func (s *Store) Register(ctx context.Context, name, email, password string) (*users.Identity, error) {
	email = users.NormaliseEmail(email)
	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[Store.Register] hash")
	}

	identity := &users.Identity{Name: name, Email: email, IsActive: true}
	if err := s.repo.Create(ctx, identity, &Credential{PasswordHash: hash}); err != nil {
		if errors.Is(err, errors.ErrAlreadyExists) {
			return nil, ErrEmailTaken
		}
		return nil, pkgerrors.Wrap(err, "[Store.Register] create")
	}
	return identity, nil
}

// ValidateCredentials returns the account when email and password match an active identity.
func (s *Store) ValidateCredentials(ctx context.Context, email, password string) (*Account, error) {
	account, err := s.repo.GetByEmail(ctx, users.NormaliseEmail(email))
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			return nil, pkgerrors.Wrap(err, "[Store.ValidateCredentials] lookup")
		}
		if _, err := s.hasher.Compare(ctx, s.dummyHash, password); err != nil {
			return nil, pkgerrors.Wrap(err, "[Store.ValidateCredentials] dummy compare")
		}
		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasher.Compare(ctx, account.Credential.PasswordHash, password)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[Store.ValidateCredentials] compare")
	}
	if !ok || !account.Identity.IsActive {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

// Unchanged reports whether account is still active under the password hash it was read with.
func (s *Store) Unchanged(ctx context.Context, account *Account) (bool, error) {
	current, err := s.repo.GetByEmail(ctx, account.Identity.Email)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(err, "[Store.Unchanged]")
	}
	return current.Identity.ID == account.Identity.ID &&
		current.Identity.IsActive &&
		current.Credential.PasswordHash == account.Credential.PasswordHash, nil
}

// HashPassword hashes through the same worker pool used for registration
func (s *Store) HashPassword(ctx context.Context, password string) (string, error) {
	return s.hasher.Hash(ctx, password)
}
