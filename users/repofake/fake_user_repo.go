package fakeuserrepo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-sessions/internal/errors"
	"github.com/jrsteele09/go-auth-sessions/users"
)

var _ users.Repo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users    map[string]*users.Identity
	emailIds map[string]string // email to identity id
	lock     sync.RWMutex
	nowTime  func() time.Time
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[string]*users.Identity),
		emailIds: make(map[string]string),
		nowTime:  time.Now,
	}
}

func (ur *FakeUserRepo) Create(_ context.Context, identity *users.Identity) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.emailIds[identity.Email]; ok {
		return errors.ErrAlreadyExists
	}
	if identity.ID == "" {
		identity.ID = uuid.New().String()
	}
	now := ur.nowTime().UTC()
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = now
	}
	identity.UpdatedAt = now
	ur.users[identity.ID] = identity.Clone()
	ur.emailIds[identity.Email] = identity.ID
	return nil
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.Identity, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[email]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return ur.users[id].Clone(), nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*users.Identity, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	u, ok := ur.users[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return u.Clone(), nil
}

func (ur *FakeUserRepo) SetActive(_ context.Context, id string, active bool) error {
	return ur.update(id, func(u *users.Identity) { u.IsActive = active })
}

func (ur *FakeUserRepo) SetAdmin(_ context.Context, id string, admin bool) error {
	return ur.update(id, func(u *users.Identity) { u.IsAdmin = admin })
}

func (ur *FakeUserRepo) Delete(_ context.Context, id string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[id]
	if !ok {
		return errors.ErrNotFound
	}
	delete(ur.emailIds, u.Email)
	delete(ur.users, id)
	return nil
}

// Exists reports whether id is still present, used by the credentials fake to mimic the cascade
func (ur *FakeUserRepo) Exists(id string) bool {
	ur.lock.RLock()
	defer ur.lock.RUnlock()
	_, ok := ur.users[id]
	return ok
}

func (ur *FakeUserRepo) update(id string, fn func(*users.Identity)) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[id]
	if !ok {
		return errors.ErrNotFound
	}
	fn(u)
	u.UpdatedAt = ur.nowTime().UTC()
	return nil
}
