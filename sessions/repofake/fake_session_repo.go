package fakesessionrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-sessions/internal/errors"
	"github.com/jrsteele09/go-auth-sessions/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

type sessionKey struct {
	identityID string
	deviceID   string
}

type FakeSessionRepo struct {
	sessions map[sessionKey]*sessions.Session
	lock     sync.RWMutex
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		sessions: make(map[sessionKey]*sessions.Session),
	}
}

func (sr *FakeSessionRepo) Upsert(_ context.Context, s *sessions.Session) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	key := sessionKey{s.IdentityID, s.DeviceID}
	if existing, ok := sr.sessions[key]; ok {
		s.ID = existing.ID
		s.CreatedAt = existing.CreatedAt
	} else if s.ID == "" {
		s.ID = uuid.New().String()
	}
	sr.sessions[key] = s.Clone()
	return nil
}

func (sr *FakeSessionRepo) Get(_ context.Context, identityID, deviceID string) (*sessions.Session, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	s, ok := sr.sessions[sessionKey{identityID, deviceID}]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return s.Clone(), nil
}

func (sr *FakeSessionRepo) List(_ context.Context, identityID string) ([]*sessions.Session, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	list := make([]*sessions.Session, 0)
	for k, s := range sr.sessions {
		if k.identityID == identityID {
			list = append(list, s.Clone())
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

func (sr *FakeSessionRepo) Rotate(_ context.Context, identityID, deviceID, currentHash, nextHash string, expiresAt, now time.Time) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	s, ok := sr.sessions[sessionKey{identityID, deviceID}]
	if !ok || s.RefreshTokenHash != currentHash {
		return errors.ErrStale
	}
	s.RefreshTokenHash = nextHash
	s.ExpiresAt = expiresAt
	s.UpdatedAt = now
	return nil
}

func (sr *FakeSessionRepo) DeleteMatching(_ context.Context, identityID, deviceID, hash string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	key := sessionKey{identityID, deviceID}
	s, ok := sr.sessions[key]
	if !ok || s.RefreshTokenHash != hash {
		return errors.ErrStale
	}
	delete(sr.sessions, key)
	return nil
}

func (sr *FakeSessionRepo) Delete(_ context.Context, identityID string, deviceIDs ...string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	for _, d := range deviceIDs {
		delete(sr.sessions, sessionKey{identityID, d})
	}
	return nil
}

func (sr *FakeSessionRepo) DeleteAll(_ context.Context, identityID string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	for k := range sr.sessions {
		if k.identityID == identityID {
			delete(sr.sessions, k)
		}
	}
	return nil
}

func (sr *FakeSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	var removed int64
	for k, s := range sr.sessions {
		if s.ExpiresAt.Before(now) {
			delete(sr.sessions, k)
			removed++
		}
	}
	return removed, nil
}
