package sessions

import (
	"context"
	"time"

	"github.com/jrsteele09/go-auth-sessions/internal/errors"
	"github.com/jrsteele09/go-auth-sessions/internal/utils"
	"github.com/jrsteele09/go-auth-sessions/token"
	pkgerrors "github.com/pkg/errors"
)

// Manager handles session creation, matching and rotation over a Repo.
// Callers pass raw refresh tokens; only their digests reach the Repo.
type Manager struct {
	repo    Repo
	nowTime func() time.Time
}

type ManagerOption func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// NewManager creates a new session manager
func NewManager(repo Repo, options ...ManagerOption) (*Manager, error) {
	if repo == nil {
		return nil, pkgerrors.New("[NewManager] sessions repo is required")
	}
	m := &Manager{repo: repo, nowTime: time.Now}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Upsert creates or replaces the session for (identityID, deviceID).
func (m *Manager) Upsert(ctx context.Context, identityID, deviceID, rawRefresh string, expiresAt time.Time) (*Session, error) {
	now := m.nowTime().UTC()
	s := &Session{
		IdentityID:       identityID,
		DeviceID:         deviceID,
		RefreshTokenHash: token.Hash(rawRefresh),
		ExpiresAt:        expiresAt.UTC(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := m.repo.Upsert(ctx, s); err != nil {
		return nil, pkgerrors.Wrap(err, "[Manager.Upsert]")
	}
	return s, nil
}

// Get retrieves a session; errors.ErrNotFound when absent
func (m *Manager) Get(ctx context.Context, identityID, deviceID string) (*Session, error) {
	return m.repo.Get(ctx, identityID, deviceID)
}

// Matches reports whether rawRefresh is the token currently stored for s
func (m *Manager) Matches(s *Session, rawRefresh string) bool {
	return s != nil && token.MatchesHash(rawRefresh, s.RefreshTokenHash)
}

// Rotate swaps presentedRaw for nextRaw. errors.ErrStale means another caller rotated first.
func (m *Manager) Rotate(ctx context.Context, identityID, deviceID, presentedRaw, nextRaw string, expiresAt time.Time) error {
	return m.repo.Rotate(ctx, identityID, deviceID, token.Hash(presentedRaw), token.Hash(nextRaw), expiresAt.UTC(), m.nowTime().UTC())
}

// Revoke deletes the session only while presentedRaw is still its current token.
func (m *Manager) Revoke(ctx context.Context, identityID, deviceID, presentedRaw string) error {
	return m.repo.DeleteMatching(ctx, identityID, deviceID, token.Hash(presentedRaw))
}

// Delete removes sessions of the given devices; unknown devices are ignored
func (m *Manager) Delete(ctx context.Context, identityID string, deviceIDs ...string) error {
	deviceIDs = utils.Unique(deviceIDs)
	if len(deviceIDs) == 0 {
		return nil
	}
	return m.repo.Delete(ctx, identityID, deviceIDs...)
}

// DeleteAll removes every session of an identity
func (m *Manager) DeleteAll(ctx context.Context, identityID string) error {
	return m.repo.DeleteAll(ctx, identityID)
}

// List returns an identity's sessions
func (m *Manager) List(ctx context.Context, identityID string) ([]*Session, error) {
	return m.repo.List(ctx, identityID)
}

// DeleteExpired removes every session past its expiry
func (m *Manager) DeleteExpired(ctx context.Context) (int64, error) {
	return m.repo.DeleteExpired(ctx, m.nowTime().UTC())
}

// IsGone reports whether err means the session no longer exists in the presented form
func IsGone(err error) bool {
	return errors.Is(err, errors.ErrNotFound) || errors.Is(err, errors.ErrStale)
}
