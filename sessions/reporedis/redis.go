// Package sessionredis keeps sessions in Redis. Each session is a hash;
// a per-identity set indexes device ids and a sorted set orders sessions by
// expiry for the sweeper. Conditional writes run as Lua scripts.
//
// Scripts touch the session hash, the device set and the shared expiry index
// together, so the repository needs a single-node (or sentinel) client.
package sessionredis

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-sessions/internal/errors"
	"github.com/jrsteele09/go-auth-sessions/sessions"
	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var _ sessions.Repo = (*RedisRepository)(nil)

const defaultPrefix = "auth:"

const upsertScript = `
local id = ARGV[1]
local created = ARGV[6]
local existing = redis.call("HGET", KEYS[1], "id")
if existing then
  id = existing
  created = redis.call("HGET", KEYS[1], "created_at")
end
redis.call("HSET", KEYS[1],
  "id", id,
  "identity_id", ARGV[2],
  "device_id", ARGV[3],
  "refresh_hash", ARGV[4],
  "expires_at", ARGV[5],
  "created_at", created,
  "updated_at", ARGV[7])
redis.call("SADD", KEYS[2], ARGV[3])
redis.call("ZADD", KEYS[3], ARGV[8], KEYS[1])
return {id, created}
`

const rotateScript = `
local stored = redis.call("HGET", KEYS[1], "refresh_hash")
if not stored or stored ~= ARGV[1] then
  return 0
end
redis.call("HSET", KEYS[1], "refresh_hash", ARGV[2], "expires_at", ARGV[3], "updated_at", ARGV[4])
redis.call("ZADD", KEYS[2], ARGV[5], KEYS[1])
return 1
`

const deleteMatchingScript = `
local stored = redis.call("HGET", KEYS[1], "refresh_hash")
if not stored or stored ~= ARGV[1] then
  return 0
end
redis.call("DEL", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[2])
redis.call("ZREM", KEYS[3], KEYS[1])
return 1
`

const deleteExpiredScript = `
local expires = redis.call("HGET", KEYS[1], "expires_at")
if not expires then
  redis.call("ZREM", KEYS[3], KEYS[1])
  return 0
end
if tonumber(expires) >= tonumber(ARGV[1]) then
  return 0
end
redis.call("DEL", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[2])
redis.call("ZREM", KEYS[3], KEYS[1])
return 1
`

const deleteAllScript = `
local devices = redis.call("SMEMBERS", KEYS[1])
for _, device in ipairs(devices) do
  local key = ARGV[1] .. device
  redis.call("DEL", key)
  redis.call("ZREM", KEYS[2], key)
end
redis.call("DEL", KEYS[1])
return #devices
`

var (
	deleteAllLua      = redis.NewScript(deleteAllScript)
	upsertLua         = redis.NewScript(upsertScript)
	rotateLua         = redis.NewScript(rotateScript)
	deleteMatchingLua = redis.NewScript(deleteMatchingScript)
	deleteExpiredLua  = redis.NewScript(deleteExpiredScript)
)

// RedisRepository implements sessions.Repo on go-redis.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

type Option func(*RedisRepository)

// WithKeyPrefix namespaces every key, default "auth:"
func WithKeyPrefix(prefix string) Option {
	return func(r *RedisRepository) {
		r.prefix = prefix
	}
}

func NewRedisRepository(client *redis.Client, options ...Option) *RedisRepository {
	r := &RedisRepository{client: client, prefix: defaultPrefix}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *RedisRepository) sessionKey(identityID, deviceID string) string {
	return r.sessionKeyPrefix(identityID) + deviceID
}

func (r *RedisRepository) sessionKeyPrefix(identityID string) string {
	return r.prefix + "session:" + identityID + ":"
}

func (r *RedisRepository) devicesKey(identityID string) string {
	return r.prefix + "identity:" + identityID + ":devices"
}

func (r *RedisRepository) expiryKey() string {
	return r.prefix + "sessions:expiry"
}

func (r *RedisRepository) Upsert(ctx context.Context, s *sessions.Session) error {
	id := s.ID
	if id == "" {
		id = uuid.New().String()
	}
	keys := []string{r.sessionKey(s.IdentityID, s.DeviceID), r.devicesKey(s.IdentityID), r.expiryKey()}
	res, err := upsertLua.Run(ctx, r.client, keys,
		id, s.IdentityID, s.DeviceID, s.RefreshTokenHash,
		nanos(s.ExpiresAt), nanos(s.CreatedAt), nanos(s.UpdatedAt), s.ExpiresAt.UnixMilli(),
	).StringSlice()
	if err != nil {
		return pkgerrors.Wrap(err, "[RedisRepository.Upsert]")
	}
	if len(res) != 2 {
		return pkgerrors.Errorf("[RedisRepository.Upsert] unexpected script result %v", res)
	}
	created, err := parseNanos(res[1])
	if err != nil {
		return pkgerrors.Wrap(err, "[RedisRepository.Upsert] created_at")
	}
	s.ID = res[0]
	s.CreatedAt = created
	return nil
}

func (r *RedisRepository) Get(ctx context.Context, identityID, deviceID string) (*sessions.Session, error) {
	fields, err := r.client.HGetAll(ctx, r.sessionKey(identityID, deviceID)).Result()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[RedisRepository.Get]")
	}
	if len(fields) == 0 {
		return nil, errors.ErrNotFound
	}
	return decodeSession(fields)
}

func (r *RedisRepository) List(ctx context.Context, identityID string) ([]*sessions.Session, error) {
	devices, err := r.client.SMembers(ctx, r.devicesKey(identityID)).Result()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[RedisRepository.List] SMembers")
	}

	cmds := make([]*redis.MapStringStringCmd, 0, len(devices))
	_, err = r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, d := range devices {
			cmds = append(cmds, p.HGetAll(ctx, r.sessionKey(identityID, d)))
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[RedisRepository.List] HGetAll")
	}

	list := make([]*sessions.Session, 0, len(cmds))
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		s, err := decodeSession(fields)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

func (r *RedisRepository) Rotate(ctx context.Context, identityID, deviceID, currentHash, nextHash string, expiresAt, now time.Time) error {
	keys := []string{r.sessionKey(identityID, deviceID), r.expiryKey()}
	swapped, err := rotateLua.Run(ctx, r.client, keys,
		currentHash, nextHash, nanos(expiresAt), nanos(now), expiresAt.UnixMilli(),
	).Int()
	if err != nil {
		return pkgerrors.Wrap(err, "[RedisRepository.Rotate]")
	}
	if swapped == 0 {
		return errors.ErrStale
	}
	return nil
}

func (r *RedisRepository) DeleteMatching(ctx context.Context, identityID, deviceID, hash string) error {
	keys := []string{r.sessionKey(identityID, deviceID), r.devicesKey(identityID), r.expiryKey()}
	deleted, err := deleteMatchingLua.Run(ctx, r.client, keys, hash, deviceID).Int()
	if err != nil {
		return pkgerrors.Wrap(err, "[RedisRepository.DeleteMatching]")
	}
	if deleted == 0 {
		return errors.ErrStale
	}
	return nil
}

func (r *RedisRepository) Delete(ctx context.Context, identityID string, deviceIDs ...string) error {
	if len(deviceIDs) == 0 {
		return nil
	}
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, d := range deviceIDs {
			key := r.sessionKey(identityID, d)
			p.Del(ctx, key)
			p.SRem(ctx, r.devicesKey(identityID), d)
			p.ZRem(ctx, r.expiryKey(), key)
		}
		return nil
	})
	if err != nil {
		return pkgerrors.Wrap(err, "[RedisRepository.Delete]")
	}
	return nil
}

// DeleteAll reads the device set and deletes every session in one script, so
// an upsert cannot slip in between the read and the deletes.
func (r *RedisRepository) DeleteAll(ctx context.Context, identityID string) error {
	keys := []string{r.devicesKey(identityID), r.expiryKey()}
	if err := deleteAllLua.Run(ctx, r.client, keys, r.sessionKeyPrefix(identityID)).Err(); err != nil {
		return pkgerrors.Wrap(err, "[RedisRepository.DeleteAll]")
	}
	return nil
}

// DeleteExpired walks the expiry index and removes each session whose stored
// expiry is still in the past when the delete script runs.
func (r *RedisRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	members, err := r.client.ZRangeByScore(ctx, r.expiryKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, pkgerrors.Wrap(err, "[RedisRepository.DeleteExpired] ZRangeByScore")
	}

	var removed int64
	for _, key := range members {
		owner, err := r.client.HMGet(ctx, key, "identity_id", "device_id").Result()
		if err != nil {
			return removed, pkgerrors.Wrap(err, "[RedisRepository.DeleteExpired] HMGet")
		}
		identityID, _ := owner[0].(string)
		deviceID, _ := owner[1].(string)

		keys := []string{key, r.devicesKey(identityID), r.expiryKey()}
		n, err := deleteExpiredLua.Run(ctx, r.client, keys, nanos(now), deviceID).Int64()
		if err != nil {
			return removed, pkgerrors.Wrap(err, "[RedisRepository.DeleteExpired] script")
		}
		removed += n
	}
	return removed, nil
}

func nanos(t time.Time) string {
	return strconv.FormatInt(t.UnixNano(), 10)
}

func parseNanos(v string) (time.Time, error) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, n).UTC(), nil
}

func decodeSession(fields map[string]string) (*sessions.Session, error) {
	s := &sessions.Session{
		ID:               fields["id"],
		IdentityID:       fields["identity_id"],
		DeviceID:         fields["device_id"],
		RefreshTokenHash: fields["refresh_hash"],
	}
	var err error
	if s.ExpiresAt, err = parseNanos(fields["expires_at"]); err != nil {
		return nil, pkgerrors.Wrap(err, "[decodeSession] expires_at")
	}
	if s.CreatedAt, err = parseNanos(fields["created_at"]); err != nil {
		return nil, pkgerrors.Wrap(err, "[decodeSession] created_at")
	}
	if s.UpdatedAt, err = parseNanos(fields["updated_at"]); err != nil {
		return nil, pkgerrors.Wrap(err, "[decodeSession] updated_at")
	}
	return s, nil
}
