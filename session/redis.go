package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Shared status codes for the session Lua scripts.
const (
	scriptStatusNotFound    int64 = 0
	scriptStatusExpired     int64 = 1
	scriptStatusConflict    int64 = 2
	scriptStatusOK          int64 = 3
	scriptStatusInvalidBlob int64 = 4
)

const replaceTokensScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return {0}
end

local ok, sess = pcall(cjson.decode, data)
if not ok or type(sess) ~= "table" then
  return {4}
end

local now = tonumber(ARGV[5])
local expires = tonumber(sess["expires_at"])
if not expires or now > expires then
  redis.call("DEL", KEYS[1])
  redis.call("SREM", KEYS[2], ARGV[6])
  return {1}
end

if sess["refresh_id"] ~= ARGV[1] then
  return {2}
end

local ttl = redis.call("PTTL", KEYS[1])
if ttl <= 0 then
  redis.call("DEL", KEYS[1])
  redis.call("SREM", KEYS[2], ARGV[6])
  return {1}
end

sess["access_token"] = ARGV[2]
sess["refresh_token"] = ARGV[3]
sess["refresh_id"] = ARGV[4]
sess["last_activity_at"] = now

local updated = cjson.encode(sess)
redis.call("SET", KEYS[1], updated, "PX", ttl)
return {3, updated}
`

var replaceTokensLua = redis.NewScript(replaceTokensScript)

// touchSessionScript mutates only last_activity_at, atomically with respect
// to replaceTokensScript. A plain GET-then-SET touch could race a completed
// rotation and write the stale pair back over the new one.
const touchSessionScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return {0}
end

local ok, sess = pcall(cjson.decode, data)
if not ok or type(sess) ~= "table" then
  return {4}
end

local now = tonumber(ARGV[1])
local expires = tonumber(sess["expires_at"])
if not expires or now > expires then
  redis.call("DEL", KEYS[1])
  return {1}
end

local ttl = redis.call("PTTL", KEYS[1])
if ttl <= 0 then
  redis.call("DEL", KEYS[1])
  return {1}
end

sess["last_activity_at"] = now

local updated = cjson.encode(sess)
redis.call("SET", KEYS[1], updated, "PX", ttl)
return {3, updated}
`

var touchSessionLua = redis.NewScript(touchSessionScript)

const deleteSessionScript = `
local existed = redis.call("EXISTS", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
if existed == 1 then
  redis.call("DEL", KEYS[1])
end
return existed
`

var deleteSessionLua = redis.NewScript(deleteSessionScript)

// Redis is a Redis-backed [Store] for multi-instance deployments. Session
// blobs carry their own TTL; subject index sets are reconciled by
// SweepExpired.
type Redis struct {
	redis  redis.UniversalClient
	prefix string
	clock  func() time.Time
}

// NewRedis creates a Redis-backed store. prefix namespaces all keys; clock
// may be nil (time.Now).
func NewRedis(client redis.UniversalClient, prefix string, clock func() time.Time) *Redis {
	if prefix == "" {
		prefix = "ts"
	}
	if clock == nil {
		clock = time.Now
	}
	return &Redis{
		redis:  client,
		prefix: prefix,
		clock:  clock,
	}
}

func (r *Redis) key(sessionID string) string {
	return r.prefix + ":" + sessionID
}

func (r *Redis) subjectKey(subjectID string) string {
	return r.prefix + ":subj:" + subjectID
}

// Save persists a new session and indexes it under its subject.
//
//	Performance: 2 Redis commands in one transaction (SET + SADD).
func (r *Redis) Save(ctx context.Context, sess *Session) error {
	data, err := Encode(sess)
	if err != nil {
		return err
	}

	ttl := time.Unix(sess.ExpiresAt, 0).Sub(r.clock())
	if ttl <= 0 {
		return fmt.Errorf("%w: already expired", ErrCorruptSession)
	}

	sessionKey := r.key(sess.SessionID)
	subjectKey := r.subjectKey(sess.SubjectID)

	_, err = r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey, data, ttl)
		pipe.SAdd(ctx, subjectKey, sess.SessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get fetches a session and touches LastActivityAt, preserving the remaining
// TTL. Fixed expiry: the blob's own TTL is never extended. The touch runs as
// a Lua script so it never clobbers a concurrent ReplaceTokens.
//
//	Performance: 1 Lua EVALSHA.
func (r *Redis) Get(ctx context.Context, sessionID string) (*Session, error) {
	result, err := touchSessionLua.Run(
		ctx,
		r.redis,
		[]string{r.key(sessionID)},
		r.clock().Unix(),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	code, blob, err := scriptReply(result)
	if err != nil {
		return nil, err
	}

	switch code {
	case scriptStatusNotFound, scriptStatusExpired:
		return nil, ErrNotFound
	case scriptStatusInvalidBlob:
		return nil, ErrCorruptSession
	case scriptStatusOK:
		if blob == nil {
			return nil, fmt.Errorf("%w: missing session payload", ErrUnavailable)
		}
		return Decode(blob)
	default:
		return nil, fmt.Errorf("%w: unknown touch script status", ErrUnavailable)
	}
}

// ReplaceTokens atomically swaps the stored pair via a Lua CAS on the stored
// refresh ID. This is the core of the rotation protocol: a losing rotation
// observes ErrTokenConflict and the stored pair stays coherent.
//
//	Performance: 1 Lua EVALSHA.
func (r *Redis) ReplaceTokens(ctx context.Context, sessionID, expectedRefreshID string, pair TokenUpdate) (*Session, error) {
	now := pair.Now
	if now.IsZero() {
		now = r.clock()
	}

	result, err := replaceTokensLua.Run(
		ctx,
		r.redis,
		[]string{r.key(sessionID), r.subjectKeyForSession(ctx, sessionID)},
		expectedRefreshID,
		pair.AccessToken,
		pair.RefreshToken,
		pair.RefreshID,
		now.Unix(),
		sessionID,
	).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	code, blob, err := scriptReply(result)
	if err != nil {
		return nil, err
	}

	switch code {
	case scriptStatusNotFound, scriptStatusExpired:
		return nil, ErrNotFound
	case scriptStatusConflict:
		return nil, ErrTokenConflict
	case scriptStatusInvalidBlob:
		return nil, ErrCorruptSession
	case scriptStatusOK:
		if blob == nil {
			return nil, fmt.Errorf("%w: missing updated session payload", ErrUnavailable)
		}
		return Decode(blob)
	default:
		return nil, fmt.Errorf("%w: unknown replace script status", ErrUnavailable)
	}
}

// scriptReply unpacks the {status, payload?} array the session scripts return.
func scriptReply(result interface{}) (int64, []byte, error) {
	parts, ok := result.([]interface{})
	if !ok || len(parts) == 0 {
		return 0, nil, fmt.Errorf("%w: invalid script response", ErrUnavailable)
	}
	code, ok := parts[0].(int64)
	if !ok {
		return 0, nil, fmt.Errorf("%w: invalid script status", ErrUnavailable)
	}
	if len(parts) < 2 {
		return code, nil, nil
	}
	switch v := parts[1].(type) {
	case string:
		return code, []byte(v), nil
	case []byte:
		return code, v, nil
	default:
		return 0, nil, fmt.Errorf("%w: invalid script payload", ErrUnavailable)
	}
}

// Delete removes a session and its subject index entry.
func (r *Redis) Delete(ctx context.Context, sessionID string) (bool, error) {
	key := r.key(sessionID)

	data, err := r.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		// Corrupt blob: drop it anyway.
		if delErr := r.redis.Del(ctx, key).Err(); delErr != nil {
			return false, fmt.Errorf("%w: %v", ErrUnavailable, delErr)
		}
		return true, nil
	}

	existed, err := deleteSessionLua.Run(
		ctx,
		r.redis,
		[]string{key, r.subjectKey(sess.SubjectID)},
		sessionID,
	).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return existed == 1, nil
}

// ListBySubject resolves the subject index set and fetches live sessions.
//
//	Performance: 1 SMEMBERS + pipelined GETs.
func (r *Redis) ListBySubject(ctx context.Context, subjectID string) ([]*Session, error) {
	ids, err := r.redis.SMembers(ctx, r.subjectKey(subjectID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []*Session{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(ids) == 0 {
		return []*Session{}, nil
	}

	pipe := r.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, r.key(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	nowUnix := r.clock().Unix()
	out := make([]*Session, 0, len(ids))
	for _, cmd := range cmds {
		data, cmdErr := cmd.Bytes()
		if cmdErr != nil {
			if errors.Is(cmdErr, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, cmdErr)
		}
		sess, decErr := Decode(data)
		if decErr != nil {
			continue
		}
		if nowUnix > sess.ExpiresAt {
			continue
		}
		out = append(out, sess)
	}
	return out, nil
}

// SweepExpired reconciles subject index sets: Redis purges expired blobs via
// key TTLs, so the sweep's job is removing dangling index entries. Returns
// the number of entries removed.
func (r *Redis) SweepExpired(ctx context.Context, _ time.Time) (int, error) {
	pattern := r.prefix + ":subj:*"
	var (
		cursor  uint64
		removed int
	)

	for {
		keys, next, err := r.redis.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return removed, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		for _, subjectKey := range keys {
			ids, err := r.redis.SMembers(ctx, subjectKey).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				return removed, fmt.Errorf("%w: %v", ErrUnavailable, err)
			}

			for _, id := range ids {
				exists, err := r.redis.Exists(ctx, r.key(id)).Result()
				if err != nil {
					return removed, fmt.Errorf("%w: %v", ErrUnavailable, err)
				}
				if exists == 0 {
					if err := r.redis.SRem(ctx, subjectKey, id).Err(); err != nil {
						return removed, fmt.Errorf("%w: %v", ErrUnavailable, err)
					}
					removed++
				}
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}
	return removed, nil
}

// Ping returns a point-in-time backend availability check and latency.
func (r *Redis) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return time.Since(start), nil
}

// subjectKeyForSession resolves the subject index key for a session so the
// replace script can clean the index when it finds the session expired. A
// best-effort read: on failure the script still runs with an unused key.
func (r *Redis) subjectKeyForSession(ctx context.Context, sessionID string) string {
	data, err := r.redis.Get(ctx, r.key(sessionID)).Bytes()
	if err != nil {
		return r.subjectKey("")
	}
	sess, err := Decode(data)
	if err != nil {
		return r.subjectKey("")
	}
	return r.subjectKey(sess.SubjectID)
}
