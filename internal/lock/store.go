// Package lock provides distributed mutual exclusion for seat
// reservations.  A lock is a single key in an external key-value
// store with a bounded time-to-live; acquisition is a one round-trip
// atomic set-if-absent, release is an unconditional delete.  The TTL
// is the crash-safety net: a holder that dies without releasing
// frees the seat automatically once the TTL elapses.
package lock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the minimal key-value contract the lock manager needs:
// an atomic set-if-absent with expiry and a bulk delete.  Both
// calls go to the remote store every time; lock state is never
// cached client-side.
type Store interface {
	// SetIfAbsent atomically sets key to value with the given TTL
	// when the key does not exist.  It returns true when the key
	// was set by this call and false when the key already existed.
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Delete removes the given keys.  Deleting an absent key is
	// not an error.
	Delete(ctx context.Context, keys ...string) error
}

// acquireScript performs the check and the set in one server-side
// step so that two concurrent callers can never both observe the
// key as absent.  SET NX PX would be equivalent; the script keeps
// the primitive explicit and leaves room for richer value payloads.
var acquireScript = redis.NewScript(`
    if redis.call('EXISTS', KEYS[1]) == 1 then
        return 0
    end
    redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
    return 1
`)

// RedisStore implements Store over a Redis client.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore returns a RedisStore bound to the given client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	if rdb == nil {
		panic("nil redis client passed to NewRedisStore")
	}
	return &RedisStore{rdb: rdb}
}

// SetIfAbsent runs the acquire script.  The TTL is passed in
// milliseconds; sub-millisecond TTLs are rounded up to 1ms so the
// key never lives forever by accident.
func (s *RedisStore) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ms := ttl.Milliseconds()
	if ms <= 0 {
		ms = 1
	}
	n, err := acquireScript.Run(ctx, s.rdb, []string{key}, value, ms).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Delete removes the given keys with a single DEL command.
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}
