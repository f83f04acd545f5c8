package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"ms-seeder/internal/logger"
)

// ErrLocked is returned when another process holds the run lock.
var ErrLocked = errors.New("seed run already in progress")

const keyPrefix = "seed_lock:"

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Redis struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, log *logger.Logger) *Redis {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Redis{Client: client, TTL: ttl, Logger: log}
}

func key(name string) string {
	return keyPrefix + name
}

// Lock takes name for owner if it is free.
func (r *Redis) Lock(ctx context.Context, name, owner string) (bool, error) {
	return r.Client.SetNX(ctx, key(name), owner, r.TTL).Result()
}

// Unlock releases name only while owner still holds it.
func (r *Redis) Unlock(ctx context.Context, name, owner string) error {
	return unlockScript.Run(ctx, r.Client, []string{key(name)}, owner).Err()
}

// Acquire takes name under a fresh owner token and returns the matching
// release function. It fails with ErrLocked when name is held.
func (r *Redis) Acquire(ctx context.Context, name string) (func(context.Context) error, error) {
	owner := uuid.NewString()
	ok, err := r.Lock(ctx, name, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to take %s lock: %w", name, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, name)
	}
	r.Logger.Debug("LOCK", fmt.Sprintf("Acquired %s (owner %s, ttl %s)", key(name), owner, r.TTL))

	return func(ctx context.Context) error {
		if err := r.Unlock(ctx, name, owner); err != nil {
			return fmt.Errorf("failed to release %s lock: %w", name, err)
		}
		r.Logger.Debug("LOCK", fmt.Sprintf("Released %s (owner %s)", key(name), owner))
		return nil
	}, nil
}
