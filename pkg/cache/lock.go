package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrLockNotAcquired is returned when another process holds the lock
var ErrLockNotAcquired = errors.New("lock not acquired")

const rescanLockKey = "beacon:rescan:lock"

// Lock is a held distributed lock
type Lock struct {
	client *Client
	key    string
	value  string
}

// AcquireRescanLock takes the cluster-wide rescan lock so overlapping bulk
// rescans from the API and CLI cannot run at once
func (c *Client) AcquireRescanLock(ctx context.Context, ttl time.Duration) (*Lock, error) {
	value := uuid.New().String()

	ok, err := c.rdb.SetNX(ctx, rescanLockKey, value, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}

	c.logger.WithContext(ctx).Debug("Acquired rescan lock")

	return &Lock{
		client: c,
		key:    rescanLockKey,
		value:  value,
	}, nil
}

// Release frees the lock if this holder still owns it
func (l *Lock) Release(ctx context.Context) error {
	// Compare-and-delete so an expired lock taken by another holder survives
	script := `
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		end
		return 0
	`
	return l.client.rdb.Eval(ctx, script, []string{l.key}, l.value).Err()
}
