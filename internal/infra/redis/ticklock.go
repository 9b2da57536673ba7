package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const (
	DefaultTickLockKey = "outreach:followup-scheduler:lock"
	defaultTickLockTTL = 30 * time.Second
)

// releaseScript deletes the lock only while it still holds the caller's token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// TickLock is a single-holder lease used to keep scheduler replicas from
// scanning at the same time. The lease expires on its own after ttl.
type TickLock struct {
	client   *goredis.Client
	key      string
	ttl      time.Duration
	newToken func() string
	script   *goredis.Script
}

func NewTickLock(client *goredis.Client, key string, ttl time.Duration) (*TickLock, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultTickLockKey
	}
	if ttl <= 0 {
		ttl = defaultTickLockTTL
	}

	return &TickLock{
		client:   client,
		key:      key,
		ttl:      ttl,
		newToken: uuid.NewString,
		script:   releaseScript,
	}, nil
}

// Acquire tries to take the lease without waiting.
func (l *TickLock) Acquire(ctx context.Context) (func(context.Context) error, bool, error) {
	if l == nil || l.client == nil || l.script == nil {
		return nil, false, fmt.Errorf("tick lock is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	token := l.newToken()
	acquired, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire tick lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		if ctx == nil {
			ctx = context.Background()
		}
		_, err := l.script.Run(ctx, l.client, []string{l.key}, token).Int()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return fmt.Errorf("failed to release tick lock: %w", err)
		}
		return nil
	}

	return release, true, nil
}
