package data

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/biz"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/logger"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/redis"
)

const lockKeyPrefix = "chat:lock:"

// RedisUserLocker serializes turns per user with a Redis lock.
type RedisUserLocker struct {
	client     *redis.Client
	ttl        time.Duration
	retries    int
	retryDelay time.Duration
	logger     *logger.Logger
}

// NewRedisUserLocker creates a locker. ttl bounds how long a crashed
// holder can block the user.
func NewRedisUserLocker(client *redis.Client, ttl time.Duration, retries int, retryDelay time.Duration, lgr *logger.Logger) *RedisUserLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if retryDelay <= 0 {
		retryDelay = 100 * time.Millisecond
	}
	if lgr == nil {
		lgr = logger.L()
	}
	return &RedisUserLocker{client: client, ttl: ttl, retries: retries, retryDelay: retryDelay, logger: lgr}
}

// WithUserLock runs fn while holding the user's lock. It returns
// biz.ErrUserBusy when the lock cannot be taken in time.
func (l *RedisUserLocker) WithUserLock(ctx context.Context, userID string, fn func(ctx context.Context) error) error {
	key := lockKeyPrefix + userID

	token, err := l.client.TryLock(ctx, key, l.ttl, l.retries, l.retryDelay)
	if err != nil {
		return fmt.Errorf("%w: %v", biz.ErrUserBusy, err)
	}
	defer func() {
		if err := l.client.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
			l.logger.Warn("failed to release chat lock", zap.String("user_id", userID), zap.Error(err))
		}
	}()

	return fn(ctx)
}

var _ biz.UserLocker = (*RedisUserLocker)(nil)
