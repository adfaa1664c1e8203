package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const unlockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`

// Lock 使用 SET NX 获取分布式锁，返回持有锁的 token
func (c *Client) Lock(ctx context.Context, key string, expiration time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := c.SetNX(ctx, key, token, expiration)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrLockNotAcquired, key)
	}
	c.logger.Debug("redis lock acquired", zap.String("key", key), zap.Duration("expiration", expiration))
	return token, nil
}

// TryLock 尝试获取锁，失败后最多重试 maxRetries 次，每次间隔 retryDelay
func (c *Client) TryLock(ctx context.Context, key string, expiration time.Duration, maxRetries int, retryDelay time.Duration) (string, error) {
	var err error
	for i := 0; i <= maxRetries; i++ {
		var token string
		if token, err = c.Lock(ctx, key, expiration); err == nil {
			return token, nil
		}
		if i == maxRetries {
			break
		}

		timer := time.NewTimer(retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	return "", fmt.Errorf("failed to acquire lock after %d retries: %w", maxRetries, err)
}

// Unlock 释放锁（仅当 token 匹配时删除）
func (c *Client) Unlock(ctx context.Context, key, token string) error {
	result, err := c.Eval(ctx, unlockScript, []string{key}, token)
	if err != nil {
		return err
	}
	if n, _ := result.(int64); n == 0 {
		return ErrLockNotHeld
	}
	return nil
}
