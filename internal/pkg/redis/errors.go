package redis

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

var (
	ErrNil             = redis.Nil
	ErrLockNotAcquired = errors.New("redis: lock is held by another owner")
	ErrLockNotHeld     = errors.New("redis: lock expired or owned by another token")
)

// IsNil 判断错误是否为 key 不存在
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
