package middleware

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	apperrors "github.com/lk2023060901/school-assistant-backend/internal/pkg/errors"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/logger"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/redis"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/response"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/validator"
)

// Decision 一次限流检查的结果
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter 按 key 计数的限流器
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// RedisLimiter 基于 Redis 有序集合的滑动窗口限流器（多实例共享）
type RedisLimiter struct {
	client      *redis.Client
	maxRequests int
	window      time.Duration
}

func NewRedisLimiter(client *redis.Client, maxRequests int, windowSize time.Duration) *RedisLimiter {
	maxRequests, windowSize = limiterDefaults(maxRequests, windowSize)
	return &RedisLimiter{client: client, maxRequests: maxRequests, window: windowSize}
}

// score 为毫秒时间戳；member 唯一，同一毫秒内的请求也会分别计数
const slidingWindowScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local current = redis.call('ZCARD', key)

if current < limit then
	redis.call('ZADD', key, now, member)
	redis.call('PEXPIRE', key, window)
	return {1, limit - current - 1, now + window}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')[2]
return {0, 0, tonumber(oldest) + window}
`

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := time.Now().UnixMilli()
	result, err := l.client.Eval(ctx, slidingWindowScript, []string{key},
		now, l.window.Milliseconds(), l.maxRequests, uuid.NewString())
	if err != nil {
		return Decision{}, err
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 3 {
		return Decision{}, fmt.Errorf("unexpected rate limit result %v", result)
	}
	allowed, _ := values[0].(int64)
	remaining, _ := values[1].(int64)
	reset, _ := values[2].(int64)

	return Decision{
		Allowed:   allowed == 1,
		Limit:     l.maxRequests,
		Remaining: int(remaining),
		ResetAt:   time.UnixMilli(reset),
	}, nil
}

type window struct {
	start time.Time
	count int
}

// MemoryLimiter 基于 LRU 的固定窗口限流器（仅单进程内有效）
type MemoryLimiter struct {
	mu          sync.Mutex
	windows     *lru.Cache
	maxRequests int
	window      time.Duration
	now         func() time.Time
}

func NewMemoryLimiter(maxRequests int, windowSize time.Duration, maxKeys int) (*MemoryLimiter, error) {
	if maxKeys <= 0 {
		maxKeys = 10000
	}
	cache, err := lru.New(maxKeys)
	if err != nil {
		return nil, err
	}
	maxRequests, windowSize = limiterDefaults(maxRequests, windowSize)
	return &MemoryLimiter{windows: cache, maxRequests: maxRequests, window: windowSize, now: time.Now}, nil
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows.Get(key)
	cur, _ := w.(*window)
	if !ok || cur == nil || now.Sub(cur.start) >= l.window {
		cur = &window{start: now}
		l.windows.Add(key, cur)
	}

	d := Decision{Limit: l.maxRequests, ResetAt: cur.start.Add(l.window)}
	if cur.count >= l.maxRequests {
		return d, nil
	}
	cur.count++
	d.Allowed = true
	d.Remaining = l.maxRequests - cur.count
	return d, nil
}

func limiterDefaults(maxRequests int, size time.Duration) (int, time.Duration) {
	if maxRequests <= 0 {
		maxRequests = 30
	}
	if size <= 0 {
		size = time.Minute
	}
	return maxRequests, size
}

// RateLimiter 限流中间件
// 已认证请求按用户限流，否则按客户端 IP；限流器出错时放行
func RateLimiter(limiter Limiter, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rateLimitKey(c)

		d, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Error("rate limiter error", zap.Error(err), zap.String("key", key))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

		if !d.Allowed {
			retry := int(time.Until(d.ResetAt).Seconds()) + 1
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			response.AbortWithCode(c, apperrors.ErrTooManyRequests)
			return
		}

		c.Next()
	}
}

func rateLimitKey(c *gin.Context) string {
	const prefix = "rate_limit"
	if userID := c.GetString("user_id"); userID != "" {
		return prefix + ":user:" + userID
	}
	return prefix + ":ip:" + validator.GetIPOrDefault(c.ClientIP(), "unknown")
}
