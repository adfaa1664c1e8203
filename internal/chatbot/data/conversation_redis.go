package data

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/biz"
	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/types"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/redis"
)

const (
	historyKeyPrefix = "chat:history:"
	createdKeyPrefix = "chat:created:"
)

// RedisConversationRepo keeps each conversation as a Redis list of JSON
// turns plus a marker key holding the creation time.
type RedisConversationRepo struct {
	client   *redis.Client
	maxTurns int
	ttl      time.Duration
}

// NewRedisConversationRepo creates a Redis conversation repository. A
// zero ttl keeps conversations forever.
func NewRedisConversationRepo(client *redis.Client, maxTurns int, ttl time.Duration) *RedisConversationRepo {
	if maxTurns <= 0 {
		maxTurns = biz.DefaultMaxTurns
	}
	return &RedisConversationRepo{client: client, maxTurns: maxTurns, ttl: ttl}
}

func historyKey(userID string) string { return historyKeyPrefix + userID }
func createdKey(userID string) string { return createdKeyPrefix + userID }

func (r *RedisConversationRepo) Get(ctx context.Context, userID string) (*types.Conversation, error) {
	created, err := r.client.Get(ctx, createdKey(userID))
	if err != nil {
		if redis.IsNil(err) {
			return nil, biz.ErrConversationNotFound
		}
		return nil, err
	}

	items, err := r.client.LRange(ctx, historyKey(userID), 0, -1)
	if err != nil {
		return nil, err
	}

	conv := &types.Conversation{UserID: userID, Turns: make([]types.Turn, 0, len(items))}
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		conv.CreatedAt = t
	}
	for _, item := range items {
		var turn types.Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, fmt.Errorf("decode turn: %w", err)
		}
		conv.Turns = append(conv.Turns, turn)
	}
	if n := len(conv.Turns); n > 0 {
		conv.UpdatedAt = conv.Turns[n-1].Timestamp
	}
	return conv, nil
}

func (r *RedisConversationRepo) Create(ctx context.Context, userID string) (*types.Conversation, error) {
	now := time.Now()
	if _, err := r.client.SetNX(ctx, createdKey(userID), now.Format(time.RFC3339Nano), r.ttl); err != nil {
		return nil, err
	}
	return r.Get(ctx, userID)
}

// Save replaces the stored list with conv's turns in one transaction.
func (r *RedisConversationRepo) Save(ctx context.Context, conv *types.Conversation) error {
	values := make([]interface{}, 0, len(conv.Turns))
	for _, turn := range conv.Turns {
		raw, err := json.Marshal(turn)
		if err != nil {
			return fmt.Errorf("encode turn: %w", err)
		}
		values = append(values, raw)
	}

	created := conv.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	key := historyKey(conv.UserID)
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(values) > 0 {
		pipe.RPush(ctx, key, values...)
		pipe.LTrim(ctx, key, int64(-r.maxTurns), -1)
	}
	pipe.SetNX(ctx, createdKey(conv.UserID), created.Format(time.RFC3339Nano), r.ttl)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
		pipe.Expire(ctx, createdKey(conv.UserID), r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisConversationRepo) Clear(ctx context.Context, userID string) error {
	_, err := r.client.Del(ctx, historyKey(userID))
	return err
}

var _ biz.ConversationRepo = (*RedisConversationRepo)(nil)
