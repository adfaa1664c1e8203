//go:build integration

package data

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/biz"
	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/types"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/database"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/logger"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/redis"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func setupTestDB(t *testing.T) *database.DB {
	cfg := database.DefaultConfig()
	cfg.Host = getEnv("TEST_DB_HOST", "localhost")
	cfg.User = getEnv("TEST_DB_USER", "postgres")
	cfg.Password = getEnv("TEST_DB_PASSWORD", "postgres")
	cfg.DBName = getEnv("TEST_DB_NAME", "schoolbot")

	db, err := database.New(cfg, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&ConversationPO{}))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func setupTestRedis(t *testing.T) *redis.Client {
	cfg := redis.DefaultConfig()
	cfg.MasterAddr = getEnv("TEST_REDIS_ADDR", "localhost:6379")

	client, err := redis.New(cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func exerciseRepo(t *testing.T, repo biz.ConversationRepo) {
	ctx := context.Background()
	userID := uuid.New().String()

	_, err := repo.Get(ctx, userID)
	require.ErrorIs(t, err, biz.ErrConversationNotFound)

	conv, err := repo.Create(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, conv.Turns)

	for i := 0; i < 60; i++ {
		conv.Append(types.RoleUser, fmt.Sprintf("turn %d", i), time.Now())
	}
	conv.Trim(biz.DefaultMaxTurns)
	require.NoError(t, repo.Save(ctx, conv))

	stored, err := repo.Get(ctx, userID)
	require.NoError(t, err)
	require.Len(t, stored.Turns, biz.DefaultMaxTurns)
	assert.Equal(t, "turn 10", stored.Turns[0].Content)
	assert.Equal(t, "turn 59", stored.Turns[49].Content)

	require.NoError(t, repo.Clear(ctx, userID))
	stored, err = repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, stored.Turns)
}

func TestConversationRepo_Postgres(t *testing.T) {
	exerciseRepo(t, NewConversationRepo(setupTestDB(t)))
}

func TestConversationRepo_Redis(t *testing.T) {
	exerciseRepo(t, NewRedisConversationRepo(setupTestRedis(t), biz.DefaultMaxTurns, time.Hour))
}

func TestRedisUserLocker(t *testing.T) {
	client := setupTestRedis(t)
	locker := NewRedisUserLocker(client, 5*time.Second, 0, 10*time.Millisecond, logger.NewNop())
	ctx := context.Background()
	userID := uuid.New().String()

	err := locker.WithUserLock(ctx, userID, func(ctx context.Context) error {
		// a second turn for the same user cannot enter
		inner := locker.WithUserLock(ctx, userID, func(context.Context) error { return nil })
		assert.ErrorIs(t, inner, biz.ErrUserBusy)
		return nil
	})
	require.NoError(t, err)

	// released afterwards
	require.NoError(t, locker.WithUserLock(ctx, userID, func(context.Context) error { return nil }))
}
