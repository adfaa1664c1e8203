package injector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/school-assistant-backend/internal/auth/middleware"
	chatdata "github.com/lk2023060901/school-assistant-backend/internal/chatbot/data"
	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/nlu"
	"github.com/lk2023060901/school-assistant-backend/internal/conf"
	"github.com/lk2023060901/school-assistant-backend/internal/data"
	kbdata "github.com/lk2023060901/school-assistant-backend/internal/knowledge/data"
	"github.com/lk2023060901/school-assistant-backend/internal/knowledge/seed"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/logger"
)

func memoryConfig() *conf.Config {
	return &conf.Config{
		Chat: conf.ChatConfig{HistoryBackend: conf.HistoryRedis, MaxTurns: 50, SerializePerUser: true},
		NLU:  conf.NLUConfig{Provider: nlu.ProviderNone, Timeout: time.Second, ConfidenceThreshold: 0.45},
		RateLimit: conf.RateLimitConfig{
			Enabled: true, Backend: conf.RateLimitRedis, MaxRequests: 5, Window: time.Minute,
		},
		Knowledge: conf.KnowledgeConfig{SeedSource: conf.SeedSourceMinIO, SeedPath: "configs/knowledge_seed.yaml"},
	}
}

func TestProviders_FallBackToMemory(t *testing.T) {
	cfg := memoryConfig()
	d := &data.Data{}
	log := logger.NewNop()

	store := provideEntryStore(d)
	assert.IsType(t, &kbdata.MemoryEntryRepo{}, store)
	assert.IsType(t, &chatdata.MemoryConversationRepo{}, provideConversationRepo(cfg, d))

	limiter, err := provideLimiter(cfg, d, log)
	require.NoError(t, err)
	assert.IsType(t, &middleware.MemoryLimiter{}, limiter)

	assert.Equal(t, seed.FileSource{Path: "configs/knowledge_seed.yaml"}, provideSeedSource(cfg, d))

	oracle, err := provideOracle(cfg, log)
	require.NoError(t, err)
	assert.False(t, oracle.Configured())

	uc := provideChatUseCase(cfg, provideKnowledgeStore(store), provideConversationRepo(cfg, d), oracle, d, log)
	reply, err := uc.HandleMessage(context.Background(), "u1", "student", "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, reply.Message)
}

func TestProvideLimiter_Disabled(t *testing.T) {
	cfg := memoryConfig()
	cfg.RateLimit.Enabled = false
	limiter, err := provideLimiter(cfg, &data.Data{}, logger.NewNop())
	require.NoError(t, err)
	assert.Nil(t, limiter)
}

func TestProvideVerifier(t *testing.T) {
	cfg := memoryConfig()
	_, err := provideVerifier(cfg)
	assert.Error(t, err)

	cfg.Auth.JWTSecret = "secret"
	v, err := provideVerifier(cfg)
	require.NoError(t, err)
	assert.NotNil(t, v)
}
