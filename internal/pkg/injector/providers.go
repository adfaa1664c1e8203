package injector

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/lk2023060901/school-assistant-backend/internal/auth"
	"github.com/lk2023060901/school-assistant-backend/internal/auth/middleware"
	chatbiz "github.com/lk2023060901/school-assistant-backend/internal/chatbot/biz"
	chatdata "github.com/lk2023060901/school-assistant-backend/internal/chatbot/data"
	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/nlu"
	chatservice "github.com/lk2023060901/school-assistant-backend/internal/chatbot/service"
	"github.com/lk2023060901/school-assistant-backend/internal/conf"
	"github.com/lk2023060901/school-assistant-backend/internal/data"
	kbbiz "github.com/lk2023060901/school-assistant-backend/internal/knowledge/biz"
	kbdata "github.com/lk2023060901/school-assistant-backend/internal/knowledge/data"
	"github.com/lk2023060901/school-assistant-backend/internal/knowledge/seed"
	kbservice "github.com/lk2023060901/school-assistant-backend/internal/knowledge/service"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/logger"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/oauth2"
	"github.com/lk2023060901/school-assistant-backend/internal/server"
)

// entryStore is one repository serving both the admin use case and the
// chat pipeline.
type entryStore interface {
	kbbiz.KnowledgeEntryRepo
	chatbiz.KnowledgeStore
}

func provideData(config *conf.Config, log *logger.Logger) (*data.Data, func(), error) {
	return data.NewData(config, log)
}

func provideEntryStore(d *data.Data) entryStore {
	if d.DB != nil {
		return kbdata.NewKnowledgeEntryRepo(d.DB)
	}
	return kbdata.NewMemoryEntryRepo()
}

func provideKnowledgeEntryRepo(s entryStore) kbbiz.KnowledgeEntryRepo { return s }

func provideKnowledgeStore(s entryStore) chatbiz.KnowledgeStore { return s }

func provideConversationRepo(config *conf.Config, d *data.Data) chatbiz.ConversationRepo {
	switch {
	case config.Chat.HistoryBackend == conf.HistoryRedis && d.Redis != nil:
		return chatdata.NewRedisConversationRepo(d.Redis, config.Chat.MaxTurns, config.Chat.HistoryTTL)
	case d.DB != nil:
		return chatdata.NewConversationRepo(d.DB)
	default:
		return chatdata.NewMemoryConversationRepo()
	}
}

func provideOracle(config *conf.Config, log *logger.Logger) (nlu.Oracle, error) {
	c := config.NLU
	return nlu.New(context.Background(), nlu.Options{
		Provider: c.Provider,
		Timeout:  c.Timeout,
		Dialogflow: nlu.DialogflowConfig{
			ProjectID:    c.Dialogflow.ProjectID,
			LanguageCode: c.Dialogflow.LanguageCode,
			Endpoint:     c.Dialogflow.Endpoint,
		},
		Credentials: oauth2.Config{
			CredentialsJSON: c.Dialogflow.CredentialsJSON,
			CredentialsFile: c.Dialogflow.CredentialsFile,
		},
		OpenAI: nlu.OpenAIConfig{
			APIKey:  c.OpenAI.APIKey,
			BaseURL: c.OpenAI.BaseURL,
			Model:   c.OpenAI.Model,
		},
	}, log)
}

func provideChatUseCase(
	config *conf.Config,
	store chatbiz.KnowledgeStore,
	conversations chatbiz.ConversationRepo,
	oracle nlu.Oracle,
	d *data.Data,
	log *logger.Logger,
) *chatbiz.ChatUseCase {
	var opts []chatbiz.Option
	if config.Chat.SerializePerUser {
		if d.Redis != nil {
			opts = append(opts, chatbiz.WithLocker(chatdata.NewRedisUserLocker(
				d.Redis, config.Chat.LockTTL, config.Chat.LockRetries, config.Chat.LockRetryDelay, log)))
		} else {
			log.Warn("chat.serialize_per_user needs redis, turns are not serialized")
		}
	}

	return chatbiz.NewChatUseCase(store, conversations, oracle, chatbiz.ChatConfig{
		MaxTurns:            config.Chat.MaxTurns,
		TurnTimeout:         config.Chat.TurnTimeout,
		NLUTimeout:          config.NLU.Timeout,
		ConfidenceThreshold: config.NLU.ConfidenceThreshold,
	}, log, opts...)
}

func provideSeedSource(config *conf.Config, d *data.Data) seed.Source {
	if config.Knowledge.SeedSource == conf.SeedSourceMinIO && d.MinIO != nil {
		return seed.ObjectSource{Reader: d.MinIO, Bucket: d.Bucket, Key: config.Knowledge.SeedObjectKey}
	}
	return seed.FileSource{Path: config.Knowledge.SeedPath}
}

func provideVerifier(config *conf.Config) (*auth.Verifier, error) {
	if config.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}
	return auth.NewVerifier(config.Auth.JWTSecret, config.Auth.JWTIssuer), nil
}

func provideLimiter(config *conf.Config, d *data.Data, log *logger.Logger) (middleware.Limiter, error) {
	c := config.RateLimit
	if !c.Enabled {
		return nil, nil
	}
	if c.Backend == conf.RateLimitRedis {
		if d.Redis != nil {
			return middleware.NewRedisLimiter(d.Redis, c.MaxRequests, c.Window), nil
		}
		log.Warn("redis rate limiter selected without redis, using memory", zap.String("backend", c.Backend))
	}
	return middleware.NewMemoryLimiter(c.MaxRequests, c.Window, c.MaxKeys)
}

func provideRoutes(
	chat *chatservice.ChatService,
	knowledge *kbservice.KnowledgeService,
	verifier *auth.Verifier,
	limiter middleware.Limiter,
	d *data.Data,
) *server.Routes {
	return &server.Routes{
		Chat:      chat,
		Knowledge: knowledge,
		Verifier:  verifier,
		Limiter:   limiter,
		Health:    d,
	}
}
