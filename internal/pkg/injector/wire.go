//go:build wireinject
// +build wireinject

package injector

import (
	"github.com/google/wire"

	chatservice "github.com/lk2023060901/school-assistant-backend/internal/chatbot/service"
	"github.com/lk2023060901/school-assistant-backend/internal/conf"
	kbbiz "github.com/lk2023060901/school-assistant-backend/internal/knowledge/biz"
	"github.com/lk2023060901/school-assistant-backend/internal/knowledge/seed"
	kbservice "github.com/lk2023060901/school-assistant-backend/internal/knowledge/service"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/logger"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/markdown"
	"github.com/lk2023060901/school-assistant-backend/internal/server"
)

// ProviderSet is the Wire provider set for all dependencies
var ProviderSet = wire.NewSet(
	dataProviderSet,
	repositoryProviderSet,
	useCaseProviderSet,
	httpServiceProviderSet,
	serverProviderSet,
)

var dataProviderSet = wire.NewSet(
	provideData,
)

var repositoryProviderSet = wire.NewSet(
	provideEntryStore,
	provideKnowledgeEntryRepo,
	provideKnowledgeStore,
	provideConversationRepo,
	provideSeedSource,
)

var useCaseProviderSet = wire.NewSet(
	provideOracle,
	provideChatUseCase,
	kbbiz.NewKnowledgeUseCase,
	seed.NewImporter,
)

var httpServiceProviderSet = wire.NewSet(
	markdown.NewRenderer,
	chatservice.NewChatService,
	kbservice.NewKnowledgeService,
	provideVerifier,
	provideLimiter,
	provideRoutes,
)

var serverProviderSet = wire.NewSet(
	server.NewHTTPServer,
)

// InitializeApp initializes the application with Wire
func InitializeApp(config *conf.Config, log *logger.Logger) (*App, func(), error) {
	wire.Build(ProviderSet, newApp)
	return nil, nil, nil
}
