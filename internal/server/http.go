package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lk2023060901/school-assistant-backend/internal/auth"
	"github.com/lk2023060901/school-assistant-backend/internal/auth/middleware"
	chatservice "github.com/lk2023060901/school-assistant-backend/internal/chatbot/service"
	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/types"
	"github.com/lk2023060901/school-assistant-backend/internal/conf"
	kbservice "github.com/lk2023060901/school-assistant-backend/internal/knowledge/service"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/logger"
)

// HealthChecker 存储组件健康检查
type HealthChecker interface {
	Check(ctx context.Context) (map[string]string, bool)
}

type HTTPServer struct {
	server          *http.Server
	shutdownTimeout time.Duration
	logger          *logger.Logger
}

// Routes 路由依赖
type Routes struct {
	Chat      *chatservice.ChatService
	Knowledge *kbservice.KnowledgeService
	Verifier  *auth.Verifier
	Limiter   middleware.Limiter // 为 nil 时不限流
	Health    HealthChecker
}

func NewHTTPServer(config *conf.Config, log *logger.Logger, routes *Routes) *HTTPServer {
	if config.Server.Mode != "" {
		gin.SetMode(config.Server.Mode)
	}

	return &HTTPServer{
		server: &http.Server{
			Addr:              config.Server.Addr(),
			Handler:           NewRouter(log, routes),
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: config.Server.ShutdownTimeout,
		logger:          log,
	}
}

// NewRouter 创建 gin 引擎并注册所有路由
func NewRouter(log *logger.Logger, routes *Routes) *gin.Engine {
	router := gin.New()
	router.Use(logger.GinRecovery(log))
	router.Use(logger.GinLogger(log, "/health"))
	router.Use(middleware.CORS())

	router.GET("/health", healthHandler(routes.Health))

	api := router.Group("/api/v1")
	api.Use(middleware.JWTAuth(routes.Verifier, log))
	if routes.Limiter != nil {
		api.Use(middleware.RateLimiter(routes.Limiter, log))
	}

	routes.Chat.RegisterRoutes(api)
	routes.Knowledge.RegisterRoutes(api, middleware.RequireRole(string(types.RoleAdmin)))

	return router
}

func healthHandler(checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := map[string]string{}
		healthy := true
		if checker != nil {
			checks, healthy = checker.Check(c.Request.Context())
		}

		status, code := "ok", http.StatusOK
		if !healthy {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status": status,
			"checks": checks,
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}

// Start 启动 HTTP 服务（阻塞直到服务停止）
func (s *HTTPServer) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 优雅关闭，在超时时间内等待处理中的请求完成
func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	if s.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.shutdownTimeout)
		defer cancel()
	}
	return s.server.Shutdown(ctx)
}
