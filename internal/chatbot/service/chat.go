package service

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/biz"
	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/types"
	apperrors "github.com/lk2023060901/school-assistant-backend/internal/pkg/errors"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/logger"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/markdown"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/response"
)

// ChatService exposes the chat pipeline over HTTP.
type ChatService struct {
	uc       *biz.ChatUseCase
	renderer *markdown.Renderer
	logger   *logger.Logger
}

// NewChatService creates the chat HTTP service.
func NewChatService(uc *biz.ChatUseCase, renderer *markdown.Renderer, logger *logger.Logger) *ChatService {
	return &ChatService{
		uc:       uc,
		renderer: renderer,
		logger:   logger,
	}
}

// RegisterRoutes mounts the chat endpoints. Callers put identity
// middleware on rg.
func (s *ChatService) RegisterRoutes(rg *gin.RouterGroup) {
	chat := rg.Group("/chat")
	chat.POST("/message", s.SendMessage)
	chat.GET("/history", s.GetHistory)
	chat.DELETE("/history", s.ClearHistory)
}

// SendMessage handles one chat turn.
func (s *ChatService) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "message is required")
		return
	}
	var query SendMessageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := c.GetString("user_id")
	if userID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}
	role := types.ParseRole(c.GetString("role"))

	reply, err := s.uc.HandleMessage(c.Request.Context(), userID, role, req.Message)
	if err != nil {
		s.handleError(c, err)
		return
	}

	resp := &MessageResponse{
		Message: reply.Message,
		History: reply.History,
		Meta:    reply.Meta,
	}
	if query.Format == "html" && s.renderer != nil {
		html, err := s.renderer.Render(reply.Message)
		if err != nil {
			s.logger.Warn("failed to render reply", zap.Error(err))
		} else {
			resp.HTML = html
		}
	}

	response.Success(c, resp)
}

// GetHistory returns the caller's conversation.
func (s *ChatService) GetHistory(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}

	turns, err := s.uc.GetHistory(c.Request.Context(), userID)
	if err != nil {
		s.handleError(c, err)
		return
	}

	response.Success(c, &HistoryResponse{Messages: turns})
}

// ClearHistory drops the caller's conversation turns.
func (s *ChatService) ClearHistory(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}

	if err := s.uc.ClearHistory(c.Request.Context(), userID); err != nil {
		s.handleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "Chat history cleared", nil)
}

func (s *ChatService) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, biz.ErrEmptyMessage):
		response.BadRequest(c, "message is required")
	case errors.Is(err, biz.ErrUserRequired):
		response.Unauthorized(c, "unauthorized")
	case errors.Is(err, biz.ErrUserBusy):
		response.HandleError(c, apperrors.New(apperrors.ErrChatUserBusy))
	default:
		s.logger.WithContext(c.Request.Context()).Error("chat request failed", zap.Error(err))
		response.InternalError(c, "failed to process message")
	}
}
