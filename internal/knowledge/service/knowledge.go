package service

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/types"
	"github.com/lk2023060901/school-assistant-backend/internal/knowledge/biz"
	"github.com/lk2023060901/school-assistant-backend/internal/knowledge/seed"
	apperrors "github.com/lk2023060901/school-assistant-backend/internal/pkg/errors"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/logger"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/response"
)

const maxImportBytes = 1 << 20

// KnowledgeService 知识库 HTTP 服务
type KnowledgeService struct {
	uc     *biz.KnowledgeUseCase
	logger *logger.Logger
}

// NewKnowledgeService 创建知识库 HTTP 服务
func NewKnowledgeService(uc *biz.KnowledgeUseCase, logger *logger.Logger) *KnowledgeService {
	return &KnowledgeService{
		uc:     uc,
		logger: logger,
	}
}

// RegisterRoutes 注册知识库路由
// adminOnly 保护写操作路由，业务层会再次校验角色
func (s *KnowledgeService) RegisterRoutes(rg *gin.RouterGroup, adminOnly gin.HandlerFunc) {
	kb := rg.Group("/knowledge")
	kb.GET("", s.ListEntries)
	kb.GET("/suggest", s.Suggest)
	kb.GET("/:id", s.GetEntry)

	admin := kb.Group("")
	if adminOnly != nil {
		admin.Use(adminOnly)
	}
	admin.POST("", s.CreateEntry)
	admin.POST("/import", s.Import)
	admin.PUT("/:id", s.UpdateEntry)
	admin.DELETE("/:id", s.DeleteEntry)
	admin.POST("/:id/reset-usage", s.ResetUsage)
}

func actorFrom(c *gin.Context) biz.Actor {
	return biz.Actor{
		UserID: c.GetString("user_id"),
		Role:   types.ParseRole(c.GetString("role")),
	}
}

// ListEntries 分页查询知识条目
func (s *KnowledgeService) ListEntries(c *gin.Context) {
	var req ListEntriesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	listReq := &biz.ListEntriesRequest{
		Category: types.Category(req.Category),
		Search:   req.Search,
		Page:     req.Page,
		PageSize: req.Limit,
	}
	entries, total, err := s.uc.ListEntries(c.Request.Context(), listReq)
	if err != nil {
		s.handleError(c, err)
		return
	}

	response.Success(c, &ListEntriesResponse{
		Entries:    entries,
		Pagination: newPagination(listReq.Page, listReq.PageSize, total),
	})
}

// GetEntry 获取知识条目详情
func (s *KnowledgeService) GetEntry(c *gin.Context) {
	entry, err := s.uc.GetEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.handleError(c, err)
		return
	}
	response.Success(c, entry)
}

// Suggest 问题模糊搜索建议
func (s *KnowledgeService) Suggest(c *gin.Context) {
	var req SuggestRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "query parameter q is required")
		return
	}

	suggestions, err := s.uc.Suggest(c.Request.Context(), req.Query, req.Limit)
	if err != nil {
		s.handleError(c, err)
		return
	}
	response.Success(c, gin.H{"suggestions": suggestions})
}

// CreateEntry 创建知识条目
func (s *KnowledgeService) CreateEntry(c *gin.Context) {
	var req CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "question and answer are required")
		return
	}

	entry, err := s.uc.CreateEntry(c.Request.Context(), actorFrom(c), &biz.CreateEntryRequest{
		Question: req.Question,
		Keywords: req.Keywords,
		Answer:   req.Answer,
		Category: types.Category(req.Category),
	})
	if err != nil {
		s.handleError(c, err)
		return
	}
	response.Created(c, entry)
}

// UpdateEntry 更新知识条目
func (s *KnowledgeService) UpdateEntry(c *gin.Context) {
	var req UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	update := &biz.UpdateEntryRequest{
		Question: req.Question,
		Keywords: req.Keywords,
		Answer:   req.Answer,
	}
	if req.Category != nil {
		category := types.Category(*req.Category)
		update.Category = &category
	}

	entry, err := s.uc.UpdateEntry(c.Request.Context(), actorFrom(c), c.Param("id"), update)
	if err != nil {
		s.handleError(c, err)
		return
	}
	response.Success(c, entry)
}

// DeleteEntry 删除知识条目
func (s *KnowledgeService) DeleteEntry(c *gin.Context) {
	if err := s.uc.DeleteEntry(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		s.handleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Knowledge entry deleted successfully", nil)
}

// ResetUsage 重置使用次数
func (s *KnowledgeService) ResetUsage(c *gin.Context) {
	if err := s.uc.ResetUsage(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		s.handleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Usage count reset", nil)
}

// Import 从请求体中的 YAML 文档批量导入
func (s *KnowledgeService) Import(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)
	raw, err := io.ReadAll(body)
	if err != nil {
		response.HandleError(c, apperrors.New(apperrors.ErrKBSeedTooLarge))
		return
	}

	entries, err := seed.Parse(bytes.NewReader(raw))
	if err != nil {
		if errors.Is(err, biz.ErrEmptySeed) {
			response.HandleError(c, apperrors.New(apperrors.ErrKBEmptySeed))
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	res, err := s.uc.Import(c.Request.Context(), actorFrom(c), entries)
	if err != nil {
		s.handleError(c, err)
		return
	}
	response.Success(c, res)
}

func (s *KnowledgeService) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, biz.ErrEntryNotFound):
		response.NotFound(c, "Knowledge entry not found")
	case errors.Is(err, biz.ErrQuestionRequired):
		response.BadRequest(c, "Question and answer are required")
	case errors.Is(err, biz.ErrInvalidCategory):
		response.BadRequest(c, "invalid category")
	case errors.Is(err, biz.ErrSuggestQueryMissing):
		response.BadRequest(c, "query parameter q is required")
	case errors.Is(err, biz.ErrEmptySeed):
		response.BadRequest(c, "seed contains no entries")
	case errors.Is(err, biz.ErrUnauthorized):
		response.Unauthorized(c, "unauthorized")
	case errors.Is(err, biz.ErrForbidden):
		response.Forbidden(c, "admin role required")
	default:
		s.logger.WithContext(c.Request.Context()).Error("knowledge request failed", zap.Error(err))
		response.InternalError(c, "internal server error")
	}
}
