package biz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"

	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/textnorm"
	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/types"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/logger"
)

const (
	DefaultPageSize    = 20
	MaxPageSize        = 100
	DefaultSuggestSize = 5
)

// Actor 管理操作的调用者
type Actor struct {
	UserID string
	Role   types.Role
}

// KnowledgeEntryRepo 知识条目仓储接口
type KnowledgeEntryRepo interface {
	Create(ctx context.Context, entry *types.KnowledgeEntry) error
	GetByID(ctx context.Context, id string) (*types.KnowledgeEntry, error)
	GetByQuestion(ctx context.Context, question string) (*types.KnowledgeEntry, error)
	List(ctx context.Context, req *ListEntriesRequest) ([]*types.KnowledgeEntry, int64, error)
	ListAll(ctx context.Context) ([]*types.KnowledgeEntry, error)
	Update(ctx context.Context, entry *types.KnowledgeEntry) error
	Delete(ctx context.Context, id string) error
	IncrementUsage(ctx context.Context, id string) error
	ResetUsage(ctx context.Context, id string) error
}

// CreateEntryRequest 创建知识条目请求
// Keywords 为空时根据问题自动生成
type CreateEntryRequest struct {
	Question string
	Keywords []string
	Answer   string
	Category types.Category
}

// UpdateEntryRequest 更新知识条目请求（nil 或空字段保持不变）
type UpdateEntryRequest struct {
	Question *string
	Keywords []string
	Answer   *string
	Category *types.Category
}

// ListEntriesRequest 知识条目列表查询（过滤 + 分页）
type ListEntriesRequest struct {
	Category types.Category
	Search   string
	Page     int
	PageSize int
}

// Suggestion 问题模糊匹配结果
type Suggestion struct {
	ID       string         `json:"id"`
	Question string         `json:"question"`
	Category types.Category `json:"category"`
	Score    int            `json:"score"`
}

// KnowledgeUseCase 知识库管理业务逻辑
type KnowledgeUseCase struct {
	repo   KnowledgeEntryRepo
	now    func() time.Time
	logger *logger.Logger
}

// NewKnowledgeUseCase 创建知识库管理用例
func NewKnowledgeUseCase(repo KnowledgeEntryRepo, lgr *logger.Logger) *KnowledgeUseCase {
	if lgr == nil {
		lgr = logger.L()
	}
	return &KnowledgeUseCase{
		repo:   repo,
		now:    time.Now,
		logger: lgr.Named("knowledge"),
	}
}

func requireAdmin(actor Actor) error {
	if actor.UserID == "" {
		return ErrUnauthorized
	}
	if actor.Role != types.RoleAdmin {
		return ErrForbidden
	}
	return nil
}

// CreateEntry 创建知识条目
// 问题统一转为小写并去除首尾空白，分类默认为 general
func (uc *KnowledgeUseCase) CreateEntry(ctx context.Context, actor Actor, req *CreateEntryRequest) (*types.KnowledgeEntry, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	entry, err := uc.newEntry(req)
	if err != nil {
		return nil, err
	}
	entry.CreatedBy = actor.UserID

	if err := uc.repo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("create knowledge entry: %w", err)
	}

	uc.logger.WithContext(ctx).Info("knowledge entry created",
		zap.String("entry_id", entry.ID),
		zap.String("category", string(entry.Category)))
	return entry, nil
}

func (uc *KnowledgeUseCase) newEntry(req *CreateEntryRequest) (*types.KnowledgeEntry, error) {
	question := strings.ToLower(strings.TrimSpace(req.Question))
	if question == "" || strings.TrimSpace(req.Answer) == "" {
		return nil, ErrQuestionRequired
	}

	category := req.Category
	if category == "" {
		category = types.CategoryGeneral
	}
	if !category.Valid() {
		return nil, ErrInvalidCategory
	}

	keywords := textnorm.CleanKeywords(req.Keywords)
	if len(keywords) == 0 {
		keywords = textnorm.AutoKeywords(question)
	}

	now := uc.now()
	return &types.KnowledgeEntry{
		ID:        uuid.New().String(),
		Question:  question,
		Keywords:  keywords,
		Answer:    req.Answer,
		Category:  category,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetEntry 获取知识条目
func (uc *KnowledgeUseCase) GetEntry(ctx context.Context, id string) (*types.KnowledgeEntry, error) {
	return uc.repo.GetByID(ctx, id)
}

// ListEntries 分页查询知识条目（按使用次数降序，其次按创建时间降序）
func (uc *KnowledgeUseCase) ListEntries(ctx context.Context, req *ListEntriesRequest) ([]*types.KnowledgeEntry, int64, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = DefaultPageSize
	}
	if req.PageSize > MaxPageSize {
		req.PageSize = MaxPageSize
	}
	if req.Category != "" && !req.Category.Valid() {
		return nil, 0, ErrInvalidCategory
	}
	req.Search = strings.TrimSpace(req.Search)

	return uc.repo.List(ctx, req)
}

// UpdateEntry 更新知识条目（部分更新）
func (uc *KnowledgeUseCase) UpdateEntry(ctx context.Context, actor Actor, id string, req *UpdateEntryRequest) (*types.KnowledgeEntry, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	entry, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Question != nil {
		if q := strings.ToLower(strings.TrimSpace(*req.Question)); q != "" {
			entry.Question = q
		}
	}
	if len(req.Keywords) > 0 {
		entry.Keywords = textnorm.CleanKeywords(req.Keywords)
	}
	if req.Answer != nil && strings.TrimSpace(*req.Answer) != "" {
		entry.Answer = *req.Answer
	}
	if req.Category != nil && *req.Category != "" {
		if !req.Category.Valid() {
			return nil, ErrInvalidCategory
		}
		entry.Category = *req.Category
	}
	entry.UpdatedAt = uc.now()

	if err := uc.repo.Update(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// DeleteEntry 删除知识条目
func (uc *KnowledgeUseCase) DeleteEntry(ctx context.Context, actor Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.logger.WithContext(ctx).Info("knowledge entry deleted", zap.String("entry_id", id))
	return nil
}

// ResetUsage 重置使用次数
func (uc *KnowledgeUseCase) ResetUsage(ctx context.Context, actor Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return uc.repo.ResetUsage(ctx, id)
}

// questionSource 适配 fuzzy.Source
type questionSource []*types.KnowledgeEntry

func (s questionSource) String(i int) string { return s[i].Question }
func (s questionSource) Len() int            { return len(s) }

// Suggest 返回与 q 最接近的问题（按匹配度降序）
func (uc *KnowledgeUseCase) Suggest(ctx context.Context, q string, limit int) ([]Suggestion, error) {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return nil, ErrSuggestQueryMissing
	}
	if limit <= 0 {
		limit = DefaultSuggestSize
	}

	entries, err := uc.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list knowledge entries: %w", err)
	}

	matches := fuzzy.FindFrom(q, questionSource(entries))
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]Suggestion, 0, len(matches))
	for _, m := range matches {
		e := entries[m.Index]
		out = append(out, Suggestion{ID: e.ID, Question: e.Question, Category: e.Category, Score: m.Score})
	}
	return out, nil
}
