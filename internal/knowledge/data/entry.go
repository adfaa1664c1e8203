package data

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	chatbiz "github.com/lk2023060901/school-assistant-backend/internal/chatbot/biz"
	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/types"
	"github.com/lk2023060901/school-assistant-backend/internal/knowledge/biz"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/database"
)

// KeywordsJSON 关键词（JSONB 数组）
type KeywordsJSON []string

func (j *KeywordsJSON) Scan(value interface{}) error {
	if value == nil {
		*j = KeywordsJSON{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported keywords column type %T", value)
	}
	return json.Unmarshal(raw, j)
}

func (j KeywordsJSON) Value() (driver.Value, error) {
	if j == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(j)
}

// KnowledgeEntryPO 知识条目数据库模型
type KnowledgeEntryPO struct {
	ID         string       `gorm:"type:uuid;primarykey"`
	Question   string       `gorm:"type:text;not null;uniqueIndex:idx_knowledge_entries_question"`
	Keywords   KeywordsJSON `gorm:"type:jsonb;not null;default:'[]'"`
	Answer     string       `gorm:"type:text;not null"`
	Category   string       `gorm:"size:32;not null;default:'general';index:idx_knowledge_entries_category"`
	UsageCount int64        `gorm:"not null;default:0"`
	CreatedBy  *string      `gorm:"size:64"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (KnowledgeEntryPO) TableName() string {
	return "knowledge_entries"
}

// KnowledgeEntryRepo 知识条目仓储（PostgreSQL 实现）
// 同时为对话流程提供只读查询
type KnowledgeEntryRepo struct {
	db *database.DB
}

// NewKnowledgeEntryRepo 创建知识条目仓储
func NewKnowledgeEntryRepo(db *database.DB) *KnowledgeEntryRepo {
	return &KnowledgeEntryRepo{db: db}
}

func (r *KnowledgeEntryRepo) gorm(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).GetDB()
}

func (r *KnowledgeEntryRepo) Create(ctx context.Context, entry *types.KnowledgeEntry) error {
	return r.gorm(ctx).Create(fromEntry(entry)).Error
}

func (r *KnowledgeEntryRepo) GetByID(ctx context.Context, id string) (*types.KnowledgeEntry, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *KnowledgeEntryRepo) GetByQuestion(ctx context.Context, question string) (*types.KnowledgeEntry, error) {
	return r.first(ctx, "question = ?", question)
}

func (r *KnowledgeEntryRepo) first(ctx context.Context, query string, args ...interface{}) (*types.KnowledgeEntry, error) {
	var po KnowledgeEntryPO
	if err := r.gorm(ctx).Where(query, args...).First(&po).Error; err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, biz.ErrEntryNotFound
		}
		return nil, err
	}
	return po.toEntry(), nil
}

// List 按分类过滤，并在问题、答案和关键词中做不区分大小写的搜索
func (r *KnowledgeEntryRepo) List(ctx context.Context, req *biz.ListEntriesRequest) ([]*types.KnowledgeEntry, int64, error) {
	query := r.gorm(ctx).Model(&KnowledgeEntryPO{}).
		Scopes(database.WhereIf(req.Category != "", "category = ?", string(req.Category)))

	if req.Search != "" {
		pattern := "%" + req.Search + "%"
		query = query.Where("question ILIKE ? OR answer ILIKE ? OR keywords::text ILIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var pos []KnowledgeEntryPO
	err := query.
		Order("usage_count DESC, created_at DESC").
		Scopes(database.Paginate(req.Page, req.PageSize)).
		Find(&pos).Error
	if err != nil {
		return nil, 0, err
	}

	return toEntries(pos), total, nil
}

// ListAll 按固定顺序返回所有条目
func (r *KnowledgeEntryRepo) ListAll(ctx context.Context) ([]*types.KnowledgeEntry, error) {
	var pos []KnowledgeEntryPO
	if err := r.gorm(ctx).Order("created_at ASC, id ASC").Find(&pos).Error; err != nil {
		return nil, err
	}
	return toEntries(pos), nil
}

func (r *KnowledgeEntryRepo) Update(ctx context.Context, entry *types.KnowledgeEntry) error {
	result := r.gorm(ctx).
		Model(&KnowledgeEntryPO{}).
		Where("id = ?", entry.ID).
		Updates(map[string]interface{}{
			"question":   entry.Question,
			"keywords":   KeywordsJSON(entry.Keywords),
			"answer":     entry.Answer,
			"category":   string(entry.Category),
			"updated_at": entry.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return biz.ErrEntryNotFound
	}
	return nil
}

func (r *KnowledgeEntryRepo) Delete(ctx context.Context, id string) error {
	result := r.gorm(ctx).Where("id = ?", id).Delete(&KnowledgeEntryPO{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return biz.ErrEntryNotFound
	}
	return nil
}

// IncrementUsage 使用次数 +1（单条 SQL 原子更新）
func (r *KnowledgeEntryRepo) IncrementUsage(ctx context.Context, id string) error {
	return r.setUsage(ctx, id, gorm.Expr("usage_count + 1"))
}

func (r *KnowledgeEntryRepo) ResetUsage(ctx context.Context, id string) error {
	return r.setUsage(ctx, id, 0)
}

func (r *KnowledgeEntryRepo) setUsage(ctx context.Context, id string, value interface{}) error {
	result := r.gorm(ctx).
		Model(&KnowledgeEntryPO{}).
		Where("id = ?", id).
		UpdateColumn("usage_count", value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return biz.ErrEntryNotFound
	}
	return nil
}

func fromEntry(e *types.KnowledgeEntry) *KnowledgeEntryPO {
	po := &KnowledgeEntryPO{
		ID:         e.ID,
		Question:   e.Question,
		Keywords:   KeywordsJSON(e.Keywords),
		Answer:     e.Answer,
		Category:   string(e.Category),
		UsageCount: e.UsageCount,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
	if e.CreatedBy != "" {
		createdBy := e.CreatedBy
		po.CreatedBy = &createdBy
	}
	return po
}

func (po *KnowledgeEntryPO) toEntry() *types.KnowledgeEntry {
	e := &types.KnowledgeEntry{
		ID:         po.ID,
		Question:   po.Question,
		Keywords:   []string(po.Keywords),
		Answer:     po.Answer,
		Category:   types.Category(po.Category),
		UsageCount: po.UsageCount,
		CreatedAt:  po.CreatedAt,
		UpdatedAt:  po.UpdatedAt,
	}
	if e.Keywords == nil {
		e.Keywords = []string{}
	}
	if po.CreatedBy != nil {
		e.CreatedBy = *po.CreatedBy
	}
	return e
}

func toEntries(pos []KnowledgeEntryPO) []*types.KnowledgeEntry {
	out := make([]*types.KnowledgeEntry, len(pos))
	for i := range pos {
		out[i] = pos[i].toEntry()
	}
	return out
}

var (
	_ biz.KnowledgeEntryRepo = (*KnowledgeEntryRepo)(nil)
	_ chatbiz.KnowledgeStore = (*KnowledgeEntryRepo)(nil)
)
