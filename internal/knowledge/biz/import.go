package biz

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/types"
)

// ImportResult 导入结果统计
type ImportResult struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
}

// Import 管理员批量导入（按问题 upsert）
func (uc *KnowledgeUseCase) Import(ctx context.Context, actor Actor, entries []CreateEntryRequest) (*ImportResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return uc.importEntries(ctx, actor.UserID, entries)
}

// ImportSeed 导入种子数据
// 幂等：同一份种子重复导入不会产生变化，使用次数保持不变
func (uc *KnowledgeUseCase) ImportSeed(ctx context.Context, entries []CreateEntryRequest) (*ImportResult, error) {
	return uc.importEntries(ctx, "", entries)
}

func (uc *KnowledgeUseCase) importEntries(ctx context.Context, createdBy string, entries []CreateEntryRequest) (*ImportResult, error) {
	if len(entries) == 0 {
		return nil, ErrEmptySeed
	}

	// 先校验全部条目，再写入存储
	prepared := make([]*types.KnowledgeEntry, 0, len(entries))
	for i := range entries {
		entry, err := uc.newEntry(&entries[i])
		if err != nil {
			return nil, fmt.Errorf("entry %d (%q): %w", i+1, entries[i].Question, err)
		}
		entry.CreatedBy = createdBy
		prepared = append(prepared, entry)
	}

	res := &ImportResult{}
	for _, entry := range prepared {
		existing, err := uc.repo.GetByQuestion(ctx, entry.Question)
		switch {
		case errors.Is(err, ErrEntryNotFound):
			if err := uc.repo.Create(ctx, entry); err != nil {
				return res, fmt.Errorf("create %q: %w", entry.Question, err)
			}
			res.Created++
		case err != nil:
			return res, fmt.Errorf("look up %q: %w", entry.Question, err)
		case sameContent(existing, entry):
			res.Unchanged++
		default:
			existing.Keywords = entry.Keywords
			existing.Answer = entry.Answer
			existing.Category = entry.Category
			existing.UpdatedAt = uc.now()
			if err := uc.repo.Update(ctx, existing); err != nil {
				return res, fmt.Errorf("update %q: %w", entry.Question, err)
			}
			res.Updated++
		}
	}

	uc.logger.WithContext(ctx).Info("knowledge import finished",
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("unchanged", res.Unchanged))
	return res, nil
}

func sameContent(existing, entry *types.KnowledgeEntry) bool {
	return existing.Answer == entry.Answer &&
		existing.Category == entry.Category &&
		slices.Equal(existing.Keywords, entry.Keywords)
}
