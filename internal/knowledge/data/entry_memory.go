package data

import (
	"context"
	"sort"
	"strings"
	"sync"

	chatbiz "github.com/lk2023060901/school-assistant-backend/internal/chatbot/biz"
	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/types"
	"github.com/lk2023060901/school-assistant-backend/internal/knowledge/biz"
)

// MemoryEntryRepo 内存知识条目仓储
// 未配置数据库时使用，此时种子文件是唯一的数据来源
type MemoryEntryRepo struct {
	mu      sync.RWMutex
	entries map[string]*types.KnowledgeEntry
}

func NewMemoryEntryRepo() *MemoryEntryRepo {
	return &MemoryEntryRepo{entries: make(map[string]*types.KnowledgeEntry)}
}

func cloneEntry(e *types.KnowledgeEntry) *types.KnowledgeEntry {
	cp := *e
	cp.Keywords = append([]string{}, e.Keywords...)
	return &cp
}

func (r *MemoryEntryRepo) Create(_ context.Context, entry *types.KnowledgeEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.ID] = cloneEntry(entry)
	return nil
}

func (r *MemoryEntryRepo) GetByID(_ context.Context, id string) (*types.KnowledgeEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, biz.ErrEntryNotFound
	}
	return cloneEntry(e), nil
}

func (r *MemoryEntryRepo) GetByQuestion(_ context.Context, question string) (*types.KnowledgeEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.Question == question {
			return cloneEntry(e), nil
		}
	}
	return nil, biz.ErrEntryNotFound
}

func (r *MemoryEntryRepo) List(ctx context.Context, req *biz.ListEntriesRequest) ([]*types.KnowledgeEntry, int64, error) {
	all, _ := r.ListAll(ctx)
	search := strings.ToLower(req.Search)

	matched := make([]*types.KnowledgeEntry, 0, len(all))
	for _, e := range all {
		if req.Category != "" && e.Category != req.Category {
			continue
		}
		if search != "" && !entryContains(e, search) {
			continue
		}
		matched = append(matched, e)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].UsageCount != matched[j].UsageCount {
			return matched[i].UsageCount > matched[j].UsageCount
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (req.Page - 1) * req.PageSize
	if start < 0 || start >= len(matched) {
		return []*types.KnowledgeEntry{}, total, nil
	}
	end := start + req.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func entryContains(e *types.KnowledgeEntry, search string) bool {
	if strings.Contains(e.Question, search) || strings.Contains(strings.ToLower(e.Answer), search) {
		return true
	}
	for _, k := range e.Keywords {
		if strings.Contains(k, search) {
			return true
		}
	}
	return false
}

// ListAll 按创建时间升序返回所有条目
func (r *MemoryEntryRepo) ListAll(context.Context) ([]*types.KnowledgeEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*types.KnowledgeEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, cloneEntry(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryEntryRepo) Update(_ context.Context, entry *types.KnowledgeEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.entries[entry.ID]
	if !ok {
		return biz.ErrEntryNotFound
	}
	updated := cloneEntry(entry)
	updated.UsageCount = cur.UsageCount
	r.entries[entry.ID] = updated
	return nil
}

func (r *MemoryEntryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return biz.ErrEntryNotFound
	}
	delete(r.entries, id)
	return nil
}

func (r *MemoryEntryRepo) IncrementUsage(_ context.Context, id string) error {
	return r.mutateUsage(id, func(n int64) int64 { return n + 1 })
}

func (r *MemoryEntryRepo) ResetUsage(_ context.Context, id string) error {
	return r.mutateUsage(id, func(int64) int64 { return 0 })
}

func (r *MemoryEntryRepo) mutateUsage(id string, fn func(int64) int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return biz.ErrEntryNotFound
	}
	e.UsageCount = fn(e.UsageCount)
	return nil
}

var (
	_ biz.KnowledgeEntryRepo = (*MemoryEntryRepo)(nil)
	_ chatbiz.KnowledgeStore = (*MemoryEntryRepo)(nil)
)
