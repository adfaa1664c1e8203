package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/types"
	"github.com/lk2023060901/school-assistant-backend/internal/knowledge/biz"
)

func TestKeywordsJSON_ScanValue(t *testing.T) {
	v, err := KeywordsJSON{"exam", "schedule"}.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte(`["exam","schedule"]`), v)

	var k KeywordsJSON
	require.NoError(t, k.Scan(v))
	assert.Equal(t, KeywordsJSON{"exam", "schedule"}, k)

	require.NoError(t, k.Scan(`["a"]`))
	assert.Equal(t, KeywordsJSON{"a"}, k)

	require.NoError(t, k.Scan(nil))
	assert.Empty(t, k)

	assert.Error(t, k.Scan(3.14))

	v, err = KeywordsJSON(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)
}

func TestKnowledgeEntryPO_RoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	entry := &types.KnowledgeEntry{
		ID:         "7d3f7c1e-0000-4000-8000-000000000001",
		Question:   "exam schedule",
		Keywords:   []string{"exam schedule"},
		Answer:     "See the timetable.",
		Category:   types.CategoryExams,
		UsageCount: 4,
		CreatedBy:  "admin-1",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	po := fromEntry(entry)
	assert.Equal(t, "knowledge_entries", po.TableName())
	require.NotNil(t, po.CreatedBy)
	assert.Equal(t, entry, po.toEntry())

	entry.CreatedBy = ""
	po = fromEntry(entry)
	assert.Nil(t, po.CreatedBy)

	po.Keywords = nil
	assert.NotNil(t, po.toEntry().Keywords)
}

func TestMemoryEntryRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryEntryRepo()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	mk := func(id, q string, cat types.Category, offset time.Duration) *types.KnowledgeEntry {
		return &types.KnowledgeEntry{
			ID: id, Question: q, Keywords: []string{"kw-" + id}, Answer: "Answer " + q,
			Category: cat, CreatedAt: base.Add(offset), UpdatedAt: base.Add(offset),
		}
	}
	require.NoError(t, repo.Create(ctx, mk("a", "exam schedule", types.CategoryExams, 0)))
	require.NoError(t, repo.Create(ctx, mk("b", "exam results", types.CategoryExams, time.Minute)))
	require.NoError(t, repo.Create(ctx, mk("c", "contact admin", types.CategoryGeneral, 2*time.Minute)))

	_, err := repo.GetByID(ctx, "zzz")
	assert.ErrorIs(t, err, biz.ErrEntryNotFound)

	got, err := repo.GetByQuestion(ctx, "exam results")
	require.NoError(t, err)
	assert.Equal(t, "b", got.ID)

	// newest first on equal usage, then usage wins
	list, total, err := repo.List(ctx, &biz.ListEntriesRequest{Category: types.CategoryExams, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, "b", list[0].ID)

	require.NoError(t, repo.IncrementUsage(ctx, "a"))
	list, _, _ = repo.List(ctx, &biz.ListEntriesRequest{Category: types.CategoryExams, Page: 1, PageSize: 10})
	assert.Equal(t, "a", list[0].ID)
	assert.EqualValues(t, 1, list[0].UsageCount)

	// search covers answer and keywords
	list, _, _ = repo.List(ctx, &biz.ListEntriesRequest{Search: "KW-C", Page: 1, PageSize: 10})
	require.Len(t, list, 1)
	assert.Equal(t, "c", list[0].ID)

	list, total, _ = repo.List(ctx, &biz.ListEntriesRequest{Page: 2, PageSize: 2})
	assert.EqualValues(t, 3, total)
	assert.Len(t, list, 1)

	list, _, _ = repo.List(ctx, &biz.ListEntriesRequest{Page: 5, PageSize: 2})
	assert.Empty(t, list)

	// Update keeps usage, ResetUsage clears it
	upd, _ := repo.GetByID(ctx, "a")
	upd.UsageCount = 99
	upd.Answer = "new"
	require.NoError(t, repo.Update(ctx, upd))
	got, _ = repo.GetByID(ctx, "a")
	assert.Equal(t, "new", got.Answer)
	assert.EqualValues(t, 1, got.UsageCount)
	require.NoError(t, repo.ResetUsage(ctx, "a"))
	got, _ = repo.GetByID(ctx, "a")
	assert.Zero(t, got.UsageCount)

	all, _ := repo.ListAll(ctx)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})

	require.NoError(t, repo.Delete(ctx, "a"))
	assert.ErrorIs(t, repo.Delete(ctx, "a"), biz.ErrEntryNotFound)
	assert.ErrorIs(t, repo.IncrementUsage(ctx, "a"), biz.ErrEntryNotFound)
}
