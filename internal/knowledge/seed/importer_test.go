package seed

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chatbiz "github.com/lk2023060901/school-assistant-backend/internal/chatbot/biz"
	chatdata "github.com/lk2023060901/school-assistant-backend/internal/chatbot/data"
	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/types"
	"github.com/lk2023060901/school-assistant-backend/internal/knowledge/biz"
	"github.com/lk2023060901/school-assistant-backend/internal/knowledge/data"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/logger"
)

func bundledSeed() Source {
	return FileSource{Path: filepath.Join("..", "..", "..", "configs", "knowledge_seed.yaml")}
}

func TestImporter_Idempotent(t *testing.T) {
	ctx := context.Background()
	repo := data.NewMemoryEntryRepo()
	imp := NewImporter(bundledSeed(), biz.NewKnowledgeUseCase(repo, logger.NewNop()), logger.NewNop())

	res, err := imp.Import(ctx)
	require.NoError(t, err)
	assert.Equal(t, 22, res.Created)

	res, err = imp.Import(ctx)
	require.NoError(t, err)
	assert.Equal(t, &biz.ImportResult{Unchanged: 22}, res)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 22)

	require.NoError(t, imp.Reload(ctx))
}

func TestImporter_SourceError(t *testing.T) {
	imp := NewImporter(FileSource{Path: filepath.Join(t.TempDir(), "missing.yaml")},
		biz.NewKnowledgeUseCase(data.NewMemoryEntryRepo(), logger.NewNop()), logger.NewNop())
	_, err := imp.Import(context.Background())
	assert.Error(t, err)
}

// Seeded knowledge base without NLU answers an exam schedule question from
// the knowledge base and counts the use.
func TestSeededKnowledgeBase_ExamSchedule(t *testing.T) {
	ctx := context.Background()
	repo := data.NewMemoryEntryRepo()
	imp := NewImporter(bundledSeed(), biz.NewKnowledgeUseCase(repo, logger.NewNop()), logger.NewNop())
	_, err := imp.Import(ctx)
	require.NoError(t, err)

	chat := chatbiz.NewChatUseCase(repo, chatdata.NewMemoryConversationRepo(), nil, chatbiz.ChatConfig{}, logger.NewNop())

	reply, err := chat.HandleMessage(ctx, "student-1", types.RoleStudent, "exam schedule")
	require.NoError(t, err)
	assert.Equal(t, types.SourceKnowledgeBase, reply.Meta.Source)
	require.NotNil(t, reply.Meta.KnowledgeBase)
	assert.Equal(t, types.CategoryExams, reply.Meta.KnowledgeBase.Category)
	assert.Contains(t, reply.Message, "Exam schedules are usually published")

	entry, err := repo.GetByID(ctx, reply.Meta.KnowledgeBase.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, entry.UsageCount)
}
