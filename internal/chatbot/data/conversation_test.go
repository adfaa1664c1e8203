package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/biz"
	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/types"
)

func TestTurnsJSON_ScanValue(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	in := TurnsJSON{{Role: types.RoleUser, Content: "hello", Timestamp: ts}}

	v, err := in.Value()
	require.NoError(t, err)

	var out TurnsJSON
	require.NoError(t, out.Scan(v))
	require.Len(t, out, 1)
	assert.Equal(t, "hello", out[0].Content)
	assert.True(t, ts.Equal(out[0].Timestamp))

	require.NoError(t, out.Scan(`[{"role":"assistant","content":"hi"}]`))
	assert.Equal(t, types.RoleAssistant, out[0].Role)

	require.NoError(t, out.Scan(nil))
	assert.Empty(t, out)

	assert.Error(t, out.Scan(42))

	var nilTurns TurnsJSON
	v, err = nilTurns.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)
}

func TestConversationPO_RoundTrip(t *testing.T) {
	conv := &types.Conversation{
		UserID: "u1",
		Turns:  []types.Turn{{Role: types.RoleUser, Content: "x"}},
	}
	po := fromConversation(conv)
	assert.Equal(t, "chat_conversations", po.TableName())

	back := po.toConversation()
	assert.Equal(t, conv.UserID, back.UserID)
	assert.Equal(t, conv.Turns, back.Turns)

	empty := (&ConversationPO{UserID: "u2"}).toConversation()
	assert.NotNil(t, empty.Turns)
}

func TestMemoryConversationRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryConversationRepo()

	_, err := repo.Get(ctx, "u1")
	assert.ErrorIs(t, err, biz.ErrConversationNotFound)

	conv, err := repo.Create(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, conv.Turns)

	conv.Append(types.RoleUser, "hello", time.Now())
	// unsaved changes are not visible
	stored, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, stored.Turns)

	require.NoError(t, repo.Save(ctx, conv))
	stored, err = repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, stored.Turns, 1)

	// Create on an existing user keeps its turns
	again, err := repo.Create(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, again.Turns, 1)

	require.NoError(t, repo.Clear(ctx, "u1"))
	stored, err = repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, stored.Turns)

	assert.NoError(t, repo.Clear(ctx, "ghost"))
}

func TestMemoryConversationRepo_WithChatUseCase(t *testing.T) {
	repo := NewMemoryConversationRepo()
	store := &staticKnowledge{}
	uc := biz.NewChatUseCase(store, repo, nil, biz.ChatConfig{MaxTurns: 4}, nil)

	for i := 0; i < 3; i++ {
		_, err := uc.HandleMessage(context.Background(), "u1", types.RoleStudent, "attendance")
		require.NoError(t, err)
	}
	turns, err := uc.GetHistory(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, turns, 4)
}

type staticKnowledge struct{}

func (staticKnowledge) ListAll(context.Context) ([]*types.KnowledgeEntry, error) { return nil, nil }
func (staticKnowledge) IncrementUsage(context.Context, string) error             { return nil }
