package data

import (
	"context"
	"sync"
	"time"

	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/biz"
	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/types"
)

// MemoryConversationRepo keeps conversations in process memory. Used for
// local development and when no database is configured.
type MemoryConversationRepo struct {
	mu    sync.RWMutex
	convs map[string]*types.Conversation
}

func NewMemoryConversationRepo() *MemoryConversationRepo {
	return &MemoryConversationRepo{convs: make(map[string]*types.Conversation)}
}

func (r *MemoryConversationRepo) Get(_ context.Context, userID string) (*types.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.convs[userID]
	if !ok {
		return nil, biz.ErrConversationNotFound
	}
	return cloneConversation(c), nil
}

func (r *MemoryConversationRepo) Create(_ context.Context, userID string) (*types.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.convs[userID]; ok {
		return cloneConversation(c), nil
	}
	now := time.Now()
	c := &types.Conversation{UserID: userID, Turns: []types.Turn{}, CreatedAt: now, UpdatedAt: now}
	r.convs[userID] = c
	return cloneConversation(c), nil
}

func (r *MemoryConversationRepo) Save(_ context.Context, conv *types.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.convs[conv.UserID] = cloneConversation(conv)
	return nil
}

func (r *MemoryConversationRepo) Clear(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.convs[userID]; ok {
		c.Turns = []types.Turn{}
		c.UpdatedAt = time.Now()
	}
	return nil
}

func cloneConversation(c *types.Conversation) *types.Conversation {
	cp := *c
	cp.Turns = make([]types.Turn, len(c.Turns))
	copy(cp.Turns, c.Turns)
	return &cp
}

var _ biz.ConversationRepo = (*MemoryConversationRepo)(nil)
