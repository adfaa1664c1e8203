package biz

import (
	"context"

	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/types"
)

// KnowledgeStore is the read side of the knowledge base used per turn.
type KnowledgeStore interface {
	ListAll(ctx context.Context) ([]*types.KnowledgeEntry, error)
	IncrementUsage(ctx context.Context, id string) error
}

// ConversationRepo persists one conversation per user.
type ConversationRepo interface {
	// Get returns ErrConversationNotFound when the user has no conversation.
	Get(ctx context.Context, userID string) (*types.Conversation, error)
	// Create stores and returns an empty conversation.
	Create(ctx context.Context, userID string) (*types.Conversation, error)
	Save(ctx context.Context, conv *types.Conversation) error
	// Clear drops every turn. Clearing a missing conversation is not an error.
	Clear(ctx context.Context, userID string) error
}

// UserLocker serializes work per user.
type UserLocker interface {
	WithUserLock(ctx context.Context, userID string, fn func(ctx context.Context) error) error
}
