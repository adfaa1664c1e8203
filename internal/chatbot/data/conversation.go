package data

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/biz"
	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/types"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/database"
)

// TurnsJSON stores conversation turns as a JSONB array.
type TurnsJSON []types.Turn

func (j *TurnsJSON) Scan(value interface{}) error {
	if value == nil {
		*j = TurnsJSON{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported turns column type %T", value)
	}
	return json.Unmarshal(raw, j)
}

func (j TurnsJSON) Value() (driver.Value, error) {
	if j == nil {
		return json.Marshal([]types.Turn{})
	}
	return json.Marshal(j)
}

// ConversationPO is one user's chat history row.
type ConversationPO struct {
	UserID    string    `gorm:"size:64;primarykey"`
	Messages  TurnsJSON `gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ConversationPO) TableName() string {
	return "chat_conversations"
}

// ConversationRepo keeps conversations in PostgreSQL.
type ConversationRepo struct {
	db *database.DB
}

// NewConversationRepo creates a PostgreSQL conversation repository.
func NewConversationRepo(db *database.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

func (r *ConversationRepo) Get(ctx context.Context, userID string) (*types.Conversation, error) {
	var po ConversationPO
	err := r.db.WithContext(ctx).GetDB().Where("user_id = ?", userID).First(&po).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, biz.ErrConversationNotFound
		}
		return nil, err
	}
	return po.toConversation(), nil
}

func (r *ConversationRepo) Create(ctx context.Context, userID string) (*types.Conversation, error) {
	now := time.Now()
	po := &ConversationPO{UserID: userID, Messages: TurnsJSON{}, CreatedAt: now, UpdatedAt: now}

	// a concurrent first message may have created the row already
	err := r.db.WithContext(ctx).GetDB().
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(po).Error
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, userID)
}

func (r *ConversationRepo) Save(ctx context.Context, conv *types.Conversation) error {
	po := fromConversation(conv)
	if po.UpdatedAt.IsZero() {
		po.UpdatedAt = time.Now()
	}
	if po.CreatedAt.IsZero() {
		po.CreatedAt = po.UpdatedAt
	}

	return r.db.WithContext(ctx).GetDB().
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"messages", "updated_at"}),
		}).
		Create(po).Error
}

func (r *ConversationRepo) Clear(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).GetDB().
		Model(&ConversationPO{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"messages":   TurnsJSON{},
			"updated_at": time.Now(),
		}).Error
}

func (po *ConversationPO) toConversation() *types.Conversation {
	turns := []types.Turn(po.Messages)
	if turns == nil {
		turns = []types.Turn{}
	}
	return &types.Conversation{
		UserID:    po.UserID,
		Turns:     turns,
		CreatedAt: po.CreatedAt,
		UpdatedAt: po.UpdatedAt,
	}
}

func fromConversation(conv *types.Conversation) *ConversationPO {
	return &ConversationPO{
		UserID:    conv.UserID,
		Messages:  TurnsJSON(conv.Turns),
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}
}

var _ biz.ConversationRepo = (*ConversationRepo)(nil)
