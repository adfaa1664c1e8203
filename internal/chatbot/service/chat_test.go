package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/biz"
	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/data"
	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/types"
	apperrors "github.com/lk2023060901/school-assistant-backend/internal/pkg/errors"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/logger"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/markdown"
)

type knowledgeStub struct {
	entries []*types.KnowledgeEntry
	listErr error
}

func (k *knowledgeStub) ListAll(context.Context) ([]*types.KnowledgeEntry, error) {
	return k.entries, k.listErr
}

func (k *knowledgeStub) IncrementUsage(context.Context, string) error { return nil }

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupRouter(t *testing.T, store *knowledgeStub, userID, role string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	uc := biz.NewChatUseCase(store, data.NewMemoryConversationRepo(), nil, biz.ChatConfig{}, logger.NewNop(),
		biz.WithRand(rand.New(rand.NewSource(1))))
	svc := NewChatService(uc, markdown.NewRenderer(), logger.NewNop())

	router := gin.New()
	api := router.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
			c.Set("role", role)
		}
		c.Next()
	})
	svc.RegisterRoutes(api)
	return router
}

func do(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func examStore() *knowledgeStub {
	return &knowledgeStub{entries: []*types.KnowledgeEntry{{
		ID:       "e1",
		Question: "when is the exam schedule",
		Keywords: []string{"exam", "schedule"},
		Answer:   "Exam schedules are listed on the **Exams** page.",
		Category: types.CategoryExams,
	}}}
}

func TestChatService_SendMessage(t *testing.T) {
	router := setupRouter(t, examStore(), "u1", "student")

	w, env := do(t, router, http.MethodPost, "/api/v1/chat/message", SendMessageRequest{Message: "exam schedule"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp MessageResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Contains(t, resp.Message, "Exam schedules")
	assert.Empty(t, resp.HTML)
	assert.Equal(t, types.SourceKnowledgeBase, resp.Meta.Source)
	require.NotNil(t, resp.Meta.KnowledgeBase)
	assert.Equal(t, types.CategoryExams, resp.Meta.KnowledgeBase.Category)
	assert.Len(t, resp.History, 2)
}

func TestChatService_SendMessageHTML(t *testing.T) {
	router := setupRouter(t, examStore(), "u1", "student")

	w, env := do(t, router, http.MethodPost, "/api/v1/chat/message?format=html", SendMessageRequest{Message: "exam schedule"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp MessageResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Contains(t, resp.HTML, "<strong>Exams</strong>")
}

func TestChatService_SendMessageErrors(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		path   string
		body   interface{}
		store  *knowledgeStub
		status int
	}{
		{"missing body", "u1", "/api/v1/chat/message", map[string]string{}, examStore(), http.StatusBadRequest},
		{"blank message", "u1", "/api/v1/chat/message", SendMessageRequest{Message: "   "}, examStore(), http.StatusBadRequest},
		{"bad format", "u1", "/api/v1/chat/message?format=pdf", SendMessageRequest{Message: "hello"}, examStore(), http.StatusBadRequest},
		{"no user", "", "/api/v1/chat/message", SendMessageRequest{Message: "hello"}, examStore(), http.StatusUnauthorized},
		{"store failure", "u1", "/api/v1/chat/message", SendMessageRequest{Message: "exam schedule"},
			&knowledgeStub{listErr: errors.New("db down")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(t, tt.store, tt.userID, "student")
			w, env := do(t, router, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.status, env.Code)
			assert.NotContains(t, env.Message, "db down")
		})
	}
}

type busyLocker struct{}

func (busyLocker) WithUserLock(context.Context, string, func(context.Context) error) error {
	return biz.ErrUserBusy
}

func TestChatService_SendMessageBusy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	uc := biz.NewChatUseCase(examStore(), data.NewMemoryConversationRepo(), nil, biz.ChatConfig{}, logger.NewNop(),
		biz.WithLocker(busyLocker{}))
	router := gin.New()
	api := router.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Set("user_id", "u1")
		c.Next()
	})
	NewChatService(uc, nil, logger.NewNop()).RegisterRoutes(api)

	w, env := do(t, router, http.MethodPost, "/api/v1/chat/message", SendMessageRequest{Message: "exam schedule"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, apperrors.ErrChatUserBusy, env.Code)
	assert.Equal(t, "Previous message is still being processed", env.Message)
}

func TestChatService_History(t *testing.T) {
	router := setupRouter(t, examStore(), "u1", "teacher")

	w, env := do(t, router, http.MethodGet, "/api/v1/chat/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var hist HistoryResponse
	require.NoError(t, json.Unmarshal(env.Data, &hist))
	assert.NotNil(t, hist.Messages)
	assert.Empty(t, hist.Messages)

	do(t, router, http.MethodPost, "/api/v1/chat/message", SendMessageRequest{Message: "hello"})

	_, env = do(t, router, http.MethodGet, "/api/v1/chat/history", nil)
	require.NoError(t, json.Unmarshal(env.Data, &hist))
	require.Len(t, hist.Messages, 2)
	assert.Equal(t, types.RoleUser, hist.Messages[0].Role)
	assert.Equal(t, "hello", hist.Messages[0].Content)

	w, env = do(t, router, http.MethodDelete, "/api/v1/chat/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Chat history cleared", env.Message)

	_, env = do(t, router, http.MethodGet, "/api/v1/chat/history", nil)
	require.NoError(t, json.Unmarshal(env.Data, &hist))
	assert.Empty(t, hist.Messages)
}

func TestChatService_HistoryUnauthorized(t *testing.T) {
	router := setupRouter(t, examStore(), "", "")

	w, _ := do(t, router, http.MethodGet, "/api/v1/chat/history", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = do(t, router, http.MethodDelete, "/api/v1/chat/history", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
