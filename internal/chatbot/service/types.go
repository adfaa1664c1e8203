package service

import "github.com/lk2023060901/school-assistant-backend/internal/chatbot/types"

// SendMessageRequest is the body of POST /chat/message.
type SendMessageRequest struct {
	Message string `json:"message" binding:"required,max=2000"`
}

// SendMessageQuery selects the reply format.
type SendMessageQuery struct {
	Format string `form:"format" binding:"omitempty,oneof=text html"`
}

// MessageResponse is one chat reply.
type MessageResponse struct {
	Message string       `json:"message"`
	HTML    string       `json:"html,omitempty"`
	History []types.Turn `json:"history"`
	Meta    types.Meta   `json:"meta"`
}

// HistoryResponse wraps the stored turns.
type HistoryResponse struct {
	Messages []types.Turn `json:"messages"`
}
