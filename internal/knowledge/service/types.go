package service

import (
	"math"

	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/types"
)

// CreateEntryRequest 创建知识条目请求（POST /knowledge）
type CreateEntryRequest struct {
	Question string   `json:"question" binding:"required,max=500"`
	Keywords []string `json:"keywords" binding:"omitempty,max=50,dive,max=100"`
	Answer   string   `json:"answer" binding:"required"`
	Category string   `json:"category"`
}

// UpdateEntryRequest 更新知识条目请求（PUT /knowledge/:id），未提供的字段保持不变
type UpdateEntryRequest struct {
	Question *string  `json:"question" binding:"omitempty,max=500"`
	Keywords []string `json:"keywords" binding:"omitempty,max=50,dive,max=100"`
	Answer   *string  `json:"answer"`
	Category *string  `json:"category"`
}

// ListEntriesRequest 列表查询参数
type ListEntriesRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Category string `form:"category"`
	Search   string `form:"search"`
}

// SuggestRequest 模糊搜索参数
type SuggestRequest struct {
	Query string `form:"q" binding:"required"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=20"`
}

// ListEntriesResponse 知识条目列表响应
type ListEntriesResponse struct {
	Entries    []*types.KnowledgeEntry `json:"entries"`
	Pagination *PaginationResponse     `json:"pagination"`
}

// PaginationResponse 分页信息
type PaginationResponse struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	Total     int64 `json:"total"`
	TotalPage int   `json:"total_page"`
}

func newPagination(page, pageSize int, total int64) *PaginationResponse {
	return &PaginationResponse{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: int(math.Ceil(float64(total) / float64(pageSize))),
	}
}
