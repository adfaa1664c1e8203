package biz

import "errors"

// 知识条目错误
var (
	ErrEntryNotFound       = errors.New("knowledge entry not found")
	ErrQuestionRequired    = errors.New("question and answer are required")
	ErrInvalidCategory     = errors.New("invalid knowledge category")
	ErrEmptySeed           = errors.New("seed contains no entries")
	ErrSuggestQueryMissing = errors.New("suggest query is required")
)

// 权限错误
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("only admins can change the knowledge base")
)
