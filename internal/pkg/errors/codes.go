package errors

import (
	"fmt"
	"net/http"
)

// Code represents an error code with HTTP status and message
type Code struct {
	Code    int    // Business error code
	Status  int    // HTTP status code
	Message string // Error message
}

// Error codes for different modules
const (
	// Success
	Success = 0

	// Common errors (1000-1999)
	ErrInternalServer  = 1000
	ErrInvalidParams   = 1001
	ErrNotFound        = 1002
	ErrUnauthorized    = 1003
	ErrForbidden       = 1004
	ErrConflict        = 1005
	ErrTooManyRequests = 1006
	ErrBadRequest      = 1007
	ErrServiceUnavail  = 1008

	// Auth errors (2000-2999)
	ErrAuthMissingToken = 2000
	ErrAuthInvalidToken = 2006
	ErrAuthTokenExpired = 2007
	ErrAuthRoleRequired = 2010

	// Knowledge base errors (4000-4999)
	ErrKBEntryNotFound   = 4000
	ErrKBInvalidParams   = 4001
	ErrKBUnauthorized    = 4002
	ErrKBInvalidCategory = 4011
	ErrKBEmptySeed       = 4012
	ErrKBSeedTooLarge    = 4013

	// Chat errors (6000-6999)
	ErrChatEmptyMessage  = 6000
	ErrChatUserRequired  = 6001
	ErrChatUserBusy      = 6002
	ErrChatHistoryFailed = 6003
	ErrChatTurnFailed    = 6004
)

// codeMap maps error codes to their details
var codeMap = map[int]Code{
	Success: {Success, http.StatusOK, "Success"},

	// Common errors
	ErrInternalServer:  {ErrInternalServer, http.StatusInternalServerError, "Internal server error"},
	ErrInvalidParams:   {ErrInvalidParams, http.StatusBadRequest, "Invalid parameters"},
	ErrNotFound:        {ErrNotFound, http.StatusNotFound, "Resource not found"},
	ErrUnauthorized:    {ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	ErrForbidden:       {ErrForbidden, http.StatusForbidden, "Forbidden"},
	ErrConflict:        {ErrConflict, http.StatusConflict, "Resource conflict"},
	ErrTooManyRequests: {ErrTooManyRequests, http.StatusTooManyRequests, "Too many requests"},
	ErrBadRequest:      {ErrBadRequest, http.StatusBadRequest, "Bad request"},
	ErrServiceUnavail:  {ErrServiceUnavail, http.StatusServiceUnavailable, "Service unavailable"},

	// Auth errors
	ErrAuthMissingToken: {ErrAuthMissingToken, http.StatusUnauthorized, "Missing authorization"},
	ErrAuthInvalidToken: {ErrAuthInvalidToken, http.StatusUnauthorized, "Invalid or expired token"},
	ErrAuthTokenExpired: {ErrAuthTokenExpired, http.StatusUnauthorized, "Token expired"},
	ErrAuthRoleRequired: {ErrAuthRoleRequired, http.StatusForbidden, "Insufficient permissions"},

	// Knowledge base errors
	ErrKBEntryNotFound:   {ErrKBEntryNotFound, http.StatusNotFound, "Knowledge entry not found"},
	ErrKBInvalidParams:   {ErrKBInvalidParams, http.StatusBadRequest, "Invalid knowledge entry"},
	ErrKBUnauthorized:    {ErrKBUnauthorized, http.StatusForbidden, "Admin role required"},
	ErrKBInvalidCategory: {ErrKBInvalidCategory, http.StatusBadRequest, "Invalid category"},
	ErrKBEmptySeed:       {ErrKBEmptySeed, http.StatusBadRequest, "Seed contains no entries"},
	ErrKBSeedTooLarge:    {ErrKBSeedTooLarge, http.StatusRequestEntityTooLarge, "Seed document too large"},

	// Chat errors
	ErrChatEmptyMessage:  {ErrChatEmptyMessage, http.StatusBadRequest, "Message is required"},
	ErrChatUserRequired:  {ErrChatUserRequired, http.StatusUnauthorized, "Unauthorized"},
	ErrChatUserBusy:      {ErrChatUserBusy, http.StatusTooManyRequests, "Previous message is still being processed"},
	ErrChatHistoryFailed: {ErrChatHistoryFailed, http.StatusInternalServerError, "Failed to load chat history"},
	ErrChatTurnFailed:    {ErrChatTurnFailed, http.StatusInternalServerError, "Failed to process message"},
}

// GetCode returns the Code for a given error code
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return codeMap[ErrInternalServer]
}

// GetHTTPStatus returns HTTP status for a given error code
func GetHTTPStatus(code int) int {
	return GetCode(code).Status
}

// GetMessage returns the message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}

// IsSuccess checks if the code represents success
func IsSuccess(code int) bool {
	return code == Success
}

// IsClientError checks if the code represents a client error (4xx)
func IsClientError(code int) bool {
	status := GetHTTPStatus(code)
	return status >= 400 && status < 500
}

// IsServerError checks if the code represents a server error (5xx)
func IsServerError(code int) bool {
	status := GetHTTPStatus(code)
	return status >= 500
}

// FormatError formats an error message with code
func FormatError(code int, details ...string) string {
	msg := GetMessage(code)
	if len(details) > 0 && details[0] != "" {
		return fmt.Sprintf("%s: %s", msg, details[0])
	}
	return msg
}
