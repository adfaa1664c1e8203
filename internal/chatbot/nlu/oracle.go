// Package nlu adapts external intent-detection services.
package nlu

import (
	"context"
	"errors"
	"strings"
)

// FallbackIntentName is the intent Dialogflow agents use for unmatched input.
const FallbackIntentName = "Default Fallback Intent"

// DefaultConfidenceThreshold is the minimum confidence for an answer to be used.
const DefaultConfidenceThreshold = 0.45

// ErrNotConfigured is returned by Detect on an oracle with no backend.
var ErrNotConfigured = errors.New("nlu: oracle not configured")

// Result is what an oracle understood from one message. Confidence is
// nil when the backend did not report one.
type Result struct {
	FulfillmentText string
	IntentName      string
	Confidence      *float64
	IsFallback      bool
}

// Oracle detects intent and an optional ready-made reply.
type Oracle interface {
	Configured() bool
	Detect(ctx context.Context, text, sessionID string) (*Result, error)
}

// Fallback reports whether r should be ignored: the backend said so, it
// matched the fallback intent, or its confidence is below threshold.
func (r *Result) Fallback(threshold float64) bool {
	if r == nil {
		return true
	}
	return r.IsFallback ||
		r.IntentName == FallbackIntentName ||
		(r.Confidence != nil && *r.Confidence < threshold)
}

// Answer returns the trimmed fulfillment text when r is usable.
func (r *Result) Answer(threshold float64) (string, bool) {
	if r.Fallback(threshold) {
		return "", false
	}
	text := strings.TrimSpace(r.FulfillmentText)
	return text, text != ""
}

// Disabled is an Oracle that is never configured.
type Disabled struct{}

func (Disabled) Configured() bool { return false }

func (Disabled) Detect(context.Context, string, string) (*Result, error) {
	return nil, ErrNotConfigured
}

func float64Ptr(f float64) *float64 { return &f }
