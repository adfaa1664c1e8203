package nlu

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/lk2023060901/school-assistant-backend/internal/pkg/logger"
)

const openAISystemPrompt = `You are the intent detector of a school administration app's help chat.
The app has pages for Attendance, Assignments, Exams, Upload Files, Students, Teachers and Classes.
Classify the user's message into one of these intents: %s.
Reply with a JSON object only: {"intent": string, "confidence": number between 0 and 1, "reply": string}.
"reply" is a short, factual answer about where to find things in the app, or "" if you are not sure.
Use the intent "` + FallbackIntentName + `" with an empty reply when the message is unrelated to the app.`

var defaultOpenAIIntents = []string{
	"greeting", "attendance", "exam", "assignments", "subject", "student",
	"teacher", "upload", "class", "help",
}

// OpenAIConfig configures an OpenAI-compatible chat model as an oracle.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Intents []string
	Timeout time.Duration
}

// OpenAI asks a chat model to classify the message and draft a reply.
type OpenAI struct {
	cfg    OpenAIConfig
	client *openai.Client
	logger *logger.Logger
}

// NewOpenAI creates an OpenAI-compatible oracle.
func NewOpenAI(cfg OpenAIConfig, lgr *logger.Logger) *OpenAI {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if len(cfg.Intents) == 0 {
		cfg.Intents = defaultOpenAIIntents
	}
	if lgr == nil {
		lgr = logger.L()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &OpenAI{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientCfg),
		logger: lgr.Named("openai-nlu"),
	}
}

// Configured reports whether an API key is set.
func (o *OpenAI) Configured() bool {
	return o != nil && o.cfg.APIKey != ""
}

// Detect classifies text. sessionID is forwarded as the end-user id.
func (o *OpenAI) Detect(ctx context.Context, text, sessionID string) (*Result, error) {
	if !o.Configured() {
		return nil, ErrNotConfigured
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(openAISystemPrompt, strings.Join(o.cfg.Intents, ", "))},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0,
		User:        sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai chat completion: no choices")
	}

	content := resp.Choices[0].Message.Content
	if !gjson.Valid(content) {
		return nil, fmt.Errorf("openai chat completion: reply is not JSON")
	}

	result := &Result{
		IntentName:      gjson.Get(content, "intent").String(),
		FulfillmentText: gjson.Get(content, "reply").String(),
	}
	if conf := gjson.Get(content, "confidence"); conf.Type == gjson.Number {
		result.Confidence = float64Ptr(conf.Float())
	}
	result.IsFallback = result.IntentName == "" || result.IntentName == FallbackIntentName

	o.logger.Debug("openai intent detected",
		zap.String("intent", result.IntentName),
		zap.Int("total_tokens", resp.Usage.TotalTokens))
	return result, nil
}
