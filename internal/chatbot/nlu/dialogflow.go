package nlu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/lk2023060901/school-assistant-backend/internal/pkg/logger"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/oauth2"
)

const defaultDialogflowEndpoint = "https://dialogflow.googleapis.com"

// DialogflowConfig configures the Dialogflow ES detectIntent client.
type DialogflowConfig struct {
	ProjectID    string
	LanguageCode string
	Endpoint     string
	Timeout      time.Duration
}

// Dialogflow calls the Dialogflow ES REST API.
type Dialogflow struct {
	cfg        DialogflowConfig
	tokens     oauth2.TokenProvider
	httpClient *http.Client
	logger     *logger.Logger
}

// NewDialogflow creates a Dialogflow oracle. A nil httpClient uses one
// with cfg.Timeout.
func NewDialogflow(cfg DialogflowConfig, tokens oauth2.TokenProvider, httpClient *http.Client, lgr *logger.Logger) *Dialogflow {
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultDialogflowEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if lgr == nil {
		lgr = logger.L()
	}
	return &Dialogflow{
		cfg:        cfg,
		tokens:     tokens,
		httpClient: httpClient,
		logger:     lgr.Named("dialogflow"),
	}
}

// Configured reports whether a project and credentials are present.
func (d *Dialogflow) Configured() bool {
	return d != nil && d.cfg.ProjectID != "" && d.tokens != nil
}

type detectIntentRequest struct {
	QueryInput struct {
		Text struct {
			Text         string `json:"text"`
			LanguageCode string `json:"languageCode"`
		} `json:"text"`
	} `json:"queryInput"`
}

// Detect sends text to the agent under sessionID.
func (d *Dialogflow) Detect(ctx context.Context, text, sessionID string) (*Result, error) {
	if !d.Configured() {
		return nil, ErrNotConfigured
	}

	token, err := d.tokens.GetAccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("dialogflow token: %w", err)
	}

	var body detectIntentRequest
	body.QueryInput.Text.Text = text
	body.QueryInput.Text.LanguageCode = d.cfg.LanguageCode
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal detectIntent request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/projects/%s/agent/sessions/%s:detectIntent",
		d.cfg.Endpoint, url.PathEscape(d.cfg.ProjectID), url.PathEscape(sessionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create detectIntent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detectIntent: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read detectIntent response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detectIntent failed: status %d: %s",
			resp.StatusCode, gjson.GetBytes(raw, "error.message").String())
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("detectIntent: malformed response")
	}

	result := parseQueryResult(raw)
	d.logger.Debug("dialogflow intent detected",
		zap.String("intent", result.IntentName),
		zap.Bool("is_fallback", result.IsFallback),
		zap.Duration("latency", time.Since(start)))
	return result, nil
}

func parseQueryResult(raw []byte) *Result {
	qr := gjson.GetBytes(raw, "queryResult")
	result := &Result{
		FulfillmentText: qr.Get("fulfillmentText").String(),
		IntentName:      qr.Get("intent.displayName").String(),
		IsFallback:      qr.Get("intent.isFallback").Bool(),
	}
	if conf := qr.Get("intentDetectionConfidence"); conf.Type == gjson.Number {
		result.Confidence = float64Ptr(conf.Float())
	}
	return result
}
