package nlu

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lk2023060901/school-assistant-backend/internal/pkg/logger"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/oauth2"
)

// Providers.
const (
	ProviderNone       = "none"
	ProviderDialogflow = "dialogflow"
	ProviderOpenAI     = "openai"
)

// Options selects and configures an oracle.
type Options struct {
	Provider    string
	Timeout     time.Duration
	Dialogflow  DialogflowConfig
	Credentials oauth2.Config
	OpenAI      OpenAIConfig
}

// New builds the oracle named by opts.Provider. Missing Dialogflow
// credentials yield a Disabled oracle rather than an error, so the
// service still starts and answers from the knowledge base.
func New(ctx context.Context, opts Options, lgr *logger.Logger) (Oracle, error) {
	if lgr == nil {
		lgr = logger.L()
	}

	switch strings.ToLower(opts.Provider) {
	case "", ProviderNone:
		return Disabled{}, nil

	case ProviderDialogflow:
		if opts.Dialogflow.ProjectID == "" {
			lgr.Warn("dialogflow selected but project id is empty, nlu disabled")
			return Disabled{}, nil
		}
		tokens, err := oauth2.NewGoogleTokenProvider(ctx, &opts.Credentials)
		if err != nil {
			lgr.Warn("dialogflow credentials unavailable, nlu disabled", zap.Error(err))
			return Disabled{}, nil
		}
		if opts.Dialogflow.Timeout == 0 {
			opts.Dialogflow.Timeout = opts.Timeout
		}
		return NewDialogflow(opts.Dialogflow, tokens, nil, lgr), nil

	case ProviderOpenAI:
		if opts.OpenAI.Timeout == 0 {
			opts.OpenAI.Timeout = opts.Timeout
		}
		return NewOpenAI(opts.OpenAI, lgr), nil

	default:
		return nil, fmt.Errorf("unknown nlu provider %q", opts.Provider)
	}
}
