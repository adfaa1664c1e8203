package biz

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/compose"
	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/gate"
	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/intent"
	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/matcher"
	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/nlu"
	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/types"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/logger"
)

// DefaultMaxTurns is how many turns a conversation keeps.
const DefaultMaxTurns = 50

// ChatConfig tunes the chat pipeline.
type ChatConfig struct {
	MaxTurns            int
	TurnTimeout         time.Duration
	NLUTimeout          time.Duration
	ConfidenceThreshold float64
}

// ChatUseCase runs one chat turn: gate, NLU, knowledge base, fallback.
type ChatUseCase struct {
	knowledge     KnowledgeStore
	conversations ConversationRepo
	oracle        nlu.Oracle
	locker        UserLocker
	cfg           ChatConfig
	rng           *rand.Rand
	now           func() time.Time
	logger        *logger.Logger
}

// Option customizes a ChatUseCase.
type Option func(*ChatUseCase)

// WithRand makes canned-reply selection deterministic.
func WithRand(rng *rand.Rand) Option {
	return func(uc *ChatUseCase) { uc.rng = rng }
}

// WithClock overrides the turn timestamp source.
func WithClock(now func() time.Time) Option {
	return func(uc *ChatUseCase) { uc.now = now }
}

// WithLocker serializes turns of the same user.
func WithLocker(l UserLocker) Option {
	return func(uc *ChatUseCase) { uc.locker = l }
}

// NewChatUseCase creates the chat pipeline. oracle may be nil.
func NewChatUseCase(
	knowledge KnowledgeStore,
	conversations ConversationRepo,
	oracle nlu.Oracle,
	cfg ChatConfig,
	lgr *logger.Logger,
	opts ...Option,
) *ChatUseCase {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = nlu.DefaultConfidenceThreshold
	}
	if oracle == nil {
		oracle = nlu.Disabled{}
	}
	if lgr == nil {
		lgr = logger.L()
	}

	uc := &ChatUseCase{
		knowledge:     knowledge,
		conversations: conversations,
		oracle:        oracle,
		cfg:           cfg,
		now:           time.Now,
		logger:        lgr.Named("chat"),
	}
	for _, opt := range opts {
		opt(uc)
	}
	if uc.rng == nil {
		uc.rng = rand.New(&lockedSource{src: rand.NewSource(time.Now().UnixNano())})
	}
	return uc
}

// HandleMessage answers text from userID and records both turns. The turn
// runs to completion even if ctx is cancelled, bounded by TurnTimeout.
func (uc *ChatUseCase) HandleMessage(ctx context.Context, userID string, role types.Role, text string) (*types.Reply, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	if userID == "" {
		return nil, ErrUserRequired
	}

	ctx = context.WithoutCancel(ctx)
	if uc.cfg.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.cfg.TurnTimeout)
		defer cancel()
	}

	var reply *types.Reply
	run := func(ctx context.Context) error {
		var err error
		reply, err = uc.handle(ctx, userID, types.ParseRole(string(role)), text)
		return err
	}

	if uc.locker != nil {
		if err := uc.locker.WithUserLock(ctx, userID, run); err != nil {
			return nil, err
		}
		return reply, nil
	}
	if err := run(ctx); err != nil {
		return nil, err
	}
	return reply, nil
}

func (uc *ChatUseCase) handle(ctx context.Context, userID string, role types.Role, text string) (*types.Reply, error) {
	log := uc.logger.WithContext(ctx)

	conv, err := uc.loadConversation(ctx, userID)
	if err != nil {
		return nil, err
	}

	if d := gate.Evaluate(conv.LastAssistant(), text, uc.rng); d.Gated() {
		now := uc.now()
		conv.Append(types.RoleUser, text, now)
		conv.Append(types.RoleAssistant, d.Reply, now)
		if err := uc.save(ctx, conv); err != nil {
			return nil, err
		}
		return &types.Reply{
			Message: d.Reply,
			History: conv.Turns,
			Meta:    types.Meta{Source: types.SourceDefault, Intent: d.Intent},
		}, nil
	}

	conv.Append(types.RoleUser, text, uc.now())

	label := intent.Detect(text)
	meta := types.Meta{Source: types.SourceDefault, Intent: string(label)}
	var message string

	if uc.oracle.Configured() {
		if answer, nluMeta, ok := uc.askOracle(ctx, userID, text); nluMeta != nil {
			meta.NLU = nluMeta
			if ok {
				message = answer
				meta.Source = types.SourceNLU
			}
		}
	}

	if message == "" {
		entries, err := uc.knowledge.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("list knowledge entries: %w", err)
		}
		if best, ok := matcher.Best(text, entries); ok {
			message = compose.Compose(text, best.Entry, conv.Turns, best.Score)
			if err := uc.knowledge.IncrementUsage(ctx, best.Entry.ID); err != nil {
				return nil, fmt.Errorf("increment usage of %s: %w", best.Entry.ID, err)
			}
			meta.Source = types.SourceKnowledgeBase
			meta.Score = best.Score
			meta.KnowledgeBase = &types.KnowledgeMeta{ID: best.Entry.ID, Category: best.Entry.Category}
			log.Debug("knowledge base match",
				zap.String("entry_id", best.Entry.ID),
				zap.Float64("score", best.Score))
		}
	}

	if message == "" {
		message = compose.Fallback(label, role, uc.rng)
	}

	conv.Append(types.RoleAssistant, message, uc.now())
	if err := uc.save(ctx, conv); err != nil {
		return nil, err
	}

	log.Info("chat turn handled",
		zap.String("source", string(meta.Source)),
		zap.String("intent", meta.Intent))

	return &types.Reply{Message: message, History: conv.Turns, Meta: meta}, nil
}

// askOracle returns the oracle's answer when usable. The metadata is
// non-nil whenever the oracle responded.
func (uc *ChatUseCase) askOracle(ctx context.Context, userID, text string) (string, *types.NLUMeta, bool) {
	if uc.cfg.NLUTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.cfg.NLUTimeout)
		defer cancel()
	}

	res, err := uc.oracle.Detect(ctx, text, userID)
	if err != nil {
		uc.logger.WithContext(ctx).Warn("nlu failed, falling back to knowledge base", zap.Error(err))
		return "", nil, false
	}
	if res == nil {
		return "", nil, false
	}

	meta := &types.NLUMeta{
		IntentName: res.IntentName,
		Confidence: res.Confidence,
		IsFallback: res.Fallback(uc.cfg.ConfidenceThreshold),
	}
	answer, ok := res.Answer(uc.cfg.ConfidenceThreshold)
	return answer, meta, ok
}

func (uc *ChatUseCase) loadConversation(ctx context.Context, userID string) (*types.Conversation, error) {
	conv, err := uc.conversations.Get(ctx, userID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, ErrConversationNotFound) {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	conv, err = uc.conversations.Create(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

func (uc *ChatUseCase) save(ctx context.Context, conv *types.Conversation) error {
	conv.Trim(uc.cfg.MaxTurns)
	conv.UpdatedAt = uc.now()
	if err := uc.conversations.Save(ctx, conv); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

// GetHistory returns the user's turns, oldest first. Users who never
// chatted get an empty list.
func (uc *ChatUseCase) GetHistory(ctx context.Context, userID string) ([]types.Turn, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}
	conv, err := uc.conversations.Get(ctx, userID)
	if errors.Is(err, ErrConversationNotFound) {
		return []types.Turn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if conv.Turns == nil {
		return []types.Turn{}, nil
	}
	return conv.Turns, nil
}

// ClearHistory drops all of the user's turns.
func (uc *ChatUseCase) ClearHistory(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrUserRequired
	}
	if err := uc.conversations.Clear(ctx, userID); err != nil {
		return fmt.Errorf("clear conversation: %w", err)
	}
	return nil
}

// lockedSource makes a rand.Source safe for concurrent turns.
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source
}

func (s *lockedSource) Int63() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Int63()
}

func (s *lockedSource) Seed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src.Seed(seed)
}
