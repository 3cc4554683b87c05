package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"akut-backend/metrics"
	"akut-backend/models"
	"akut-backend/provider"

	"go.uber.org/zap"
)

// DefaultChatTemperature is slightly higher than the grounded answer's
const DefaultChatTemperature = 0.3

// ChatService runs the free-form assistant chat with hazard context
type ChatService struct {
	completer        provider.Completer
	catalog          HazardLookup
	fallbackLanguage string
	params           provider.Params
	timeout          time.Duration
	metrics          *metrics.Metrics
	logger           *zap.Logger
}

// ChatServiceOption is a functional option for ChatService
type ChatServiceOption func(*ChatService)

// ChatWithProvider sets the completion provider
func ChatWithProvider(p provider.Completer) ChatServiceOption {
	return func(s *ChatService) {
		s.completer = p
	}
}

// ChatWithCatalog sets the catalog and the language whose description is preferred
func ChatWithCatalog(c HazardLookup, preferredLanguage string) ChatServiceOption {
	return func(s *ChatService) {
		s.catalog = c
		s.fallbackLanguage = preferredLanguage
	}
}

// ChatWithParams sets the generation budget
func ChatWithParams(p provider.Params) ChatServiceOption {
	return func(s *ChatService) {
		s.params = p
	}
}

// ChatWithTimeout bounds each completion call
func ChatWithTimeout(d time.Duration) ChatServiceOption {
	return func(s *ChatService) {
		s.timeout = d
	}
}

// ChatWithMetrics sets the metrics sink
func ChatWithMetrics(m *metrics.Metrics) ChatServiceOption {
	return func(s *ChatService) {
		s.metrics = m
	}
}

// ChatWithLogger sets the logger
func ChatWithLogger(l *zap.Logger) ChatServiceOption {
	return func(s *ChatService) {
		s.logger = l
	}
}

// NewChatService creates a new chat service
func NewChatService(opts ...ChatServiceOption) *ChatService {
	s := &ChatService{
		fallbackLanguage: "de",
		params:           provider.Params{MaxTokens: DefaultMaxTokens, Temperature: DefaultChatTemperature},
		logger:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ChatRequest represents one chat turn
type ChatRequest struct {
	Messages []models.Message // prior conversation
	Message  string           // optional new user message, appended
	Slug     string
	Context  string
}

// ChatResult represents the assistant's reply
type ChatResult struct {
	Content string `json:"content"`
}

// SystemMessage builds the hazard context line, or "" when there is nothing to say
func (s *ChatService) SystemMessage(slug, context string) string {
	var parts []string
	if slug != "" {
		parts = append(parts, "Hazard situation: "+slug)
		if s.catalog != nil {
			if meta, ok := s.catalog.Get(slug); ok {
				if desc := normalizeWhitespace(meta.AnyDescription(s.fallbackLanguage)); desc != "" {
					parts = append(parts, "Guidance: "+desc)
				}
			}
		}
	}
	if context != "" {
		parts = append(parts, "Context: "+context)
	}
	return strings.Join(parts, " | ")
}

// Chat sends the conversation with the hazard context prepended
func (s *ChatService) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	messages := make([]models.Message, 0, len(req.Messages)+2)
	if system := s.SystemMessage(req.Slug, req.Context); system != "" {
		messages = append(messages, models.Message{Role: models.RoleSystem, Content: system})
	}
	messages = append(messages, req.Messages...)
	if req.Message != "" {
		messages = append(messages, models.Message{Role: models.RoleUser, Content: req.Message})
	}

	if countSystem(messages) == len(messages) {
		s.metrics.ObserveAnswer(metrics.ModeChat, metrics.OutcomeInvalid)
		return nil, fmt.Errorf("%w: message is required", ErrInvalidRequest)
	}
	if s.completer == nil {
		s.metrics.ObserveAnswer(metrics.ModeChat, metrics.OutcomeNoProvider)
		return nil, ErrProviderUnavailable
	}

	genCtx, cancel := boundedContext(ctx, s.timeout)
	defer cancel()

	text, err := s.completer.Complete(genCtx, messages, s.params)
	if err != nil {
		err = generationError(genCtx, err)
		s.logger.Error("Chat completion failed", zap.String("slug", req.Slug), zap.Error(err))
		s.metrics.ObserveAnswer(metrics.ModeChat, outcomeFor(err))
		return nil, err
	}

	s.metrics.ObserveAnswer(metrics.ModeChat, metrics.OutcomeOK)
	return &ChatResult{Content: strings.TrimSpace(text)}, nil
}

func countSystem(messages []models.Message) int {
	n := 0
	for _, m := range messages {
		if m.Role == models.RoleSystem {
			n++
		}
	}
	return n
}
