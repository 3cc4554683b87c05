package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"akut-backend/metrics"
	"akut-backend/models"
	"akut-backend/provider"

	"go.uber.org/zap"
)

// Fixed parts of every synchronous answer
const (
	RiskLevelMedium       = "medium"
	CallToActionEmergency = "Call emergency services"
	Disclaimer            = "No substitute for professional help."
)

// Default generation budget
const (
	DefaultMaxTokens   = 300
	DefaultTemperature = 0.2
)

// HazardLookup finds catalog metadata for a hazard
type HazardLookup interface {
	Get(slug string) (*models.HazardMeta, bool)
}

// AnswerService produces grounded answers, either complete or streamed
type AnswerService struct {
	resolver       *TreeResolver
	selector       GroundingSelector
	completer      provider.Completer
	catalog        HazardLookup
	includeSummary bool
	params         provider.Params
	timeout        time.Duration
	metrics        *metrics.Metrics
	logger         *zap.Logger
}

// AnswerServiceOption is a functional option for AnswerService
type AnswerServiceOption func(*AnswerService)

// AnswerWithResolver sets the tree resolver
func AnswerWithResolver(r *TreeResolver) AnswerServiceOption {
	return func(s *AnswerService) {
		s.resolver = r
	}
}

// AnswerWithSelector replaces the default prefix selector
func AnswerWithSelector(sel GroundingSelector) AnswerServiceOption {
	return func(s *AnswerService) {
		s.selector = sel
	}
}

// AnswerWithProvider sets the completion provider. A nil provider makes every
// answer fail with ErrProviderUnavailable.
func AnswerWithProvider(p provider.Completer) AnswerServiceOption {
	return func(s *AnswerService) {
		s.completer = p
	}
}

// AnswerWithCatalog sets the hazard catalog used for prompt summaries
func AnswerWithCatalog(c HazardLookup, includeSummary bool) AnswerServiceOption {
	return func(s *AnswerService) {
		s.catalog = c
		s.includeSummary = includeSummary
	}
}

// AnswerWithParams sets the generation budget
func AnswerWithParams(p provider.Params) AnswerServiceOption {
	return func(s *AnswerService) {
		s.params = p
	}
}

// AnswerWithTimeout bounds each generation call. Zero disables the bound.
func AnswerWithTimeout(d time.Duration) AnswerServiceOption {
	return func(s *AnswerService) {
		s.timeout = d
	}
}

// AnswerWithMetrics sets the metrics sink
func AnswerWithMetrics(m *metrics.Metrics) AnswerServiceOption {
	return func(s *AnswerService) {
		s.metrics = m
	}
}

// AnswerWithLogger sets the logger
func AnswerWithLogger(l *zap.Logger) AnswerServiceOption {
	return func(s *AnswerService) {
		s.logger = l
	}
}

// NewAnswerService creates a new answer service
func NewAnswerService(opts ...AnswerServiceOption) *AnswerService {
	s := &AnswerService{
		selector: PrefixSelector{Limit: DefaultGroundingLimit},
		params:   provider.Params{MaxTokens: DefaultMaxTokens, Temperature: DefaultTemperature},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProviderConfigured reports whether a completion provider is available
func (s *AnswerService) ProviderConfigured() bool {
	return s.completer != nil
}

// AnswerRequest represents a grounded question about one hazard
type AnswerRequest struct {
	Slug     string
	Question string
	Language string // fallback language when empty
	Context  string
}

// StreamEventKind distinguishes the events of a streamed answer
type StreamEventKind string

const (
	StreamEventFragment StreamEventKind = "fragment"
	StreamEventMeta     StreamEventKind = "meta"
	StreamEventError    StreamEventKind = "error"
)

// StreamEvent is one element of a streamed answer. A stream carries any number
// of fragments followed by exactly one meta or error event.
type StreamEvent struct {
	Kind StreamEventKind
	Text string
	Meta *models.StreamMeta
	Err  error
}

// groundedPrompt is the output of the shared pipeline: the prompt and the ids
// of the nodes it was built from
type groundedPrompt struct {
	slug      string
	prompt    Prompt
	usedNodes []string
}

// prepare validates the request and runs resolve, flatten, select and build.
// Both answer modes go through here so used_nodes always matches the prompt.
func (s *AnswerService) prepare(ctx context.Context, req AnswerRequest) (*groundedPrompt, error) {
	if req.Slug == "" || req.Question == "" {
		return nil, fmt.Errorf("%w: slug and question are required", ErrInvalidRequest)
	}
	if s.resolver == nil {
		return nil, errors.New("tree resolver not set")
	}

	language := req.Language
	if language == "" {
		language = s.resolver.FallbackLanguage()
	}

	resolved, err := s.resolver.Resolve(ctx, req.Slug, language)
	if err != nil {
		return nil, err
	}

	steps := s.selector.Select(Flatten(resolved.Tree))
	usedNodes := make([]string, 0, len(steps))
	for _, step := range steps {
		usedNodes = append(usedNodes, step.ID)
	}
	s.metrics.ObserveGrounding(len(steps))

	var summary string
	if s.includeSummary && s.catalog != nil {
		if meta, ok := s.catalog.Get(req.Slug); ok {
			summary = normalizeWhitespace(meta.DescriptionFor(language, s.resolver.FallbackLanguage()))
		}
	}

	prompt := BuildPrompt(PromptInput{
		Slug:     req.Slug,
		Language: language,
		Context:  req.Context,
		Summary:  summary,
		Steps:    steps,
		Question: req.Question,
	})

	if s.completer == nil {
		return nil, ErrProviderUnavailable
	}

	return &groundedPrompt{slug: req.Slug, prompt: prompt, usedNodes: usedNodes}, nil
}

// Answer generates a complete grounded answer
func (s *AnswerService) Answer(ctx context.Context, req AnswerRequest) (*models.AnswerResult, error) {
	gp, err := s.prepare(ctx, req)
	if err != nil {
		s.metrics.ObserveAnswer(metrics.ModeSync, outcomeFor(err))
		return nil, err
	}

	genCtx, cancel := boundedContext(ctx, s.timeout)
	defer cancel()

	text, err := s.completer.Complete(genCtx, gp.prompt.Messages(), s.params)
	if err != nil {
		err = generationError(genCtx, err)
		s.logger.Error("Grounded answer generation failed",
			zap.String("slug", gp.slug),
			zap.String("provider", s.completer.Name()),
			zap.Error(err))
		s.metrics.ObserveAnswer(metrics.ModeSync, outcomeFor(err))
		return nil, err
	}

	s.metrics.ObserveAnswer(metrics.ModeSync, metrics.OutcomeOK)
	return &models.AnswerResult{
		Answer:     strings.TrimSpace(text),
		UsedNodes:  gp.usedNodes,
		RiskLevel:  RiskLevelMedium,
		CTA:        []string{CallToActionEmergency},
		Disclaimer: Disclaimer,
	}, nil
}

// Stream generates a grounded answer incrementally. Request problems
// (invalid input, missing tree, no provider) are returned directly; once the
// channel is returned every outcome arrives on it. The channel is closed after
// the terminal event, or early when ctx is cancelled.
func (s *AnswerService) Stream(ctx context.Context, req AnswerRequest) (<-chan StreamEvent, error) {
	gp, err := s.prepare(ctx, req)
	if err != nil {
		s.metrics.ObserveAnswer(metrics.ModeStream, outcomeFor(err))
		return nil, err
	}

	events := make(chan StreamEvent)
	go s.produce(ctx, gp, events)
	return events, nil
}

func (s *AnswerService) produce(ctx context.Context, gp *groundedPrompt, events chan<- StreamEvent) {
	defer close(events)
	defer s.metrics.StreamStarted()()
	start := time.Now()

	genCtx, cancel := boundedContext(ctx, s.timeout)
	defer cancel()

	// emit waits on the caller's context, not genCtx, so a timeout can still be reported
	emit := func(ev StreamEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			s.metrics.ObserveAnswer(metrics.ModeStream, metrics.OutcomeClientCanceled)
			return false
		}
	}
	fail := func(err error) {
		if ctx.Err() != nil {
			s.metrics.ObserveAnswer(metrics.ModeStream, metrics.OutcomeClientCanceled)
			return
		}
		err = generationError(genCtx, err)
		s.logger.Error("Streamed answer generation failed",
			zap.String("slug", gp.slug),
			zap.String("provider", s.completer.Name()),
			zap.Error(err))
		if emit(StreamEvent{Kind: StreamEventError, Err: err}) {
			s.metrics.ObserveAnswer(metrics.ModeStream, outcomeFor(err))
		}
	}

	stream, err := s.completer.CompleteStream(genCtx, gp.prompt.Messages(), s.params)
	if err != nil {
		fail(err)
		return
	}
	defer stream.Close()

	first := true
	for {
		text, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fail(err)
			return
		}
		if text == "" {
			continue
		}
		if !emit(StreamEvent{Kind: StreamEventFragment, Text: text}) {
			return
		}
		s.metrics.ObserveFragment(first, time.Since(start))
		first = false
	}

	if emit(StreamEvent{Kind: StreamEventMeta, Meta: &models.StreamMeta{UsedNodes: gp.usedNodes}}) {
		s.metrics.ObserveAnswer(metrics.ModeStream, metrics.OutcomeOK)
	}
}

func boundedContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

// generationError classifies a provider failure, separating deadline expiry
func generationError(genCtx context.Context, err error) error {
	if errors.Is(genCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrGenerationTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrUpstreamGeneration, err)
}

func outcomeFor(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrInvalidRequest):
		return metrics.OutcomeInvalid
	case errors.Is(err, ErrTreeNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrProviderUnavailable):
		return metrics.OutcomeNoProvider
	case errors.Is(err, ErrGenerationTimeout):
		return metrics.OutcomeTimeout
	case errors.Is(err, ErrUpstreamGeneration):
		return metrics.OutcomeUpstreamError
	default:
		return metrics.OutcomeTreeError
	}
}
