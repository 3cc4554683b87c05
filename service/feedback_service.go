package service

import (
	"context"
	"fmt"
	"time"

	"akut-backend/models"

	"go.uber.org/zap"
)

// FeedbackStore persists feedback submissions
type FeedbackStore interface {
	Create(ctx context.Context, feedback *models.Feedback) error
}

// TelemetryStore persists telemetry events
type TelemetryStore interface {
	Create(ctx context.Context, event *models.TelemetryEvent) error
}

// FeedbackService records user feedback and anonymous telemetry
type FeedbackService struct {
	feedback  FeedbackStore
	telemetry TelemetryStore
	now       func() time.Time
	logger    *zap.Logger
}

// FeedbackServiceOption is a functional option for FeedbackService
type FeedbackServiceOption func(*FeedbackService)

// FeedbackWithStore sets the feedback store
func FeedbackWithStore(store FeedbackStore) FeedbackServiceOption {
	return func(s *FeedbackService) {
		s.feedback = store
	}
}

// FeedbackWithTelemetryStore sets the telemetry store
func FeedbackWithTelemetryStore(store TelemetryStore) FeedbackServiceOption {
	return func(s *FeedbackService) {
		s.telemetry = store
	}
}

// FeedbackWithClock overrides the clock used for telemetry timestamps
func FeedbackWithClock(now func() time.Time) FeedbackServiceOption {
	return func(s *FeedbackService) {
		s.now = now
	}
}

// FeedbackWithLogger sets the logger
func FeedbackWithLogger(l *zap.Logger) FeedbackServiceOption {
	return func(s *FeedbackService) {
		s.logger = l
	}
}

// NewFeedbackService creates a new feedback service
func NewFeedbackService(opts ...FeedbackServiceOption) *FeedbackService {
	s := &FeedbackService{now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitFeedback stores an arbitrary feedback document
func (s *FeedbackService) SubmitFeedback(ctx context.Context, payload models.JSONPayload) (*models.Feedback, error) {
	if s.feedback == nil {
		return nil, ErrPersistenceUnavailable
	}
	if payload == nil {
		payload = models.JSONPayload{}
	}

	feedback := &models.Feedback{Payload: payload}
	if err := s.feedback.Create(ctx, feedback); err != nil {
		s.logger.Error("Failed to store feedback", zap.Error(err))
		return nil, fmt.Errorf("failed to store feedback: %w", err)
	}
	return feedback, nil
}

// RecordTelemetry stores a telemetry event, adding a millisecond "timestamp"
// when the client did not send one
func (s *FeedbackService) RecordTelemetry(ctx context.Context, payload models.JSONPayload) (*models.TelemetryEvent, error) {
	if s.telemetry == nil {
		return nil, ErrPersistenceUnavailable
	}
	if payload == nil {
		payload = models.JSONPayload{}
	}
	if _, ok := payload["timestamp"]; !ok {
		payload["timestamp"] = s.now().UnixMilli()
	}

	event := &models.TelemetryEvent{Payload: payload}
	if err := s.telemetry.Create(ctx, event); err != nil {
		s.logger.Error("Failed to store telemetry event", zap.Error(err))
		return nil, fmt.Errorf("failed to store telemetry event: %w", err)
	}
	return event, nil
}
