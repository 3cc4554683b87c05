package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"akut-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryFeedbackStore struct {
	saved []*models.Feedback
	err   error
}

func (m *memoryFeedbackStore) Create(_ context.Context, f *models.Feedback) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, f)
	return nil
}

type memoryTelemetryStore struct {
	saved []*models.TelemetryEvent
}

func (m *memoryTelemetryStore) Create(_ context.Context, e *models.TelemetryEvent) error {
	m.saved = append(m.saved, e)
	return nil
}

func TestFeedbackService_SubmitFeedback(t *testing.T) {
	store := &memoryFeedbackStore{}
	svc := NewFeedbackService(FeedbackWithStore(store))

	_, err := svc.SubmitFeedback(context.Background(), models.JSONPayload{"rating": 5.0, "slug": "fire"})
	require.NoError(t, err)
	require.Len(t, store.saved, 1)
	assert.Equal(t, "fire", store.saved[0].Payload["slug"])

	store.err = errors.New("db down")
	_, err = svc.SubmitFeedback(context.Background(), models.JSONPayload{})
	assert.Error(t, err)
}

func TestFeedbackService_RecordTelemetryAddsTimestamp(t *testing.T) {
	store := &memoryTelemetryStore{}
	now := time.UnixMilli(1700000000123)
	svc := NewFeedbackService(
		FeedbackWithTelemetryStore(store),
		FeedbackWithClock(func() time.Time { return now }),
	)

	_, err := svc.RecordTelemetry(context.Background(), models.JSONPayload{"slug": "fire"})
	require.NoError(t, err)
	_, err = svc.RecordTelemetry(context.Background(), models.JSONPayload{"timestamp": 42.0})
	require.NoError(t, err)

	require.Len(t, store.saved, 2)
	assert.Equal(t, int64(1700000000123), store.saved[0].Payload["timestamp"])
	assert.Equal(t, 42.0, store.saved[1].Payload["timestamp"])
}

func TestFeedbackService_WithoutPersistence(t *testing.T) {
	svc := NewFeedbackService()

	_, err := svc.SubmitFeedback(context.Background(), models.JSONPayload{})
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)
	_, err = svc.RecordTelemetry(context.Background(), models.JSONPayload{})
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)
}
