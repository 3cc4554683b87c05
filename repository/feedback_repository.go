package repository

import (
	"context"

	"akut-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FeedbackRepository handles database operations for user feedback
type FeedbackRepository struct {
	db *pgxpool.Pool
}

// NewFeedbackRepository creates a new feedback repository
func NewFeedbackRepository(db *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create stores a feedback submission
func (r *FeedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	if feedback.ID == uuid.Nil {
		feedback.ID = uuid.New()
	}

	query := `
		INSERT INTO feedback (id, payload)
		VALUES ($1, $2)
		RETURNING created_at`

	return r.db.QueryRow(ctx, query, feedback.ID, feedback.Payload).Scan(&feedback.CreatedAt)
}
