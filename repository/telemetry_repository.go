package repository

import (
	"context"

	"akut-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TelemetryRepository handles database operations for anonymous telemetry events
type TelemetryRepository struct {
	db *pgxpool.Pool
}

// NewTelemetryRepository creates a new telemetry repository
func NewTelemetryRepository(db *pgxpool.Pool) *TelemetryRepository {
	return &TelemetryRepository{db: db}
}

// Create stores a telemetry event
func (r *TelemetryRepository) Create(ctx context.Context, event *models.TelemetryEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	query := `
		INSERT INTO telemetry_events (id, payload)
		VALUES ($1, $2)
		RETURNING created_at`

	return r.db.QueryRow(ctx, query, event.ID, event.Payload).Scan(&event.CreatedAt)
}
