package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JSONPayload is a free-form JSON object stored as JSONB
type JSONPayload map[string]interface{}

// Value implements driver.Valuer for JSONB
func (p JSONPayload) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB
func (p *JSONPayload) Scan(value interface{}) error {
	if value == nil {
		*p = make(JSONPayload)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	case map[string]interface{}:
		*p = JSONPayload(v)
		return nil
	default:
		*p = make(JSONPayload)
		return nil
	}

	if len(bytes) == 0 {
		*p = make(JSONPayload)
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// Feedback is a user feedback submission
type Feedback struct {
	ID        uuid.UUID   `json:"id"`
	Payload   JSONPayload `json:"payload"`
	CreatedAt time.Time   `json:"created_at"`
}

// TelemetryEvent is an anonymous usage event (slug, used step ids, timestamps)
type TelemetryEvent struct {
	ID        uuid.UUID   `json:"id"`
	Payload   JSONPayload `json:"payload"`
	CreatedAt time.Time   `json:"created_at"`
}
