package notifier

import (
	"context"
	"time"
)

// ShiftCompletedEvent is published once a shift has been ended and saved.
type ShiftCompletedEvent struct {
	UserID        string    `json:"user_id"`
	SessionID     string    `json:"session_id"`
	StartedAt     time.Time `json:"started_at"`
	EndedAt       time.Time `json:"ended_at"`
	DurationHours float64   `json:"duration_hours"`
	PauseCount    int       `json:"pause_count"`
	TotalHours    float64   `json:"total_hours"`
}

type Notifier interface {
	NotifyShiftCompleted(ctx context.Context, event ShiftCompletedEvent) error
}
