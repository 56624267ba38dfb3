package domain

import (
	"errors"
	"time"
)

type SessionID string

type SessionStatus string

const (
	StatusStarted        SessionStatus = "started"
	StatusRunning        SessionStatus = "running"
	StatusCompleted      SessionStatus = "completed"
	StatusPartialSuccess SessionStatus = "partial_success"
	StatusTimeout        SessionStatus = "timeout"
	StatusError          SessionStatus = "error"
)

// Terminal reports whether the status admits no further transitions.
func (s SessionStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusPartialSuccess, StatusTimeout, StatusError:
		return true
	}
	return false
}

// Session is one tracked question-to-answer run. The tracker is the only
// writer of lifecycle fields; the store only keeps the record by id.
type Session struct {
	ID          SessionID     `json:"session_id"`
	Question    string        `json:"question"`
	Status      SessionStatus `json:"status"`
	Progress    int           `json:"progress"`
	CurrentStep string        `json:"current_step"`
	Message     string        `json:"message"`
	Result      *string       `json:"result,omitempty"`
	OutputLog   string        `json:"output_log"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

var ErrSessionNotFound = errors.New("session not found")
