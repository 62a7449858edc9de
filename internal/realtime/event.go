// Package realtime carries extraction lifecycle events to other services.
package realtime

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventExtractionCompleted EventType = "cv.extraction.completed"
	EventExtractionFailed    EventType = "cv.extraction.failed"
	EventInterviewScored     EventType = "interview.scored"
)

type Event struct {
	Type         EventType  `json:"type"`
	RequestID    string     `json:"request_id,omitempty"`
	ProfileID    *uuid.UUID `json:"profile_id,omitempty"`
	FileID       *uuid.UUID `json:"file_id,omitempty"`
	ExtractionID *uuid.UUID `json:"extraction_id,omitempty"`
	Conversation string     `json:"conversation_id,omitempty"`
	Inserted     int        `json:"inserted,omitempty"`
	Failed       int        `json:"failed,omitempty"`
	Error        string     `json:"error,omitempty"`
	Retryable    bool       `json:"retryable,omitempty"`
	OccurredAt   time.Time  `json:"occurred_at"`
}
