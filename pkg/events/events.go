package events

import (
	"context"
	"time"
)

const (
	TypeFeedbackSubmitted = "feedback.submitted"
	TypeFeedbackModerated = "feedback.moderated"
)

// Event is a domain event. Key is used for partitioning.
type Event struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

// FeedbackSubmitted never carries the submitter identity.
type FeedbackSubmitted struct {
	FeedbackID      string `json:"feedbackId"`
	SubjectType     string `json:"subjectType"`
	ContractHouseID string `json:"contractHouseId,omitempty"`
	ClientCompanyID string `json:"clientCompanyId,omitempty"`
	EvidenceCount   int    `json:"evidenceCount"`
}

type FeedbackModerated struct {
	FeedbackID      string `json:"feedbackId"`
	Status          string `json:"status"`
	Method          string `json:"method"`
	ContractHouseID string `json:"contractHouseId,omitempty"`
	ClientCompanyID string `json:"clientCompanyId,omitempty"`
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
