package service

import (
	"context"

	"github.com/godilite/perception-server/internal/repository/models"
	"github.com/godilite/perception-server/pkg/events"
)

// FeedbackRepository defines the storage operations the service depends on.
type FeedbackRepository interface {
	CreateSubmission(ctx context.Context, sub models.FeedbackSubmission, link models.IdentityLink, evidence []models.EvidenceItem) error
	ListEligible(ctx context.Context, subjectType models.SubjectType, subjectID string) ([]models.FeedbackSubmission, error)
	ModerateSubmission(ctx context.Context, id string, update models.ModerationUpdate) (models.FeedbackSubmission, error)
	CountPending(ctx context.Context) (int64, error)
}

// EventPublisher delivers domain events. Delivery is best-effort.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}
