package mocks

import (
	"context"
	"errors"

	"github.com/godilite/perception-server/internal/repository/models"
)

// MockFeedbackRepository is a mock implementation of the FeedbackRepository interface
// for testing the service layer.
type MockFeedbackRepository struct {
	CreateSubmissionFunc   func(ctx context.Context, sub models.FeedbackSubmission, link models.IdentityLink, evidence []models.EvidenceItem) error
	ListEligibleFunc       func(ctx context.Context, subjectType models.SubjectType, subjectID string) ([]models.FeedbackSubmission, error)
	ModerateSubmissionFunc func(ctx context.Context, id string, update models.ModerationUpdate) (models.FeedbackSubmission, error)
	CountPendingFunc       func(ctx context.Context) (int64, error)
}

// CreateSubmission implements the FeedbackRepository interface
func (m *MockFeedbackRepository) CreateSubmission(ctx context.Context, sub models.FeedbackSubmission, link models.IdentityLink, evidence []models.EvidenceItem) error {
	if m.CreateSubmissionFunc != nil {
		return m.CreateSubmissionFunc(ctx, sub, link, evidence)
	}
	return errors.New("CreateSubmissionFunc not implemented")
}

// ListEligible implements the FeedbackRepository interface
func (m *MockFeedbackRepository) ListEligible(ctx context.Context, subjectType models.SubjectType, subjectID string) ([]models.FeedbackSubmission, error) {
	if m.ListEligibleFunc != nil {
		return m.ListEligibleFunc(ctx, subjectType, subjectID)
	}
	return nil, errors.New("ListEligibleFunc not implemented")
}

// ModerateSubmission implements the FeedbackRepository interface
func (m *MockFeedbackRepository) ModerateSubmission(ctx context.Context, id string, update models.ModerationUpdate) (models.FeedbackSubmission, error) {
	if m.ModerateSubmissionFunc != nil {
		return m.ModerateSubmissionFunc(ctx, id, update)
	}
	return models.FeedbackSubmission{}, errors.New("ModerateSubmissionFunc not implemented")
}

// CountPending implements the FeedbackRepository interface
func (m *MockFeedbackRepository) CountPending(ctx context.Context) (int64, error) {
	if m.CountPendingFunc != nil {
		return m.CountPendingFunc(ctx)
	}
	return 0, errors.New("CountPendingFunc not implemented")
}
