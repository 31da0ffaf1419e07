package mocks

import (
	"context"
	"errors"

	"github.com/godilite/perception-server/internal/privacy"
	"github.com/godilite/perception-server/internal/service"
)

// MockPerceptionService is a mock implementation of the PerceptionService interface
// for testing the handler layer. It uses function-based mocking for flexibility.
type MockPerceptionService struct {
	SubmitFunc      func(ctx context.Context, submitterUserID string, req service.SubmissionRequest) (string, error)
	ModerateFunc    func(ctx context.Context, req service.ModerationRequest) (service.ModerationResult, error)
	BuildReportFunc func(ctx context.Context, subject service.Subject) (service.ReportOutcome, error)
	ExcerptsFunc    func(ctx context.Context, subject service.Subject) (privacy.Released[[]string], error)
}

// Submit implements the PerceptionService interface
func (m *MockPerceptionService) Submit(ctx context.Context, submitterUserID string, req service.SubmissionRequest) (string, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, submitterUserID, req)
	}
	return "", errors.New("SubmitFunc not implemented")
}

// Moderate implements the PerceptionService interface
func (m *MockPerceptionService) Moderate(ctx context.Context, req service.ModerationRequest) (service.ModerationResult, error) {
	if m.ModerateFunc != nil {
		return m.ModerateFunc(ctx, req)
	}
	return service.ModerationResult{}, errors.New("ModerateFunc not implemented")
}

// BuildReport implements the PerceptionService interface
func (m *MockPerceptionService) BuildReport(ctx context.Context, subject service.Subject) (service.ReportOutcome, error) {
	if m.BuildReportFunc != nil {
		return m.BuildReportFunc(ctx, subject)
	}
	return service.ReportOutcome{}, errors.New("BuildReportFunc not implemented")
}

// Excerpts implements the PerceptionService interface
func (m *MockPerceptionService) Excerpts(ctx context.Context, subject service.Subject) (privacy.Released[[]string], error) {
	if m.ExcerptsFunc != nil {
		return m.ExcerptsFunc(ctx, subject)
	}
	return privacy.Released[[]string]{}, errors.New("ExcerptsFunc not implemented")
}
