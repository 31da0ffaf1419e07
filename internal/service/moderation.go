package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/godilite/perception-server/internal/repository"
	"github.com/godilite/perception-server/internal/repository/models"
	"github.com/godilite/perception-server/pkg/events"
)

// Moderate records a moderation decision for a pending submission. Both outcomes mark the
// submission VERIFIED; only APPROVED makes it eligible for reports.
func (s *FeedbackService) Moderate(ctx context.Context, req ModerationRequest) (ModerationResult, error) {
	if req.Status == "" {
		req.Status = string(models.StatusApproved)
	}
	if err := s.validateRequest(req); err != nil {
		return ModerationResult{}, err
	}

	now := s.now().UTC()
	update := models.ModerationUpdate{
		Status:     models.ModerationStatus(req.Status),
		Method:     models.VerificationMethod(req.Method),
		VerifiedBy: req.VerifiedBy,
		VerifiedAt: now,
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	sub, err := s.storage.ModerateSubmission(dbCtx, req.FeedbackID, update)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ModerationResult{}, fmt.Errorf("%w: %s", ErrFeedbackNotFound, req.FeedbackID)
	case errors.Is(err, repository.ErrAlreadyModerated):
		return ModerationResult{}, fmt.Errorf("%w: %s", ErrAlreadyModerated, req.FeedbackID)
	case err != nil:
		s.logger.Error("failed to moderate feedback", zap.String("feedback_id", req.FeedbackID), zap.Error(err))
		return ModerationResult{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	result := ModerationResult{
		FeedbackID: sub.ID,
		Status:     sub.ModerationStatus,
		Subjects:   subjectsOf(sub),
	}

	s.logger.Info("moderated feedback",
		zap.String("feedback_id", sub.ID),
		zap.String("status", string(sub.ModerationStatus)),
		zap.String("method", string(sub.VerificationMethod)))

	s.publish(ctx, events.Event{
		Type:       events.TypeFeedbackModerated,
		Key:        sub.ID,
		OccurredAt: now,
		Payload: events.FeedbackModerated{
			FeedbackID:      sub.ID,
			Status:          string(sub.ModerationStatus),
			Method:          string(sub.VerificationMethod),
			ContractHouseID: sub.ContractHouseID,
			ClientCompanyID: sub.ClientCompanyID,
		},
	})

	return result, nil
}

// PendingCount returns the size of the moderation backlog.
func (s *FeedbackService) PendingCount(ctx context.Context) (int64, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	n, err := s.storage.CountPending(dbCtx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return n, nil
}

// subjectsOf lists every subject a submission counts towards.
func subjectsOf(sub models.FeedbackSubmission) []Subject {
	var subjects []Subject
	if sub.ContractHouseID != "" {
		subjects = append(subjects, Subject{Kind: models.SubjectContractHouse, ID: sub.ContractHouseID})
	}
	if sub.ClientCompanyID != "" {
		subjects = append(subjects, Subject{Kind: models.SubjectClientCompany, ID: sub.ClientCompanyID})
	}
	return subjects
}
