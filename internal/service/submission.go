package service

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"go.uber.org/zap"

	"github.com/godilite/perception-server/internal/repository/models"
	"github.com/godilite/perception-server/pkg/events"
)

// Submit validates, scrubs and stores one feedback submission as UNVERIFIED and PENDING.
// The submitter is recorded only in the identity link.
func (s *FeedbackService) Submit(ctx context.Context, submitterUserID string, req SubmissionRequest) (string, error) {
	if strings.TrimSpace(submitterUserID) == "" {
		return "", &ValidationError{Fields: []FieldError{{Field: "submitterUserId", Rule: "required"}}}
	}
	// Reports are looked up by trimmed ids, so whitespace-only ids count as missing.
	req.ContractHouseID = strings.TrimSpace(req.ContractHouseID)
	req.ClientCompanyID = strings.TrimSpace(req.ClientCompanyID)
	if err := s.validateRequest(req); err != nil {
		return "", err
	}

	now := s.now().UTC()
	sub := models.FeedbackSubmission{
		ID:                s.newID(),
		SubjectType:       models.SubjectType(req.SubjectType),
		ContractHouseID:   req.ContractHouseID,
		ClientCompanyID:   req.ClientCompanyID,
		Country:           req.Country,
		RoleCategory:      req.RoleCategory,
		WorkMode:          models.WorkMode(req.WorkMode),
		TimeWindow:        req.TimeWindow,
		Ratings:           maps.Clone(req.Ratings),
		FreeText:          s.scrubber.Scrub(strings.TrimSpace(req.FreeText)),
		Tags:              s.normalizeTags(req.Tags),
		VerificationLevel: models.Unverified,
		ModerationStatus:  models.StatusPending,
		CreatedAt:         now,
	}
	if sub.Country == "" {
		sub.Country = defaultCountry
	}
	// Only the id matching a single subject type is kept.
	switch sub.SubjectType {
	case models.SubjectContractHouse:
		sub.ClientCompanyID = ""
	case models.SubjectClientCompany:
		sub.ContractHouseID = ""
	}

	link := models.IdentityLink{
		FeedbackID:      sub.ID,
		SubmitterUserID: submitterUserID,
		CreatedAt:       now,
	}

	evidence := make([]models.EvidenceItem, 0, len(req.Evidence))
	for _, e := range req.Evidence {
		evidence = append(evidence, models.EvidenceItem{
			ID:           s.newID(),
			FeedbackID:   sub.ID,
			Type:         models.EvidenceType(e.Type),
			FileRef:      e.FileRef,
			AccessPolicy: e.AccessPolicy,
		})
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if err := s.storage.CreateSubmission(dbCtx, sub, link, evidence); err != nil {
		s.logger.Error("failed to store feedback submission", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	s.logger.Info("stored feedback submission",
		zap.String("feedback_id", sub.ID),
		zap.String("subject_type", string(sub.SubjectType)),
		zap.Int("evidence_count", len(evidence)))

	s.publish(ctx, events.Event{
		Type:       events.TypeFeedbackSubmitted,
		Key:        sub.ID,
		OccurredAt: now,
		Payload: events.FeedbackSubmitted{
			FeedbackID:      sub.ID,
			SubjectType:     string(sub.SubjectType),
			ContractHouseID: sub.ContractHouseID,
			ClientCompanyID: sub.ClientCompanyID,
			EvidenceCount:   len(evidence),
		},
	})

	return sub.ID, nil
}

// normalizeTags trims, scrubs and de-duplicates tags, keeping first-seen order.
func (s *FeedbackService) normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = s.scrubber.Scrub(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func (s *FeedbackService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event",
			zap.String("type", event.Type),
			zap.String("key", event.Key),
			zap.Error(err))
	}
}
