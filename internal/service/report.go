package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/godilite/perception-server/internal/privacy"
)

// BuildReport aggregates the approved and verified feedback for a subject. Below the
// aggregate threshold the outcome carries only the required and current counts. The error
// is reserved for invalid subjects and storage failures.
func (s *FeedbackService) BuildReport(ctx context.Context, subject Subject) (ReportOutcome, error) {
	if err := validateSubject(subject); err != nil {
		return ReportOutcome{}, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	subs, err := s.storage.ListEligible(dbCtx, subject.Kind, subject.ID)
	if err != nil {
		s.logger.Error("failed to list eligible feedback", zap.Stringer("subject", subject), zap.Error(err))
		return ReportOutcome{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	eligible, ok := privacy.EnforceThreshold(len(subs), subs).Value()
	if !ok {
		s.logger.Debug("report withheld",
			zap.Stringer("subject", subject),
			zap.Int("sample_size", len(subs)))
		return ReportOutcome{Insufficient: &InsufficientData{
			RequiredThreshold: privacy.AggregateThreshold,
			CurrentCount:      len(subs),
		}}, nil
	}

	report := Aggregate(eligible, s.now())

	s.logger.Info("built subject report",
		zap.Stringer("subject", subject),
		zap.Int("sample_size", report.SampleSize),
		zap.Int("fairness_index", report.FairnessIndex),
		zap.Float64("confidence", report.Confidence))

	return ReportOutcome{Report: &report}, nil
}

// Excerpts returns the scrubbed free-text excerpts for a subject. They are released only
// once the subject has enough eligible submissions for individual text to stay anonymous.
func (s *FeedbackService) Excerpts(ctx context.Context, subject Subject) (privacy.Released[[]string], error) {
	if err := validateSubject(subject); err != nil {
		return privacy.Released[[]string]{}, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	subs, err := s.storage.ListEligible(dbCtx, subject.Kind, subject.ID)
	if err != nil {
		s.logger.Error("failed to list eligible feedback", zap.Stringer("subject", subject), zap.Error(err))
		return privacy.Released[[]string]{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	gated := privacy.Enforce(privacy.FreeTextGate, len(subs), subs)
	eligible, ok := gated.Value()
	if !ok {
		return privacy.Released[[]string]{SampleSize: gated.SampleSize}, nil
	}

	excerpts := make([]string, 0, len(eligible))
	for _, sub := range eligible {
		if sub.FreeText == "" {
			continue
		}
		excerpts = append(excerpts, s.scrubber.Scrub(sub.FreeText))
	}
	// Storage order follows creation time, which must not leak.
	sort.Strings(excerpts)

	return privacy.Released[[]string]{Released: true, Data: &excerpts, SampleSize: gated.SampleSize}, nil
}
