package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godilite/perception-server/internal/privacy"
	"github.com/godilite/perception-server/internal/repository/models"
	"github.com/godilite/perception-server/internal/service/mocks"
)

func uniformSubs(n int, rating float64) []models.FeedbackSubmission {
	subs := make([]models.FeedbackSubmission, 0, n)
	for i := 0; i < n; i++ {
		subs = append(subs, eligible(fmt.Sprintf("fb-%d", i), map[string]float64{
			"transparency": rating, "paymentDiscipline": rating, "support": rating,
			"roleIntegrity": rating, "onboarding": rating, "safety": rating, "compliance": rating,
		}, nil, 24*time.Hour))
	}
	return subs
}

func TestBuildReport(t *testing.T) {
	ctx := context.Background()
	subject := Subject{Kind: models.SubjectContractHouse, ID: "ch-1"}

	t.Run("insufficient data below threshold", func(t *testing.T) {
		for n := 0; n < privacy.AggregateThreshold; n++ {
			repo := &mocks.MockFeedbackRepository{
				ListEligibleFunc: func(_ context.Context, kind models.SubjectType, id string) ([]models.FeedbackSubmission, error) {
					return uniformSubs(n, 4), nil
				},
			}

			out, err := newTestService(repo, nil).BuildReport(ctx, subject)
			require.NoError(t, err)
			assert.False(t, out.Sufficient())
			assert.Nil(t, out.Report)
			assert.Equal(t, &InsufficientData{RequiredThreshold: 5, CurrentCount: n}, out.Insufficient)
		}
	})

	t.Run("report at threshold", func(t *testing.T) {
		repo := &mocks.MockFeedbackRepository{
			ListEligibleFunc: func(_ context.Context, kind models.SubjectType, id string) ([]models.FeedbackSubmission, error) {
				assert.Equal(t, models.SubjectContractHouse, kind)
				assert.Equal(t, "ch-1", id)
				return uniformSubs(5, 4), nil
			},
		}

		out, err := newTestService(repo, nil).BuildReport(ctx, subject)
		require.NoError(t, err)
		require.True(t, out.Sufficient())
		assert.Nil(t, out.Insufficient)

		r := out.Report
		assert.True(t, r.IsAnonymized)
		assert.Equal(t, 5, r.SampleSize)
		assert.Equal(t, 80, r.FairnessIndex)
		assert.InDelta(t, 4.0, r.Categories["safety"], 1e-9)
		assert.Empty(t, r.TopTags)
		// 5/20 size score plus the full 0.2 recency bonus, no dispersion.
		assert.InDelta(t, 0.45, r.Confidence, 1e-9)
		assert.Equal(t, "MEDIUM", string(r.ConfidenceLabel))
		assert.False(t, r.RiskFlags.Any())
	})

	t.Run("storage failure", func(t *testing.T) {
		repo := &mocks.MockFeedbackRepository{
			ListEligibleFunc: func(context.Context, models.SubjectType, string) ([]models.FeedbackSubmission, error) {
				return nil, errors.New("no such table")
			},
		}

		_, err := newTestService(repo, nil).BuildReport(ctx, subject)
		assert.ErrorIs(t, err, ErrStorageFailure)
	})

	t.Run("invalid subject", func(t *testing.T) {
		service := newTestService(&mocks.MockFeedbackRepository{}, nil)

		_, err := service.BuildReport(ctx, Subject{Kind: models.SubjectBoth, ID: "ch-1"})
		assert.ErrorIs(t, err, ErrInvalidRequest)

		_, err = service.BuildReport(ctx, Subject{Kind: models.SubjectClientCompany})
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})
}

func TestExcerpts(t *testing.T) {
	ctx := context.Background()
	subject := Subject{Kind: models.SubjectContractHouse, ID: "ch-1"}

	withText := func(n int) []models.FeedbackSubmission {
		subs := uniformSubs(n, 3)
		for i := range subs {
			if i%3 == 0 {
				continue
			}
			subs[i].FreeText = fmt.Sprintf("excerpt %02d", n-i)
		}
		return subs
	}

	t.Run("withheld below free text threshold", func(t *testing.T) {
		repo := &mocks.MockFeedbackRepository{
			ListEligibleFunc: func(context.Context, models.SubjectType, string) ([]models.FeedbackSubmission, error) {
				return withText(9), nil
			},
		}

		res, err := newTestService(repo, nil).Excerpts(ctx, subject)
		require.NoError(t, err)
		assert.False(t, res.Released)
		assert.Nil(t, res.Data)
		assert.Equal(t, 9, res.SampleSize)
	})

	t.Run("released sorted and without blanks", func(t *testing.T) {
		repo := &mocks.MockFeedbackRepository{
			ListEligibleFunc: func(context.Context, models.SubjectType, string) ([]models.FeedbackSubmission, error) {
				subs := withText(10)
				subs[1].FreeText = "call 0821234567"
				return subs, nil
			},
		}

		res, err := newTestService(repo, nil).Excerpts(ctx, subject)
		require.NoError(t, err)
		require.True(t, res.Released)

		excerpts, ok := res.Value()
		require.True(t, ok)
		assert.Equal(t, []string{
			"call " + privacy.PhonePlaceholder,
			"excerpt 02", "excerpt 03", "excerpt 05", "excerpt 06", "excerpt 08",
		}, excerpts)
	})

	t.Run("released without free text is an empty list", func(t *testing.T) {
		repo := &mocks.MockFeedbackRepository{
			ListEligibleFunc: func(context.Context, models.SubjectType, string) ([]models.FeedbackSubmission, error) {
				return uniformSubs(10, 3), nil
			},
		}

		res, err := newTestService(repo, nil).Excerpts(ctx, subject)
		require.NoError(t, err)

		excerpts, ok := res.Value()
		require.True(t, ok)
		assert.NotNil(t, excerpts)
		assert.Empty(t, excerpts)
		assert.Equal(t, 10, res.SampleSize)
	})
}
