package service_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/godilite/perception-server/internal/repository"
	"github.com/godilite/perception-server/internal/repository/models"
	"github.com/godilite/perception-server/internal/service"
)

func setupService(t *testing.T) *service.FeedbackService {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = repository.Migrate(db, "sqlite3")
	require.NoError(t, err)

	return service.NewFeedbackService(repository.NewFeedbackRepository(db), nil, zaptest.NewLogger(t))
}

func TestReportOnlyUsesApprovedVerifiedFeedback(t *testing.T) {
	ctx := context.Background()
	svc := setupService(t)
	subject := service.Subject{Kind: models.SubjectContractHouse, ID: "ch-1"}

	submit := func(payment float64) string {
		id, err := svc.Submit(ctx, "user-1", service.SubmissionRequest{
			SubjectType:     "CONTRACT_HOUSE",
			ContractHouseID: "ch-1",
			Ratings:         map[string]float64{"paymentDiscipline": payment, "safety": 4},
			Tags:            []string{"Great team"},
		})
		require.NoError(t, err)
		return id
	}
	moderate := func(id, status string) {
		_, err := svc.Moderate(ctx, service.ModerationRequest{
			FeedbackID: id,
			Method:     "PLACEMENT_MATCH",
			Status:     status,
			VerifiedBy: "admin-1",
		})
		require.NoError(t, err)
	}

	approved := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		approved = append(approved, submit(5))
	}
	submit(1)
	rejected := submit(1)

	out, err := svc.BuildReport(ctx, subject)
	require.NoError(t, err)
	require.False(t, out.Sufficient())
	assert.Equal(t, 0, out.Insufficient.CurrentCount)

	pending, err := svc.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), pending)

	for _, id := range approved[:4] {
		moderate(id, "APPROVED")
	}
	moderate(rejected, "REJECTED")

	out, err = svc.BuildReport(ctx, subject)
	require.NoError(t, err)
	require.False(t, out.Sufficient())
	assert.Equal(t, 4, out.Insufficient.CurrentCount)

	moderate(approved[4], "")

	out, err = svc.BuildReport(ctx, subject)
	require.NoError(t, err)
	require.True(t, out.Sufficient())
	assert.Equal(t, 5, out.Report.SampleSize)
	assert.Equal(t, 5.0, out.Report.Categories["paymentDiscipline"])
	assert.Equal(t, []service.TagCount{{Tag: "Great team", Count: 5}}, out.Report.TopTags)
	assert.False(t, out.Report.RiskFlags.PaymentRisk)

	_, err = svc.Moderate(ctx, service.ModerationRequest{
		FeedbackID: approved[0], Method: "EVIDENCE", Status: "REJECTED", VerifiedBy: "admin-2",
	})
	assert.ErrorIs(t, err, service.ErrAlreadyModerated)

	_, err = svc.Moderate(ctx, service.ModerationRequest{
		FeedbackID: "missing", Method: "EVIDENCE", VerifiedBy: "admin-2",
	})
	assert.ErrorIs(t, err, service.ErrFeedbackNotFound)

	other, err := svc.BuildReport(ctx, service.Subject{Kind: models.SubjectClientCompany, ID: "ch-1"})
	require.NoError(t, err)
	assert.False(t, other.Sufficient(), "ids are scoped to their subject type")

	pending, err = svc.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
}

func TestPaddedSubjectIDsCountTowardsReport(t *testing.T) {
	ctx := context.Background()
	svc := setupService(t)

	_, err := svc.Submit(ctx, "user-1", service.SubmissionRequest{
		SubjectType:     "CONTRACT_HOUSE",
		ContractHouseID: "   ",
		Ratings:         map[string]float64{"safety": 4},
	})
	require.ErrorIs(t, err, service.ErrInvalidRequest)

	for i := 0; i < 5; i++ {
		id, err := svc.Submit(ctx, "user-1", service.SubmissionRequest{
			SubjectType:     "CONTRACT_HOUSE",
			ContractHouseID: " ch-1 ",
			Ratings:         map[string]float64{"safety": 4},
		})
		require.NoError(t, err)

		_, err = svc.Moderate(ctx, service.ModerationRequest{
			FeedbackID: id,
			Method:     "EVIDENCE",
			VerifiedBy: "admin-1",
		})
		require.NoError(t, err)
	}

	pending, err := svc.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending, "the blank-id submission must not have been stored")

	out, err := svc.BuildReport(ctx, service.Subject{Kind: models.SubjectContractHouse, ID: "ch-1"})
	require.NoError(t, err)
	require.True(t, out.Sufficient())
	assert.Equal(t, 5, out.Report.SampleSize)
}
