package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godilite/perception-server/internal/privacy"
	"github.com/godilite/perception-server/internal/repository/models"
	"github.com/godilite/perception-server/internal/service/mocks"
	"github.com/godilite/perception-server/pkg/events"
)

func validRequest() SubmissionRequest {
	return SubmissionRequest{
		SubjectType:     "CONTRACT_HOUSE",
		ContractHouseID: "ch-1",
		RoleCategory:    "Backend",
		WorkMode:        "REMOTE",
		TimeWindow:      "2025-H1",
		Ratings:         map[string]float64{"transparency": 4, "paymentDiscipline": 2},
		FreeText:        "Contact me at jane@example.com or 0821234567.",
		Tags:            []string{" Late payment ", "Late payment", "Great team"},
		Evidence: []EvidenceRequest{
			{Type: "EMAIL", FileRef: "s3://evidence/1"},
		},
	}
}

func fieldRules(t *testing.T, err error) map[string]string {
	t.Helper()

	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
	rules := make(map[string]string, len(verr.Fields))
	for _, f := range verr.Fields {
		rules[f.Field] = f.Rule
	}
	return rules
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("stores scrubbed submission with identity link", func(t *testing.T) {
		var (
			stored   models.FeedbackSubmission
			link     models.IdentityLink
			evidence []models.EvidenceItem
		)
		repo := &mocks.MockFeedbackRepository{
			CreateSubmissionFunc: func(_ context.Context, s models.FeedbackSubmission, l models.IdentityLink, e []models.EvidenceItem) error {
				stored, link, evidence = s, l, e
				return nil
			},
		}
		pub := &mocks.MockEventPublisher{}
		service := newTestService(repo, pub)

		id, err := service.Submit(ctx, "user-42", validRequest())
		require.NoError(t, err)
		assert.Equal(t, "id-1", id)

		assert.Equal(t, "id-1", stored.ID)
		assert.Equal(t, models.SubjectContractHouse, stored.SubjectType)
		assert.Equal(t, "South Africa", stored.Country)
		assert.Equal(t, models.Unverified, stored.VerificationLevel)
		assert.Equal(t, models.StatusPending, stored.ModerationStatus)
		assert.Equal(t, testNow, stored.CreatedAt)
		assert.Equal(t, "Contact me at "+privacy.EmailPlaceholder+" or "+privacy.PhonePlaceholder+".", stored.FreeText)
		assert.Equal(t, []string{"Late payment", "Great team"}, stored.Tags)

		assert.Equal(t, models.IdentityLink{FeedbackID: "id-1", SubmitterUserID: "user-42", CreatedAt: testNow}, link)

		require.Len(t, evidence, 1)
		assert.Equal(t, "id-2", evidence[0].ID)
		assert.Equal(t, "id-1", evidence[0].FeedbackID)
		assert.Equal(t, models.EvidenceEmail, evidence[0].Type)

		published := pub.Published()
		require.Len(t, published, 1)
		assert.Equal(t, events.TypeFeedbackSubmitted, published[0].Type)
		payload, ok := published[0].Payload.(events.FeedbackSubmitted)
		require.True(t, ok)
		assert.Equal(t, "ch-1", payload.ContractHouseID)
		assert.Equal(t, 1, payload.EvidenceCount)
	})

	t.Run("keeps only the id matching a single subject type", func(t *testing.T) {
		var stored models.FeedbackSubmission
		repo := &mocks.MockFeedbackRepository{
			CreateSubmissionFunc: func(_ context.Context, s models.FeedbackSubmission, _ models.IdentityLink, _ []models.EvidenceItem) error {
				stored = s
				return nil
			},
		}
		req := validRequest()
		req.ClientCompanyID = "cc-9"

		_, err := newTestService(repo, nil).Submit(ctx, "user-1", req)
		require.NoError(t, err)
		assert.Equal(t, "ch-1", stored.ContractHouseID)
		assert.Empty(t, stored.ClientCompanyID)
	})

	t.Run("BOTH keeps both ids", func(t *testing.T) {
		var stored models.FeedbackSubmission
		repo := &mocks.MockFeedbackRepository{
			CreateSubmissionFunc: func(_ context.Context, s models.FeedbackSubmission, _ models.IdentityLink, _ []models.EvidenceItem) error {
				stored = s
				return nil
			},
		}
		req := validRequest()
		req.SubjectType = "BOTH"
		req.ClientCompanyID = "cc-9"

		_, err := newTestService(repo, nil).Submit(ctx, "user-1", req)
		require.NoError(t, err)
		assert.Equal(t, "ch-1", stored.ContractHouseID)
		assert.Equal(t, "cc-9", stored.ClientCompanyID)
	})

	t.Run("subject ids are trimmed before storage", func(t *testing.T) {
		var stored models.FeedbackSubmission
		repo := &mocks.MockFeedbackRepository{
			CreateSubmissionFunc: func(_ context.Context, s models.FeedbackSubmission, _ models.IdentityLink, _ []models.EvidenceItem) error {
				stored = s
				return nil
			},
		}
		pub := &mocks.MockEventPublisher{}
		req := validRequest()
		req.SubjectType = "BOTH"
		req.ContractHouseID = " ch-1 "
		req.ClientCompanyID = "\tcc-9\n"

		_, err := newTestService(repo, pub).Submit(ctx, "user-1", req)
		require.NoError(t, err)
		assert.Equal(t, "ch-1", stored.ContractHouseID)
		assert.Equal(t, "cc-9", stored.ClientCompanyID)

		published := pub.Published()
		require.Len(t, published, 1)
		payload, ok := published[0].Payload.(events.FeedbackSubmitted)
		require.True(t, ok)
		assert.Equal(t, "ch-1", payload.ContractHouseID)
	})

	t.Run("stored ratings do not alias the request", func(t *testing.T) {
		var stored models.FeedbackSubmission
		repo := &mocks.MockFeedbackRepository{
			CreateSubmissionFunc: func(_ context.Context, s models.FeedbackSubmission, _ models.IdentityLink, _ []models.EvidenceItem) error {
				stored = s
				return nil
			},
		}
		req := validRequest()

		_, err := newTestService(repo, nil).Submit(ctx, "user-1", req)
		require.NoError(t, err)

		req.Ratings["transparency"] = 1
		req.Ratings["vibes"] = 9
		assert.Equal(t, map[string]float64{"transparency": 4, "paymentDiscipline": 2}, stored.Ratings)
	})

	t.Run("validation failures store nothing", func(t *testing.T) {
		repo := &mocks.MockFeedbackRepository{
			CreateSubmissionFunc: func(context.Context, models.FeedbackSubmission, models.IdentityLink, []models.EvidenceItem) error {
				t.Fatal("CreateSubmission must not be called")
				return nil
			},
		}
		service := newTestService(repo, nil)

		tests := []struct {
			name   string
			mutate func(*SubmissionRequest)
			field  string
			rule   string
		}{
			{"unknown subject type", func(r *SubmissionRequest) { r.SubjectType = "AGENCY" }, "subjectType", "oneof"},
			{"missing contract house id", func(r *SubmissionRequest) { r.ContractHouseID = "" }, "contractHouseId", "required_for_subject"},
			{"client company without id", func(r *SubmissionRequest) { r.SubjectType = "CLIENT_COMPANY" }, "clientCompanyId", "required_for_subject"},
			{"both without ids", func(r *SubmissionRequest) { r.SubjectType = "BOTH"; r.ContractHouseID = "" }, "contractHouseId", "required_for_subject"},
			{"blank contract house id", func(r *SubmissionRequest) { r.ContractHouseID = "   " }, "contractHouseId", "required_for_subject"},
			{"blank client company id", func(r *SubmissionRequest) { r.SubjectType = "CLIENT_COMPANY"; r.ClientCompanyID = "\t " }, "clientCompanyId", "required_for_subject"},
			{"both with blank ids", func(r *SubmissionRequest) { r.SubjectType = "BOTH"; r.ContractHouseID = " "; r.ClientCompanyID = " " }, "contractHouseId", "required_for_subject"},
			{"no ratings", func(r *SubmissionRequest) { r.Ratings = nil }, "ratings", "required"},
			{"empty ratings", func(r *SubmissionRequest) { r.Ratings = map[string]float64{} }, "ratings", "min"},
			{"unknown category", func(r *SubmissionRequest) { r.Ratings["vibes"] = 3 }, "ratings[vibes]", "rating_category"},
			{"rating above scale", func(r *SubmissionRequest) { r.Ratings["safety"] = 6 }, "ratings[safety]", "max"},
			{"rating below scale", func(r *SubmissionRequest) { r.Ratings["safety"] = 0 }, "ratings[safety]", "min"},
			{"bad work mode", func(r *SubmissionRequest) { r.WorkMode = "MARS" }, "workMode", "oneof"},
			{"free text too long", func(r *SubmissionRequest) { r.FreeText = strings.Repeat("a", 2001) }, "freeText", "max"},
			{"blank tag", func(r *SubmissionRequest) { r.Tags = []string{""} }, "tags[0]", "required"},
			{"bad evidence type", func(r *SubmissionRequest) { r.Evidence[0].Type = "VIDEO" }, "evidence[0].type", "oneof"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req := validRequest()
				tt.mutate(&req)

				_, err := service.Submit(ctx, "user-1", req)
				require.ErrorIs(t, err, ErrInvalidRequest)
				assert.Equal(t, tt.rule, fieldRules(t, err)[tt.field])
			})
		}
	})

	t.Run("free text at the limit is accepted", func(t *testing.T) {
		repo := &mocks.MockFeedbackRepository{
			CreateSubmissionFunc: func(context.Context, models.FeedbackSubmission, models.IdentityLink, []models.EvidenceItem) error {
				return nil
			},
		}
		req := validRequest()
		req.FreeText = strings.Repeat("a", 2000)

		_, err := newTestService(repo, nil).Submit(ctx, "user-1", req)
		assert.NoError(t, err)
	})

	t.Run("missing submitter", func(t *testing.T) {
		_, err := newTestService(&mocks.MockFeedbackRepository{}, nil).Submit(ctx, " ", validRequest())
		require.ErrorIs(t, err, ErrInvalidRequest)
		assert.Equal(t, "required", fieldRules(t, err)["submitterUserId"])
	})

	t.Run("storage failure", func(t *testing.T) {
		repo := &mocks.MockFeedbackRepository{
			CreateSubmissionFunc: func(context.Context, models.FeedbackSubmission, models.IdentityLink, []models.EvidenceItem) error {
				return errors.New("database is locked")
			},
		}
		pub := &mocks.MockEventPublisher{}

		_, err := newTestService(repo, pub).Submit(ctx, "user-1", validRequest())
		assert.ErrorIs(t, err, ErrStorageFailure)
		assert.Empty(t, pub.Published())
	})

	t.Run("publish failure does not fail the submission", func(t *testing.T) {
		repo := &mocks.MockFeedbackRepository{
			CreateSubmissionFunc: func(context.Context, models.FeedbackSubmission, models.IdentityLink, []models.EvidenceItem) error {
				return nil
			},
		}
		pub := &mocks.MockEventPublisher{Err: errors.New("broker down")}

		id, err := newTestService(repo, pub).Submit(ctx, "user-1", validRequest())
		assert.NoError(t, err)
		assert.NotEmpty(t, id)
	})
}
