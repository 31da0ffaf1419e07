package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/godilite/perception-server/internal/repository/models"
)

var (
	ErrNotFound          = errors.New("feedback submission not found")
	ErrAlreadyModerated  = errors.New("feedback submission already moderated")
	ErrUnsupportedTarget = errors.New("unsupported subject type")
)

// timeLayout is fixed width so stored timestamps sort lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const submissionColumns = `
	id, subject_type, COALESCE(contract_house_id, ''), COALESCE(client_company_id, ''),
	country, COALESCE(role_category, ''), COALESCE(work_mode, ''), COALESCE(time_window, ''),
	ratings_json, COALESCE(free_text, ''), tags_json, verification_level,
	COALESCE(verification_method, ''), moderation_status, verified_at, COALESCE(verified_by, ''),
	created_at`

type FeedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// CreateSubmission writes the feedback body, its identity link and evidence in one transaction.
func (r *FeedbackRepository) CreateSubmission(ctx context.Context, sub models.FeedbackSubmission, link models.IdentityLink, evidence []models.EvidenceItem) (err error) {
	ratingsJSON, err := json.Marshal(sub.Ratings)
	if err != nil {
		return fmt.Errorf("encode ratings: %w", err)
	}
	tags := sub.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin CreateSubmission: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertSubmission = `
		INSERT INTO feedback_submissions (
			id, subject_type, contract_house_id, client_company_id, country, role_category,
			work_mode, time_window, ratings_json, free_text, tags_json, verification_level,
			moderation_status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if _, err = tx.ExecContext(ctx, insertSubmission,
		sub.ID, string(sub.SubjectType), nullable(sub.ContractHouseID), nullable(sub.ClientCompanyID),
		sub.Country, nullable(sub.RoleCategory), nullable(string(sub.WorkMode)), nullable(sub.TimeWindow),
		string(ratingsJSON), nullable(sub.FreeText), string(tagsJSON), string(sub.VerificationLevel),
		string(sub.ModerationStatus), sub.CreatedAt.UTC().Format(timeLayout),
	); err != nil {
		return fmt.Errorf("insert feedback submission: %w", err)
	}

	const insertLink = `
		INSERT INTO review_identity_links (feedback_id, submitter_user_id, created_at)
		VALUES (?, ?, ?)`

	if _, err = tx.ExecContext(ctx, insertLink,
		link.FeedbackID, link.SubmitterUserID, link.CreatedAt.UTC().Format(timeLayout),
	); err != nil {
		return fmt.Errorf("insert identity link: %w", err)
	}

	const insertEvidence = `
		INSERT INTO evidence_items (id, feedback_id, type, file_ref, access_policy)
		VALUES (?, ?, ?, ?, ?)`

	for _, e := range evidence {
		if _, err = tx.ExecContext(ctx, insertEvidence,
			e.ID, e.FeedbackID, string(e.Type), e.FileRef, nullable(e.AccessPolicy),
		); err != nil {
			return fmt.Errorf("insert evidence item: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit CreateSubmission: %w", err)
	}
	return nil
}

// ListEligible returns the approved and verified submissions naming the subject, oldest first.
// Identity links are never joined here.
func (r *FeedbackRepository) ListEligible(ctx context.Context, subjectType models.SubjectType, subjectID string) ([]models.FeedbackSubmission, error) {
	column, err := subjectColumn(subjectType)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + submissionColumns + `
		FROM feedback_submissions
		WHERE ` + column + ` = ? AND moderation_status = ? AND verification_level = ?
		ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, subjectID, string(models.StatusApproved), string(models.Verified))
	if err != nil {
		return nil, fmt.Errorf("query ListEligible: %w", err)
	}
	defer rows.Close()

	var results []models.FeedbackSubmission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ListEligible row: %w", err)
		}
		results = append(results, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ListEligible: %w", err)
	}
	return results, nil
}

// ModerateSubmission applies a moderation decision to a pending submission and returns the
// updated row. Submissions that were already moderated are left untouched.
func (r *FeedbackRepository) ModerateSubmission(ctx context.Context, id string, update models.ModerationUpdate) (sub models.FeedbackSubmission, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.FeedbackSubmission{}, fmt.Errorf("begin ModerateSubmission: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const updateQuery = `
		UPDATE feedback_submissions
		SET verification_level = ?, verification_method = ?, moderation_status = ?,
			verified_at = ?, verified_by = ?
		WHERE id = ? AND moderation_status = ?`

	res, err := tx.ExecContext(ctx, updateQuery,
		string(models.Verified), string(update.Method), string(update.Status),
		update.VerifiedAt.UTC().Format(timeLayout), update.VerifiedBy,
		id, string(models.StatusPending),
	)
	if err != nil {
		return models.FeedbackSubmission{}, fmt.Errorf("update ModerateSubmission: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return models.FeedbackSubmission{}, fmt.Errorf("rows affected ModerateSubmission: %w", err)
	}

	if affected == 0 {
		var status string
		err = tx.QueryRowContext(ctx, `SELECT moderation_status FROM feedback_submissions WHERE id = ?`, id).Scan(&status)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			err = ErrNotFound
		case err == nil:
			err = ErrAlreadyModerated
		default:
			err = fmt.Errorf("query moderation status: %w", err)
		}
		return models.FeedbackSubmission{}, err
	}

	sub, err = scanSubmission(tx.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM feedback_submissions WHERE id = ?`, id))
	if err != nil {
		return models.FeedbackSubmission{}, fmt.Errorf("reload moderated submission: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return models.FeedbackSubmission{}, fmt.Errorf("commit ModerateSubmission: %w", err)
	}
	return sub, nil
}

// CountPending returns the number of submissions waiting for moderation.
func (r *FeedbackRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM feedback_submissions WHERE moderation_status = ?`,
		string(models.StatusPending),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("query CountPending: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (models.FeedbackSubmission, error) {
	var (
		sub                                          models.FeedbackSubmission
		subjectType, workMode, level, method, status string
		ratingsJSON, tagsJSON, createdAt             string
		verifiedAt                                   sql.NullString
	)

	if err := row.Scan(
		&sub.ID, &subjectType, &sub.ContractHouseID, &sub.ClientCompanyID,
		&sub.Country, &sub.RoleCategory, &workMode, &sub.TimeWindow,
		&ratingsJSON, &sub.FreeText, &tagsJSON, &level,
		&method, &status, &verifiedAt, &sub.VerifiedBy,
		&createdAt,
	); err != nil {
		return models.FeedbackSubmission{}, err
	}

	sub.SubjectType = models.SubjectType(subjectType)
	sub.WorkMode = models.WorkMode(workMode)
	sub.VerificationLevel = models.VerificationLevel(level)
	sub.VerificationMethod = models.VerificationMethod(method)
	sub.ModerationStatus = models.ModerationStatus(status)

	if err := json.Unmarshal([]byte(ratingsJSON), &sub.Ratings); err != nil {
		return models.FeedbackSubmission{}, fmt.Errorf("decode ratings: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &sub.Tags); err != nil {
		return models.FeedbackSubmission{}, fmt.Errorf("decode tags: %w", err)
	}

	created, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return models.FeedbackSubmission{}, fmt.Errorf("parse created_at: %w", err)
	}
	sub.CreatedAt = created

	if verifiedAt.Valid && verifiedAt.String != "" {
		v, err := time.Parse(timeLayout, verifiedAt.String)
		if err != nil {
			return models.FeedbackSubmission{}, fmt.Errorf("parse verified_at: %w", err)
		}
		sub.VerifiedAt = &v
	}

	return sub, nil
}

func subjectColumn(subjectType models.SubjectType) (string, error) {
	switch subjectType {
	case models.SubjectContractHouse:
		return "contract_house_id", nil
	case models.SubjectClientCompany:
		return "client_company_id", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedTarget, subjectType)
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
