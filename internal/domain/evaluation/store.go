package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"appraise/internal/domain/template"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// selfDoc and reviewDoc are the JSONB halves of an evaluation row; scalar
// fields live in their own columns.
type selfDoc struct {
	CategoryResponses map[string]map[string]QuestionResponse `json:"categoryResponses"`
	FreeTextAnswers   map[string]string                      `json:"freeTextAnswers"`
}

type reviewDoc struct {
	CategoryResponses map[string]map[string]ReviewResponse `json:"categoryResponses"`
	Targets           map[string]Target                    `json:"targets"`
}

// Filter narrows List. Empty fields match everything. InvolvedUserID matches
// rows where the user is either evaluator or evaluatee. ManagerScopeID
// restricts results to rows the given manager may see: evaluations they are a
// party to plus those of their direct reports. It composes with the other
// fields, so caller-supplied filters cannot widen a manager's view.
type Filter struct {
	EvaluatorID    string
	EvaluateeID    string
	Status         string
	InvolvedUserID string
	ManagerScopeID string
}

const evaluationColumns = `
    id, template_id, evaluator_id, evaluatee_id, assignment_id, status, due_date,
    template_snapshot_json, self_assessment_json, self_saved_at, self_submitted_at,
    manager_review_json, overall_rating, COALESCE(overall_comments, ''), reviewed_at, review_saved_at, review_in_progress,
    version, created_at, updated_at`

func scanEvaluation(row interface{ Scan(...any) error }) (Evaluation, error) {
	var e Evaluation
	var snapshotJSON, selfJSON, reviewJSON []byte
	var overallRating *float64
	err := row.Scan(
		&e.ID, &e.TemplateID, &e.EvaluatorID, &e.EvaluateeID, &e.AssignmentID, &e.Status, &e.DueDate,
		&snapshotJSON, &selfJSON, &e.Self.LastSavedAt, &e.Self.SubmittedAt,
		&reviewJSON, &overallRating, &e.Review.OverallComments, &e.Review.ReviewedAt, &e.Review.LastSavedAt, &e.Review.InProgress,
		&e.Version, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return Evaluation{}, err
	}
	if err := json.Unmarshal(snapshotJSON, &e.Template); err != nil {
		return Evaluation{}, err
	}
	var self selfDoc
	if len(selfJSON) > 0 {
		if err := json.Unmarshal(selfJSON, &self); err != nil {
			return Evaluation{}, err
		}
	}
	e.Self.CategoryResponses = self.CategoryResponses
	e.Self.FreeTextAnswers = self.FreeTextAnswers
	var review reviewDoc
	if len(reviewJSON) > 0 {
		if err := json.Unmarshal(reviewJSON, &review); err != nil {
			return Evaluation{}, err
		}
	}
	e.Review.CategoryResponses = review.CategoryResponses
	e.Review.Targets = review.Targets
	if overallRating != nil {
		e.Review.OverallRating = *overallRating
	}
	return e, nil
}

func (s *Store) Get(ctx context.Context, tenantID, evaluationID string) (*Evaluation, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+evaluationColumns+`
    FROM evaluations
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, evaluationID)
	e, err := scanEvaluation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (s *Store) List(ctx context.Context, tenantID string, f Filter) ([]Evaluation, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+evaluationColumns+`
    FROM evaluations
    WHERE tenant_id = $1
      AND ($2 = '' OR evaluator_id::text = $2)
      AND ($3 = '' OR evaluatee_id::text = $3)
      AND ($4 = '' OR status = $4)
      AND ($5 = '' OR evaluator_id::text = $5 OR evaluatee_id::text = $5)
      AND ($6 = '' OR evaluator_id::text = $6 OR evaluatee_id::text = $6
           OR evaluatee_id IN (SELECT id FROM users WHERE tenant_id = $1 AND manager_id::text = $6))
    ORDER BY created_at DESC
  `, tenantID, f.EvaluatorID, f.EvaluateeID, f.Status, f.InvolvedUserID, f.ManagerScopeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Evaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Create(ctx context.Context, tenantID string, templateID string, snapshot template.Template, evaluatorID, evaluateeID, assignmentID string, dueDate *time.Time) (string, error) {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return "", err
	}
	emptySelf, err := json.Marshal(selfDoc{})
	if err != nil {
		return "", err
	}
	emptyReview, err := json.Marshal(reviewDoc{})
	if err != nil {
		return "", err
	}
	var id string
	err = s.DB.QueryRow(ctx, `
    INSERT INTO evaluations (tenant_id, template_id, template_snapshot_json, evaluator_id, evaluatee_id, assignment_id,
      status, due_date, self_assessment_json, manager_review_json, version)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,1)
    RETURNING id
  `, tenantID, templateID, snapshotJSON, evaluatorID, evaluateeID, assignmentID, StatusPending, dueDate, emptySelf, emptyReview).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// SaveSelf writes the self-assessment and status under an optimistic version
// predicate. A row that exists but no longer carries expectedVersion reports
// ErrStaleVersion; a missing row reports ErrNotFound.
func (s *Store) SaveSelf(ctx context.Context, tenantID, evaluationID string, self SelfAssessment, status string, expectedVersion int64) error {
	doc, err := json.Marshal(selfDoc{CategoryResponses: self.CategoryResponses, FreeTextAnswers: self.FreeTextAnswers})
	if err != nil {
		return err
	}
	cmd, err := s.DB.Exec(ctx, `
    UPDATE evaluations
    SET self_assessment_json = $1,
        self_saved_at = $2,
        self_submitted_at = $3,
        status = $4,
        version = version + 1,
        updated_at = now()
    WHERE tenant_id = $5 AND id = $6 AND version = $7
  `, doc, self.LastSavedAt, self.SubmittedAt, status, tenantID, evaluationID, expectedVersion)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return s.staleOrMissing(ctx, tenantID, evaluationID)
	}
	return nil
}

func (s *Store) SaveReview(ctx context.Context, tenantID, evaluationID string, review ManagerReview, status string, expectedVersion int64) error {
	doc, err := json.Marshal(reviewDoc{CategoryResponses: review.CategoryResponses, Targets: review.Targets})
	if err != nil {
		return err
	}
	var overallRating *float64
	if review.OverallRating > 0 {
		overallRating = &review.OverallRating
	}
	cmd, err := s.DB.Exec(ctx, `
    UPDATE evaluations
    SET manager_review_json = $1,
        overall_rating = $2,
        overall_comments = $3,
        reviewed_at = $4,
        review_saved_at = $5,
        review_in_progress = $6,
        status = $7,
        version = version + 1,
        updated_at = now()
    WHERE tenant_id = $8 AND id = $9 AND version = $10
  `, doc, overallRating, review.OverallComments, review.ReviewedAt, review.LastSavedAt, review.InProgress,
		status, tenantID, evaluationID, expectedVersion)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return s.staleOrMissing(ctx, tenantID, evaluationID)
	}
	return nil
}

func (s *Store) staleOrMissing(ctx context.Context, tenantID, evaluationID string) error {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM evaluations WHERE tenant_id = $1 AND id = $2
  `, tenantID, evaluationID).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrStaleVersion
}
