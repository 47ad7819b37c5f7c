package evaluation

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"appraise/internal/domain/assignment"
	"appraise/internal/domain/template"
)

type AssignmentSource interface {
	CanCreateEvaluation(ctx context.Context, tenantID, evaluatorID, evaluateeID string) (bool, error)
	ActiveBetween(ctx context.Context, tenantID, evaluatorID, evaluateeID string) (*assignment.Assignment, error)
}

type TemplateSource interface {
	Get(ctx context.Context, tenantID, templateID string) (*template.Template, error)
}

type Service struct {
	store       *Store
	assignments AssignmentSource
	templates   TemplateSource
	now         func() time.Time
}

func NewService(store *Store, assignments AssignmentSource, templates TemplateSource) *Service {
	return &Service{store: store, assignments: assignments, templates: templates, now: time.Now}
}

func (s *Service) Get(ctx context.Context, tenantID, evaluationID string) (*Evaluation, error) {
	return s.store.Get(ctx, tenantID, evaluationID)
}

// GetMapped returns the evaluation with its responses laid over the snapshot
// skeleton, the shape the self-assessment and review forms render.
func (s *Service) GetMapped(ctx context.Context, tenantID, evaluationID string) (*Evaluation, error) {
	e, err := s.store.Get(ctx, tenantID, evaluationID)
	if err != nil {
		return nil, err
	}
	e.Self = OverlaySelf(e.Template, e.Self)
	e.Review = OverlayReview(e.Template, e.Review)
	return e, nil
}

func (s *Service) List(ctx context.Context, tenantID string, f Filter) ([]Evaluation, error) {
	return s.store.List(ctx, tenantID, f)
}

// Create requires an active evaluation assignment linking the pair and an
// active template, then freezes the template into the new evaluation.
func (s *Service) Create(ctx context.Context, tenantID, templateID, evaluatorID, evaluateeID string, dueDate *time.Time) (*Evaluation, error) {
	ok, err := s.assignments.CanCreateEvaluation(ctx, tenantID, evaluatorID, evaluateeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoActiveAssignment
	}

	a, err := s.assignments.ActiveBetween(ctx, tenantID, evaluatorID, evaluateeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoActiveAssignment
		}
		return nil, err
	}

	tpl, err := s.templates.Get(ctx, tenantID, templateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTemplateInactive
		}
		return nil, err
	}
	if !tpl.IsActive {
		return nil, ErrTemplateInactive
	}

	id, err := s.store.Create(ctx, tenantID, templateID, *tpl, evaluatorID, evaluateeID, a.ID, dueDate)
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, tenantID, id)
}

// SaveSelfProgress merges the patch into the stored self-assessment and
// forces the evaluation into in_progress. expectedVersion is the version the
// caller read; a mismatch surfaces as ErrStaleVersion.
func (s *Service) SaveSelfProgress(ctx context.Context, tenantID, evaluationID string, patch SelfPatch, expectedVersion int64) (*Evaluation, error) {
	e, err := s.store.Get(ctx, tenantID, evaluationID)
	if err != nil {
		return nil, err
	}
	if err := canSaveSelf(e.Status); err != nil {
		return nil, err
	}

	merged := mergeSelf(e.Self, patch, s.now().UTC())
	if err := s.store.SaveSelf(ctx, tenantID, evaluationID, merged, StatusInProgress, expectedVersion); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, tenantID, evaluationID)
}

// SubmitSelf replaces the stored self-assessment wholesale and moves the
// evaluation to under_review.
func (s *Service) SubmitSelf(ctx context.Context, tenantID, evaluationID string, final SelfPatch, expectedVersion int64) (*Evaluation, error) {
	e, err := s.store.Get(ctx, tenantID, evaluationID)
	if err != nil {
		return nil, err
	}
	if err := canSubmitSelf(e.Status); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	replaced := SelfAssessment{
		CategoryResponses: final.CategoryResponses,
		FreeTextAnswers:   final.FreeTextAnswers,
		LastSavedAt:       e.Self.LastSavedAt,
		SubmittedAt:       &now,
	}
	if err := s.store.SaveSelf(ctx, tenantID, evaluationID, replaced, StatusUnderReview, expectedVersion); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, tenantID, evaluationID)
}

// SaveReviewProgress merges the patch into the stored manager review; the
// evaluation stays under_review with the review marked in progress.
func (s *Service) SaveReviewProgress(ctx context.Context, tenantID, evaluationID string, patch ReviewPatch, expectedVersion int64) (*Evaluation, error) {
	e, err := s.store.Get(ctx, tenantID, evaluationID)
	if err != nil {
		return nil, err
	}
	if err := canSaveReview(e.Status); err != nil {
		return nil, err
	}

	merged := mergeReview(e.Review, patch, s.now().UTC())
	if err := s.store.SaveReview(ctx, tenantID, evaluationID, merged, StatusUnderReview, expectedVersion); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, tenantID, evaluationID)
}

// CompleteReview merges the final patch, computes the overall rating from
// the manager ratings and closes the evaluation.
func (s *Service) CompleteReview(ctx context.Context, tenantID, evaluationID string, patch ReviewPatch, expectedVersion int64) (*Evaluation, error) {
	e, err := s.store.Get(ctx, tenantID, evaluationID)
	if err != nil {
		return nil, err
	}
	if err := canComplete(e.Status); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	merged := mergeReview(e.Review, patch, now)

	overall, err := OverallFromReview(e.Template.ScoringSystem, merged)
	if err != nil {
		return nil, err
	}
	merged.OverallRating = overall
	merged.InProgress = false
	merged.ReviewedAt = &now

	if err := s.store.SaveReview(ctx, tenantID, evaluationID, merged, StatusCompleted, expectedVersion); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, tenantID, evaluationID)
}
