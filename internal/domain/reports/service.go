package reports

import (
	"context"
	"fmt"

	"appraise/internal/domain/template"
	"appraise/internal/domain/tenant"
)

type Service struct {
	Store *Store
}

func NewService(store *Store) *Service {
	return &Service{Store: store}
}

func (s *Service) TenantSummary(ctx context.Context, tenantID string) (Summary, error) {
	byStatus, err := s.Store.EvaluationCountsByStatus(ctx, tenantID)
	if err != nil {
		return Summary{}, err
	}
	ratings, err := s.Store.CompletedRatings(ctx, tenantID)
	if err != nil {
		return Summary{}, err
	}
	byDepartment, err := s.Store.AverageRatingByDepartment(ctx, tenantID)
	if err != nil {
		return Summary{}, err
	}
	return buildSummary(byStatus, ratings, byDepartment), nil
}

func buildSummary(byStatus map[string]int, ratings []float64, byDepartment map[string]float64) Summary {
	summary := Summary{
		EvaluationsByStatus: byStatus,
		RatingDistribution:  map[string]int{},
		AverageByDepartment: byDepartment,
	}
	for _, count := range byStatus {
		summary.EvaluationsTotal += count
	}
	for _, rating := range ratings {
		summary.RatingDistribution[ratingBucket(rating)]++
	}
	if summary.EvaluationsTotal > 0 {
		summary.CompletionRate = float64(byStatus["completed"]) / float64(summary.EvaluationsTotal)
	}
	return summary
}

func ratingBucket(rating float64) string {
	bucket := int(rating + 0.5)
	if bucket < 1 {
		bucket = 1
	}
	return fmt.Sprintf("%d", bucket)
}

// ProposeBonus turns a completed evaluation's overall rating into a bonus
// amount using the tenant's base amount and per-bucket multipliers. The
// multiplier map is keyed "1".."5", so ratings from wider scales (1-10,
// percentage) are normalized onto five points before the lookup.
func ProposeBonus(settings tenant.Settings, evaluationID, evaluateeID, scoringSystem string, overallRating float64) (BonusProposal, error) {
	maxScale, err := template.ScoringMax(scoringSystem)
	if err != nil {
		return BonusProposal{}, err
	}
	bucket := ratingBucket(overallRating * 5 / maxScale)
	multiplier := settings.BonusMultipliers[bucket]
	return BonusProposal{
		EvaluationID:  evaluationID,
		EvaluateeID:   evaluateeID,
		OverallRating: overallRating,
		RatingBucket:  bucket,
		Multiplier:    multiplier,
		Amount:        settings.BonusBase * multiplier,
		Currency:      settings.Currency,
	}, nil
}
