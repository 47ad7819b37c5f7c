package reports

import (
	"testing"

	"appraise/internal/domain/tenant"
)

func TestBuildSummary(t *testing.T) {
	byStatus := map[string]int{
		"pending":      2,
		"under_review": 1,
		"completed":    3,
	}
	ratings := []float64{3, 3.5, 4.5}
	byDepartment := map[string]float64{"Engineering": 3.5}

	summary := buildSummary(byStatus, ratings, byDepartment)

	if summary.EvaluationsTotal != 6 {
		t.Fatalf("total = %d, want 6", summary.EvaluationsTotal)
	}
	if summary.CompletionRate != 0.5 {
		t.Fatalf("completion rate = %v, want 0.5", summary.CompletionRate)
	}
	if summary.RatingDistribution["3"] != 1 || summary.RatingDistribution["4"] != 1 || summary.RatingDistribution["5"] != 1 {
		t.Fatalf("distribution wrong: %+v", summary.RatingDistribution)
	}
	if summary.AverageByDepartment["Engineering"] != 3.5 {
		t.Fatalf("department average lost: %+v", summary.AverageByDepartment)
	}
}

func TestBuildSummaryEmpty(t *testing.T) {
	summary := buildSummary(map[string]int{}, nil, map[string]float64{})
	if summary.EvaluationsTotal != 0 || summary.CompletionRate != 0 {
		t.Fatalf("empty summary wrong: %+v", summary)
	}
}

func TestProposeBonus(t *testing.T) {
	settings := tenant.Settings{
		Currency:  "USD",
		BonusBase: 1000,
		BonusMultipliers: map[string]float64{
			"3": 0.5,
			"4": 1,
			"5": 1.5,
		},
	}

	proposal, err := ProposeBonus(settings, "e1", "u1", "1-5", 4.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proposal.RatingBucket != "5" {
		t.Fatalf("bucket = %s, want 5", proposal.RatingBucket)
	}
	if proposal.Amount != 1500 {
		t.Fatalf("amount = %v, want 1500", proposal.Amount)
	}

	low, err := ProposeBonus(settings, "e2", "u2", "1-5", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if low.Amount != 0 {
		t.Fatalf("unmapped bucket must yield zero, got %v", low.Amount)
	}
}

func TestProposeBonusNormalizesWiderScales(t *testing.T) {
	settings := tenant.Settings{
		Currency:  "USD",
		BonusBase: 1000,
		BonusMultipliers: map[string]float64{
			"4": 1,
			"5": 1.5,
		},
	}

	tenPoint, err := ProposeBonus(settings, "e1", "u1", "1-10", 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tenPoint.RatingBucket != "4" || tenPoint.Amount != 1000 {
		t.Fatalf("ten point proposal wrong: %+v", tenPoint)
	}

	percent, err := ProposeBonus(settings, "e2", "u2", "percentage", 95)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if percent.RatingBucket != "5" || percent.Amount != 1500 {
		t.Fatalf("percentage proposal wrong: %+v", percent)
	}

	if _, err := ProposeBonus(settings, "e3", "u3", "stanine", 4); err == nil {
		t.Fatal("expected an error for an unknown scoring system")
	}
}
