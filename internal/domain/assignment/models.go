package assignment

import "time"

const (
	TypeEvaluation = "evaluation"
	TypeBonus      = "bonus"
)

type Assignment struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	EvaluatorID string    `json:"evaluatorId"`
	EvaluateeID string    `json:"evaluateeId"`
	AssignedBy  string    `json:"assignedBy"`
	AssignedAt  time.Time `json:"assignedAt"`
	Active      bool      `json:"active"`
}

func ValidType(assignmentType string) bool {
	return assignmentType == TypeEvaluation || assignmentType == TypeBonus
}
