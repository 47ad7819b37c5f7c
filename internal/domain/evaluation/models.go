package evaluation

import (
	"time"

	"appraise/internal/domain/template"
)

type Evaluation struct {
	ID           string            `json:"id"`
	TemplateID   string            `json:"templateId"`
	EvaluatorID  string            `json:"evaluatorId"`
	EvaluateeID  string            `json:"evaluateeId"`
	AssignmentID string            `json:"assignmentId"`
	Status       string            `json:"status"`
	DueDate      *time.Time        `json:"dueDate,omitempty"`
	Template     template.Template `json:"template"`
	Self         SelfAssessment    `json:"selfAssessment"`
	Review       ManagerReview     `json:"managerReview"`
	Version      int64             `json:"version"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// QuestionResponse is one self-assessment answer, keyed by category id then
// question id inside SelfAssessment.
type QuestionResponse struct {
	SelfRating float64 `json:"selfRating"`
	Comment    string  `json:"comment"`
}

type SelfAssessment struct {
	CategoryResponses map[string]map[string]QuestionResponse `json:"categoryResponses"`
	FreeTextAnswers   map[string]string                      `json:"freeTextAnswers"`
	LastSavedAt       *time.Time                             `json:"lastSavedAt,omitempty"`
	SubmittedAt       *time.Time                             `json:"submittedAt,omitempty"`
}

type ReviewResponse struct {
	ManagerRating  float64 `json:"managerRating"`
	ManagerComment string  `json:"managerComment"`
}

// Target is a development target the evaluator sets per category.
type Target struct {
	Target        string `json:"target"`
	TargetComment string `json:"targetComment"`
}

type ManagerReview struct {
	CategoryResponses map[string]map[string]ReviewResponse `json:"categoryResponses"`
	Targets           map[string]Target                    `json:"targets"`
	OverallRating     float64                              `json:"overallRating"`
	OverallComments   string                               `json:"overallComments"`
	InProgress        bool                                 `json:"inProgress"`
	LastSavedAt       *time.Time                           `json:"lastSavedAt,omitempty"`
	ReviewedAt        *time.Time                           `json:"reviewedAt,omitempty"`
}

// SelfPatch carries a partial self-assessment save. Only the keys present are
// overwritten; absent keys leave stored answers untouched.
type SelfPatch struct {
	CategoryResponses map[string]map[string]QuestionResponse `json:"categoryResponses"`
	FreeTextAnswers   map[string]string                      `json:"freeTextAnswers"`
}

// ReviewPatch carries a partial manager-review save.
type ReviewPatch struct {
	CategoryResponses map[string]map[string]ReviewResponse `json:"categoryResponses"`
	Targets           map[string]Target                    `json:"targets"`
	OverallComments   *string                              `json:"overallComments"`
}
