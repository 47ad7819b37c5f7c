package notifications

const (
	TypeAssignmentCreated       = "assignment_created"
	TypeEvaluationAssigned      = "evaluation_assigned"
	TypeSelfAssessmentSubmitted = "self_assessment_submitted"
	TypeReviewCompleted         = "review_completed"
)
