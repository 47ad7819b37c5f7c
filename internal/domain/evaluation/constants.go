package evaluation

const (
	StatusDraft       = "draft"
	StatusPending     = "pending"
	StatusInProgress  = "in_progress"
	StatusUnderReview = "under_review"
	StatusCompleted   = "completed"
)
