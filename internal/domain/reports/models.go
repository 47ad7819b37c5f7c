package reports

type Summary struct {
	EvaluationsByStatus map[string]int     `json:"evaluationsByStatus"`
	EvaluationsTotal    int                `json:"evaluationsTotal"`
	CompletionRate      float64            `json:"completionRate"`
	RatingDistribution  map[string]int     `json:"ratingDistribution"`
	AverageByDepartment map[string]float64 `json:"averageByDepartment"`
}

type BonusProposal struct {
	EvaluationID  string  `json:"evaluationId"`
	EvaluateeID   string  `json:"evaluateeId"`
	OverallRating float64 `json:"overallRating"`
	RatingBucket  string  `json:"ratingBucket"`
	Multiplier    float64 `json:"multiplier"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
}
