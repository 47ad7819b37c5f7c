package template

import "time"

const (
	ScoringSystem1To5       = "1-5"
	ScoringSystem1To10      = "1-10"
	ScoringSystemPercentage = "percentage"
	ScoringSystemLetter     = "letter"
)

const (
	QuestionTypeRating         = "rating"
	QuestionTypeDualRating     = "dualRating"
	QuestionTypeText           = "text"
	QuestionTypeMultipleChoice = "multipleChoice"
	QuestionTypeYesNo          = "yesNo"
)

type Template struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Description       string             `json:"description"`
	ScoringSystem     string             `json:"scoringSystem"`
	Categories        []Category         `json:"categories"`
	FreeTextQuestions []FreeTextQuestion `json:"freeTextQuestions"`
	IsActive          bool               `json:"isActive"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

type Category struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Weight    float64    `json:"weight"`
	Questions []Question `json:"questions"`
}

type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Type    string   `json:"type"`
	Weight  float64  `json:"weight"`
	Options []string `json:"options,omitempty"`
}

type FreeTextQuestion struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// WeightSum is surfaced in API responses; weights carry no sum-to-100
// constraint and are not consulted when scoring.
func (t Template) WeightSum() float64 {
	var sum float64
	for _, c := range t.Categories {
		sum += c.Weight
	}
	return sum
}
