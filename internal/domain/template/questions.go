package template

import (
	"fmt"
	"strings"
)

// ScoringMax returns the numeric ceiling of a scoring system. The letter
// system maps onto a five point scale internally.
func ScoringMax(system string) (float64, error) {
	switch system {
	case ScoringSystem1To5:
		return 5, nil
	case ScoringSystem1To10:
		return 10, nil
	case ScoringSystemPercentage:
		return 100, nil
	case ScoringSystemLetter:
		return 5, nil
	default:
		return 0, fmt.Errorf("unknown scoring system %q", system)
	}
}

func validQuestionType(questionType string) bool {
	switch questionType {
	case QuestionTypeRating, QuestionTypeDualRating, QuestionTypeText, QuestionTypeMultipleChoice, QuestionTypeYesNo:
		return true
	}
	return false
}

// Validate checks a template at the authoring boundary. All findings map to
// validation errors at the transport layer.
func Validate(t Template) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("template name is required")
	}
	if _, err := ScoringMax(t.ScoringSystem); err != nil {
		return err
	}
	if len(t.Categories) == 0 {
		return fmt.Errorf("at least one category is required")
	}
	for i, cat := range t.Categories {
		if strings.TrimSpace(cat.Name) == "" {
			return fmt.Errorf("category %d: name is required", i+1)
		}
		if len(cat.Questions) == 0 {
			return fmt.Errorf("category %q: at least one question is required", cat.Name)
		}
		for j, q := range cat.Questions {
			if strings.TrimSpace(q.Text) == "" {
				return fmt.Errorf("category %q question %d: text is required", cat.Name, j+1)
			}
			if !validQuestionType(q.Type) {
				return fmt.Errorf("category %q question %d: unknown type %q", cat.Name, j+1, q.Type)
			}
			if q.Type == QuestionTypeMultipleChoice && len(q.Options) == 0 {
				return fmt.Errorf("category %q question %d: multipleChoice requires options", cat.Name, j+1)
			}
		}
	}
	for i, q := range t.FreeTextQuestions {
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("free-text question %d: text is required", i+1)
		}
	}
	return nil
}
