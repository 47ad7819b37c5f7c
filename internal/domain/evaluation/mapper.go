package evaluation

import "appraise/internal/domain/template"

// SelfSkeleton builds the zero-valued self-assessment form for a template
// snapshot: every question starts at selfRating 1 with an empty comment,
// every free-text question with an empty answer.
func SelfSkeleton(tpl template.Template) SelfAssessment {
	out := SelfAssessment{
		CategoryResponses: map[string]map[string]QuestionResponse{},
		FreeTextAnswers:   map[string]string{},
	}
	for _, cat := range tpl.Categories {
		questions := map[string]QuestionResponse{}
		for _, q := range cat.Questions {
			questions[q.ID] = QuestionResponse{SelfRating: 1}
		}
		out.CategoryResponses[cat.ID] = questions
	}
	for _, q := range tpl.FreeTextQuestions {
		out.FreeTextAnswers[q.ID] = ""
	}
	return out
}

// OverlaySelf lays persisted answers over the skeleton, matching by category
// id and question id. Answers for questions the snapshot no longer carries
// are dropped; questions without a persisted answer keep their defaults.
// Overlaying the result again reproduces it unchanged.
func OverlaySelf(tpl template.Template, persisted SelfAssessment) SelfAssessment {
	out := SelfSkeleton(tpl)
	for catID, questions := range persisted.CategoryResponses {
		target, ok := out.CategoryResponses[catID]
		if !ok {
			continue
		}
		for qID, resp := range questions {
			if _, ok := target[qID]; ok {
				target[qID] = resp
			}
		}
	}
	for qID, answer := range persisted.FreeTextAnswers {
		if _, ok := out.FreeTextAnswers[qID]; ok {
			out.FreeTextAnswers[qID] = answer
		}
	}
	out.LastSavedAt = persisted.LastSavedAt
	out.SubmittedAt = persisted.SubmittedAt
	return out
}

// ReviewSkeleton mirrors SelfSkeleton for the manager-review form, with one
// empty target slot per category.
func ReviewSkeleton(tpl template.Template) ManagerReview {
	out := ManagerReview{
		CategoryResponses: map[string]map[string]ReviewResponse{},
		Targets:           map[string]Target{},
	}
	for _, cat := range tpl.Categories {
		questions := map[string]ReviewResponse{}
		for _, q := range cat.Questions {
			questions[q.ID] = ReviewResponse{ManagerRating: 1}
		}
		out.CategoryResponses[cat.ID] = questions
		out.Targets[cat.ID] = Target{}
	}
	return out
}

func OverlayReview(tpl template.Template, persisted ManagerReview) ManagerReview {
	out := ReviewSkeleton(tpl)
	for catID, questions := range persisted.CategoryResponses {
		target, ok := out.CategoryResponses[catID]
		if !ok {
			continue
		}
		for qID, resp := range questions {
			if _, ok := target[qID]; ok {
				target[qID] = resp
			}
		}
	}
	for catID, tgt := range persisted.Targets {
		if _, ok := out.Targets[catID]; ok {
			out.Targets[catID] = tgt
		}
	}
	out.OverallRating = persisted.OverallRating
	out.OverallComments = persisted.OverallComments
	out.InProgress = persisted.InProgress
	out.LastSavedAt = persisted.LastSavedAt
	out.ReviewedAt = persisted.ReviewedAt
	return out
}
