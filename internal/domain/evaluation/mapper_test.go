package evaluation

import (
	"reflect"
	"testing"

	"appraise/internal/domain/template"
)

func snapshotTemplate() template.Template {
	return template.Template{
		ID:            "tpl1",
		Name:          "Annual Review",
		ScoringSystem: template.ScoringSystem1To5,
		Categories: []template.Category{
			{
				ID:   "c1",
				Name: "Communication",
				Questions: []template.Question{
					{ID: "q1", Text: "Communicates clearly", Type: template.QuestionTypeRating},
					{ID: "q2", Text: "Listens actively", Type: template.QuestionTypeRating},
				},
			},
		},
		FreeTextQuestions: []template.FreeTextQuestion{
			{ID: "f1", Text: "What went well?"},
		},
	}
}

func TestSelfSkeletonDefaults(t *testing.T) {
	skeleton := SelfSkeleton(snapshotTemplate())

	resp, ok := skeleton.CategoryResponses["c1"]["q1"]
	if !ok {
		t.Fatal("missing skeleton entry for q1")
	}
	if resp.SelfRating != 1 || resp.Comment != "" {
		t.Fatalf("unexpected default: %+v", resp)
	}
	if answer, ok := skeleton.FreeTextAnswers["f1"]; !ok || answer != "" {
		t.Fatalf("free-text default missing or non-empty: %q", answer)
	}
}

func TestOverlaySelfIdempotent(t *testing.T) {
	tpl := snapshotTemplate()
	persisted := SelfAssessment{
		CategoryResponses: map[string]map[string]QuestionResponse{
			"c1": {"q1": {SelfRating: 4, Comment: "solid"}},
		},
		FreeTextAnswers: map[string]string{"f1": "shipped the migration"},
	}

	once := OverlaySelf(tpl, persisted)
	twice := OverlaySelf(tpl, once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("overlay is not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}

	if once.CategoryResponses["c1"]["q1"].SelfRating != 4 {
		t.Fatal("persisted answer lost")
	}
	if once.CategoryResponses["c1"]["q2"].SelfRating != 1 {
		t.Fatal("unanswered question must keep its default")
	}
}

func TestOverlaySelfDropsOrphans(t *testing.T) {
	tpl := snapshotTemplate()
	persisted := SelfAssessment{
		CategoryResponses: map[string]map[string]QuestionResponse{
			"c1":      {"q-removed": {SelfRating: 5}},
			"c-stale": {"q9": {SelfRating: 5}},
		},
		FreeTextAnswers: map[string]string{"f-removed": "orphan"},
	}

	out := OverlaySelf(tpl, persisted)
	if _, ok := out.CategoryResponses["c-stale"]; ok {
		t.Fatal("removed category must be dropped")
	}
	if _, ok := out.CategoryResponses["c1"]["q-removed"]; ok {
		t.Fatal("removed question must be dropped")
	}
	if _, ok := out.FreeTextAnswers["f-removed"]; ok {
		t.Fatal("removed free-text answer must be dropped")
	}
}

func TestOverlayReview(t *testing.T) {
	tpl := snapshotTemplate()
	persisted := ManagerReview{
		CategoryResponses: map[string]map[string]ReviewResponse{
			"c1": {"q2": {ManagerRating: 5, ManagerComment: "excellent"}},
		},
		Targets:         map[string]Target{"c1": {Target: "lead a project"}},
		OverallComments: "strong year",
		InProgress:      true,
	}

	out := OverlayReview(tpl, persisted)
	if out.CategoryResponses["c1"]["q2"].ManagerRating != 5 {
		t.Fatal("persisted rating lost")
	}
	if out.CategoryResponses["c1"]["q1"].ManagerRating != 1 {
		t.Fatal("default rating missing")
	}
	if out.Targets["c1"].Target != "lead a project" {
		t.Fatal("target lost")
	}
	if out.OverallComments != "strong year" || !out.InProgress {
		t.Fatal("scalar fields lost")
	}

	again := OverlayReview(tpl, out)
	if !reflect.DeepEqual(out, again) {
		t.Fatal("review overlay is not idempotent")
	}
}
