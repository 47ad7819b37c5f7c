package evaluation

import (
	"errors"
	"testing"
	"time"
)

func TestTransitionChecks(t *testing.T) {
	cases := []struct {
		name   string
		check  func(string) error
		status string
		wantOK bool
	}{
		{"save self from pending", canSaveSelf, StatusPending, true},
		{"save self from in_progress", canSaveSelf, StatusInProgress, true},
		{"save self from under_review", canSaveSelf, StatusUnderReview, false},
		{"submit from in_progress", canSubmitSelf, StatusInProgress, true},
		{"submit from pending", canSubmitSelf, StatusPending, false},
		{"review from under_review", canSaveReview, StatusUnderReview, true},
		{"review from in_progress", canSaveReview, StatusInProgress, false},
		{"complete from under_review", canComplete, StatusUnderReview, true},
		{"complete from pending", canComplete, StatusPending, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.check(tc.status)
			if tc.wantOK && err != nil {
				t.Fatalf("expected transition allowed, got %v", err)
			}
			if !tc.wantOK && err == nil {
				t.Fatal("expected transition rejected")
			}
		})
	}
}

func TestCompletedIsTerminal(t *testing.T) {
	for name, check := range map[string]func(string) error{
		"save self":   canSaveSelf,
		"submit self": canSubmitSelf,
		"save review": canSaveReview,
		"complete":    canComplete,
	} {
		if err := check(StatusCompleted); !errors.Is(err, ErrCompleted) {
			t.Fatalf("%s on completed evaluation: got %v, want ErrCompleted", name, err)
		}
	}
}

func TestMergeSelfOverwritesOnlyPatchedKeys(t *testing.T) {
	stored := SelfAssessment{
		CategoryResponses: map[string]map[string]QuestionResponse{
			"c1": {
				"q1": {SelfRating: 2, Comment: "old"},
				"q2": {SelfRating: 3, Comment: "keep"},
			},
		},
		FreeTextAnswers: map[string]string{"f1": "keep", "f2": "old"},
	}
	patch := SelfPatch{
		CategoryResponses: map[string]map[string]QuestionResponse{
			"c1": {"q1": {SelfRating: 5, Comment: "new"}},
		},
		FreeTextAnswers: map[string]string{"f2": "new"},
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	merged := mergeSelf(stored, patch, now)

	if merged.CategoryResponses["c1"]["q1"].SelfRating != 5 {
		t.Fatal("patched answer not applied")
	}
	if merged.CategoryResponses["c1"]["q2"].Comment != "keep" {
		t.Fatal("untouched answer lost")
	}
	if merged.FreeTextAnswers["f1"] != "keep" || merged.FreeTextAnswers["f2"] != "new" {
		t.Fatalf("free-text merge wrong: %+v", merged.FreeTextAnswers)
	}
	if merged.LastSavedAt == nil || !merged.LastSavedAt.Equal(now) {
		t.Fatal("lastSavedAt not stamped")
	}
}

func TestMergeSelfFromEmpty(t *testing.T) {
	patch := SelfPatch{
		CategoryResponses: map[string]map[string]QuestionResponse{
			"c1": {"q1": {SelfRating: 4}},
		},
	}
	merged := mergeSelf(SelfAssessment{}, patch, time.Now())
	if merged.CategoryResponses["c1"]["q1"].SelfRating != 4 {
		t.Fatal("merge into empty assessment failed")
	}
}

func TestMergeReview(t *testing.T) {
	stored := ManagerReview{
		CategoryResponses: map[string]map[string]ReviewResponse{
			"c1": {"q1": {ManagerRating: 2}},
		},
		Targets:         map[string]Target{"c1": {Target: "keep"}},
		OverallComments: "old",
	}
	comments := "updated"
	patch := ReviewPatch{
		CategoryResponses: map[string]map[string]ReviewResponse{
			"c1": {"q2": {ManagerRating: 5}},
		},
		Targets:         map[string]Target{"c2": {Target: "new"}},
		OverallComments: &comments,
	}

	now := time.Now().UTC()
	merged := mergeReview(stored, patch, now)

	if merged.CategoryResponses["c1"]["q1"].ManagerRating != 2 {
		t.Fatal("existing rating lost")
	}
	if merged.CategoryResponses["c1"]["q2"].ManagerRating != 5 {
		t.Fatal("patched rating not applied")
	}
	if merged.Targets["c1"].Target != "keep" || merged.Targets["c2"].Target != "new" {
		t.Fatalf("targets merge wrong: %+v", merged.Targets)
	}
	if merged.OverallComments != "updated" {
		t.Fatal("overall comments not overwritten")
	}
	if !merged.InProgress {
		t.Fatal("saving review progress must set inProgress")
	}
}

func TestMergeReviewLeavesCommentsWhenAbsent(t *testing.T) {
	stored := ManagerReview{OverallComments: "keep"}
	merged := mergeReview(stored, ReviewPatch{}, time.Now())
	if merged.OverallComments != "keep" {
		t.Fatal("absent overallComments must not clear stored value")
	}
}
