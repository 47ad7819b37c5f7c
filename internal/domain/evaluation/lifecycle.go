package evaluation

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound           = errors.New("evaluation not found")
	ErrStaleVersion       = errors.New("evaluation was modified concurrently")
	ErrCompleted          = errors.New("evaluation is completed and read-only")
	ErrNoActiveAssignment = errors.New("no active assignment for this pair")
	ErrTemplateInactive   = errors.New("template is missing or inactive")
)

type ErrInvalidTransition struct {
	From   string
	Action string
}

func (e ErrInvalidTransition) Error() string {
	return fmt.Sprintf("cannot %s an evaluation in status %q", e.Action, e.From)
}

// checkWritable applies terminal immutability ahead of any transition rule.
func checkWritable(status string) error {
	if status == StatusCompleted {
		return ErrCompleted
	}
	return nil
}

func canSaveSelf(status string) error {
	if err := checkWritable(status); err != nil {
		return err
	}
	if status != StatusPending && status != StatusInProgress {
		return ErrInvalidTransition{From: status, Action: "save progress on"}
	}
	return nil
}

func canSubmitSelf(status string) error {
	if err := checkWritable(status); err != nil {
		return err
	}
	if status != StatusInProgress {
		return ErrInvalidTransition{From: status, Action: "submit"}
	}
	return nil
}

func canSaveReview(status string) error {
	if err := checkWritable(status); err != nil {
		return err
	}
	if status != StatusUnderReview {
		return ErrInvalidTransition{From: status, Action: "review"}
	}
	return nil
}

func canComplete(status string) error {
	if err := checkWritable(status); err != nil {
		return err
	}
	if status != StatusUnderReview {
		return ErrInvalidTransition{From: status, Action: "complete"}
	}
	return nil
}

// mergeSelf overwrites stored answers with the keys present in the patch and
// leaves everything else alone, then stamps lastSavedAt.
func mergeSelf(stored SelfAssessment, patch SelfPatch, now time.Time) SelfAssessment {
	if stored.CategoryResponses == nil {
		stored.CategoryResponses = map[string]map[string]QuestionResponse{}
	}
	if stored.FreeTextAnswers == nil {
		stored.FreeTextAnswers = map[string]string{}
	}
	for catID, questions := range patch.CategoryResponses {
		if stored.CategoryResponses[catID] == nil {
			stored.CategoryResponses[catID] = map[string]QuestionResponse{}
		}
		for qID, resp := range questions {
			stored.CategoryResponses[catID][qID] = resp
		}
	}
	for qID, answer := range patch.FreeTextAnswers {
		stored.FreeTextAnswers[qID] = answer
	}
	stored.LastSavedAt = &now
	return stored
}

func mergeReview(stored ManagerReview, patch ReviewPatch, now time.Time) ManagerReview {
	if stored.CategoryResponses == nil {
		stored.CategoryResponses = map[string]map[string]ReviewResponse{}
	}
	if stored.Targets == nil {
		stored.Targets = map[string]Target{}
	}
	for catID, questions := range patch.CategoryResponses {
		if stored.CategoryResponses[catID] == nil {
			stored.CategoryResponses[catID] = map[string]ReviewResponse{}
		}
		for qID, resp := range questions {
			stored.CategoryResponses[catID][qID] = resp
		}
	}
	for catID, tgt := range patch.Targets {
		stored.Targets[catID] = tgt
	}
	if patch.OverallComments != nil {
		stored.OverallComments = *patch.OverallComments
	}
	stored.InProgress = true
	stored.LastSavedAt = &now
	return stored
}
