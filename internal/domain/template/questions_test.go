package template

import "testing"

func validTemplate() Template {
	return Template{
		Name:          "Annual Review",
		ScoringSystem: ScoringSystem1To5,
		Categories: []Category{
			{
				ID:     "c1",
				Name:   "Communication",
				Weight: 40,
				Questions: []Question{
					{ID: "q1", Text: "Communicates clearly", Type: QuestionTypeRating, Weight: 50},
					{ID: "q2", Text: "Preferred channel", Type: QuestionTypeMultipleChoice, Options: []string{"email", "chat"}},
				},
			},
		},
		FreeTextQuestions: []FreeTextQuestion{
			{ID: "f1", Text: "What went well this year?"},
		},
	}
}

func TestValidateAccepts(t *testing.T) {
	if err := Validate(validTemplate()); err != nil {
		t.Fatalf("expected valid template, got %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Template)
	}{
		{"empty name", func(tpl *Template) { tpl.Name = "  " }},
		{"unknown scoring system", func(tpl *Template) { tpl.ScoringSystem = "0-7" }},
		{"no categories", func(tpl *Template) { tpl.Categories = nil }},
		{"empty category name", func(tpl *Template) { tpl.Categories[0].Name = "" }},
		{"category without questions", func(tpl *Template) { tpl.Categories[0].Questions = nil }},
		{"empty question text", func(tpl *Template) { tpl.Categories[0].Questions[0].Text = "" }},
		{"unknown question type", func(tpl *Template) { tpl.Categories[0].Questions[0].Type = "slider" }},
		{"multiple choice without options", func(tpl *Template) { tpl.Categories[0].Questions[1].Options = nil }},
		{"empty free-text question", func(tpl *Template) { tpl.FreeTextQuestions[0].Text = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tpl := validTemplate()
			tc.mutate(&tpl)
			if err := Validate(tpl); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestScoringMax(t *testing.T) {
	cases := map[string]float64{
		ScoringSystem1To5:       5,
		ScoringSystem1To10:      10,
		ScoringSystemPercentage: 100,
		ScoringSystemLetter:     5,
	}
	for system, want := range cases {
		got, err := ScoringMax(system)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", system, err)
		}
		if got != want {
			t.Fatalf("%s: got %v, want %v", system, got, want)
		}
	}

	if _, err := ScoringMax("letters"); err == nil {
		t.Fatal("expected error for unknown system")
	}
}

func TestWeightSumHasNoConstraint(t *testing.T) {
	tpl := validTemplate()
	tpl.Categories = append(tpl.Categories, Category{
		ID: "c2", Name: "Delivery", Weight: 80,
		Questions: []Question{{ID: "q3", Text: "Ships on time", Type: QuestionTypeRating}},
	})
	if err := Validate(tpl); err != nil {
		t.Fatalf("weights summing past 100 must still validate, got %v", err)
	}
	if got := tpl.WeightSum(); got != 120 {
		t.Fatalf("weight sum = %v, want 120", got)
	}
}
