package reports

import (
	"fmt"
	"io"
	"sort"

	"github.com/jung-kurt/gofpdf"

	"appraise/internal/domain/evaluation"
)

// RenderEvaluationPDF writes a completed evaluation as a PDF document.
func RenderEvaluationPDF(w io.Writer, e evaluation.Evaluation, evaluateeName, evaluatorName string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Performance Evaluation")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", evaluateeName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Evaluator: %s", evaluatorName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Template: %s", e.Template.Name))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Status: %s", e.Status))
	pdf.Ln(7)
	if e.Review.ReviewedAt != nil {
		pdf.Cell(0, 8, fmt.Sprintf("Reviewed: %s", e.Review.ReviewedAt.Format("2006-01-02")))
		pdf.Ln(7)
	}
	pdf.Cell(0, 8, fmt.Sprintf("Overall rating: %.1f", e.Review.OverallRating))
	pdf.Ln(10)

	for _, cat := range e.Template.Categories {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, cat.Name)
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		for _, q := range cat.Questions {
			self := e.Self.CategoryResponses[cat.ID][q.ID]
			review := e.Review.CategoryResponses[cat.ID][q.ID]
			pdf.MultiCell(0, 6, q.Text, "", "L", false)
			pdf.Cell(0, 6, fmt.Sprintf("  Self: %.1f  Manager: %.1f", self.SelfRating, review.ManagerRating))
			pdf.Ln(6)
			if review.ManagerComment != "" {
				pdf.MultiCell(0, 6, "  "+review.ManagerComment, "", "L", false)
			}
		}
		if target, ok := e.Review.Targets[cat.ID]; ok && target.Target != "" {
			pdf.MultiCell(0, 6, "  Target: "+target.Target, "", "L", false)
		}
		pdf.Ln(4)
	}

	if len(e.Self.FreeTextAnswers) > 0 {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, "Self-assessment answers")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		byQuestion := map[string]string{}
		for _, q := range e.Template.FreeTextQuestions {
			byQuestion[q.ID] = q.Text
		}
		ids := make([]string, 0, len(e.Self.FreeTextAnswers))
		for id := range e.Self.FreeTextAnswers {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			if text, ok := byQuestion[id]; ok {
				pdf.MultiCell(0, 6, text, "", "L", false)
			}
			pdf.MultiCell(0, 6, "  "+e.Self.FreeTextAnswers[id], "", "L", false)
		}
	}

	if e.Review.OverallComments != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, "Overall comments")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, e.Review.OverallComments, "", "L", false)
	}

	return pdf.Output(w)
}
