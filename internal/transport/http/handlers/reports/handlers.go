package reportshandler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"appraise/internal/domain/auth"
	"appraise/internal/domain/directory"
	"appraise/internal/domain/evaluation"
	"appraise/internal/domain/reports"
	"appraise/internal/domain/tenant"
	"appraise/internal/transport/http/api"
	"appraise/internal/transport/http/middleware"
)

type Handler struct {
	Service     *reports.Service
	Evaluations *evaluation.Service
	Directory   *directory.Service
	Tenant      *tenant.Service
	Perms       middleware.PermissionStore
}

func NewHandler(service *reports.Service, evaluations *evaluation.Service, dir *directory.Service, tenantSvc *tenant.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Evaluations: evaluations, Directory: dir, Tenant: tenantSvc, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/summary", h.handleSummary)
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/evaluations/{evaluationID}/bonus", h.handleBonusProposal)
		r.With(middleware.RequirePermission(auth.PermEvaluationsRead, h.Perms)).Get("/evaluations/{evaluationID}/pdf", h.handleEvaluationPDF)
	})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	summary, err := h.Service.TenantSummary(r.Context(), user.TenantID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build summary", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleBonusProposal(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	e, err := h.Evaluations.Get(r.Context(), user.TenantID, chi.URLParam(r, "evaluationID"))
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "evaluation not found", middleware.GetRequestID(r.Context()))
		return
	}
	if e.Status != evaluation.StatusCompleted {
		api.Fail(w, http.StatusBadRequest, "failed_precondition", "bonus proposals require a completed evaluation", middleware.GetRequestID(r.Context()))
		return
	}

	settings, err := h.Tenant.Settings(r.Context(), user.TenantID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to load tenant settings", middleware.GetRequestID(r.Context()))
		return
	}

	proposal, err := reports.ProposeBonus(settings, e.ID, e.EvaluateeID, e.Template.ScoringSystem, e.Review.OverallRating)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build bonus proposal", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, proposal, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEvaluationPDF(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	e, err := h.Evaluations.GetMapped(r.Context(), user.TenantID, chi.URLParam(r, "evaluationID"))
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "evaluation not found", middleware.GetRequestID(r.Context()))
		return
	}
	if user.RoleName != auth.RoleHR && user.RoleName != auth.RoleAdmin && e.EvaluatorID != user.UserID && e.EvaluateeID != user.UserID {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}

	evaluateeName := displayName(h.lookupUser(r, user.TenantID, e.EvaluateeID))
	evaluatorName := displayName(h.lookupUser(r, user.TenantID, e.EvaluatorID))

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=evaluation-%s.pdf", e.ID))
	if err := reports.RenderEvaluationPDF(w, *e, evaluateeName, evaluatorName); err != nil {
		slog.Warn("evaluation pdf render failed", "evaluationId", e.ID, "err", err)
	}
}

func (h *Handler) lookupUser(r *http.Request, tenantID, userID string) *directory.User {
	u, err := h.Directory.GetUser(r.Context(), tenantID, userID)
	if err != nil {
		slog.Warn("report user lookup failed", "userId", userID, "err", err)
		return nil
	}
	return u
}

func displayName(u *directory.User) string {
	if u == nil {
		return ""
	}
	return u.FirstName + " " + u.LastName
}
