package evaluationshandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"appraise/internal/domain/audit"
	"appraise/internal/domain/auth"
	"appraise/internal/domain/directory"
	"appraise/internal/domain/evaluation"
	"appraise/internal/domain/notifications"
	"appraise/internal/transport/http/api"
	"appraise/internal/transport/http/middleware"
	"appraise/internal/transport/http/shared"
)

type Handler struct {
	Service   *evaluation.Service
	Directory *directory.Service
	Perms     middleware.PermissionStore
	Notify    *notifications.Service
	Audit     *audit.Service
}

func NewHandler(service *evaluation.Service, dir *directory.Service, perms middleware.PermissionStore, notify *notifications.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Directory: dir, Perms: perms, Notify: notify, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/evaluations", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEvaluationsRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermEvaluationsRead, h.Perms)).Get("/{evaluationID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermEvaluationsWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermEvaluationsWrite, h.Perms)).Put("/{evaluationID}/self", h.handleSaveSelf)
		r.With(middleware.RequirePermission(auth.PermEvaluationsWrite, h.Perms)).Post("/{evaluationID}/submit", h.handleSubmitSelf)
		r.With(middleware.RequirePermission(auth.PermEvaluationsReview, h.Perms)).Put("/{evaluationID}/review", h.handleSaveReview)
		r.With(middleware.RequirePermission(auth.PermEvaluationsComplete, h.Perms)).Post("/{evaluationID}/complete", h.handleComplete)
	})
}

// failLifecycle maps domain errors onto the API error contract.
func failLifecycle(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	var invalid evaluation.ErrInvalidTransition
	switch {
	case errors.Is(err, evaluation.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "evaluation not found", requestID)
	case errors.Is(err, evaluation.ErrStaleVersion):
		api.Fail(w, http.StatusConflict, "conflict", "evaluation was modified by someone else, reload and retry", requestID)
	case errors.Is(err, evaluation.ErrCompleted):
		api.Fail(w, http.StatusBadRequest, "failed_precondition", "completed evaluations are read-only", requestID)
	case errors.Is(err, evaluation.ErrNoActiveAssignment):
		api.Fail(w, http.StatusBadRequest, "failed_precondition", "no active assignment links this evaluator and evaluatee", requestID)
	case errors.Is(err, evaluation.ErrTemplateInactive):
		api.Fail(w, http.StatusBadRequest, "failed_precondition", "template is missing or inactive", requestID)
	case errors.As(err, &invalid):
		api.Fail(w, http.StatusBadRequest, "failed_precondition", invalid.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "evaluation_error", "evaluation operation failed", requestID)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	filter := evaluation.Filter{
		EvaluatorID: r.URL.Query().Get("evaluatorId"),
		EvaluateeID: r.URL.Query().Get("evaluateeId"),
		Status:      r.URL.Query().Get("status"),
	}
	switch user.RoleName {
	case auth.RoleEmployee:
		filter.EvaluatorID = ""
		filter.EvaluateeID = ""
		filter.InvolvedUserID = user.UserID
	case auth.RoleManager:
		// Caller filters narrow within the manager's scope, never past it.
		filter.ManagerScopeID = user.UserID
	}

	evaluations, err := h.Service.List(r.Context(), user.TenantID, filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "evaluation_list_failed", "failed to list evaluations", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, evaluations, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	e, err := h.Service.GetMapped(r.Context(), user.TenantID, chi.URLParam(r, "evaluationID"))
	if err != nil {
		failLifecycle(w, r, err)
		return
	}
	if !h.canView(r, user, e) {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, e, middleware.GetRequestID(r.Context()))
}

// canView mirrors the list scoping: hr/admin see the tenant, parties see
// their own, and a manager additionally sees direct reports' evaluations.
func (h *Handler) canView(r *http.Request, user auth.UserContext, e *evaluation.Evaluation) bool {
	if user.RoleName == auth.RoleHR || user.RoleName == auth.RoleAdmin {
		return true
	}
	if e.EvaluatorID == user.UserID || e.EvaluateeID == user.UserID {
		return true
	}
	if user.RoleName == auth.RoleManager && h.Directory != nil {
		manages, err := h.Directory.IsManagerOf(r.Context(), user.TenantID, user.UserID, e.EvaluateeID)
		if err != nil {
			slog.Warn("manager scope check failed", "err", err)
			return false
		}
		return manages
	}
	return false
}

type createPayload struct {
	TemplateID  string `json:"templateId"`
	EvaluatorID string `json:"evaluatorId"`
	EvaluateeID string `json:"evaluateeId"`
	DueDate     string `json:"dueDate"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload createPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.EvaluatorID == "" {
		payload.EvaluatorID = actor.UserID
	}

	v := shared.NewValidator()
	v.Required("templateId", payload.TemplateID, "template is required")
	v.Required("evaluateeId", payload.EvaluateeID, "evaluatee is required")
	var dueDate *time.Time
	if payload.DueDate != "" {
		parsed, ok := v.Date("dueDate", payload.DueDate)
		if ok {
			dueDate = &parsed
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	if actor.RoleName != auth.RoleHR && actor.RoleName != auth.RoleAdmin && payload.EvaluatorID != actor.UserID {
		api.Fail(w, http.StatusForbidden, "forbidden", "cannot create evaluations for another evaluator", middleware.GetRequestID(r.Context()))
		return
	}

	e, err := h.Service.Create(r.Context(), actor.TenantID, payload.TemplateID, payload.EvaluatorID, payload.EvaluateeID, dueDate)
	if err != nil {
		failLifecycle(w, r, err)
		return
	}

	if err := h.Audit.Record(r.Context(), actor.TenantID, actor.UserID, "evaluations.create", "evaluation", e.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit evaluations.create failed", "err", err)
	}
	if h.Notify != nil {
		if err := h.Notify.Create(r.Context(), actor.TenantID, e.EvaluateeID, notifications.TypeEvaluationAssigned, "Evaluation started", "A performance evaluation has been opened for you."); err != nil {
			slog.Warn("evaluation assigned notification failed", "err", err)
		}
	}
	api.Created(w, e, middleware.GetRequestID(r.Context()))
}

type selfPayload struct {
	evaluation.SelfPatch
	Version int64 `json:"version"`
}

func (h *Handler) handleSaveSelf(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	evaluationID := chi.URLParam(r, "evaluationID")
	current, err := h.Service.Get(r.Context(), actor.TenantID, evaluationID)
	if err != nil {
		failLifecycle(w, r, err)
		return
	}
	if current.EvaluateeID != actor.UserID {
		api.Fail(w, http.StatusForbidden, "forbidden", "only the evaluatee can fill the self-assessment", middleware.GetRequestID(r.Context()))
		return
	}

	var payload selfPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.Version == 0 {
		payload.Version = current.Version
	}

	updated, err := h.Service.SaveSelfProgress(r.Context(), actor.TenantID, evaluationID, payload.SelfPatch, payload.Version)
	if err != nil {
		failLifecycle(w, r, err)
		return
	}

	if err := h.Audit.Record(r.Context(), actor.TenantID, actor.UserID, "evaluations.self.save", "evaluation", evaluationID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]string{"status": current.Status}, map[string]string{"status": updated.Status}); err != nil {
		slog.Warn("audit evaluations.self.save failed", "err", err)
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmitSelf(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	evaluationID := chi.URLParam(r, "evaluationID")
	current, err := h.Service.Get(r.Context(), actor.TenantID, evaluationID)
	if err != nil {
		failLifecycle(w, r, err)
		return
	}
	if current.EvaluateeID != actor.UserID {
		api.Fail(w, http.StatusForbidden, "forbidden", "only the evaluatee can submit the self-assessment", middleware.GetRequestID(r.Context()))
		return
	}

	var payload selfPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.Version == 0 {
		payload.Version = current.Version
	}

	updated, err := h.Service.SubmitSelf(r.Context(), actor.TenantID, evaluationID, payload.SelfPatch, payload.Version)
	if err != nil {
		failLifecycle(w, r, err)
		return
	}

	if err := h.Audit.Record(r.Context(), actor.TenantID, actor.UserID, "evaluations.self.submit", "evaluation", evaluationID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]string{"status": current.Status}, map[string]string{"status": updated.Status}); err != nil {
		slog.Warn("audit evaluations.self.submit failed", "err", err)
	}
	if h.Notify != nil {
		if err := h.Notify.Create(r.Context(), actor.TenantID, updated.EvaluatorID, notifications.TypeSelfAssessmentSubmitted, "Self-assessment submitted", "A self-assessment is ready for your review."); err != nil {
			slog.Warn("self-assessment submitted notification failed", "err", err)
		}
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

type reviewPayload struct {
	evaluation.ReviewPatch
	Version int64 `json:"version"`
}

func (h *Handler) reviewTarget(w http.ResponseWriter, r *http.Request) (*evaluation.Evaluation, auth.UserContext, bool) {
	actor, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return nil, actor, false
	}

	current, err := h.Service.Get(r.Context(), actor.TenantID, chi.URLParam(r, "evaluationID"))
	if err != nil {
		failLifecycle(w, r, err)
		return nil, actor, false
	}
	if actor.RoleName != auth.RoleHR && actor.RoleName != auth.RoleAdmin && current.EvaluatorID != actor.UserID {
		api.Fail(w, http.StatusForbidden, "forbidden", "only the evaluator can review this evaluation", middleware.GetRequestID(r.Context()))
		return nil, actor, false
	}
	return current, actor, true
}

func (h *Handler) handleSaveReview(w http.ResponseWriter, r *http.Request) {
	current, actor, ok := h.reviewTarget(w, r)
	if !ok {
		return
	}

	var payload reviewPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.Version == 0 {
		payload.Version = current.Version
	}

	updated, err := h.Service.SaveReviewProgress(r.Context(), actor.TenantID, current.ID, payload.ReviewPatch, payload.Version)
	if err != nil {
		failLifecycle(w, r, err)
		return
	}

	if err := h.Audit.Record(r.Context(), actor.TenantID, actor.UserID, "evaluations.review.save", "evaluation", current.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]string{"status": current.Status}, map[string]string{"status": updated.Status}); err != nil {
		slog.Warn("audit evaluations.review.save failed", "err", err)
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	current, actor, ok := h.reviewTarget(w, r)
	if !ok {
		return
	}

	var payload reviewPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.Version == 0 {
		payload.Version = current.Version
	}

	updated, err := h.Service.CompleteReview(r.Context(), actor.TenantID, current.ID, payload.ReviewPatch, payload.Version)
	if err != nil {
		failLifecycle(w, r, err)
		return
	}

	if err := h.Audit.Record(r.Context(), actor.TenantID, actor.UserID, "evaluations.review.complete", "evaluation", current.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]string{"status": current.Status}, map[string]any{"status": updated.Status, "overallRating": updated.Review.OverallRating}); err != nil {
		slog.Warn("audit evaluations.review.complete failed", "err", err)
	}
	if h.Notify != nil {
		body := fmt.Sprintf("Your evaluation has been completed with an overall rating of %.1f.", updated.Review.OverallRating)
		if err := h.Notify.Create(r.Context(), actor.TenantID, updated.EvaluateeID, notifications.TypeReviewCompleted, "Review completed", body); err != nil {
			slog.Warn("review completed notification failed", "err", err)
		}
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}
