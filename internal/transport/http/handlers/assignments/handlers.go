package assignmentshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"appraise/internal/domain/assignment"
	"appraise/internal/domain/audit"
	"appraise/internal/domain/auth"
	"appraise/internal/domain/directory"
	"appraise/internal/domain/notifications"
	"appraise/internal/transport/http/api"
	"appraise/internal/transport/http/middleware"
	"appraise/internal/transport/http/shared"
)

type Handler struct {
	Service   *assignment.Service
	Directory *directory.Service
	Perms     middleware.PermissionStore
	Notify    *notifications.Service
	Audit     *audit.Service
}

func NewHandler(service *assignment.Service, dir *directory.Service, perms middleware.PermissionStore, notify *notifications.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Directory: dir, Perms: perms, Notify: notify, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/assignments", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAssignmentsRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermAssignmentsRead, h.Perms)).Get("/{assignmentID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermAssignmentsWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermAssignmentsWrite, h.Perms)).Delete("/{assignmentID}", h.handleDeactivate)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	filter := assignment.Filter{
		Type:        r.URL.Query().Get("type"),
		EvaluatorID: r.URL.Query().Get("evaluatorId"),
		EvaluateeID: r.URL.Query().Get("evaluateeId"),
	}

	switch user.RoleName {
	case auth.RoleEmployee:
		filter.EvaluatorID = ""
		filter.EvaluateeID = user.UserID
	case auth.RoleManager:
		// Caller filters narrow within the manager's scope, never past it.
		filter.ManagerScopeID = user.UserID
	}

	assignments, err := h.Service.List(r.Context(), user.TenantID, filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "assignment_list_failed", "failed to list assignments", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, assignments, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	found, err := h.Service.Get(r.Context(), user.TenantID, chi.URLParam(r, "assignmentID"))
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "assignment not found", middleware.GetRequestID(r.Context()))
		return
	}
	if user.RoleName != auth.RoleHR && user.RoleName != auth.RoleAdmin &&
		found.EvaluatorID != user.UserID && found.EvaluateeID != user.UserID {
		allowed := false
		if user.RoleName == auth.RoleManager {
			manages, err := h.Directory.IsManagerOf(r.Context(), user.TenantID, user.UserID, found.EvaluateeID)
			if err != nil {
				slog.Warn("manager scope check failed", "err", err)
			}
			allowed = manages
		}
		if !allowed {
			api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
			return
		}
	}
	api.Success(w, found, middleware.GetRequestID(r.Context()))
}

type assignmentPayload struct {
	Type        string `json:"type"`
	EvaluatorID string `json:"evaluatorId"`
	EvaluateeID string `json:"evaluateeId"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload assignmentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("evaluatorId", payload.EvaluatorID, "evaluator is required")
	v.Required("evaluateeId", payload.EvaluateeID, "evaluatee is required")
	v.Enum("type", payload.Type, []string{assignment.TypeEvaluation, assignment.TypeBonus}, "unknown assignment type")
	if payload.EvaluatorID != "" && payload.EvaluatorID == payload.EvaluateeID {
		v.Add("evaluateeId", "evaluator and evaluatee must differ")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	for field, id := range map[string]string{"evaluatorId": payload.EvaluatorID, "evaluateeId": payload.EvaluateeID} {
		exists, err := h.Directory.UserExists(r.Context(), actor.TenantID, id)
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "assignment_create_failed", "failed to create assignment", middleware.GetRequestID(r.Context()))
			return
		}
		if !exists {
			api.Fail(w, http.StatusBadRequest, "validation_error", field+" does not exist", middleware.GetRequestID(r.Context()))
			return
		}
	}

	id, err := h.Service.Create(r.Context(), actor.TenantID, assignment.Assignment{
		Type:        payload.Type,
		EvaluatorID: payload.EvaluatorID,
		EvaluateeID: payload.EvaluateeID,
		AssignedBy:  actor.UserID,
	})
	if err != nil {
		if errors.Is(err, assignment.ErrDuplicateActive) {
			api.Fail(w, http.StatusConflict, "already_exists", "an active assignment already exists for this pair", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "assignment_create_failed", "failed to create assignment", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), actor.TenantID, actor.UserID, "assignments.create", "assignment", id, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit assignments.create failed", "err", err)
	}
	if h.Notify != nil {
		if err := h.Notify.Create(r.Context(), actor.TenantID, payload.EvaluateeID, notifications.TypeAssignmentCreated, "Evaluation assignment", "You have been paired with an evaluator."); err != nil {
			slog.Warn("assignment created notification failed", "err", err)
		}
		if err := h.Notify.Create(r.Context(), actor.TenantID, payload.EvaluatorID, notifications.TypeAssignmentCreated, "Evaluation assignment", "You have been assigned an evaluatee."); err != nil {
			slog.Warn("assignment created evaluator notification failed", "err", err)
		}
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	assignmentID := chi.URLParam(r, "assignmentID")
	if _, err := h.Service.Get(r.Context(), actor.TenantID, assignmentID); err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "assignment not found", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Service.Deactivate(r.Context(), actor.TenantID, assignmentID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "assignment_deactivate_failed", "failed to deactivate assignment", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), actor.TenantID, actor.UserID, "assignments.deactivate", "assignment", assignmentID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit assignments.deactivate failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "deactivated"}, middleware.GetRequestID(r.Context()))
}
