package directoryhandler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"appraise/internal/domain/audit"
	"appraise/internal/domain/auth"
	"appraise/internal/domain/directory"
	"appraise/internal/transport/http/api"
	"appraise/internal/transport/http/middleware"
	"appraise/internal/transport/http/shared"
)

type Handler struct {
	Service *directory.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *directory.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermDirectoryRead, h.Perms)).Get("/", h.handleListUsers)
		r.With(middleware.RequirePermission(auth.PermDirectoryRead, h.Perms)).Get("/{userID}", h.handleGetUser)
		r.With(middleware.RequirePermission(auth.PermDirectoryWrite, h.Perms)).Post("/", h.handleCreateUser)
		r.With(middleware.RequirePermission(auth.PermDirectoryWrite, h.Perms)).Put("/{userID}", h.handleUpdateUser)
		r.With(middleware.RequirePermission(auth.PermDirectoryWrite, h.Perms)).Delete("/{userID}", h.handleDeactivateUser)
	})
	r.Route("/departments", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermDirectoryRead, h.Perms)).Get("/", h.handleListDepartments)
		r.With(middleware.RequirePermission(auth.PermDirectoryRead, h.Perms)).Get("/{departmentID}", h.handleGetDepartment)
		r.With(middleware.RequirePermission(auth.PermDirectoryWrite, h.Perms)).Post("/", h.handleCreateDepartment)
		r.With(middleware.RequirePermission(auth.PermDirectoryWrite, h.Perms)).Put("/{departmentID}", h.handleUpdateDepartment)
		r.With(middleware.RequirePermission(auth.PermDirectoryWrite, h.Perms)).Delete("/{departmentID}", h.handleDeleteDepartment)
	})
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	departmentID := r.URL.Query().Get("departmentId")
	status := r.URL.Query().Get("status")
	users, err := h.Service.ListUsers(r.Context(), user.TenantID, departmentID, status)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "user_list_failed", "failed to list users", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, users, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	found, err := h.Service.GetUser(r.Context(), user.TenantID, chi.URLParam(r, "userID"))
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, found, middleware.GetRequestID(r.Context()))
}

type userPayload struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Phone        string `json:"phone"`
	Position     string `json:"position"`
	Role         string `json:"role"`
	DepartmentID string `json:"departmentId"`
	ManagerID    string `json:"managerId"`
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload userPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("email", payload.Email, "email is required")
	v.Required("password", payload.Password, "password is required")
	v.Required("firstName", payload.FirstName, "first name is required")
	v.Required("lastName", payload.LastName, "last name is required")
	v.Enum("role", payload.Role, []string{auth.RoleAdmin, auth.RoleHR, auth.RoleManager, auth.RoleEmployee}, "unknown role")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	roleID, err := h.Service.RoleIDByName(r.Context(), actor.TenantID, payload.Role)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "unknown role", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.ManagerID != "" {
		exists, err := h.Service.UserExists(r.Context(), actor.TenantID, payload.ManagerID)
		if err != nil || !exists {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "manager not found", middleware.GetRequestID(r.Context()))
			return
		}
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "hash_error", "failed to create user", middleware.GetRequestID(r.Context()))
		return
	}

	id, err := h.Service.CreateUser(r.Context(), actor.TenantID, directory.User{
		Email:        payload.Email,
		FirstName:    payload.FirstName,
		LastName:     payload.LastName,
		Phone:        payload.Phone,
		Position:     payload.Position,
		RoleID:       roleID,
		DepartmentID: payload.DepartmentID,
		ManagerID:    payload.ManagerID,
	}, hash)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "user_create_failed", "failed to create user", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), actor.TenantID, actor.UserID, "directory.user.create", "user", id, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, map[string]string{"email": payload.Email, "role": payload.Role}); err != nil {
		slog.Warn("audit directory.user.create failed", "err", err)
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	userID := chi.URLParam(r, "userID")
	current, err := h.Service.GetUser(r.Context(), actor.TenantID, userID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		FirstName    *string `json:"firstName"`
		LastName     *string `json:"lastName"`
		Phone        *string `json:"phone"`
		Position     *string `json:"position"`
		Role         *string `json:"role"`
		DepartmentID *string `json:"departmentId"`
		ManagerID    *string `json:"managerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	if payload.FirstName != nil {
		current.FirstName = *payload.FirstName
	}
	if payload.LastName != nil {
		current.LastName = *payload.LastName
	}
	if payload.Phone != nil {
		current.Phone = *payload.Phone
	}
	if payload.Position != nil {
		current.Position = *payload.Position
	}
	if payload.Role != nil {
		roleID, err := h.Service.RoleIDByName(r.Context(), actor.TenantID, *payload.Role)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "unknown role", middleware.GetRequestID(r.Context()))
			return
		}
		current.RoleID = roleID
	}
	if payload.DepartmentID != nil {
		current.DepartmentID = *payload.DepartmentID
	}
	if payload.ManagerID != nil {
		if *payload.ManagerID == userID {
			api.Fail(w, http.StatusBadRequest, "validation_error", "user cannot manage themselves", middleware.GetRequestID(r.Context()))
			return
		}
		current.ManagerID = *payload.ManagerID
	}

	if err := h.Service.UpdateUser(r.Context(), actor.TenantID, userID, *current); err != nil {
		api.Fail(w, http.StatusInternalServerError, "user_update_failed", "failed to update user", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), actor.TenantID, actor.UserID, "directory.user.update", "user", userID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit directory.user.update failed", "err", err)
	}
	api.Success(w, map[string]string{"id": userID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	userID := chi.URLParam(r, "userID")
	if userID == actor.UserID {
		api.Fail(w, http.StatusBadRequest, "failed_precondition", "cannot deactivate yourself", middleware.GetRequestID(r.Context()))
		return
	}
	if _, err := h.Service.GetUser(r.Context(), actor.TenantID, userID); err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Service.SetUserStatus(r.Context(), actor.TenantID, userID, directory.UserStatusInactive); err != nil {
		api.Fail(w, http.StatusInternalServerError, "user_deactivate_failed", "failed to deactivate user", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), actor.TenantID, actor.UserID, "directory.user.deactivate", "user", userID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, map[string]string{"status": directory.UserStatusInactive}); err != nil {
		slog.Warn("audit directory.user.deactivate failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "deactivated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	includeInactive := r.URL.Query().Get("includeInactive") == "true" && (user.RoleName == auth.RoleHR || user.RoleName == auth.RoleAdmin)
	departments, err := h.Service.ListDepartments(r.Context(), user.TenantID, includeInactive)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "department_list_failed", "failed to list departments", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, departments, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetDepartment(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	department, err := h.Service.GetDepartment(r.Context(), user.TenantID, chi.URLParam(r, "departmentID"))
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "department not found", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, department, middleware.GetRequestID(r.Context()))
}

type departmentPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ParentID    string `json:"parentId"`
	ManagerID   string `json:"managerId"`
}

func (h *Handler) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload departmentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	if payload.ParentID != "" {
		if _, err := h.Service.GetDepartment(r.Context(), actor.TenantID, payload.ParentID); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "parent department not found", middleware.GetRequestID(r.Context()))
			return
		}
	}

	id, err := h.Service.CreateDepartment(r.Context(), actor.TenantID, directory.Department{
		Name:        payload.Name,
		Description: payload.Description,
		ParentID:    payload.ParentID,
		ManagerID:   payload.ManagerID,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "department_create_failed", "failed to create department", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), actor.TenantID, actor.UserID, "directory.department.create", "department", id, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit directory.department.create failed", "err", err)
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateDepartment(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	departmentID := chi.URLParam(r, "departmentID")
	current, err := h.Service.GetDepartment(r.Context(), actor.TenantID, departmentID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "department not found", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		ParentID    *string `json:"parentId"`
		ManagerID   *string `json:"managerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	if payload.Name != nil {
		current.Name = *payload.Name
	}
	if payload.Description != nil {
		current.Description = *payload.Description
	}
	if payload.ManagerID != nil {
		current.ManagerID = *payload.ManagerID
	}
	if payload.ParentID != nil && *payload.ParentID != current.ParentID {
		if *payload.ParentID != "" {
			if _, err := h.Service.GetDepartment(r.Context(), actor.TenantID, *payload.ParentID); err != nil {
				api.Fail(w, http.StatusBadRequest, "invalid_payload", "parent department not found", middleware.GetRequestID(r.Context()))
				return
			}
			parents, err := h.Service.DepartmentParents(r.Context(), actor.TenantID)
			if err != nil {
				api.Fail(w, http.StatusInternalServerError, "department_update_failed", "failed to update department", middleware.GetRequestID(r.Context()))
				return
			}
			if directory.WouldCreateCycle(departmentID, *payload.ParentID, parents) {
				api.Fail(w, http.StatusBadRequest, "validation_error", "parent change would create a cycle", middleware.GetRequestID(r.Context()))
				return
			}
		}
		current.ParentID = *payload.ParentID
	}

	if err := h.Service.UpdateDepartment(r.Context(), actor.TenantID, departmentID, *current); err != nil {
		api.Fail(w, http.StatusInternalServerError, "department_update_failed", "failed to update department", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), actor.TenantID, actor.UserID, "directory.department.update", "department", departmentID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit directory.department.update failed", "err", err)
	}
	api.Success(w, map[string]string{"id": departmentID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	departmentID := chi.URLParam(r, "departmentID")
	if _, err := h.Service.GetDepartment(r.Context(), actor.TenantID, departmentID); err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "department not found", middleware.GetRequestID(r.Context()))
		return
	}

	hasEmployees, err := h.Service.DepartmentHasActiveEmployees(r.Context(), actor.TenantID, departmentID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "department_delete_failed", "failed to delete department", middleware.GetRequestID(r.Context()))
		return
	}
	if hasEmployees {
		api.Fail(w, http.StatusBadRequest, "failed_precondition", "department still has active employees", middleware.GetRequestID(r.Context()))
		return
	}
	hasChildren, err := h.Service.DepartmentHasActiveChildren(r.Context(), actor.TenantID, departmentID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "department_delete_failed", "failed to delete department", middleware.GetRequestID(r.Context()))
		return
	}
	if hasChildren {
		api.Fail(w, http.StatusBadRequest, "failed_precondition", "department still has active sub-departments", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Service.SoftDeleteDepartment(r.Context(), actor.TenantID, departmentID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "department_delete_failed", "failed to delete department", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), actor.TenantID, actor.UserID, "directory.department.delete", "department", departmentID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit directory.department.delete failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}
