package templateshandler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"appraise/internal/domain/audit"
	"appraise/internal/domain/auth"
	"appraise/internal/domain/template"
	"appraise/internal/transport/http/api"
	"appraise/internal/transport/http/middleware"
	"appraise/internal/transport/http/shared"
)

type Handler struct {
	Service *template.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *template.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/templates", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermTemplatesRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermTemplatesRead, h.Perms)).Get("/{templateID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermTemplatesWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermTemplatesWrite, h.Perms)).Put("/{templateID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermTemplatesWrite, h.Perms)).Delete("/{templateID}", h.handleDelete)
	})
}

type templatePayload struct {
	Name              string                      `json:"name"`
	Description       string                      `json:"description"`
	ScoringSystem     string                      `json:"scoringSystem"`
	Categories        []template.Category         `json:"categories"`
	FreeTextQuestions []template.FreeTextQuestion `json:"freeTextQuestions"`
	IsActive          *bool                       `json:"isActive"`
}

func (p templatePayload) toTemplate() template.Template {
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return template.Template{
		Name:              p.Name,
		Description:       p.Description,
		ScoringSystem:     p.ScoringSystem,
		Categories:        p.Categories,
		FreeTextQuestions: p.FreeTextQuestions,
		IsActive:          active,
	}
}

// ensureIDs assigns ids to categories and questions created without one so
// responses can be keyed against them later.
func ensureIDs(t *template.Template) {
	for i := range t.Categories {
		if t.Categories[i].ID == "" {
			t.Categories[i].ID = uuid.NewString()
		}
		for j := range t.Categories[i].Questions {
			if t.Categories[i].Questions[j].ID == "" {
				t.Categories[i].Questions[j].ID = uuid.NewString()
			}
		}
	}
	for i := range t.FreeTextQuestions {
		if t.FreeTextQuestions[i].ID == "" {
			t.FreeTextQuestions[i].ID = uuid.NewString()
		}
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	includeInactive := r.URL.Query().Get("includeInactive") == "true" && (user.RoleName == auth.RoleHR || user.RoleName == auth.RoleAdmin)
	templates, err := h.Service.List(r.Context(), user.TenantID, includeInactive)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "template_list_failed", "failed to list templates", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, templates, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	tpl, err := h.Service.Get(r.Context(), user.TenantID, chi.URLParam(r, "templateID"))
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "template not found", middleware.GetRequestID(r.Context()))
		return
	}
	maxScore, err := template.ScoringMax(tpl.ScoringSystem)
	if err != nil {
		maxScore = 0
	}
	api.Success(w, map[string]any{
		"template":  tpl,
		"maxScore":  maxScore,
		"weightSum": tpl.WeightSum(),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload templatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	tpl := payload.toTemplate()
	ensureIDs(&tpl)
	if err := template.Validate(tpl); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	id, err := h.Service.Create(r.Context(), actor.TenantID, tpl)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "template_create_failed", "failed to create template", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), actor.TenantID, actor.UserID, "templates.create", "template", id, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, map[string]string{"name": tpl.Name}); err != nil {
		slog.Warn("audit templates.create failed", "err", err)
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	templateID := chi.URLParam(r, "templateID")
	current, err := h.Service.Get(r.Context(), actor.TenantID, templateID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "template not found", middleware.GetRequestID(r.Context()))
		return
	}

	var payload templatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	tpl := payload.toTemplate()
	if payload.IsActive == nil {
		tpl.IsActive = current.IsActive
	}
	ensureIDs(&tpl)
	if err := template.Validate(tpl); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Service.Update(r.Context(), actor.TenantID, templateID, tpl); err != nil {
		api.Fail(w, http.StatusInternalServerError, "template_update_failed", "failed to update template", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), actor.TenantID, actor.UserID, "templates.update", "template", templateID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, map[string]string{"name": tpl.Name}); err != nil {
		slog.Warn("audit templates.update failed", "err", err)
	}
	api.Success(w, map[string]string{"id": templateID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	templateID := chi.URLParam(r, "templateID")
	if err := h.Service.SoftDelete(r.Context(), actor.TenantID, templateID); err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "template not found", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), actor.TenantID, actor.UserID, "templates.delete", "template", templateID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit templates.delete failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}
