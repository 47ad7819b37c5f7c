package settingshandler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"appraise/internal/domain/audit"
	"appraise/internal/domain/auth"
	"appraise/internal/domain/tenant"
	"appraise/internal/transport/http/api"
	"appraise/internal/transport/http/middleware"
	"appraise/internal/transport/http/shared"
)

type Handler struct {
	Service *tenant.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *tenant.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermSettingsRead, h.Perms)).Get("/", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermSettingsWrite, h.Perms)).Put("/", h.handleUpdate)
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	settings, err := h.Service.Settings(r.Context(), user.TenantID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "settings_failed", "failed to load settings", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, settings, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	current, err := h.Service.Settings(r.Context(), user.TenantID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "settings_failed", "failed to load settings", middleware.GetRequestID(r.Context()))
		return
	}

	updated := current
	if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if updated.BonusBase < 0 {
		api.Fail(w, http.StatusBadRequest, "validation_error", "bonus base cannot be negative", middleware.GetRequestID(r.Context()))
		return
	}
	for bucket, multiplier := range updated.BonusMultipliers {
		if multiplier < 0 {
			api.Fail(w, http.StatusBadRequest, "validation_error", "bonus multiplier for bucket "+bucket+" cannot be negative", middleware.GetRequestID(r.Context()))
			return
		}
	}

	if err := h.Service.UpdateSettings(r.Context(), user.TenantID, updated); err != nil {
		api.Fail(w, http.StatusInternalServerError, "settings_failed", "failed to update settings", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, "settings.update", "tenant", user.TenantID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), current, updated); err != nil {
		slog.Warn("audit settings.update failed", "err", err)
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}
