package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/davybookzone/server/internal/domain"
	"github.com/davybookzone/server/internal/service"
	"github.com/davybookzone/server/pkg/httputil"
	"github.com/davybookzone/server/pkg/middleware"
	"github.com/davybookzone/server/pkg/pagination"
	"github.com/davybookzone/server/pkg/validator"
)

// AdminHandler serves the admin console: dashboard, user management,
// purchase ledger and site settings.
type AdminHandler struct {
	admin     *service.AdminService
	purchases *service.PurchaseService
	settings  *service.SettingsService
	logger    *slog.Logger
}

// NewAdminHandler creates the admin handler.
func NewAdminHandler(
	admin *service.AdminService,
	purchases *service.PurchaseService,
	settings *service.SettingsService,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{admin: admin, purchases: purchases, settings: settings, logger: logger}
}

// Stats handles GET /api/admin/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.admin.GetDashboard(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: dashboard})
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r)
	filter := domain.UserFilter{
		Search: r.URL.Query().Get("search"),
		Role:   r.URL.Query().Get("role"),
	}
	if v := r.URL.Query().Get("is_active"); v != "" {
		if active, err := strconv.ParseBool(v); err == nil {
			filter.IsActive = &active
		}
	}

	users, total, err := h.admin.ListUsers(r.Context(), filter, p.PerPage, p.Offset)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(users, total, p))
}

// UpdateUser handles PUT /api/admin/users/{id}.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var in service.AdminUpdateUserInput
	if err := validator.DecodeAndValidate(r, &in); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	user, err := h.admin.UpdateUser(
		r.Context(),
		middleware.UserIDFromContext(r.Context()),
		chi.URLParam(r, "id"),
		&in,
	)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

// DeleteUser handles DELETE /api/admin/users/{id}.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	err := h.admin.DeleteUser(r.Context(), middleware.UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"message": "user deleted"}})
}

// ToggleUserStatus handles PUT /api/admin/users/{id}/toggle-status.
func (h *AdminHandler) ToggleUserStatus(w http.ResponseWriter, r *http.Request) {
	user, err := h.admin.ToggleUserActive(r.Context(), middleware.UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

// ListPurchases handles GET /api/admin/purchases.
func (h *AdminHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.purchases.ListAll(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if purchases == nil {
		purchases = []*domain.Purchase{}
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: purchases})
}

// GetSettings handles GET /api/admin/settings.
func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: settings})
}

// UpdateSettings handles PUT /api/admin/settings.
func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateSettingsInput
	if err := decodeJSON(r, &in); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	settings, err := h.settings.Update(r.Context(), &in)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: settings})
}
