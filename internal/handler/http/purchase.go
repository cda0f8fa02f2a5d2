package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/davybookzone/server/internal/domain"
	"github.com/davybookzone/server/internal/service"
	"github.com/davybookzone/server/pkg/httputil"
	"github.com/davybookzone/server/pkg/middleware"
)

// PurchaseHandler serves the purchase lifecycle endpoints.
type PurchaseHandler struct {
	purchases *service.PurchaseService
	logger    *slog.Logger
}

// NewPurchaseHandler creates the purchase handler.
func NewPurchaseHandler(purchases *service.PurchaseService, logger *slog.Logger) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases, logger: logger}
}

// Initiate handles POST /api/purchases/{id}, where id is the book to buy.
func (h *PurchaseHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	var customer domain.CustomerInfo
	if err := decodeJSON(r, &customer); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	res, err := h.purchases.Initiate(
		r.Context(),
		middleware.UserIDFromContext(r.Context()),
		chi.URLParam(r, "id"),
		customer,
	)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: res})
}

// Verify handles ALL /api/purchases/{id}/verify, where id is a transaction
// id. The checkout page redirects here with a GET while API clients poll
// with POST, so any method is accepted.
func (h *PurchaseHandler) Verify(w http.ResponseWriter, r *http.Request) {
	purchase, err := h.purchases.Verify(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: purchase})
}

// Notify handles ALL /api/purchases/{id}/notify, the provider's
// server-to-server webhook. The provider only cares that we acknowledge
// receipt, so the response is 200 no matter what; failures are logged and
// the transaction is reconciled again on the next notify or verify.
func (h *PurchaseHandler) Notify(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "id")

	if err := h.purchases.HandleNotify(r.Context(), transactionID); err != nil {
		h.logger.ErrorContext(r.Context(), "notify processing failed",
			slog.String("transaction_id", transactionID),
			slog.String("error", err.Error()),
		)
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"message": "notification received"}})
}

// GetResponse handles GET /api/purchases/{id}/response.
func (h *PurchaseHandler) GetResponse(w http.ResponseWriter, r *http.Request) {
	purchase, err := h.purchases.GetByTransactionID(
		r.Context(),
		chi.URLParam(r, "id"),
		middleware.UserIDFromContext(r.Context()),
		middleware.RoleFromContext(r.Context()),
	)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: purchase})
}

// History handles GET /api/purchases/history.
func (h *PurchaseHandler) History(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.purchases.History(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if purchases == nil {
		purchases = []*domain.Purchase{}
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: purchases})
}
