package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/davybookzone/server/internal/service"
	"github.com/davybookzone/server/pkg/httputil"
	"github.com/davybookzone/server/pkg/middleware"
	"github.com/davybookzone/server/pkg/pagination"
	"github.com/davybookzone/server/pkg/validator"
)

// MessageHandler serves the public contact form and the admin inbox.
type MessageHandler struct {
	messages *service.MessageService
	logger   *slog.Logger
}

// NewMessageHandler creates the message handler.
func NewMessageHandler(messages *service.MessageService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, logger: logger}
}

// Create handles POST /api/messages.
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateMessageInput
	if err := validator.DecodeAndValidate(r, &in); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	msg, err := h.messages.Create(r.Context(), &in)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: msg})
}

// List handles GET /api/admin/messages.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r)

	var isRead *bool
	if v := r.URL.Query().Get("is_read"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			isRead = &b
		}
	}

	messages, total, err := h.messages.List(r.Context(), isRead, p.PerPage, p.Offset)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(messages, total, p))
}

// MarkRead handles PUT /api/admin/messages/{id}/read.
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	msg, err := h.messages.MarkRead(r.Context(), chi.URLParam(r, "id"), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: msg})
}

type replyRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// Reply handles POST /api/admin/messages/{id}/reply.
func (h *MessageHandler) Reply(w http.ResponseWriter, r *http.Request) {
	var in replyRequest
	if err := validator.DecodeAndValidate(r, &in); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	msg, err := h.messages.Reply(r.Context(), chi.URLParam(r, "id"), in.Content, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: msg})
}
