package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"outagealert/internal/api"
	"outagealert/internal/types"
)

// ReadMarker records that a user has seen a notification. Satisfied by
// *core.RecordStore.
type ReadMarker interface {
	MarkDelivered(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*types.Notification, error)
}

// NotificationHandler serves the per-notification endpoints.
type NotificationHandler struct {
	store ReadMarker
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(store ReadMarker) *NotificationHandler {
	return &NotificationHandler{store: store}
}

// RegisterRoutes mounts the notification routes.
func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Post("/notifications/{id}/read", h.MarkRead)
}

// MarkRead handles POST /v1/notifications/{id}/read (SENT -> DELIVERED).
// Any other source state is a 409.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.MarkDelivered(r.Context(), id); err != nil {
		api.Error(w, r, err)
		return
	}

	n, err := h.store.Get(r.Context(), id)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.JSON(w, r, http.StatusOK, api.APIResponse{Data: n})
}
