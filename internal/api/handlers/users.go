package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"outagealert/internal/api"
	"outagealert/internal/types"
)

const defaultHistoryLimit = 50

// UserReader loads a hydrated user.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*types.User, error)
}

// TestNotifier sends an ad-hoc test message. Satisfied by *core.Orchestrator.
type TestNotifier interface {
	SendTestNotification(ctx context.Context, user *types.User, message string) bool
}

// HistoryLister lists a user's notifications, newest first.
type HistoryLister interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]*types.Notification, error)
}

// TestNotificationRequest is the optional body of the test endpoint.
type TestNotificationRequest struct {
	Message string `json:"message" validate:"max=480"`
}

// TestNotificationResponse reports whether any channel accepted the message.
type TestNotificationResponse struct {
	UserID    string `json:"user_id"`
	Delivered bool   `json:"delivered"`
}

// UserHandler serves the per-user notification endpoints.
type UserHandler struct {
	users     UserReader
	notifier  TestNotifier
	history   HistoryLister
	validator *api.Validator
	logger    *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users UserReader, notifier TestNotifier, history HistoryLister, v *api.Validator, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{
		users:     users,
		notifier:  notifier,
		history:   history,
		validator: v,
		logger:    logger,
	}
}

// RegisterRoutes mounts the user routes.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Route("/users/{id}", func(r chi.Router) {
		r.Post("/test-notification", h.SendTest)
		r.Get("/notifications", h.ListNotifications)
	})
}

// SendTest handles POST /v1/users/{id}/test-notification. The call waits for
// the sends; an empty body sends the default test text.
func (h *UserHandler) SendTest(w http.ResponseWriter, r *http.Request) {
	var req TestNotificationRequest
	if r.ContentLength != 0 {
		if err := api.DecodeJSON(w, r, &req); err != nil {
			api.Error(w, r, err)
			return
		}
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		api.Error(w, r, err)
		return
	}

	user, err := h.users.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.Error(w, r, err)
		return
	}

	delivered := h.notifier.SendTestNotification(r.Context(), user, req.Message)
	api.JSON(w, r, http.StatusOK, api.APIResponse{Data: TestNotificationResponse{
		UserID:    user.ID,
		Delivered: delivered,
	}})
}

// ListNotifications handles GET /v1/users/{id}/notifications?limit=N.
func (h *UserHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			api.Error(w, r, types.NewAppErrorWithDetails(
				types.ErrCodeValidationFailed,
				"limit must be an integer between 1 and 200",
				err,
				map[string]any{"limit": raw},
			))
			return
		}
		limit = n
	}

	records, err := h.history.ListByUser(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	if records == nil {
		records = []*types.Notification{}
	}
	api.JSON(w, r, http.StatusOK, api.APIResponse{Data: records})
}
