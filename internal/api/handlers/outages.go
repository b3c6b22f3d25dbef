// Package handlers contains the HTTP handlers of the notification API.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"outagealert/internal/api"
	"outagealert/internal/notifications/core"
	"outagealert/internal/types"
)

// OutageReader loads outages.
type OutageReader interface {
	GetByID(ctx context.Context, id string) (*types.Outage, error)
}

// EventNotifier fans a lifecycle event out to the affected users. Satisfied
// by *core.Orchestrator.
type EventNotifier interface {
	SendEvent(ctx context.Context, outage *types.Outage, kind types.EventKind) *core.Batch
}

// OutageEventRequest is the body of POST /v1/outages/{id}/events.
type OutageEventRequest struct {
	Event string `json:"event" validate:"required,event_kind"`
}

// OutageEventResponse reports what the event produced. Sends continue in the
// background after the response.
type OutageEventResponse struct {
	OutageID      string          `json:"outage_id"`
	Event         types.EventKind `json:"event"`
	Users         int             `json:"users"`
	Notifications int             `json:"notifications"`
	Failed        int             `json:"failed_to_record"`
}

// OutageEventHandler accepts outage lifecycle events from the outage service.
type OutageEventHandler struct {
	outages   OutageReader
	notifier  EventNotifier
	validator *api.Validator
	logger    *slog.Logger
}

// NewOutageEventHandler creates an OutageEventHandler.
func NewOutageEventHandler(outages OutageReader, notifier EventNotifier, v *api.Validator, logger *slog.Logger) *OutageEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OutageEventHandler{
		outages:   outages,
		notifier:  notifier,
		validator: v,
		logger:    logger,
	}
}

// RegisterRoutes mounts the outage routes.
func (h *OutageEventHandler) RegisterRoutes(r chi.Router) {
	r.Post("/outages/{id}/events", h.PostEvent)
}

// PostEvent handles POST /v1/outages/{id}/events. Returns 202 once the
// notification records exist; delivery is asynchronous.
func (h *OutageEventHandler) PostEvent(w http.ResponseWriter, r *http.Request) {
	var req OutageEventRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		api.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		api.Error(w, r, err)
		return
	}
	kind, _ := types.ParseEventKind(req.Event)

	outage, err := h.outages.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.Error(w, r, err)
		return
	}

	if outage.Status.Terminal() && (kind == types.EventNew || kind == types.EventUpdate) {
		api.Error(w, r, types.NewAppErrorWithDetails(
			types.ErrCodeConflictOutageDone,
			"outage is already closed",
			nil,
			map[string]any{"status": outage.Status},
		))
		return
	}

	batch := h.notifier.SendEvent(r.Context(), outage, kind)

	h.logger.InfoContext(r.Context(), "outage event accepted",
		"outage_id", outage.ID,
		"event", string(kind),
		"notifications", batch.Created,
		"request_id", types.GetRequestID(r.Context()),
	)

	api.JSON(w, r, http.StatusAccepted, api.APIResponse{Data: OutageEventResponse{
		OutageID:      outage.ID,
		Event:         kind,
		Users:         batch.Users,
		Notifications: batch.Created,
		Failed:        batch.CreateFailed,
	}})
}
