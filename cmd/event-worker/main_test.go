package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outagealert/internal/notifications/core"
	"outagealert/internal/types"
)

type stubOutages struct {
	outages map[string]*types.Outage
	err     error
}

func (s *stubOutages) GetByID(_ context.Context, id string) (*types.Outage, error) {
	if s.err != nil {
		return nil, s.err
	}
	if o, ok := s.outages[id]; ok {
		return o, nil
	}
	return nil, types.NewAppError(types.ErrCodeNotFoundOutage, "outage not found", nil)
}

type sentEvent struct {
	outageID string
	kind     types.EventKind
}

type stubNotifier struct {
	events []sentEvent
}

func (s *stubNotifier) SendEvent(_ context.Context, outage *types.Outage, kind types.EventKind) *core.Batch {
	s.events = append(s.events, sentEvent{outage.ID, kind})
	return &core.Batch{OutageID: outage.ID, Kind: kind, Users: 2, Created: 3}
}

func newHandler(outages *stubOutages) (*Handler, *stubNotifier) {
	n := &stubNotifier{}
	return &Handler{
		outages:  outages,
		notifier: n,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, n
}

func batchOf(bodies ...string) events.SQSEvent {
	var ev events.SQSEvent
	for i, b := range bodies {
		ev.Records = append(ev.Records, events.SQSMessage{
			MessageId: string(rune('a' + i)),
			Body:      b,
		})
	}
	return ev
}

func TestHandle_DispatchesEvents(t *testing.T) {
	h, notifier := newHandler(&stubOutages{outages: map[string]*types.Outage{
		"out_1": {ID: "out_1", Status: types.OutageScheduled},
		"out_2": {ID: "out_2", Status: types.OutageCompleted},
	}})

	resp, err := h.Handle(context.Background(), batchOf(
		`{"outage_id":"out_1","event":"created"}`,
		`{"outage_id":"out_2","event":"restored"}`,
	))
	require.NoError(t, err)
	assert.Empty(t, resp.BatchItemFailures)
	assert.Equal(t, []sentEvent{
		{"out_1", types.EventNew},
		{"out_2", types.EventRestore},
	}, notifier.events)
}

func TestHandle_DropsPermanentFailures(t *testing.T) {
	h, notifier := newHandler(&stubOutages{outages: map[string]*types.Outage{
		"out_closed": {ID: "out_closed", Status: types.OutageCancelled},
	}})

	resp, err := h.Handle(context.Background(), batchOf(
		`not json`,
		`{"outage_id":"out_1","event":"exploded"}`,
		`{"event":"created"}`,
		`{"outage_id":"out_missing","event":"updated"}`,
		`{"outage_id":"out_closed","event":"updated"}`,
	))
	require.NoError(t, err)
	assert.Empty(t, resp.BatchItemFailures, "permanent failures are ACKed")
	assert.Empty(t, notifier.events)
}

func TestHandle_ReportsTransientLoadFailure(t *testing.T) {
	h, notifier := newHandler(&stubOutages{err: errors.New("connection reset")})

	resp, err := h.Handle(context.Background(), batchOf(`{"outage_id":"out_1","event":"cancelled"}`))
	require.NoError(t, err)
	require.Len(t, resp.BatchItemFailures, 1)
	assert.Equal(t, "a", resp.BatchItemFailures[0].ItemIdentifier)
	assert.Empty(t, notifier.events)
}
