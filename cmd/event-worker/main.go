// Package main is the entry point for the Outage Event Worker Lambda function.
//
// Producers that cannot call the HTTP API publish outage lifecycle events to
// an SQS queue. Each message body is an OutageEventMessage, e.g.
//
//	{"outage_id":"out_123","event":"cancelled"}
//
// Handler flow, per message:
//  1. Unmarshal the body. Malformed or unknown events are ACKed and dropped.
//  2. Load the outage. Unknown outages are ACKed; other load errors are
//     reported as batch item failures so SQS redelivers them.
//  3. Skip NEW and UPDATE for closed outages.
//  4. Fan out via the orchestrator and wait for the sends to finish before
//     the invocation returns.
//
// In local mode (APP_ENV=local) the SQS event JSON is read from stdin.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"outagealert/internal/app"
	"outagealert/internal/notifications/core"
	"outagealert/internal/types"
)

// OutageEventMessage is the SQS message body.
type OutageEventMessage struct {
	OutageID string `json:"outage_id"`
	Event    string `json:"event"`
}

// OutageGetter loads an outage by ID.
type OutageGetter interface {
	GetByID(ctx context.Context, id string) (*types.Outage, error)
}

// EventNotifier fans an outage event out to affected users.
type EventNotifier interface {
	SendEvent(ctx context.Context, outage *types.Outage, kind types.EventKind) *core.Batch
}

// Handler holds the dependencies for the event worker.
type Handler struct {
	outages  OutageGetter
	notifier EventNotifier
	logger   *slog.Logger
}

// Handle processes an SQS batch using partial batch responses.
func (h *Handler) Handle(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	response := events.SQSEventResponse{}

	for _, record := range sqsEvent.Records {
		if err := h.processMessage(ctx, record); err != nil {
			h.logger.ErrorContext(ctx, "failed to process SQS message",
				"message_id", record.MessageId,
				"error", err,
			)
			response.BatchItemFailures = append(response.BatchItemFailures,
				events.SQSBatchItemFailure{ItemIdentifier: record.MessageId},
			)
		}
	}

	return response, nil
}

func (h *Handler) processMessage(ctx context.Context, record events.SQSMessage) error {
	var msg OutageEventMessage
	if err := json.Unmarshal([]byte(record.Body), &msg); err != nil {
		h.logger.ErrorContext(ctx, "failed to unmarshal outage event",
			"message_id", record.MessageId,
			"error", err,
		)
		// Permanent parse failure - do not retry (return nil to ACK).
		return nil
	}

	kind, ok := types.ParseEventKind(msg.Event)
	if !ok || msg.OutageID == "" {
		h.logger.WarnContext(ctx, "dropping invalid outage event",
			"message_id", record.MessageId,
			"outage_id", msg.OutageID,
			"event", msg.Event,
		)
		return nil
	}

	logger := h.logger.With("outage_id", msg.OutageID, "event", string(kind))

	outage, err := h.outages.GetByID(ctx, msg.OutageID)
	if err != nil {
		if types.HasCode(err, types.ErrCodeNotFoundOutage) {
			logger.WarnContext(ctx, "outage not found, dropping event")
			return nil
		}
		return fmt.Errorf("load outage %s: %w", msg.OutageID, err)
	}

	if outage.Status.Terminal() && (kind == types.EventNew || kind == types.EventUpdate) {
		logger.WarnContext(ctx, "outage is closed, dropping event", "status", string(outage.Status))
		return nil
	}

	batch := h.notifier.SendEvent(ctx, outage, kind)
	if err := batch.Wait(ctx); err != nil {
		// Records exist; the retry job fails and resends anything left PENDING.
		logger.WarnContext(ctx, "invocation ended before sends finished", "error", err)
		return nil
	}

	sent, failed := batch.Counts()
	logger.InfoContext(ctx, "outage event processed",
		"users", batch.Users,
		"notifications", batch.Created,
		"skipped", batch.Skipped,
		"sent", sent,
		"failed", failed,
	)
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()
	cfg, awsCfg, logger, err := app.Bootstrap(ctx, "event-worker")
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, awsCfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	handler := &Handler{outages: a.Outages, notifier: a.Orchestrator, logger: logger}

	// Usage: echo '{"Records":[{"messageId":"1","body":"{...}"}]}' | go run ./cmd/event-worker
	if os.Getenv("APP_ENV") == "local" {
		logger.Info("APP_ENV=local: reading SQS event from stdin")
		payload, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		if len(payload) == 0 {
			return fmt.Errorf("no input received on stdin")
		}
		var sqsEvent events.SQSEvent
		if err := json.Unmarshal(payload, &sqsEvent); err != nil {
			return fmt.Errorf("parsing stdin as SQS event: %w", err)
		}
		response, err := handler.Handle(ctx, sqsEvent)
		if err != nil {
			return err
		}
		if len(response.BatchItemFailures) > 0 {
			logger.Warn("batch completed with failures", "failed_count", len(response.BatchItemFailures))
		}
		return nil
	}

	logger.Info("starting Lambda handler")
	lambda.Start(handler.Handle)
	return nil
}
