package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"outagealert/internal/types"
)

// DefaultSendTimeout bounds a single channel send.
const DefaultSendTimeout = 5 * time.Second

// Failure reasons produced by the dispatcher itself.
const (
	ReasonNoChannel = "channel not registered"
	ReasonTimeout   = "send timed out"
	ReasonPanic     = "channel panicked"
)

// Dispatcher sends messages through registered channels. Every dispatch is
// asynchronous, bounded by the send timeout and resolves to an Outcome.
type Dispatcher struct {
	registry *Registry
	timeout  time.Duration
	metrics  NotificationMetrics
	logger   types.Logger
}

// DispatcherConfig configures a Dispatcher. Zero values use defaults.
type DispatcherConfig struct {
	Registry    *Registry
	SendTimeout time.Duration
	Metrics     NotificationMetrics
	Logger      types.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Registry == nil {
		cfg.Registry = NewRegistry()
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NoopMetrics{}
	}
	if cfg.Logger == nil {
		cfg.Logger = types.NopLogger{}
	}
	return &Dispatcher{
		registry: cfg.Registry,
		timeout:  cfg.SendTimeout,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}
}

// Dispatch starts sending msg to the recipient over channel and returns
// immediately. Missing registrations, transport errors, panics and timeouts
// all resolve the Pending with a failed Outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, channel types.ChannelType, to Recipient, msg Message) *Pending {
	ch, ok := d.registry.Lookup(channel)
	if !ok {
		d.logger.Warn("no channel registered", "channel", string(channel), "notification_id", msg.NotificationID)
		d.metrics.RecordDelivery(ctx, channel, MetricFailed)
		return Resolved(Outcome{Channel: channel, Reason: ReasonNoChannel})
	}

	p := newPending()
	go d.run(ctx, ch, to, msg, p)
	return p
}

type deliverResult struct {
	providerID string
	err        error
}

func (d *Dispatcher) run(ctx context.Context, ch Channel, to Recipient, msg Message, p *Pending) {
	start := time.Now()
	channel := ch.Type()

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	// Buffered so a late transport never blocks after the timeout fires.
	resCh := make(chan deliverResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resCh <- deliverResult{err: fmt.Errorf("%s: %v", ReasonPanic, r)}
			}
		}()
		id, err := ch.Deliver(sendCtx, to, msg)
		resCh <- deliverResult{providerID: id, err: err}
	}()

	var out Outcome
	select {
	case res := <-resCh:
		out = Outcome{Channel: channel, Success: res.err == nil, ProviderMessageID: res.providerID}
		if res.err != nil {
			out.Reason = failureReason(res.err)
		}
	case <-sendCtx.Done():
		out = Outcome{Channel: channel, Reason: ReasonTimeout}
		if !errors.Is(sendCtx.Err(), context.DeadlineExceeded) {
			out.Reason = "send cancelled"
		}
	}
	out.Duration = time.Since(start)

	result := MetricSuccess
	if !out.Success {
		result = MetricFailed
		d.logger.Warn("channel send failed",
			"channel", string(channel),
			"notification_id", msg.NotificationID,
			"reason", out.Reason,
		)
	}
	d.metrics.RecordDelivery(ctx, channel, result)
	d.metrics.RecordLatency(ctx, channel, out.Duration)

	p.complete(out)
}

// failureReason turns a transport error into the persisted reason string.
func failureReason(err error) string {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		if appErr.Err != nil {
			return fmt.Sprintf("%s: %v", appErr.Message, appErr.Err)
		}
		return appErr.Message
	}
	return err.Error()
}
