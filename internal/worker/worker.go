// Package worker provides async transfer processing off the event bus.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/pipeline"
)

// Worker consumes transfers published to the event bus and runs each
// one through the review pipeline. Results and notifications are
// emitted by the pipeline itself.
type Worker struct {
	bus      domain.EventBus
	pipeline *pipeline.Pipeline

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewWorker creates a new async worker.
func NewWorker(bus domain.EventBus, p *pipeline.Pipeline) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:      bus,
		pipeline: p,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start subscribes to the transfer received topic.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicTransferReceived, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("worker started", "topic", domain.TopicTransferReceived)
	return nil
}

// handleMessage parses a transfer message and runs the pipeline.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	start := time.Now()

	var t domain.Transfer
	if err := json.Unmarshal(msg.Payload, &t); err != nil {
		slog.Error("failed to parse transfer message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	w.wg.Add(1)
	defer w.wg.Done()

	result := w.pipeline.Process(ctx, &t)

	logAttrs := []any{
		"transfer_id", t.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if result.Err != "" {
		logAttrs = append(logAttrs, "error", result.Err)
	}
	slog.Info("async transfer processed", logAttrs...)

	return nil
}

// Stop gracefully stops the worker, waiting for in-flight transfers.
func (w *Worker) Stop() error {
	w.cancel()

	// Unsubscribe all
	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("worker stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
