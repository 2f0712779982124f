package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"

	"github.com/scriptorium/backend/internal/events"
)

// EventDeliveryArgs is one lifecycle signal queued for webhook delivery.
type EventDeliveryArgs struct {
	WebhookURL string       `json:"webhook_url"`
	Event      events.Event `json:"event"`
}

func (EventDeliveryArgs) Kind() string { return "event_delivery" }

// InsertTxFunc enqueues an event delivery within the given transaction.
// Provided by main using river.Client.InsertTx.
type InsertTxFunc func(ctx context.Context, tx pgx.Tx, args EventDeliveryArgs) error

// Emitter is a transactional outbox: the delivery job is inserted in the same
// transaction as the lifecycle operation, so observers only ever see signals
// for committed operations.
type Emitter struct {
	webhookURL string
	insert     InsertTxFunc
}

func NewEmitter(webhookURL string, insert InsertTxFunc) *Emitter {
	return &Emitter{webhookURL: webhookURL, insert: insert}
}

func (e *Emitter) EmitTx(ctx context.Context, tx pgx.Tx, ev events.Event) error {
	return e.insert(ctx, tx, EventDeliveryArgs{WebhookURL: e.webhookURL, Event: ev})
}

// EventDeliveryWorker POSTs event payloads to the configured observer webhook.
type EventDeliveryWorker struct {
	river.WorkerDefaults[EventDeliveryArgs]
	httpClient *http.Client
}

func NewEventDeliveryWorker() *EventDeliveryWorker {
	return &EventDeliveryWorker{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (w *EventDeliveryWorker) Work(ctx context.Context, job *river.Job[EventDeliveryArgs]) error {
	body, err := json.Marshal(job.Args.Event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, job.Args.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deliver event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("observer returned status %d", resp.StatusCode)
	}
	return nil
}
