package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Kind names a lifecycle signal. Signals exist for external observers
// (indexers, UIs) to reconstruct history; nothing in the backend consumes them.
type Kind string

const (
	KindJobCreated      Kind = "job.created"
	KindJobClaimed      Kind = "job.claimed"
	KindJobCompleted    Kind = "job.completed"
	KindPaymentReleased Kind = "payment.released"
	KindJobCancelled    Kind = "job.cancelled"
	KindWriterRated     Kind = "writer.rated"
	KindFeeUpdated      Kind = "fee.updated"
	KindFeesSwept       Kind = "fees.swept"
)

// Event carries the job id and identities relevant to one signal.
type Event struct {
	Kind        Kind       `json:"kind"`
	JobID       *int64     `json:"job_id,omitempty"`
	ClientID    *uuid.UUID `json:"client_id,omitempty"`
	WriterID    *uuid.UUID `json:"writer_id,omitempty"`
	ActorID     *uuid.UUID `json:"actor_id,omitempty"`
	AmountCents *int64     `json:"amount_cents,omitempty"`
	Rating      *int       `json:"rating,omitempty"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

// Emitter publishes an event as part of the caller's transaction, so a signal
// is only observable if the operation that produced it committed.
type Emitter interface {
	EmitTx(ctx context.Context, tx pgx.Tx, ev Event) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ctx context.Context, tx pgx.Tx, ev Event) error

func (f EmitterFunc) EmitTx(ctx context.Context, tx pgx.Tx, ev Event) error {
	return f(ctx, tx, ev)
}

// LogEmitter writes each event as a structured log line.
type LogEmitter struct {
	Log *slog.Logger
}

func NewLogEmitter(log *slog.Logger) *LogEmitter {
	if log == nil {
		log = slog.Default()
	}
	return &LogEmitter{Log: log}
}

func (e *LogEmitter) EmitTx(_ context.Context, _ pgx.Tx, ev Event) error {
	attrs := []any{"kind", string(ev.Kind)}
	if ev.JobID != nil {
		attrs = append(attrs, "job_id", *ev.JobID)
	}
	if ev.ActorID != nil {
		attrs = append(attrs, "actor_id", ev.ActorID.String())
	}
	if ev.AmountCents != nil {
		attrs = append(attrs, "amount_cents", *ev.AmountCents)
	}
	e.Log.Info("event", attrs...)
	return nil
}

// Fanout emits to every element in order and stops at the first error.
type Fanout []Emitter

func (f Fanout) EmitTx(ctx context.Context, tx pgx.Tx, ev Event) error {
	for _, e := range f {
		if err := e.EmitTx(ctx, tx, ev); err != nil {
			return err
		}
	}
	return nil
}
