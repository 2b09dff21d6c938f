package mq

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Trinity/internal/telemetry"
)

type ackResult struct {
	acked    bool
	nacked   bool
	requeued bool
}

// fakeAcknowledger записывает решение consumer по доставке.
type fakeAcknowledger struct {
	result ackResult
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.result.acked = true
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	f.result.nacked = true
	f.result.requeued = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return f.Nack(tag, false, requeue)
}

func newTestConsumer(h Handler) *Consumer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewConsumer(nil, logger, ConsumerConfig{Queue: string(QueueVersionCreated), Handler: h})
}

func deliver(t *testing.T, c *Consumer, body []byte) ackResult {
	t.Helper()
	ack := &fakeAcknowledger{}
	c.handleDelivery(context.Background(), amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: body})
	return ack.result
}

func versionCreatedBody(t *testing.T, payload any) []byte {
	t.Helper()
	body, err := json.Marshal(NewMessage(MessageTypeVersionCreated, payload))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return body
}

func TestConsumer_AcksOnSuccess(t *testing.T) {
	processID := uuid.New()
	var got VersionCreatedPayload

	c := newTestConsumer(func(ctx context.Context, d *Delivery) error {
		var err error
		got, err = ParsePayload[VersionCreatedPayload](&d.Message)
		return err
	})

	res := deliver(t, c, versionCreatedBody(t, VersionCreatedPayload{ProcessID: processID, Version: 3}))

	if !res.acked || res.nacked {
		t.Errorf("expected ack, got %+v", res)
	}
	if got.ProcessID != processID || got.Version != 3 {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestConsumer_DropAcks(t *testing.T) {
	c := newTestConsumer(func(ctx context.Context, d *Delivery) error {
		return Drop(errors.New("bad payload"))
	})

	res := deliver(t, c, versionCreatedBody(t, map[string]any{"process_id": "nope"}))

	if !res.acked || res.nacked {
		t.Errorf("expected ack for dropped message, got %+v", res)
	}
}

func TestConsumer_HandlerErrorRequeues(t *testing.T) {
	c := newTestConsumer(func(ctx context.Context, d *Delivery) error {
		return errors.New("db down")
	})

	res := deliver(t, c, versionCreatedBody(t, VersionCreatedPayload{ProcessID: uuid.New(), Version: 1}))

	if !res.nacked || !res.requeued {
		t.Errorf("expected nack with requeue, got %+v", res)
	}
}

func TestConsumer_BadEnvelopeGoesToDLQ(t *testing.T) {
	called := false
	c := newTestConsumer(func(ctx context.Context, d *Delivery) error {
		called = true
		return nil
	})

	res := deliver(t, c, []byte("{not json"))

	if called {
		t.Error("handler should not be called for a broken envelope")
	}
	if !res.nacked || res.requeued {
		t.Errorf("expected nack without requeue, got %+v", res)
	}
}

func TestConsumer_CountsOutcomes(t *testing.T) {
	queue := string(QueueVersionCreated)
	counter := func(outcome string) float64 {
		return testutil.ToFloat64(telemetry.EventsConsumedTotal.WithLabelValues(queue, outcome))
	}
	beforeDrop, beforeDLQ := counter("drop"), counter("dead_letter")

	c := newTestConsumer(func(ctx context.Context, d *Delivery) error {
		return Drop(errors.New("stale"))
	})
	deliver(t, c, versionCreatedBody(t, VersionCreatedPayload{ProcessID: uuid.New(), Version: 1}))
	deliver(t, c, []byte("garbage"))

	if got := counter("drop") - beforeDrop; got != 1 {
		t.Errorf("expected 1 dropped, got %v", got)
	}
	if got := counter("dead_letter") - beforeDLQ; got != 1 {
		t.Errorf("expected 1 dead-lettered, got %v", got)
	}
}

func TestParsePayload_TypeMismatch(t *testing.T) {
	msg := &Message{Payload: map[string]any{"version": "three"}}

	if _, err := ParsePayload[VersionCreatedPayload](msg); err == nil {
		t.Error("expected error for mismatched payload")
	}
}

func TestDrop(t *testing.T) {
	cause := errors.New("cause")
	err := Drop(cause)

	if !errors.Is(err, ErrDropped) || !errors.Is(err, cause) {
		t.Errorf("Drop should wrap both marker and cause, got %v", err)
	}
}
