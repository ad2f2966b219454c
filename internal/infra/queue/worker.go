package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/pipeline-dashboard/internal/logger"
)

// Notifier sends the mails behind each message kind.
type Notifier interface {
	ClosingWon(ctx context.Context, msg Message) error
	RegistrationPending(ctx context.Context, msg Message) error
	AccountApproved(ctx context.Context, msg Message) error
}

type Worker struct {
	Channel  *amqp.Channel
	Notifier Notifier
	Log      logger.Logger
}

func NewWorker(ch *amqp.Channel, n Notifier, log logger.Logger) *Worker {
	return &Worker{Channel: ch, Notifier: n, Log: log}
}

// Start consumes queueName until ctx is done or the channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	w.Log.Info("worker waiting for messages", "queue", queueName)
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			if w.handle(ctx, d.Body) {
				_ = d.Ack(false)
			} else {
				// No requeue: failures land in the DLQ.
				_ = d.Nack(false, false)
			}
		}
	}
}

// handle reports whether the delivery should be acked.
func (w *Worker) handle(ctx context.Context, body []byte) bool {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		w.Log.Error("invalid message body", "error", err)
		return false
	}

	log := w.Log.With("kind", msg.Kind, "id", msg.ID)
	if err := w.processMessage(ctx, msg); err != nil {
		log.Error("notification failed", "error", err)
		return false
	}
	log.Debug("notification processed")
	return true
}

func (w *Worker) processMessage(ctx context.Context, msg Message) error {
	switch msg.Kind {
	case KindActivity:
		if msg.EventType == "closing" && msg.Result == "won" {
			return w.Notifier.ClosingWon(ctx, msg)
		}
		return nil
	case KindRegistrationPending:
		return w.Notifier.RegistrationPending(ctx, msg)
	case KindAccountApproved:
		return w.Notifier.AccountApproved(ctx, msg)
	default:
		// Unknown kinds are acked so they do not pile up in the DLQ.
		w.Log.Warn("unknown message kind", "kind", msg.Kind)
		return nil
	}
}
