package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/pipeline-dashboard/internal/logger"
)

type MessageKind string

const (
	KindActivity            MessageKind = "activity_recorded"
	KindRegistrationPending MessageKind = "registration_pending"
	KindAccountApproved     MessageKind = "account_approved"
)

// Message is the notification envelope. Activity messages carry the event
// fields; account messages only UserID.
type Message struct {
	ID         string      `json:"id"`
	Kind       MessageKind `json:"kind"`
	EventType  string      `json:"eventType,omitempty"`
	EventID    int64       `json:"eventId,omitempty"`
	Result     string      `json:"result,omitempty"`
	Units      float64     `json:"units,omitempty"`
	LeadID     *int64      `json:"leadId,omitempty"`
	UserID     int64       `json:"userId"`
	TeamID     *int64      `json:"teamId,omitempty"`
	OccurredAt time.Time   `json:"occurredAt"`
}

// NewMessage stamps a message with a fresh id.
func NewMessage(kind MessageKind, userID int64, at time.Time) Message {
	return Message{ID: uuid.NewString(), Kind: kind, UserID: userID, OccurredAt: at.UTC()}
}

type RabbitMQProducer struct {
	Ch *amqp.Channel
}

func NewProducer(ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) Publish(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    msg.ID,
			Timestamp:    msg.OccurredAt,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to RabbitMQ: %w", err)
	}
	return nil
}

// LogProducer stands in for RabbitMQ when no broker is configured.
type LogProducer struct {
	Log logger.Logger
}

func (p *LogProducer) Publish(_ context.Context, msg Message) error {
	p.Log.Info("notification not queued, no broker configured",
		"kind", msg.Kind, "id", msg.ID, "user_id", msg.UserID)
	return nil
}
