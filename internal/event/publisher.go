package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher emits audit events. Implementations must not block the request
// path on broker failures.
type Publisher interface {
	Publish(ctx context.Context, event AuthEvent)
}

// NopPublisher drops every event. It is used when RabbitMQ is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, AuthEvent) {}

type AuthEventPublisher struct {
	conn              *RabbitMQConnection
	messagesPublished atomic.Int64
	messagesFailed    atomic.Int64
}

// NewAuthEventPublisher declares the durable auth_events queue and returns a
// publisher bound to it.
func NewAuthEventPublisher(conn *RabbitMQConnection) (*AuthEventPublisher, error) {
	_, err := conn.Channel.QueueDeclare(
		AuthEventsQueue, // queue name
		true,            // durable
		false,           // delete when unused
		false,           // exclusive
		false,           // no-wait
		nil,             // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	return &AuthEventPublisher{conn: conn}, nil
}

// Publish sends the event and only logs on failure.
func (p *AuthEventPublisher) Publish(ctx context.Context, event AuthEvent) {
	if err := p.publish(ctx, event); err != nil {
		p.messagesFailed.Add(1)
		slog.Error("failed to publish auth event", "type", event.Type, "user_id", event.UserID, "error", err)
		return
	}
	p.messagesPublished.Add(1)
	slog.Info("Auth event published", "queue", AuthEventsQueue, "type", event.Type, "user_id", event.UserID)
}

func (p *AuthEventPublisher) publish(ctx context.Context, event AuthEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal auth event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	err = p.conn.Channel.PublishWithContext(
		ctx,
		"",              // exchange
		AuthEventsQueue, // routing key (queue name)
		false,           // mandatory
		false,           // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    event.ID,
			Body:         body,
			Timestamp:    event.OccurredAt,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish auth event: %w", err)
	}
	return nil
}

// Stats returns the published and failed message counts.
func (p *AuthEventPublisher) Stats() (published, failed int64) {
	return p.messagesPublished.Load(), p.messagesFailed.Load()
}
