package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type Publisher interface {
	PublishOrderCompleted(ctx context.Context, env Envelope[OrderCompleted]) error
	Close() error
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderCompleted(context.Context, Envelope[OrderCompleted]) error {
	return nil
}

func (NopPublisher) Close() error { return nil }

type RabbitPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	log  *zap.Logger
}

// Dial connects to url and returns a publisher owning the connection.
func Dial(url string, logger *zap.Logger) (*RabbitPublisher, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	p, err := NewRabbitPublisher(conn, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func NewRabbitPublisher(conn *amqp.Connection, logger *zap.Logger) (*RabbitPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareEventsExchange(ch); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare %s: %w", EventsExchange, err)
	}
	return &RabbitPublisher{ch: ch, log: logger}, nil
}

func (p *RabbitPublisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (p *RabbitPublisher) PublishOrderCompleted(ctx context.Context, env Envelope[OrderCompleted]) error {
	if err := env.Validate(OrderCompletedEventName, OrderCompletedVersion); err != nil {
		return fmt.Errorf("invalid %s envelope: %w", OrderCompletedEventName, err)
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", OrderCompletedEventName, err)
	}
	if err := p.publishJSON(ctx, OrderCompletedRoutingKey, env, body); err != nil {
		return fmt.Errorf("publish %s: %w", OrderCompletedEventName, err)
	}
	p.log.Info("event published",
		zap.String("event", env.EventName),
		zap.String("event_id", env.EventID),
		zap.String("correlation_id", env.CorrelationID))
	return nil
}

func (p *RabbitPublisher) publishJSON(ctx context.Context, routingKey string, env Envelope[OrderCompleted], body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			MessageId:     env.EventID,
			CorrelationId: env.CorrelationID,
			Timestamp:     env.OccurredAt,
			Body:          body,
		},
	)
}
