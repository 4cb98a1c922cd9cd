package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/Checker-Finance/signal-exports/internal/metrics"
	"github.com/Checker-Finance/signal-exports/pkg/model"
)

const brokerRabbitMQ = "rabbitmq"

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQPublisher publishes export events to an exchange, routed by Subject.
type RabbitMQPublisher struct {
	conn     *amqp.Connection
	channel  amqpChannel
	exchange string
	logger   *zap.Logger
}

// NewRabbitMQ dials url and opens a channel. An empty exchange publishes to the
// default exchange, i.e. directly to a queue named after the routing key.
func NewRabbitMQ(url, exchange string, logger *zap.Logger) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RabbitMQPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		logger:   logger,
	}, nil
}

func (p *RabbitMQPublisher) PublishExport(ctx context.Context, ev model.ExportEvent) error {
	key := Subject(ev.Destination)
	body, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("rabbitmq.marshal_failed", zap.String("routing_key", key), zap.Error(err))
		metrics.IncEventPublishError(brokerRabbitMQ, key)
		return err
	}

	pub := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     ev.ID.String(),
		CorrelationId: ev.CycleID.String(),
		Timestamp:     ev.Timestamp,
		Body:          body,
	}
	// undelivered outcomes are high priority
	if !ev.Delivered {
		pub.Priority = 10
	}

	start := time.Now()
	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		key,
		false, // mandatory
		false, // immediate
		pub,
	)
	metrics.ObserveDuration(metrics.EventPublishLatency, start, brokerRabbitMQ)

	if err != nil {
		p.logger.Error("rabbitmq.publish_failed", zap.String("routing_key", key), zap.Error(err))
		metrics.IncEventPublishError(brokerRabbitMQ, key)
		return err
	}
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
