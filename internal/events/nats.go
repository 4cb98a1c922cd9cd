package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/Checker-Finance/signal-exports/internal/metrics"
	"github.com/Checker-Finance/signal-exports/pkg/model"
)

const brokerNATS = "nats"

// jetStream is the part of nats.JetStreamContext the publisher needs.
type jetStream interface {
	PublishMsg(m *nats.Msg, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// NATSPublisher publishes export events through JetStream.
type NATSPublisher struct {
	nc      *nats.Conn
	js      jetStream
	service string
	logger  *zap.Logger
}

// NewNATS creates a publisher on an established connection.
func NewNATS(nc *nats.Conn, service string, logger *zap.Logger) (*NATSPublisher, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSPublisher{nc: nc, js: js, service: service, logger: logger}, nil
}

func (p *NATSPublisher) PublishExport(ctx context.Context, ev model.ExportEvent) error {
	subject := Subject(ev.Destination)
	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("publisher.marshal_failed", zap.String("subject", subject), zap.Error(err))
		metrics.IncEventPublishError(brokerNATS, subject)
		return err
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"event_type":     []string{"signal_export.completed"},
			"correlation_id": []string{ev.CycleID.String()},
			"service":        []string{p.service},
			"content_type":   []string{"application/json"},
			"destination":    []string{ev.Destination},
		},
	}

	start := time.Now()
	_, err = p.js.PublishMsg(msg, nats.Context(ctx))
	metrics.ObserveDuration(metrics.EventPublishLatency, start, brokerNATS)

	if err != nil {
		p.logger.Error("publisher.publish_failed",
			zap.String("subject", subject),
			zap.String("cycle_id", ev.CycleID.String()),
			zap.Error(err))
		metrics.IncEventPublishError(brokerNATS, subject)
		return err
	}

	p.logger.Debug("publisher.publish_success",
		zap.String("subject", subject),
		zap.Bool("delivered", ev.Delivered))
	return nil
}

func (p *NATSPublisher) Close() error {
	if p.nc != nil && p.nc.IsConnected() {
		p.nc.Close()
	}
	return nil
}
