package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Checker-Finance/signal-exports/pkg/model"
)

// --- mock types ---

type mockJetStream struct {
	published []*nats.Msg
	fail      bool
}

func (m *mockJetStream) PublishMsg(msg *nats.Msg, _ ...nats.PubOpt) (*nats.PubAck, error) {
	if m.fail {
		return nil, errors.New("mock publish error")
	}
	m.published = append(m.published, msg)
	return &nats.PubAck{Stream: "mock-stream"}, nil
}

type published struct {
	exchange, key string
	msg           amqp.Publishing
}

type mockChannel struct {
	published []published
	fail      bool
	closed    bool
}

func (m *mockChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if m.fail {
		return errors.New("channel closed")
	}
	m.published = append(m.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (m *mockChannel) Close() error {
	m.closed = true
	return nil
}

type recordingPublisher struct {
	events []model.ExportEvent
	err    error
	closed bool
}

func (r *recordingPublisher) PublishExport(_ context.Context, ev model.ExportEvent) error {
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingPublisher) Close() error {
	r.closed = true
	return r.err
}

func sampleEvent(delivered bool) model.ExportEvent {
	return model.ExportEvent{
		ID:          uuid.New(),
		CycleID:     uuid.New(),
		Destination: "Collective2",
		Delivered:   delivered,
		Targets:     4,
		Timestamp:   time.Date(2024, 3, 8, 16, 0, 0, 0, time.UTC),
	}
}

// --- tests ---

func TestSubject(t *testing.T) {
	assert.Equal(t, "evt.signal_export.collective2.v1", Subject("Collective2"))
	assert.Equal(t, "evt.signal_export.numerai.v1", Subject("numerai"))
}

func TestNATSPublisher_PublishExport(t *testing.T) {
	js := &mockJetStream{}
	p := &NATSPublisher{js: js, service: "signal-exports", logger: zap.NewNop()}

	ev := sampleEvent(true)
	require.NoError(t, p.PublishExport(context.Background(), ev))
	require.Len(t, js.published, 1)

	msg := js.published[0]
	assert.Equal(t, "evt.signal_export.collective2.v1", msg.Subject)
	assert.Equal(t, ev.CycleID.String(), msg.Header.Get("correlation_id"))
	assert.Equal(t, "signal-exports", msg.Header.Get("service"))

	var got model.ExportEvent
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, ev.ID, got.ID)
	assert.True(t, got.Delivered)
	assert.Equal(t, 4, got.Targets)
}

func TestNATSPublisher_PublishFailure(t *testing.T) {
	p := &NATSPublisher{js: &mockJetStream{fail: true}, logger: zap.NewNop()}
	err := p.PublishExport(context.Background(), sampleEvent(true))
	assert.EqualError(t, err, "mock publish error")
}

func TestNATSPublisher_CloseWithoutConnection(t *testing.T) {
	p := &NATSPublisher{js: &mockJetStream{}}
	assert.NoError(t, p.Close())
}

func TestRabbitMQPublisher_PublishExport(t *testing.T) {
	ch := &mockChannel{}
	p := &RabbitMQPublisher{channel: ch, exchange: "signal-exports", logger: zap.NewNop()}

	ev := sampleEvent(false)
	ev.Reason = "targets rejected"
	require.NoError(t, p.PublishExport(context.Background(), ev))
	require.Len(t, ch.published, 1)

	pub := ch.published[0]
	assert.Equal(t, "signal-exports", pub.exchange)
	assert.Equal(t, "evt.signal_export.collective2.v1", pub.key)
	assert.Equal(t, "application/json", pub.msg.ContentType)
	assert.Equal(t, ev.ID.String(), pub.msg.MessageId)
	assert.Equal(t, uint8(10), pub.msg.Priority, "undelivered events are prioritised")

	var got model.ExportEvent
	require.NoError(t, json.Unmarshal(pub.msg.Body, &got))
	assert.Equal(t, "targets rejected", got.Reason)
}

func TestRabbitMQPublisher_DeliveredNormalPriority(t *testing.T) {
	ch := &mockChannel{}
	p := &RabbitMQPublisher{channel: ch, logger: zap.NewNop()}

	require.NoError(t, p.PublishExport(context.Background(), sampleEvent(true)))
	assert.Zero(t, ch.published[0].msg.Priority)
}

func TestRabbitMQPublisher_FailureAndClose(t *testing.T) {
	ch := &mockChannel{fail: true}
	p := &RabbitMQPublisher{channel: ch, logger: zap.NewNop()}

	assert.Error(t, p.PublishExport(context.Background(), sampleEvent(true)))
	assert.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestMulti(t *testing.T) {
	ok := &recordingPublisher{}
	bad := &recordingPublisher{err: errors.New("broker down")}
	m := Multi{bad, ok}

	err := m.PublishExport(context.Background(), sampleEvent(true))
	assert.ErrorContains(t, err, "broker down")
	assert.Len(t, ok.events, 1, "later brokers still receive the event")

	assert.Error(t, m.Close())
	assert.True(t, ok.closed)
}
