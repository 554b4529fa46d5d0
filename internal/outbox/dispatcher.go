// Package outbox delivers roster events to Kafka off the request path.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"example.com/mergington/internal/events"
)

// ErrBufferFull is returned by Publish when the dispatcher cannot accept more events.
var ErrBufferFull = errors.New("roster event buffer full")

// Header keys attached to every roster message.
const (
	HeaderEventType = "event_type"
	HeaderEventID   = "event_id"
)

type messageWriter interface {
	WriteMessages(context.Context, string, ...kafka.Message) error
}

// Dispatcher buffers roster events and writes them to a Kafka topic from a single goroutine.
type Dispatcher struct {
	producer         messageWriter
	topic            string
	queue            chan events.RosterChanged
	writeTimeout     time.Duration
	logger           *zap.Logger
	shutdownComplete chan struct{}
}

// NewDispatcher constructs a Dispatcher holding at most buffer pending events.
func NewDispatcher(producer messageWriter, topic string, buffer int, writeTimeout time.Duration, logger *zap.Logger) *Dispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		producer:         producer,
		topic:            topic,
		queue:            make(chan events.RosterChanged, buffer),
		writeTimeout:     writeTimeout,
		logger:           logger,
		shutdownComplete: make(chan struct{}),
	}
}

// Publish enqueues evt without blocking the caller.
func (d *Dispatcher) Publish(ctx context.Context, evt events.RosterChanged) error {
	select {
	case d.queue <- evt:
		return nil
	default:
		droppedCounter.Inc()
		return ErrBufferFull
	}
}

// Start runs the delivery loop until ctx is cancelled, then drains what is
// already buffered. ctx only signals shutdown; writes are bounded by the
// dispatcher's write timeout. It should be called in a goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	defer close(d.shutdownComplete)

	for {
		if ctx.Err() != nil {
			d.drain()
			return
		}
		select {
		case <-ctx.Done():
			d.drain()
			return
		case evt := <-d.queue:
			d.deliver(evt)
		}
	}
}

// Wait waits until the dispatcher stops.
func (d *Dispatcher) Wait() {
	<-d.shutdownComplete
}

func (d *Dispatcher) drain() {
	for {
		select {
		case evt := <-d.queue:
			d.deliver(evt)
		default:
			return
		}
	}
}

// deliver writes evt independently of the Start context so that an event
// taken off the queue during shutdown is still written.
func (d *Dispatcher) deliver(evt events.RosterChanged) {
	msg, err := EncodeMessage(evt)
	if err != nil {
		failedCounter.Inc()
		d.logger.Error("encode roster event", zap.String("event_id", evt.EventID), zap.Error(err))
		return
	}

	ctx := context.Background()
	if d.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.writeTimeout)
		defer cancel()
	}

	start := time.Now()
	err = d.producer.WriteMessages(ctx, d.topic, msg)
	deliveryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		failedCounter.Inc()
		d.logger.Error("publish roster event",
			zap.String("topic", d.topic),
			zap.String("event_id", evt.EventID),
			zap.String("event_type", evt.EventType),
			zap.Error(err),
		)
		return
	}
	deliveredCounter.Inc()
}

// EncodeMessage renders evt as a Kafka message keyed by activity name.
func EncodeMessage(evt events.RosterChanged) (kafka.Message, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal roster event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(evt.Activity),
		Value: payload,
		Time:  evt.OccurredAt,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(evt.EventType)},
			{Key: HeaderEventID, Value: []byte(evt.EventID)},
		},
	}, nil
}
