// Package consumer reads schedule change events from Kafka so cached
// participant snapshots are reloaded when a grid is edited elsewhere.
package consumer

import (
	"context"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/meetmatch/libs/kafkax"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TopicScheduleUpdated carries one event per edited participant grid.
const TopicScheduleUpdated = "meetmatch.schedule.updated.v1"

type Handler func(ctx context.Context, msg kafka.Message) error

// Deduper records event ids and reports whether an id is new.
type Deduper interface {
	Record(ctx context.Context, eventID, eventType string) (bool, error)
}

// Invalidator drops a cached snapshot.
type Invalidator interface {
	Invalidate()
}

type Consumer struct {
	reader  *kafka.Reader
	logger  *slog.Logger
	inbox   Deduper
	handler Handler
}

type Config struct {
	Brokers string
	GroupID string
	Topic   string
}

// New returns nil when no brokers are configured.
func New(logger *slog.Logger, inbox Deduper, cfg Config, handler Handler) *Consumer {
	brokers := kafkax.SplitBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil
	}
	if cfg.Topic == "" {
		cfg.Topic = TopicScheduleUpdated
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{
		reader:  reader,
		logger:  logger,
		inbox:   inbox,
		handler: handler,
	}
}

func (c *Consumer) Run(ctx context.Context) {
	defer c.reader.Close()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("kafka read error", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		c.handle(ctx, msg)
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	ctxMsg := kafkax.ExtractTraceContext(ctx, msg)
	ctxSpan, span := otel.Tracer("kafka").Start(ctxMsg, "kafka.consume",
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
		),
	)
	defer span.End()

	meta := kafkax.ExtractEventMeta(msg)
	if c.inbox != nil && meta.EventID != "" {
		ok, err := c.inbox.Record(ctxSpan, meta.EventID, meta.EventType)
		if err != nil {
			c.logger.Error("inbox record failed", "err", err, "event_id", meta.EventID)
			span.RecordError(err)
			return
		}
		if !ok {
			c.logger.Info("duplicate event ignored", "event_id", meta.EventID, "event_type", meta.EventType)
			return
		}
	}

	if err := c.handler(ctxSpan, msg); err != nil {
		c.logger.Error("handler error", "err", err, "event_id", meta.EventID)
		span.RecordError(err)
	}
}

// InvalidateSnapshot is the handler for schedule change events. The payload
// is only logged; any edit forces a full reload on the next read.
func InvalidateSnapshot(store Invalidator, logger *slog.Logger) Handler {
	return func(_ context.Context, msg kafka.Message) error {
		store.Invalidate()
		logger.Info("schedule snapshot invalidated",
			"topic", msg.Topic,
			"participant_id", string(msg.Key),
		)
		return nil
	}
}
