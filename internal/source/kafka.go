package source

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sethvargo/go-retry"

	"github.com/verdantiq/analytics/internal/domain"
	"github.com/verdantiq/analytics/internal/ingest"
)

// QueueConsumer subscribes to the metric topic and continuously stages
// decoded events in per-metric buffers. Snapshot builds only read the
// buffers; they never coordinate with the consumer goroutine directly.
type QueueConsumer struct {
	reader     *kafka.Reader
	decoder    *ingest.Decoder
	normalizer *ingest.Normalizer
	buffers    *eventBuffers
	logger     *slog.Logger
	healthy    atomic.Bool
	ingested   func(source string)
	dropped    func(source string)
}

// QueueConfig carries the broker subscription settings.
type QueueConfig struct {
	Brokers        []string
	Topic          string
	GroupID        string
	BufferCapacity int
}

// NewQueueConsumer builds a consumer, or nil when no brokers are configured.
func NewQueueConsumer(cfg QueueConfig, decoder *ingest.Decoder, normalizer *ingest.Normalizer, logger *slog.Logger, ingested, dropped func(source string)) *QueueConsumer {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil
	}
	if logger != nil {
		logger = logger.With("component", "queue_consumer", "topic", cfg.Topic)
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		MinBytes:    1,
		MaxBytes:    1 << 20,
		MaxWait:     2 * time.Second,
		StartOffset: kafka.LastOffset,
	})
	return &QueueConsumer{
		reader:     reader,
		decoder:    decoder,
		normalizer: normalizer,
		buffers:    newEventBuffers(cfg.BufferCapacity),
		logger:     logger,
		ingested:   ingested,
		dropped:    dropped,
	}
}

// Name identifies the adapter in health output.
func (c *QueueConsumer) Name() string { return "queue" }

// Healthy reports whether the last fetch from the broker succeeded.
func (c *QueueConsumer) Healthy() bool { return c != nil && c.healthy.Load() }

// Run consumes messages until the context is cancelled, reconnecting with
// capped exponential backoff. A broken connection only marks the adapter
// unhealthy; it never surfaces to snapshot builds.
func (c *QueueConsumer) Run(ctx context.Context) {
	if c == nil {
		return
	}
	backoff := retry.WithCappedDuration(30*time.Second, retry.NewExponential(time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := c.consume(ctx); err != nil {
			c.healthy.Store(false)
			if c.logger != nil {
				c.logger.Warn("queue consume failed, backing off", "error", err)
			}
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) && c.logger != nil {
		c.logger.Warn("queue consumer stopped", "error", err)
	}
}

func (c *QueueConsumer) consume(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		c.healthy.Store(true)
		c.stage(msg.Value)
	}
}

// stage decodes one message value and buffers whatever normalizes cleanly.
// Schema-registry decode is best effort; failure degrades to the text path
// within the same message-processing step.
func (c *QueueConsumer) stage(value []byte) {
	var raws []map[string]any
	if decoded := c.decoder.Decode(value); decoded != nil {
		raws = []map[string]any{decoded}
	} else {
		raws = ingest.DecodeText(value)
	}
	for _, raw := range raws {
		event, ok := c.normalizer.Normalize(raw)
		if !ok {
			if c.dropped != nil {
				c.dropped(c.Name())
			}
			continue
		}
		c.buffers.add(event)
		if c.ingested != nil {
			c.ingested(c.Name())
		}
	}
}

// Fetch reads the staged buffers. It reports ok=false until the consumer has
// reached the broker at least once, so builds skip straight to the next
// adapter instead of waiting on a dead connection.
func (c *QueueConsumer) Fetch(_ context.Context) ([]domain.CanonicalEvent, bool) {
	if c == nil || !c.healthy.Load() {
		return nil, false
	}
	return c.buffers.all(), true
}

// Close releases the underlying reader.
func (c *QueueConsumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}
