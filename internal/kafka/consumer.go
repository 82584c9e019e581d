package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/trogers1052/congress-trades-service/internal/models"
)

// FilingProcessor ingests one filing on demand. Implemented by the
// reconciliation engine.
type FilingProcessor interface {
	IngestFiling(ctx context.Context, year int, documentID string) (int, error)
}

// Consumer handles filing ingestion requests arriving on the filings topic.
type Consumer struct {
	reader    *kafka.Reader
	processor FilingProcessor
	log       zerolog.Logger
}

// NewConsumer creates a Kafka consumer for filing requests.
func NewConsumer(brokers []string, topic, groupID string, processor FilingProcessor, log zerolog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader:    reader,
		processor: processor,
		log:       log,
	}
}

// Start begins consuming messages from Kafka.
func (c *Consumer) Start(ctx context.Context) error {
	c.log.Info().Str("topic", c.reader.Config().Topic).Msg("starting kafka consumer")

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("kafka consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil // context cancelled, normal shutdown
				}
				c.log.Error().Err(err).Msg("error reading message")
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				// keep consuming, a bad request affects only itself
				c.log.Error().Err(err).Msg("error processing message")
			}
		}
	}
}

// processMessage handles a single filing request.
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var event models.FilingEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal filing event: %w", err)
	}

	if event.EventType != models.EventFilingRequested {
		c.log.Debug().Str("event_type", event.EventType).Msg("ignoring event")
		return nil
	}
	if event.DocumentID == "" || event.Year == 0 {
		return fmt.Errorf("filing event missing year or document id")
	}

	inserted, err := c.processor.IngestFiling(ctx, event.Year, event.DocumentID)
	if err != nil {
		return fmt.Errorf("failed to ingest filing %s/%d: %w", event.DocumentID, event.Year, err)
	}

	c.log.Info().Str("document_id", event.DocumentID).Int("year", event.Year).
		Int("records", inserted).Msg("ingested requested filing")
	return nil
}

// Close closes the Kafka consumer.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
