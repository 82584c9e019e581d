package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/trogers1052/congress-trades-service/internal/models"
)

// Producer publishes trade lifecycle events and filing ingestion requests.
type Producer struct {
	trades  *kafka.Writer
	filings *kafka.Writer
}

// NewProducer creates a producer writing to the trades and filings topics.
func NewProducer(brokers []string, tradesTopic, filingsTopic string) *Producer {
	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
		}
	}
	return &Producer{
		trades:  newWriter(tradesTopic),
		filings: newWriter(filingsTopic),
	}
}

// PublishTradeRecorded publishes an event after a trade record is inserted.
func (p *Producer) PublishTradeRecorded(ctx context.Context, trade *models.CongressTrade) error {
	event := models.TradeEvent{
		EventType: models.EventTradeRecorded,
		Trade:     trade,
		RecordID:  trade.RecordID,
		Ticker:    trade.Ticker,
		Timestamp: time.Now(),
	}
	return publish(ctx, p.trades, trade.Ticker, event)
}

// PublishPricesFilled publishes an event after follow-up prices are merged.
func (p *Producer) PublishPricesFilled(ctx context.Context, recordID int64, ticker string) error {
	event := models.TradeEvent{
		EventType: models.EventPricesFilled,
		RecordID:  recordID,
		Ticker:    ticker,
		Timestamp: time.Now(),
	}
	return publish(ctx, p.trades, ticker, event)
}

// PublishFilingRequested asks the consumer to ingest a single filing.
func (p *Producer) PublishFilingRequested(ctx context.Context, year int, documentID string) error {
	event := models.FilingEvent{
		EventType:  models.EventFilingRequested,
		Year:       year,
		DocumentID: documentID,
		Timestamp:  time.Now(),
	}
	return publish(ctx, p.filings, documentID, event)
}

func publish(ctx context.Context, writer *kafka.Writer, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}

// Close closes both writers.
func (p *Producer) Close() error {
	if err := p.trades.Close(); err != nil {
		return err
	}
	return p.filings.Close()
}
