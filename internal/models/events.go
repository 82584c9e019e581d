package models

import "time"

// Event type constants
const (
	EventTradeRecorded   = "TRADE_RECORDED"
	EventPricesFilled    = "PRICES_FILLED"
	EventFilingRequested = "FILING_REQUESTED"
)

// TradeEvent is published after a trade record is persisted or its
// follow-up prices are filled.
type TradeEvent struct {
	EventType string         `json:"event_type"`
	Trade     *CongressTrade `json:"trade,omitempty"`
	RecordID  int64          `json:"record_id,omitempty"`
	Ticker    string         `json:"ticker"`
	Timestamp time.Time      `json:"timestamp"`
}

// FilingEvent requests on-demand ingestion of a single filing.
type FilingEvent struct {
	EventType  string    `json:"event_type"`
	Year       int       `json:"year"`
	DocumentID string    `json:"document_id"`
	Timestamp  time.Time `json:"timestamp"`
}
