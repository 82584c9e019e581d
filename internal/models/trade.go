package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction type constants (single-letter codes used in the filings)
const (
	TransactionTypePurchase = "P"
	TransactionTypeSale     = "S"
	TransactionTypeExchange = "E"
)

// CongressTrade represents one stock transaction extracted from a periodic
// transaction report. A single filing yields one CongressTrade per ticker it
// mentions, so (Year, DocumentID) is not unique; RecordID is the surrogate key.
type CongressTrade struct {
	RecordID         int64            `json:"record_id"`
	Year             int              `json:"year"`
	DocumentID       string           `json:"document_id"`
	Representative   string           `json:"representative,omitempty"`
	District         string           `json:"district,omitempty"`
	TransactionType  string           `json:"transaction_type,omitempty"`
	Ticker           string           `json:"ticker,omitempty"`
	TransactionDate  *time.Time       `json:"transaction_date,omitempty"`
	NotificationDate *time.Time       `json:"notification_date,omitempty"`
	Amount           *decimal.Decimal `json:"amount,omitempty"`
	AveragePrice     *decimal.Decimal `json:"average_price,omitempty"`
	PriceIn50Days    *decimal.Decimal `json:"price_in_50_days,omitempty"`
	PriceIn100Days   *decimal.Decimal `json:"price_in_100_days,omitempty"`
	Industry         *string          `json:"industry,omitempty"`
	Sector           *string          `json:"sector,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// Persistable reports whether the record carries enough data to be stored:
// the transaction date and amount must be present, and price enrichment must
// have produced at least one of average price or sector.
func (t *CongressTrade) Persistable() bool {
	if t.TransactionDate == nil || t.Amount == nil {
		return false
	}
	return t.AveragePrice != nil || t.Sector != nil
}
