package extract

import "github.com/trogers1052/congress-trades-service/internal/models"

// TickerPolicy decides which extracted ticker tokens are real symbols.
// The blocklist covers placeholder tokens that appear in parentheses in the
// filings but are not tickers.
type TickerPolicy struct {
	MaxLength int
	Blocklist map[string]bool
}

// DefaultTickerPolicy returns the policy used in production.
func DefaultTickerPolicy() TickerPolicy {
	return TickerPolicy{
		MaxLength: 10,
		Blocklist: map[string]bool{
			"PARTIAL":       true,
			"MERRILL LYNCH": true,
			`NOT A SALE--THE CONGRESSIONAL PTR SYSTEM DOES NOT HAVE AN "OTHER" TRANSACTION TYPE.`: true,
		},
	}
}

// ValidTicker reports whether the token passes the policy. Tickers are
// compared uppercase, which extraction already guarantees.
func (p TickerPolicy) ValidTicker(ticker string) bool {
	if ticker == "" || len(ticker) > p.MaxLength {
		return false
	}
	return !p.Blocklist[ticker]
}

// ValidRecord reports whether a candidate record is structurally usable:
// the ticker passes the policy, the transaction type is one of the known
// single-letter codes, and the transaction date and amount were captured.
// Price enrichment eligibility is checked separately after resolution.
func (p TickerPolicy) ValidRecord(t *models.CongressTrade) bool {
	if !p.ValidTicker(t.Ticker) {
		return false
	}
	switch t.TransactionType {
	case models.TransactionTypePurchase, models.TransactionTypeSale, models.TransactionTypeExchange:
	default:
		return false
	}
	return t.TransactionDate != nil && t.Amount != nil
}
