package ingest

import (
	"github.com/shopspring/decimal"

	"github.com/trogers1052/congress-trades-service/internal/models"
)

// Column names governed by the merge policy.
const (
	ColPriceIn50Days  = "price_in_50_days"
	ColPriceIn100Days = "price_in_100_days"
)

// PriceUpdate carries the follow-up prices an incremental run resolved for
// one record.
type PriceUpdate struct {
	PriceIn50Days  *decimal.Decimal
	PriceIn100Days *decimal.Decimal
}

// MergePolicy lists which columns an incremental update may write and how.
// Fill-only columns accept a value only while the stored value is null; a
// populated field is never replaced.
type MergePolicy struct {
	fillOnly map[string]bool
}

// DefaultMergePolicy returns the production policy: both follow-up price
// columns are fill-only, nothing is overwrite-always.
func DefaultMergePolicy() MergePolicy {
	return MergePolicy{
		fillOnly: map[string]bool{
			ColPriceIn50Days:  true,
			ColPriceIn100Days: true,
		},
	}
}

// Fill returns the subset of incoming values the policy allows to be written
// to the stored record, and whether anything remains to write.
func (p MergePolicy) Fill(stored *models.CongressTrade, incoming PriceUpdate) (PriceUpdate, bool) {
	var out PriceUpdate

	if p.fillOnly[ColPriceIn50Days] && stored.PriceIn50Days == nil {
		out.PriceIn50Days = incoming.PriceIn50Days
	}
	if p.fillOnly[ColPriceIn100Days] && stored.PriceIn100Days == nil {
		out.PriceIn100Days = incoming.PriceIn100Days
	}

	return out, out.PriceIn50Days != nil || out.PriceIn100Days != nil
}
