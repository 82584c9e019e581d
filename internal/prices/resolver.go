package prices

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// maxAttempts bounds the forward search for a trading day. A five-day window
// covers any weekend plus a market holiday.
const maxAttempts = 5

// Offsets are the calendar-day distances from the transaction date at which
// follow-up prices are measured.
const (
	OffsetAtDate  = 0
	Offset50Days  = 50
	Offset100Days = 100
)

// Profile holds the static issuer attributes attached to every record.
type Profile struct {
	Industry string `json:"industry"`
	Sector   string `json:"sector"`
}

// SeriesProvider returns the closing price observations recorded for a single
// calendar day. An empty slice means a non-trading day, not an error.
type SeriesProvider interface {
	DailyCloses(ctx context.Context, ticker string, day time.Time) ([]decimal.Decimal, error)
}

// ProfileProvider returns static issuer metadata for a ticker.
type ProfileProvider interface {
	Profile(ctx context.Context, ticker string) (*Profile, error)
}

// Resolution is the enrichment result for one (ticker, transaction date)
// pair. Any field may be nil; an all-nil resolution means the lookup failed
// and should be retried on a future run.
type Resolution struct {
	AveragePrice   *decimal.Decimal `json:"average_price,omitempty"`
	PriceIn50Days  *decimal.Decimal `json:"price_in_50_days,omitempty"`
	PriceIn100Days *decimal.Decimal `json:"price_in_100_days,omitempty"`
	Industry       *string          `json:"industry,omitempty"`
	Sector         *string          `json:"sector,omitempty"`
}

// Complete reports whether every field of the resolution was filled. Only
// complete resolutions are written to the cross-run cache, so partially
// matured records keep hitting the provider until their prices exist.
func (r *Resolution) Complete() bool {
	return r.AveragePrice != nil && r.PriceIn50Days != nil && r.PriceIn100Days != nil &&
		r.Industry != nil && r.Sector != nil
}

// Resolver maps a (ticker, transaction date) pair to closing prices at the
// three offsets plus issuer metadata. Resolutions are memoized for the life
// of the resolver so records sharing a ticker and trade date within one run
// reuse a single lookup, and complete resolutions are stored in the optional
// redis-backed cache across runs.
type Resolver struct {
	series   SeriesProvider
	profiles ProfileProvider
	cache    *QuoteCache
	log      zerolog.Logger

	mu   sync.Mutex
	seen map[string]*Resolution
}

// NewResolver creates a resolver. cache may be nil.
func NewResolver(series SeriesProvider, profiles ProfileProvider, cache *QuoteCache, log zerolog.Logger) *Resolver {
	return &Resolver{
		series:   series,
		profiles: profiles,
		cache:    cache,
		log:      log,
		seen:     make(map[string]*Resolution),
	}
}

// Resolve returns the enrichment for one ticker and transaction date. It
// never returns an error: any provider failure yields an all-nil resolution
// and the caller treats the missing fields as retryable.
func (r *Resolver) Resolve(ctx context.Context, ticker string, date time.Time) *Resolution {
	key := resolutionKey(ticker, date)

	r.mu.Lock()
	if res, ok := r.seen[key]; ok {
		r.mu.Unlock()
		return res
	}
	r.mu.Unlock()

	if r.cache != nil {
		if res, ok := r.cache.GetResolution(ctx, key); ok {
			r.remember(key, res)
			return res
		}
	}

	res := r.resolve(ctx, ticker, date)
	r.remember(key, res)
	if r.cache != nil && res.Complete() {
		r.cache.SetResolution(ctx, key, res)
	}
	return res
}

// PriceAtOffset resolves a single offset, used by the incremental update path
// where only one of the follow-up prices is still missing. A nil price with a
// nil error means no trading data existed within the search window.
func (r *Resolver) PriceAtOffset(ctx context.Context, ticker string, date time.Time, offsetDays int) (*decimal.Decimal, error) {
	return r.closeNear(ctx, ticker, date.AddDate(0, 0, offsetDays))
}

func (r *Resolver) resolve(ctx context.Context, ticker string, date time.Time) *Resolution {
	profile, err := r.profiles.Profile(ctx, ticker)
	if err != nil {
		r.log.Warn().Err(err).Str("ticker", ticker).Msg("profile lookup failed, leaving record unenriched")
		return &Resolution{}
	}

	res := &Resolution{}
	if profile.Industry != "" {
		res.Industry = &profile.Industry
	}
	if profile.Sector != "" {
		res.Sector = &profile.Sector
	}

	for _, offset := range []int{OffsetAtDate, Offset50Days, Offset100Days} {
		price, err := r.closeNear(ctx, ticker, date.AddDate(0, 0, offset))
		if err != nil {
			r.log.Warn().Err(err).Str("ticker", ticker).Int("offset", offset).
				Msg("price lookup failed, leaving record unenriched")
			return &Resolution{}
		}
		switch offset {
		case OffsetAtDate:
			res.AveragePrice = price
		case Offset50Days:
			res.PriceIn50Days = price
		case Offset100Days:
			res.PriceIn100Days = price
		}
	}
	return res
}

// closeNear finds the closing price on the first trading day at or after
// start. Multiple observations for one day are averaged.
func (r *Resolver) closeNear(ctx context.Context, ticker string, start time.Time) (*decimal.Decimal, error) {
	return searchForward(maxAttempts, start,
		func(day time.Time) time.Time { return day.AddDate(0, 0, 1) },
		func(day time.Time) (*decimal.Decimal, bool, error) {
			closes, err := r.series.DailyCloses(ctx, ticker, day)
			if err != nil {
				return nil, false, err
			}
			if len(closes) == 0 {
				return nil, false, nil
			}
			avg := mean(closes).Round(3)
			return &avg, true, nil
		})
}

// searchForward probes candidate values starting at start, advancing with
// step after each miss, for at most maxAttempts probes. Exhausting the
// attempts is a nil result, not an error; probe errors abort the search.
func searchForward(maxAttempts int, start time.Time, step func(time.Time) time.Time,
	probe func(time.Time) (*decimal.Decimal, bool, error)) (*decimal.Decimal, error) {

	candidate := start
	for attempt := 0; attempt < maxAttempts; attempt++ {
		value, found, err := probe(candidate)
		if err != nil {
			return nil, err
		}
		if found {
			return value, nil
		}
		candidate = step(candidate)
	}
	return nil, nil
}

func (r *Resolver) remember(key string, res *Resolution) {
	r.mu.Lock()
	r.seen[key] = res
	r.mu.Unlock()
}

func mean(values []decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	return sum.Div(decimal.NewFromInt(int64(len(values))))
}

func resolutionKey(ticker string, date time.Time) string {
	return ticker + ":" + date.Format("2006-01-02")
}
