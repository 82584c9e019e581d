package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/trogers1052/congress-trades-service/internal/extract"
	"github.com/trogers1052/congress-trades-service/internal/models"
	"github.com/trogers1052/congress-trades-service/internal/prices"
)

// Store is the persistence surface the engine needs.
type Store interface {
	ExistingDocumentIDs(ctx context.Context, year int) (map[string]bool, error)
	InsertTrades(ctx context.Context, trades []*models.CongressTrade) error
	TradesAwaitingPrices(ctx context.Context, windowDays int) ([]*models.CongressTrade, error)
	FillMissingPrices(ctx context.Context, recordID int64, priceIn50, priceIn100 *decimal.Decimal) error
}

// IndexProvider returns the filing index for a year.
type IndexProvider interface {
	FilingIndex(ctx context.Context, year int) ([]models.Filing, error)
}

// DocumentProvider returns the extracted text of one filing.
type DocumentProvider interface {
	DocumentText(ctx context.Context, year int, documentID string) (string, error)
}

// Resolver enriches records with market prices and issuer metadata.
type Resolver interface {
	Resolve(ctx context.Context, ticker string, date time.Time) *prices.Resolution
	PriceAtOffset(ctx context.Context, ticker string, date time.Time, offsetDays int) (*decimal.Decimal, error)
}

// Publisher emits events after store writes. It may be nil.
type Publisher interface {
	PublishTradeRecorded(ctx context.Context, trade *models.CongressTrade) error
	PublishPricesFilled(ctx context.Context, recordID int64, ticker string) error
}

// Options tunes batching behavior.
type Options struct {
	DocumentBatch   int           // filings fetched between politeness pauses
	BatchPause      time.Duration // pause toward the disclosure site
	InsertBatch     int           // records per insert transaction
	EligibilityDays int           // incremental price window
}

// DefaultOptions mirrors the production configuration defaults.
func DefaultOptions() Options {
	return Options{
		DocumentBatch:   10,
		BatchPause:      time.Second,
		InsertBatch:     500,
		EligibilityDays: 200,
	}
}

// Engine drives both ingestion paths: the initial year load and the
// incremental run that picks up new filings and fills matured prices.
type Engine struct {
	index    IndexProvider
	docs     DocumentProvider
	resolver Resolver
	store    Store
	pub      Publisher
	policy   extract.TickerPolicy
	merge    MergePolicy
	opts     Options
	log      zerolog.Logger

	// now is swapped in tests to pin the maturity thresholds
	now func() time.Time
}

// NewEngine wires an engine with the default ticker and merge policies.
func NewEngine(index IndexProvider, docs DocumentProvider, resolver Resolver, store Store,
	pub Publisher, opts Options, log zerolog.Logger) *Engine {
	return &Engine{
		index:    index,
		docs:     docs,
		resolver: resolver,
		store:    store,
		pub:      pub,
		policy:   extract.DefaultTickerPolicy(),
		merge:    DefaultMergePolicy(),
		opts:     opts,
		log:      log,
		now:      time.Now,
	}
}

// InitialLoad ingests every filing of the year that is not already stored.
// The existing-id snapshot is taken once, before any document work, which is
// what makes a rerun after a crash skip the filings it already persisted.
func (e *Engine) InitialLoad(ctx context.Context, year int) error {
	existing, err := e.store.ExistingDocumentIDs(ctx, year)
	if err != nil {
		return err
	}

	filings, err := e.index.FilingIndex(ctx, year)
	if err != nil {
		return err
	}

	pending := make([]models.Filing, 0, len(filings))
	for _, f := range filings {
		if !existing[f.DocumentID] {
			pending = append(pending, f)
		}
	}
	e.log.Info().Int("year", year).Int("indexed", len(filings)).Int("pending", len(pending)).
		Msg("starting initial load")

	var batch []*models.CongressTrade
	for i, filing := range pending {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		trades, err := e.processFiling(ctx, filing.Year, filing.DocumentID)
		if err != nil {
			// one bad filing never aborts the run
			e.log.Warn().Err(err).Str("document_id", filing.DocumentID).Msg("skipping filing")
			continue
		}
		batch = append(batch, trades...)

		if len(batch) >= e.opts.InsertBatch {
			if err := e.insert(ctx, batch); err != nil {
				e.log.Error().Err(err).Int("records", len(batch)).Msg("insert batch failed")
			}
			batch = batch[:0]
		}

		if (i+1)%e.opts.DocumentBatch == 0 && i+1 < len(pending) {
			time.Sleep(e.opts.BatchPause)
		}
	}

	if len(batch) > 0 {
		if err := e.insert(ctx, batch); err != nil {
			e.log.Error().Err(err).Int("records", len(batch)).Msg("insert batch failed")
		}
	}
	return nil
}

// IngestNewFilings is the incremental counterpart of InitialLoad for the
// current year: each new filing is processed and inserted individually so a
// failure affects only that filing.
func (e *Engine) IngestNewFilings(ctx context.Context, year int) error {
	existing, err := e.store.ExistingDocumentIDs(ctx, year)
	if err != nil {
		return err
	}

	filings, err := e.index.FilingIndex(ctx, year)
	if err != nil {
		return err
	}

	for _, filing := range filings {
		if existing[filing.DocumentID] {
			continue
		}
		if _, err := e.ingestOne(ctx, filing.Year, filing.DocumentID); err != nil {
			e.log.Warn().Err(err).Str("document_id", filing.DocumentID).Msg("skipping filing")
		}
	}
	return nil
}

// IngestFiling processes a single filing on demand, skipping it when it is
// already stored. It returns the number of records inserted.
func (e *Engine) IngestFiling(ctx context.Context, year int, documentID string) (int, error) {
	existing, err := e.store.ExistingDocumentIDs(ctx, year)
	if err != nil {
		return 0, err
	}
	if existing[documentID] {
		e.log.Debug().Str("document_id", documentID).Msg("filing already ingested")
		return 0, nil
	}
	return e.ingestOne(ctx, year, documentID)
}

func (e *Engine) ingestOne(ctx context.Context, year int, documentID string) (int, error) {
	trades, err := e.processFiling(ctx, year, documentID)
	if err != nil {
		return 0, err
	}
	if len(trades) == 0 {
		return 0, nil
	}
	if err := e.insert(ctx, trades); err != nil {
		return 0, err
	}
	return len(trades), nil
}

// processFiling turns one filing into enriched, persistable records.
func (e *Engine) processFiling(ctx context.Context, year int, documentID string) ([]*models.CongressTrade, error) {
	text, err := e.docs.DocumentText(ctx, year, documentID)
	if err != nil {
		return nil, err
	}

	candidates := extract.Records(extract.Normalize(text), year, documentID)

	var trades []*models.CongressTrade
	for _, t := range candidates {
		if !e.policy.ValidRecord(t) {
			continue
		}

		res := e.resolver.Resolve(ctx, t.Ticker, *t.TransactionDate)
		t.AveragePrice = res.AveragePrice
		t.PriceIn50Days = res.PriceIn50Days
		t.PriceIn100Days = res.PriceIn100Days
		t.Industry = res.Industry
		t.Sector = res.Sector

		// enrichment failed entirely: drop now, a future run retries the filing
		if !t.Persistable() {
			continue
		}
		trades = append(trades, t)
	}
	return trades, nil
}

// UpdateMaturedPrices fills follow-up prices for records that crossed a
// maturity threshold today. A record is eligible for an offset exactly when
// its transaction date is that many days old and the price is still null;
// records older than the eligibility window are permanently left as they are.
func (e *Engine) UpdateMaturedPrices(ctx context.Context) error {
	rows, err := e.store.TradesAwaitingPrices(ctx, e.opts.EligibilityDays)
	if err != nil {
		return err
	}

	today := truncateToDay(e.now())
	matured50 := today.AddDate(0, 0, -prices.Offset50Days)
	matured100 := today.AddDate(0, 0, -prices.Offset100Days)

	for _, row := range rows {
		if row.TransactionDate == nil || row.Ticker == "" {
			continue
		}
		tradeDay := truncateToDay(*row.TransactionDate)

		var update PriceUpdate
		if tradeDay.Equal(matured50) && row.PriceIn50Days == nil {
			update.PriceIn50Days = e.resolveOffset(ctx, row, prices.Offset50Days)
		}
		if tradeDay.Equal(matured100) && row.PriceIn100Days == nil {
			update.PriceIn100Days = e.resolveOffset(ctx, row, prices.Offset100Days)
		}

		fill, ok := e.merge.Fill(row, update)
		if !ok {
			continue
		}

		if err := e.store.FillMissingPrices(ctx, row.RecordID, fill.PriceIn50Days, fill.PriceIn100Days); err != nil {
			e.log.Error().Err(err).Int64("record_id", row.RecordID).Msg("price fill failed")
			continue
		}
		if e.pub != nil {
			if err := e.pub.PublishPricesFilled(ctx, row.RecordID, row.Ticker); err != nil {
				e.log.Warn().Err(err).Int64("record_id", row.RecordID).Msg("prices-filled event not published")
			}
		}
	}
	return nil
}

func (e *Engine) resolveOffset(ctx context.Context, row *models.CongressTrade, offset int) *decimal.Decimal {
	price, err := e.resolver.PriceAtOffset(ctx, row.Ticker, *row.TransactionDate, offset)
	if err != nil {
		// leave the field null, the next run retries
		e.log.Warn().Err(err).Str("ticker", row.Ticker).Int("offset", offset).Msg("price lookup failed")
		return nil
	}
	return price
}

func (e *Engine) insert(ctx context.Context, trades []*models.CongressTrade) error {
	if err := e.store.InsertTrades(ctx, trades); err != nil {
		return err
	}
	e.log.Info().Int("records", len(trades)).Msg("inserted trade records")
	if e.pub != nil {
		for _, t := range trades {
			if err := e.pub.PublishTradeRecorded(ctx, t); err != nil {
				e.log.Warn().Err(err).Int64("record_id", t.RecordID).Msg("trade-recorded event not published")
			}
		}
	}
	return nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
