package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trogers1052/congress-trades-service/internal/models"
	"github.com/trogers1052/congress-trades-service/internal/prices"
)

type fakeStore struct {
	existing map[string]bool
	inserted [][]*models.CongressTrade
	awaiting []*models.CongressTrade
	fills    []fillCall
}

type fillCall struct {
	recordID   int64
	priceIn50  *decimal.Decimal
	priceIn100 *decimal.Decimal
}

func (s *fakeStore) ExistingDocumentIDs(_ context.Context, _ int) (map[string]bool, error) {
	if s.existing == nil {
		return map[string]bool{}, nil
	}
	return s.existing, nil
}

func (s *fakeStore) InsertTrades(_ context.Context, trades []*models.CongressTrade) error {
	batch := make([]*models.CongressTrade, len(trades))
	copy(batch, trades)
	s.inserted = append(s.inserted, batch)
	return nil
}

func (s *fakeStore) TradesAwaitingPrices(_ context.Context, _ int) ([]*models.CongressTrade, error) {
	return s.awaiting, nil
}

func (s *fakeStore) FillMissingPrices(_ context.Context, recordID int64, p50, p100 *decimal.Decimal) error {
	s.fills = append(s.fills, fillCall{recordID: recordID, priceIn50: p50, priceIn100: p100})
	return nil
}

func (s *fakeStore) insertedRecords() []*models.CongressTrade {
	var all []*models.CongressTrade
	for _, batch := range s.inserted {
		all = append(all, batch...)
	}
	return all
}

type fakeIndex struct {
	filings []models.Filing
}

func (f *fakeIndex) FilingIndex(_ context.Context, _ int) ([]models.Filing, error) {
	return f.filings, nil
}

type fakeDocs struct {
	texts   map[string]string
	errs    map[string]error
	fetched []string
}

func (f *fakeDocs) DocumentText(_ context.Context, _ int, documentID string) (string, error) {
	f.fetched = append(f.fetched, documentID)
	if err := f.errs[documentID]; err != nil {
		return "", err
	}
	text, ok := f.texts[documentID]
	if !ok {
		return "", fmt.Errorf("no text for %s", documentID)
	}
	return text, nil
}

type fakeResolver struct {
	resolutions map[string]*prices.Resolution
	offsets     map[string]*decimal.Decimal
	offsetCalls []string
}

func (f *fakeResolver) Resolve(_ context.Context, ticker string, _ time.Time) *prices.Resolution {
	if res, ok := f.resolutions[ticker]; ok {
		return res
	}
	return &prices.Resolution{}
}

func (f *fakeResolver) PriceAtOffset(_ context.Context, ticker string, _ time.Time, offsetDays int) (*decimal.Decimal, error) {
	key := fmt.Sprintf("%s:%d", ticker, offsetDays)
	f.offsetCalls = append(f.offsetCalls, key)
	return f.offsets[key], nil
}

func enrichedResolution() *prices.Resolution {
	price := decimal.NewFromFloat(100.5)
	sector := "Technology"
	return &prices.Resolution{AveragePrice: &price, Sector: &sector}
}

func filingText(ticker string) string {
	return fmt.Sprintf("Hon. Jane Doe| TX04 Some Issuer (%s) P 01/15/2023 01/20/2023 $15,001 - $50,000 ", ticker)
}

func newTestEngine(store *fakeStore, index *fakeIndex, docs *fakeDocs, resolver *fakeResolver) *Engine {
	opts := DefaultOptions()
	opts.BatchPause = 0
	return NewEngine(index, docs, resolver, store, nil, opts, zerolog.Nop())
}

func TestEngineInitialLoad(t *testing.T) {
	t.Run("skips filings that are already stored", func(t *testing.T) {
		store := &fakeStore{existing: map[string]bool{"20002": true}}
		index := &fakeIndex{filings: []models.Filing{
			{Year: 2023, DocumentID: "20001"},
			{Year: 2023, DocumentID: "20002"},
			{Year: 2023, DocumentID: "20003"},
		}}
		docs := &fakeDocs{texts: map[string]string{
			"20001": filingText("AAPL"),
			"20003": filingText("MSFT"),
		}}
		resolver := &fakeResolver{resolutions: map[string]*prices.Resolution{
			"AAPL": enrichedResolution(),
			"MSFT": enrichedResolution(),
		}}
		engine := newTestEngine(store, index, docs, resolver)

		require.NoError(t, engine.InitialLoad(context.Background(), 2023))

		assert.Equal(t, []string{"20001", "20003"}, docs.fetched)
		require.Len(t, store.insertedRecords(), 2)
		assert.Equal(t, "AAPL", store.insertedRecords()[0].Ticker)
		assert.Equal(t, "MSFT", store.insertedRecords()[1].Ticker)
	})

	t.Run("one failing filing does not abort the run", func(t *testing.T) {
		store := &fakeStore{}
		index := &fakeIndex{filings: []models.Filing{
			{Year: 2023, DocumentID: "20001"},
			{Year: 2023, DocumentID: "20002"},
			{Year: 2023, DocumentID: "20003"},
		}}
		docs := &fakeDocs{
			texts: map[string]string{
				"20001": filingText("AAPL"),
				"20003": filingText("MSFT"),
			},
			errs: map[string]error{"20002": errors.New("pdf is garbage")},
		}
		resolver := &fakeResolver{resolutions: map[string]*prices.Resolution{
			"AAPL": enrichedResolution(),
			"MSFT": enrichedResolution(),
		}}
		engine := newTestEngine(store, index, docs, resolver)

		require.NoError(t, engine.InitialLoad(context.Background(), 2023))

		records := store.insertedRecords()
		require.Len(t, records, 2)
		assert.Equal(t, "AAPL", records[0].Ticker)
		assert.Equal(t, "MSFT", records[1].Ticker)
	})

	t.Run("invalid and unenriched records are dropped", func(t *testing.T) {
		store := &fakeStore{}
		index := &fakeIndex{filings: []models.Filing{{Year: 2023, DocumentID: "20001"}}}
		docs := &fakeDocs{texts: map[string]string{
			"20001": "Hon. Jane Doe| TX04 Fund (PARTIAL) P 01/15/2023 $1,001 " +
				"Issuer (AAPL) P 01/15/2023 01/20/2023 $15,001 " +
				"Obscure Corp (ZZZZ) P 01/15/2023 $1,001 ",
		}}
		// ZZZZ resolves to nothing, so it is not persistable
		resolver := &fakeResolver{resolutions: map[string]*prices.Resolution{
			"AAPL": enrichedResolution(),
		}}
		engine := newTestEngine(store, index, docs, resolver)

		require.NoError(t, engine.InitialLoad(context.Background(), 2023))

		records := store.insertedRecords()
		require.Len(t, records, 1)
		assert.Equal(t, "AAPL", records[0].Ticker)
	})

	t.Run("inserts in batches", func(t *testing.T) {
		store := &fakeStore{}
		index := &fakeIndex{filings: []models.Filing{
			{Year: 2023, DocumentID: "20001"},
			{Year: 2023, DocumentID: "20002"},
			{Year: 2023, DocumentID: "20003"},
		}}
		docs := &fakeDocs{texts: map[string]string{
			"20001": filingText("AAPL"),
			"20002": filingText("MSFT"),
			"20003": filingText("VTI"),
		}}
		resolver := &fakeResolver{resolutions: map[string]*prices.Resolution{
			"AAPL": enrichedResolution(),
			"MSFT": enrichedResolution(),
			"VTI":  enrichedResolution(),
		}}
		engine := newTestEngine(store, index, docs, resolver)
		engine.opts.InsertBatch = 2

		require.NoError(t, engine.InitialLoad(context.Background(), 2023))

		require.Len(t, store.inserted, 2)
		assert.Len(t, store.inserted[0], 2)
		assert.Len(t, store.inserted[1], 1)
	})
}

func TestEngineIngestFiling(t *testing.T) {
	t.Run("skips an already stored filing", func(t *testing.T) {
		store := &fakeStore{existing: map[string]bool{"20001": true}}
		docs := &fakeDocs{}
		engine := newTestEngine(store, &fakeIndex{}, docs, &fakeResolver{})

		inserted, err := engine.IngestFiling(context.Background(), 2023, "20001")

		require.NoError(t, err)
		assert.Zero(t, inserted)
		assert.Empty(t, docs.fetched)
	})

	t.Run("ingests a new filing and reports the record count", func(t *testing.T) {
		store := &fakeStore{}
		docs := &fakeDocs{texts: map[string]string{"20001": filingText("AAPL")}}
		resolver := &fakeResolver{resolutions: map[string]*prices.Resolution{"AAPL": enrichedResolution()}}
		engine := newTestEngine(store, &fakeIndex{}, docs, resolver)

		inserted, err := engine.IngestFiling(context.Background(), 2023, "20001")

		require.NoError(t, err)
		assert.Equal(t, 1, inserted)
		require.Len(t, store.insertedRecords(), 1)
	})
}

func TestEngineUpdateMaturedPrices(t *testing.T) {
	now := time.Date(2023, time.May, 1, 14, 30, 0, 0, time.UTC)
	matured50 := time.Date(2023, time.March, 12, 0, 0, 0, 0, time.UTC)  // now - 50 days
	matured100 := time.Date(2023, time.January, 21, 0, 0, 0, 0, time.UTC) // now - 100 days
	almostMatured := matured50.AddDate(0, 0, 1)

	price50 := decimal.NewFromFloat(151.5)
	price100 := decimal.NewFromFloat(160.25)
	alreadyStored := decimal.NewFromFloat(190)

	t.Run("fills the offsets that matured today", func(t *testing.T) {
		store := &fakeStore{awaiting: []*models.CongressTrade{
			{RecordID: 1, Ticker: "AAPL", TransactionDate: &matured50},
			{RecordID: 2, Ticker: "MSFT", TransactionDate: &almostMatured},
			{RecordID: 3, Ticker: "VTI", TransactionDate: &matured100, PriceIn50Days: &alreadyStored},
		}}
		resolver := &fakeResolver{offsets: map[string]*decimal.Decimal{
			"AAPL:50": &price50,
			"VTI:100": &price100,
		}}
		engine := newTestEngine(store, &fakeIndex{}, &fakeDocs{}, resolver)
		engine.now = func() time.Time { return now }

		require.NoError(t, engine.UpdateMaturedPrices(context.Background()))

		require.Len(t, store.fills, 2)

		assert.Equal(t, int64(1), store.fills[0].recordID)
		assert.Equal(t, &price50, store.fills[0].priceIn50)
		assert.Nil(t, store.fills[0].priceIn100)

		assert.Equal(t, int64(3), store.fills[1].recordID)
		assert.Nil(t, store.fills[1].priceIn50, "populated 50-day price is left alone")
		assert.Equal(t, &price100, store.fills[1].priceIn100)

		assert.Equal(t, []string{"AAPL:50", "VTI:100"}, resolver.offsetCalls,
			"the almost-matured record triggers no lookup")
	})

	t.Run("no store write when the lookup finds nothing", func(t *testing.T) {
		store := &fakeStore{awaiting: []*models.CongressTrade{
			{RecordID: 1, Ticker: "AAPL", TransactionDate: &matured50},
		}}
		resolver := &fakeResolver{} // every offset resolves to nil
		engine := newTestEngine(store, &fakeIndex{}, &fakeDocs{}, resolver)
		engine.now = func() time.Time { return now }

		require.NoError(t, engine.UpdateMaturedPrices(context.Background()))

		assert.Empty(t, store.fills)
	})

	t.Run("rows without a date or ticker are skipped", func(t *testing.T) {
		store := &fakeStore{awaiting: []*models.CongressTrade{
			{RecordID: 1, Ticker: "AAPL"},
			{RecordID: 2, TransactionDate: &matured50},
		}}
		resolver := &fakeResolver{}
		engine := newTestEngine(store, &fakeIndex{}, &fakeDocs{}, resolver)
		engine.now = func() time.Time { return now }

		require.NoError(t, engine.UpdateMaturedPrices(context.Background()))

		assert.Empty(t, resolver.offsetCalls)
		assert.Empty(t, store.fills)
	})
}
