package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trogers1052/congress-trades-service/internal/models"
)

const tradeColumns = `record_id, year, document_id, representative, district,
	       transaction_type, ticker, transaction_date, notification_date, amount,
	       average_price, price_in_50_days, price_in_100_days, industry, sector, created_at`

// InsertTrades writes a batch of records inside one transaction. Duplicate
// protection happens upstream through the existing-document-id check, not
// through a uniqueness constraint, so the same batch must not be replayed.
func (db *DB) InsertTrades(ctx context.Context, trades []*models.CongressTrade) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO congress_trades (
			year, document_id, representative, district, transaction_type, ticker,
			transaction_date, notification_date, amount,
			average_price, price_in_50_days, price_in_100_days, industry, sector, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)
		RETURNING record_id
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, t := range trades {
		err := stmt.QueryRowContext(ctx,
			t.Year, t.DocumentID, nullString(t.Representative), nullString(t.District),
			nullString(t.TransactionType), nullString(t.Ticker),
			timeArg(t.TransactionDate), timeArg(t.NotificationDate), decimalArg(t.Amount),
			decimalArg(t.AveragePrice), decimalArg(t.PriceIn50Days), decimalArg(t.PriceIn100Days),
			stringArg(t.Industry), stringArg(t.Sector), now,
		).Scan(&t.RecordID)
		if err != nil {
			return fmt.Errorf("failed to insert trade for %s: %w", t.Ticker, err)
		}
		t.CreatedAt = now
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ExistingDocumentIDs returns the document ids already stored for a year
func (db *DB) ExistingDocumentIDs(ctx context.Context, year int) (map[string]bool, error) {
	query := `SELECT DISTINCT document_id FROM congress_trades WHERE year = $1`
	rows, err := db.conn.QueryContext(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing document ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan document id: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// TradesAwaitingPrices returns records inside the eligibility window whose
// 50-day or 100-day follow-up price is still missing
func (db *DB) TradesAwaitingPrices(ctx context.Context, windowDays int) ([]*models.CongressTrade, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM congress_trades
		WHERE transaction_date >= CURRENT_DATE - $1 * INTERVAL '1 day'
		  AND (price_in_50_days IS NULL OR price_in_100_days IS NULL)
		ORDER BY transaction_date ASC
	`, tradeColumns)
	return db.scanTrades(db.conn.QueryContext(ctx, query, windowDays))
}

// FillMissingPrices sets the follow-up prices only where they are currently
// null, keyed by the surrogate record id
func (db *DB) FillMissingPrices(ctx context.Context, recordID int64, priceIn50, priceIn100 *decimal.Decimal) error {
	query := `
		UPDATE congress_trades
		SET price_in_50_days  = COALESCE(price_in_50_days, $2),
		    price_in_100_days = COALESCE(price_in_100_days, $3)
		WHERE record_id = $1
	`
	result, err := db.conn.ExecContext(ctx, query, recordID, decimalArg(priceIn50), decimalArg(priceIn100))
	if err != nil {
		return fmt.Errorf("failed to fill prices for record %d: %w", recordID, err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("trade record not found: %d", recordID)
	}
	return nil
}

// GetTradesByTicker retrieves trades for a ticker, newest first
func (db *DB) GetTradesByTicker(ctx context.Context, ticker string, limit int) ([]*models.CongressTrade, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM congress_trades
		WHERE ticker = $1
		ORDER BY transaction_date DESC NULLS LAST
		LIMIT $2
	`, tradeColumns)
	return db.scanTrades(db.conn.QueryContext(ctx, query, ticker, limit))
}

// GetTradesByFiling retrieves every record extracted from one filing
func (db *DB) GetTradesByFiling(ctx context.Context, year int, documentID string) ([]*models.CongressTrade, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM congress_trades
		WHERE year = $1 AND document_id = $2
		ORDER BY record_id ASC
	`, tradeColumns)
	return db.scanTrades(db.conn.QueryContext(ctx, query, year, documentID))
}

// GetTradeByID retrieves a single record
func (db *DB) GetTradeByID(ctx context.Context, recordID int64) (*models.CongressTrade, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM congress_trades
		WHERE record_id = $1
	`, tradeColumns)

	trades, err := db.scanTrades(db.conn.QueryContext(ctx, query, recordID))
	if err != nil {
		return nil, err
	}
	if len(trades) == 0 {
		return nil, fmt.Errorf("trade record not found: %d", recordID)
	}
	return trades[0], nil
}

func (db *DB) scanTrades(rows *sql.Rows, err error) ([]*models.CongressTrade, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []*models.CongressTrade
	for rows.Next() {
		var t models.CongressTrade
		var representative, district, transactionType, ticker sql.NullString
		var transactionDate, notificationDate sql.NullTime
		var amount, averagePrice, priceIn50, priceIn100 sql.NullString
		var industry, sector sql.NullString

		err := rows.Scan(
			&t.RecordID, &t.Year, &t.DocumentID, &representative, &district,
			&transactionType, &ticker, &transactionDate, &notificationDate, &amount,
			&averagePrice, &priceIn50, &priceIn100, &industry, &sector, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}

		t.Representative = representative.String
		t.District = district.String
		t.TransactionType = transactionType.String
		t.Ticker = ticker.String
		if transactionDate.Valid {
			t.TransactionDate = &transactionDate.Time
		}
		if notificationDate.Valid {
			t.NotificationDate = &notificationDate.Time
		}
		t.Amount = parseNullDecimal(amount)
		t.AveragePrice = parseNullDecimal(averagePrice)
		t.PriceIn50Days = parseNullDecimal(priceIn50)
		t.PriceIn100Days = parseNullDecimal(priceIn100)
		if industry.Valid {
			t.Industry = &industry.String
		}
		if sector.Valid {
			t.Sector = &sector.String
		}

		trades = append(trades, &t)
	}

	return trades, rows.Err()
}

func parseNullDecimal(v sql.NullString) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return nil
	}
	return &d
}

func decimalArg(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return *d
}

func timeArg(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func stringArg(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
