package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trogers1052/congress-trades-service/internal/models"
)

var (
	reTicker = regexp.MustCompile(`\(([^)]+)\)`)
	reType   = regexp.MustCompile(`\b([PpSsEe])\b`)
	reDate   = regexp.MustCompile(`\d{2}/\d{1,2}/\d{4}`)
	reAmount = regexp.MustCompile(`\$(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)`)

	// first 4-character token after the name/district delimiter
	reDistrict = regexp.MustCompile(`\|\s*(\S{4})`)
)

const dateLayout = "1/2/2006"

// Records extracts candidate trade records from normalized filing text.
// Every parenthesized token is treated as a ticker marker; the text between
// one marker and the next is the detail span describing that transaction, so
// k markers always yield k records paired positionally with their spans.
// Records with missing body fields are still emitted; validation downstream
// decides what survives.
func Records(text string, year int, documentID string) []*models.CongressTrade {
	markers := reTicker.FindAllStringSubmatchIndex(text, -1)
	if len(markers) == 0 {
		return nil
	}

	representative := ""
	if i := strings.Index(text, "|"); i >= 0 {
		representative = strings.TrimSpace(text[:i])
	}
	district := ""
	if m := reDistrict.FindStringSubmatch(text); m != nil {
		district = m[1]
	}

	records := make([]*models.CongressTrade, 0, len(markers))
	for i, m := range markers {
		ticker := text[m[2]:m[3]]

		spanEnd := len(text)
		if i+1 < len(markers) {
			spanEnd = markers[i+1][0]
		}
		span := text[m[1]:spanEnd]

		record := &models.CongressTrade{
			Year:           year,
			DocumentID:     documentID,
			Representative: representative,
			District:       district,
			Ticker:         strings.ToUpper(ticker),
		}
		fillSpanFields(record, span)
		records = append(records, record)
	}
	return records
}

// fillSpanFields captures transaction type, dates and amount from one detail
// span. Only the first amount and the first two dates are used; the filings
// describe amount ranges but the low bound is the figure recorded.
func fillSpanFields(record *models.CongressTrade, span string) {
	if m := reType.FindStringSubmatch(span); m != nil {
		record.TransactionType = strings.ToUpper(m[1])
	}

	dates := reDate.FindAllString(span, 2)
	if len(dates) >= 1 {
		if d, err := time.Parse(dateLayout, dates[0]); err == nil {
			record.TransactionDate = &d
		}
	}
	if len(dates) >= 2 {
		if d, err := time.Parse(dateLayout, dates[1]); err == nil {
			record.NotificationDate = &d
		}
	}

	if m := reAmount.FindStringSubmatch(span); m != nil {
		raw := strings.ReplaceAll(m[1], ",", "")
		if amount, err := decimal.NewFromString(raw); err == nil {
			record.Amount = &amount
		}
	}
}
