package disclosures

import (
	"archive/zip"
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/trogers1052/congress-trades-service/internal/models"
)

// electronicFilingPrefix marks the electronically filed periodic transaction
// reports; paper filings use other id ranges and have no parseable PDF.
const electronicFilingPrefix = "2"

// TextExtractor turns a filing PDF into plain text. PDF parsing itself is an
// external concern; implementations wrap a tool or library.
type TextExtractor interface {
	Text(pdf []byte) (string, error)
}

// Client fetches the clerk's yearly filing index and individual filing
// documents. Requests are rate limited toward the disclosure site.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	extractor  TextExtractor
}

// NewClient creates a disclosure site client.
func NewClient(baseURL string, requestsPerSecond float64, timeout time.Duration, extractor TextExtractor) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		extractor:  extractor,
	}
}

// FilingIndex downloads the yearly index archive and returns the filings
// eligible for ingestion.
func (c *Client) FilingIndex(ctx context.Context, year int) ([]models.Filing, error) {
	addr := fmt.Sprintf("%s/financial-pdfs/%dFD.zip", c.baseURL, year)
	body, err := c.fetch(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to download filing index for %d: %w", year, err)
	}

	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("filing index for %d is not a valid zip archive: %w", year, err)
	}

	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, ".txt") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open index member %s: %w", f.Name, err)
		}
		filings, err := parseIndex(rc, year)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse index member %s: %w", f.Name, err)
		}
		return filings, nil
	}
	return nil, fmt.Errorf("filing index archive for %d contains no .txt member", year)
}

// DocumentText fetches one filing PDF and extracts its text.
func (c *Client) DocumentText(ctx context.Context, year int, documentID string) (string, error) {
	addr := fmt.Sprintf("%s/ptr-pdfs/%d/%s.pdf", c.baseURL, year, documentID)
	pdf, err := c.fetch(ctx, addr)
	if err != nil {
		return "", fmt.Errorf("failed to download filing %s/%d: %w", documentID, year, err)
	}

	text, err := c.extractor.Text(pdf)
	if err != nil {
		return "", fmt.Errorf("failed to extract text from filing %s/%d: %w", documentID, year, err)
	}
	return text, nil
}

func (c *Client) fetch(ctx context.Context, addr string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	// the disclosure site rejects requests without a browser user agent
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// parseIndex reads the tab-delimited index table. The first line names the
// columns; only DocID and Year are used. Filings whose id does not carry the
// electronic filing prefix are dropped.
func parseIndex(r io.Reader, defaultYear int) ([]models.Filing, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		return nil, fmt.Errorf("index table is empty")
	}
	header := strings.Split(scanner.Text(), "\t")
	docCol, yearCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "DocID":
			docCol = i
		case "Year":
			yearCol = i
		}
	}
	if docCol < 0 {
		return nil, fmt.Errorf("index table has no DocID column")
	}

	var filings []models.Filing
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if docCol >= len(fields) {
			continue
		}
		docID := strings.TrimSpace(fields[docCol])
		if !strings.HasPrefix(docID, electronicFilingPrefix) {
			continue
		}

		year := defaultYear
		if yearCol >= 0 && yearCol < len(fields) {
			if y, err := strconv.Atoi(strings.TrimSpace(fields[yearCol])); err == nil {
				year = y
			}
		}
		filings = append(filings, models.Filing{Year: year, DocumentID: docID})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return filings, nil
}
