package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopipet/chatkit/internal/core"
	"github.com/shopipet/chatkit/internal/logger"
)

// SheetsSource reads product rows from a Google Sheets values range. Row 1 of
// the sheet carries the (possibly localized) column headers; the configured
// range carries the data rows.
type SheetsSource struct {
	spreadsheetID string
	dataRange     string
	apiKey        string
	baseURL       string
	httpClient    *http.Client
}

// SheetsConfig configures a SheetsSource.
type SheetsConfig struct {
	SpreadsheetID string
	// Range is the data range without headers, e.g. "Sheet1!A2:R".
	Range   string
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewSheetsSource creates a spreadsheet product source.
func NewSheetsSource(cfg SheetsConfig) (*SheetsSource, error) {
	if cfg.SpreadsheetID == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: spreadsheet ID and API key are required", core.ErrSourceUnavailable)
	}
	if cfg.Range == "" {
		cfg.Range = "Sheet1!A2:R"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://sheets.googleapis.com/v4"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	return &SheetsSource{
		spreadsheetID: cfg.SpreadsheetID,
		dataRange:     cfg.Range,
		apiKey:        cfg.APIKey,
		baseURL:       strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient:    &http.Client{Timeout: t},
	}, nil
}

// FetchProducts reads the header row and the data range and maps every row
// onto the canonical schema. Rows without a product name are dropped.
func (s *SheetsSource) FetchProducts(ctx context.Context) ([]core.ProductRecord, error) {
	sheetName := strings.Trim(strings.SplitN(s.dataRange, "!", 2)[0], "'")

	headerRows, err := s.fetchValues(ctx, fmt.Sprintf("'%s'!1:1", sheetName))
	if err != nil {
		return nil, err
	}
	if len(headerRows) == 0 || len(headerRows[0]) == 0 {
		return nil, fmt.Errorf("%w: sheet is empty or headers not found in row 1", core.ErrSourceUnavailable)
	}
	headers := NormalizeHeaders(headerRows[0])
	logger.SyncInfo("Fetched sheet headers: %v", headers)

	dataRows, err := s.fetchValues(ctx, s.dataRange)
	if err != nil {
		return nil, err
	}
	logger.SyncInfo("Fetched %d data rows from sheet", len(dataRows))

	records := make([]core.ProductRecord, 0, len(dataRows))
	for _, row := range dataRows {
		rec, ok := RecordFromRow(headers, row)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// fetchValues calls the Sheets values endpoint for one range.
func (s *SheetsSource) fetchValues(ctx context.Context, valueRange string) ([][]string, error) {
	endpoint := fmt.Sprintf("%s/spreadsheets/%s/values/%s?key=%s",
		s.baseURL, url.PathEscape(s.spreadsheetID), url.PathEscape(valueRange), url.QueryEscape(s.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSourceUnavailable, err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSourceUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: sheets API returned %s", core.ErrSourceUnavailable, resp.Status)
	}

	var out struct {
		Values [][]string `json:"values"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: failed to decode sheets response: %v", core.ErrSourceUnavailable, err)
	}
	return out.Values, nil
}
