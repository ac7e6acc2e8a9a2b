package google

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	lastColumn   = "M"
	valueInput   = "USER_ENTERED"
	headerOffset = 2 // row 1 holds the header, sheet rows are 1-based
)

// SheetsClient stores event rows in one tab of a spreadsheet.
// Index i of ReadRows is sheet row i+2.
type SheetsClient struct {
	service       *sheets.Service
	logger        *slog.Logger
	spreadsheetID string
	sheetName     string

	mu      sync.Mutex
	sheetID *int64
}

// NewSheetsClient creates a client for the sheetName tab of spreadsheetID.
func NewSheetsClient(ctx context.Context, logger *slog.Logger, spreadsheetID, sheetName string, opts ...option.ClientOption) (*SheetsClient, error) {
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &SheetsClient{
		service:       service,
		logger:        logger,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// ReadRows returns every data row below the header.
func (c *SheetsClient) ReadRows(ctx context.Context) ([][]string, error) {
	resp, err := c.service.Spreadsheets.Values.Get(c.spreadsheetID, c.sheetName+"!A2:"+lastColumn).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, values := range resp.Values {
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = cellString(v)
		}
		rows = append(rows, row)
	}
	c.logger.Debug("Read rows from sheet", "sheet", c.sheetName, "count", len(rows))
	return rows, nil
}

// AppendRows appends rows after the last data row in a single request.
func (c *SheetsClient) AppendRows(ctx context.Context, rows [][]string) error {
	_, err := c.service.Spreadsheets.Values.Append(c.spreadsheetID, c.sheetName+"!A:"+lastColumn, toValueRange(rows...)).
		ValueInputOption(valueInput).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append rows: %w", err)
	}
	c.logger.Debug("Appended rows to sheet", "sheet", c.sheetName, "count", len(rows))
	return nil
}

// UpdateRow overwrites the row at index.
func (c *SheetsClient) UpdateRow(ctx context.Context, index int, row []string) error {
	n := index + headerOffset
	rng := fmt.Sprintf("%s!A%d:%s%d", c.sheetName, n, lastColumn, n)
	_, err := c.service.Spreadsheets.Values.Update(c.spreadsheetID, rng, toValueRange(row)).
		ValueInputOption(valueInput).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update row %d: %w", n, err)
	}
	return nil
}

// DeleteRow removes the row at index, shifting later rows up.
func (c *SheetsClient) DeleteRow(ctx context.Context, index int) error {
	sheetID, err := c.tabID(ctx)
	if err != nil {
		return err
	}
	n := int64(index + headerOffset)
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:         sheetID,
					Dimension:       "ROWS",
					StartIndex:      n - 1,
					EndIndex:        n,
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	if _, err := c.service.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete row %d: %w", n, err)
	}
	return nil
}

// tabID resolves the numeric id of the tab once and caches it.
func (c *SheetsClient) tabID(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sheetID != nil {
		return *c.sheetID, nil
	}

	sp, err := c.service.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to load spreadsheet metadata: %w", err)
	}
	for _, sh := range sp.Sheets {
		if sh.Properties != nil && sh.Properties.Title == c.sheetName {
			id := sh.Properties.SheetId
			c.sheetID = &id
			c.logger.Debug("Resolved sheet id", "sheet", c.sheetName, "sheetId", id)
			return id, nil
		}
	}
	return 0, fmt.Errorf("no sheet named '%s' in spreadsheet", c.sheetName)
}

func toValueRange(rows ...[]string) *sheets.ValueRange {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		values[i] = cells
	}
	return &sheets.ValueRange{Values: values}
}

func cellString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
