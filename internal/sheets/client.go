// Package sheets wraps the Google Sheets API as the row-oriented table store
// used for the vacancy catalog and the lead log.
package sheets

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// Row is a sheet row keyed by header column name.
type Row map[string]string

// Table is the decoded result of a range read.
type Table struct {
	Header []string
	Rows   []Row
}

// Client reads and appends rows on Google Sheets spreadsheets.
type Client struct {
	svc *gsheets.Service
}

// New creates a Sheets client. Credentials come from Application Default
// Credentials unless overridden through opts.
func New(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// GetRows reads rangeA1 and returns header-keyed row maps. Rows shorter than
// the header get empty strings for the missing cells.
func (c *Client) GetRows(ctx context.Context, spreadsheetID, rangeA1 string) (*Table, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(spreadsheetID, rangeA1).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets: read %s: %w", rangeA1, err)
	}
	return TableFromValues(resp.Values), nil
}

// AppendRow appends one row after the last row of rangeA1.
func (c *Client) AppendRow(ctx context.Context, spreadsheetID, rangeA1 string, row []any) error {
	body := &gsheets.ValueRange{Values: [][]any{row}}
	_, err := c.svc.Spreadsheets.Values.Append(spreadsheetID, rangeA1, body).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets: append to %s: %w", rangeA1, err)
	}
	return nil
}

// TableFromValues converts a raw values grid into a header-keyed Table. The
// first row is the header; an empty grid yields an empty table.
func TableFromValues(values [][]any) *Table {
	table := &Table{}
	if len(values) == 0 {
		return table
	}
	for _, cell := range values[0] {
		table.Header = append(table.Header, strings.TrimSpace(fmt.Sprint(cell)))
	}
	for _, raw := range values[1:] {
		row := make(Row, len(table.Header))
		for i, name := range table.Header {
			if name == "" {
				continue
			}
			if i < len(raw) {
				row[name] = strings.TrimSpace(fmt.Sprint(raw[i]))
			} else {
				row[name] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
