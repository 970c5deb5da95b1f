// Package vacancies adapts the spreadsheet-backed vacancy table into the
// candidate-facing catalog consulted by the funnel.
package vacancies

import (
	"context"
	"fmt"

	"github.com/coopentrega/recruiting-ai-platform/internal/sheets"
	"github.com/coopentrega/recruiting-ai-platform/internal/textnorm"
	"github.com/coopentrega/recruiting-ai-platform/pkg/logging"
)

// Sheet column names.
const (
	colID       = "VAGA_ID"
	colCity     = "CIDADE"
	colPharmacy = "FARMACIA"
	colFee      = "TAXA_ENTREGA"
	colShift    = "TURNO"
	colStatus   = "STATUS"
)

const statusOpen = "aberto"

// Vacancy is an immutable snapshot of one catalog row. Fee keeps the raw cell
// value; use FeeValue for arithmetic.
type Vacancy struct {
	ID       string `json:"VAGA_ID"`
	City     string `json:"CIDADE"`
	Pharmacy string `json:"FARMACIA"`
	Fee      string `json:"TAXA_ENTREGA"`
	Shift    string `json:"TURNO"`
	Status   string `json:"STATUS"`
}

// FeeValue parses the delivery fee, returning 0 for non-numeric cells.
func (v Vacancy) FeeValue() float64 {
	fee, _ := textnorm.ParseMoney(v.Fee)
	return fee
}

// Line renders the one-line description used in menus and confirmations.
func (v Vacancy) Line() string {
	return fmt.Sprintf("ID %s — %s — %s — R$ %s", v.ID, v.Pharmacy, v.Shift, textnorm.FormatBRL(v.Fee))
}

// FromRow builds a Vacancy from a header-keyed sheet row.
func FromRow(r sheets.Row) Vacancy {
	return Vacancy{
		ID:       r[colID],
		City:     r[colCity],
		Pharmacy: r[colPharmacy],
		Fee:      r[colFee],
		Shift:    r[colShift],
		Status:   r[colStatus],
	}
}

// TableReader is the subset of the sheets client the catalog needs.
type TableReader interface {
	GetRows(ctx context.Context, spreadsheetID, rangeA1 string) (*sheets.Table, error)
}

// Catalog filters the vacancy table by city and status.
type Catalog struct {
	reader  TableReader
	sheetID string
	tab     string
	logger  *logging.Logger
}

// NewCatalog creates a catalog over the given spreadsheet tab.
func NewCatalog(reader TableReader, sheetID, tab string, logger *logging.Logger) *Catalog {
	if logger == nil {
		logger = logging.Default()
	}
	return &Catalog{reader: reader, sheetID: sheetID, tab: tab, logger: logger}
}

// ListOpen returns open vacancies in the given city, in source row order. A
// transport error degrades to an empty list so a turn can always answer
// "no vacancies found" instead of failing.
func (c *Catalog) ListOpen(ctx context.Context, city string) []Vacancy {
	if textnorm.Fold(city) == "" {
		return nil
	}
	table, err := c.reader.GetRows(ctx, c.sheetID, c.tab+"!A1:Z")
	if err != nil {
		c.logger.Error("vacancy catalog read failed", "error", err, "city", city)
		return nil
	}
	var open []Vacancy
	for _, row := range table.Rows {
		v := FromRow(row)
		if !textnorm.EqualCity(v.City, city) {
			continue
		}
		if textnorm.Fold(v.Status) != statusOpen {
			continue
		}
		open = append(open, v)
	}
	return open
}
