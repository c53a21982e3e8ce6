package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/xuri/excelize/v2"

	"github.com/matiassromo/registro-helados/internal/core/domain"
	"github.com/matiassromo/registro-helados/internal/core/sales"
)

const (
	SalesSheet = "Ventas"
	StockSheet = "Stock"
)

var (
	SalesHeader = []string{"Sabor", "Cantidad", "Precio Unitario", "Total", "Fecha Hora", "Stock Restante"}
	StockHeader = []string{"Sabor", "Stock Restante"}
)

// SpreadsheetStore writes register snapshots to .xlsx workbooks.
type SpreadsheetStore struct {
	// Append keeps the rows of an existing Ventas sheet and adds new ones below.
	Append bool
}

func NewSpreadsheetStore(appendMode bool) *SpreadsheetStore {
	return &SpreadsheetStore{Append: appendMode}
}

// Export writes txs to the Ventas sheet and replaces the Stock sheet with stock.
func (s *SpreadsheetStore) Export(ctx context.Context, path string, txs []domain.Transaction, stock []sales.StockLine) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, existing, err := s.open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if existing {
		err = appendSales(f, txs)
	} else {
		err = createSales(f, txs)
	}
	if err != nil {
		return err
	}

	if err := writeStock(f, stock); err != nil {
		return err
	}

	if idx, err := f.GetSheetIndex(SalesSheet); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("%w: saving %s: %w", domain.ErrIOFailure, path, err)
	}
	return nil
}

// Remove deletes the workbook at path.
func (s *SpreadsheetStore) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return fmt.Errorf("%w: removing %s: %w", domain.ErrIOFailure, path, err)
	}
	return nil
}

// open returns the workbook to write into and whether it already existed.
func (s *SpreadsheetStore) open(path string) (*excelize.File, bool, error) {
	if s.Append {
		f, err := excelize.OpenFile(path)
		if err == nil {
			return f, true, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, false, fmt.Errorf("%w: opening %s: %w", domain.ErrIOFailure, path, err)
		}
	}
	return excelize.NewFile(), false, nil
}

// createSales turns the default sheet of a fresh workbook into Ventas.
func createSales(f *excelize.File, txs []domain.Transaction) error {
	if err := f.SetSheetName(f.GetSheetName(0), SalesSheet); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIOFailure, err)
	}
	if err := writeRow(f, SalesSheet, 1, toRow(SalesHeader)); err != nil {
		return err
	}
	return writeSales(f, 2, txs)
}

// appendSales adds txs below the last used row of Ventas, creating the sheet
// if the workbook has none. An existing sheet must carry the expected header.
func appendSales(f *excelize.File, txs []domain.Transaction) error {
	idx, err := f.GetSheetIndex(SalesSheet)
	if err != nil || idx < 0 {
		if _, err := f.NewSheet(SalesSheet); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrIOFailure, err)
		}
		if err := writeRow(f, SalesSheet, 1, toRow(SalesHeader)); err != nil {
			return err
		}
		return writeSales(f, 2, txs)
	}

	rows, err := f.GetRows(SalesSheet)
	if err != nil {
		return fmt.Errorf("%w: reading %s: %w", domain.ErrIOFailure, SalesSheet, err)
	}
	if len(rows) == 0 {
		if err := writeRow(f, SalesSheet, 1, toRow(SalesHeader)); err != nil {
			return err
		}
		return writeSales(f, 2, txs)
	}
	if !slices.Equal(rows[0], SalesHeader) {
		return fmt.Errorf("%w: sheet %s has header %v, want %v", domain.ErrLayoutMismatch, SalesSheet, rows[0], SalesHeader)
	}
	return writeSales(f, len(rows)+1, txs)
}

func writeSales(f *excelize.File, firstRow int, txs []domain.Transaction) error {
	for i, tx := range txs {
		row := []interface{}{
			tx.ItemName,
			tx.Quantity,
			tx.UnitPrice.Float64(),
			tx.Total.Float64(),
			tx.FormattedTimestamp(),
			tx.RemainingStock,
		}
		if err := writeRow(f, SalesSheet, firstRow+i, row); err != nil {
			return err
		}
	}
	return nil
}

// writeStock drops any previous Stock sheet; the snapshot is current state, not history.
func writeStock(f *excelize.File, stock []sales.StockLine) error {
	if idx, err := f.GetSheetIndex(StockSheet); err == nil && idx >= 0 {
		if err := f.DeleteSheet(StockSheet); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrIOFailure, err)
		}
	}
	if _, err := f.NewSheet(StockSheet); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIOFailure, err)
	}

	if err := writeRow(f, StockSheet, 1, toRow(StockHeader)); err != nil {
		return err
	}
	for i, line := range stock {
		if err := writeRow(f, StockSheet, i+2, []interface{}{line.ItemName, line.RemainingStock}); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIOFailure, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("%w: writing %s!%s: %w", domain.ErrIOFailure, sheet, cell, err)
	}
	return nil
}

func toRow(header []string) []interface{} {
	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	return row
}
