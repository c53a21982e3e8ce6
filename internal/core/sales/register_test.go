package sales

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiassromo/registro-helados/internal/core/domain"
)

// fakeExporter records what the register hands it.
type fakeExporter struct {
	exported  map[string][]domain.Transaction
	stock     []StockLine
	exportErr error
	removeErr error
	removed   []string
}

func newFakeExporter() *fakeExporter {
	return &fakeExporter{exported: make(map[string][]domain.Transaction)}
}

func (f *fakeExporter) Export(_ context.Context, path string, txs []domain.Transaction, stock []StockLine) error {
	if f.exportErr != nil {
		return f.exportErr
	}
	f.exported[path] = txs
	f.stock = stock
	return nil
}

func (f *fakeExporter) Remove(_ context.Context, path string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	if _, ok := f.exported[path]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	delete(f.exported, path)
	f.removed = append(f.removed, path)
	return nil
}

var (
	fixedNow    = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

func newTestRegister(exp Exporter, opts ...Option) *Register {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow }), WithLogger(quietLogger)}, opts...)
	return NewRegister(exp, opts...)
}

func TestNewRegister_DefaultCatalog(t *testing.T) {
	r := newTestRegister(newFakeExporter())

	stock := r.CurrentStock()
	assert.Len(t, stock, 20)
	for name, n := range stock {
		assert.Equal(t, 10, n, name)
	}
	assert.Empty(t, r.Transactions())
	assert.True(t, r.TotalRevenue().IsZero())
}

func TestRecordSale_ChocolateCocoScenario(t *testing.T) {
	ctx := context.Background()
	r := newTestRegister(newFakeExporter())

	sale, err := r.RecordSale(ctx, "Chocolate Coco", 3)
	require.NoError(t, err)
	assert.Equal(t, "2.40", sale.Transaction.Total.String())
	assert.Equal(t, "0.80", sale.Transaction.UnitPrice.String())
	assert.Equal(t, 7, sale.Transaction.RemainingStock)
	assert.Equal(t, fixedNow, sale.Transaction.Timestamp)
	assert.Equal(t, 7, r.CurrentStock()["Chocolate Coco"])

	_, err = r.RecordSale(ctx, "Chocolate Coco", 20)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 7, r.CurrentStock()["Chocolate Coco"])

	assert.Equal(t, "2.40", r.TotalRevenue().String())
	assert.Len(t, r.Transactions(), 1)
}

func TestRecordSale_UnknownItem(t *testing.T) {
	r := newTestRegister(newFakeExporter())
	before := r.CurrentStock()

	_, err := r.RecordSale(context.Background(), "Pistachio", 1)

	assert.ErrorIs(t, err, domain.ErrUnknownItem)
	assert.Equal(t, "Pistachio not available", domain.Message(err))
	assert.Equal(t, before, r.CurrentStock())
	assert.Empty(t, r.Transactions())
}

func TestRecordSale_InvalidQuantityIsNotLogged(t *testing.T) {
	r := newTestRegister(newFakeExporter())

	_, err := r.RecordSale(context.Background(), "Chicle", 0)

	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Empty(t, r.Transactions())
}

func TestRecordSale_CancelledContext(t *testing.T) {
	r := newTestRegister(newFakeExporter())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.RecordSale(ctx, "Chicle", 1)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 10, r.CurrentStock()["Chicle"])
}

func TestRecordSale_LogKeepsChronologicalOrder(t *testing.T) {
	ctx := context.Background()
	r := newTestRegister(newFakeExporter())

	for _, name := range []string{"Mora Hielo", "Chicle", "Coco Mora", "Chicle"} {
		_, err := r.RecordSale(ctx, name, 1)
		require.NoError(t, err)
	}

	var got []string
	for _, tx := range r.Transactions() {
		got = append(got, tx.ItemName)
	}
	assert.Equal(t, []string{"Mora Hielo", "Chicle", "Coco Mora", "Chicle"}, got)
	assert.Equal(t, 8, r.Transactions()[3].RemainingStock)
}

func TestRecordSale_CallsSaleHook(t *testing.T) {
	var seen []domain.Transaction
	r := newTestRegister(newFakeExporter(), WithSaleHook(func(tx domain.Transaction) {
		seen = append(seen, tx)
	}))

	_, err := r.RecordSale(context.Background(), "Tres Sabores", 2)
	require.NoError(t, err)
	_, err = r.RecordSale(context.Background(), "Tres Sabores", 50)
	require.Error(t, err)

	require.Len(t, seen, 1)
	assert.Equal(t, "Tres Sabores", seen[0].ItemName)
	assert.Equal(t, 2, seen[0].Quantity)
}

func TestTransactions_ReturnsCopy(t *testing.T) {
	r := newTestRegister(newFakeExporter())
	_, err := r.RecordSale(context.Background(), "Chicle", 1)
	require.NoError(t, err)

	txs := r.Transactions()
	txs[0].Quantity = 99

	assert.Equal(t, 1, r.Transactions()[0].Quantity)
}

func TestSortedItemNames(t *testing.T) {
	r := newTestRegister(newFakeExporter())

	names := r.SortedItemNames()

	assert.Len(t, names, 20)
	assert.True(t, sort.StringsAreSorted(names))
	assert.Equal(t, "Chicle", names[0])
}

func TestCustomCatalogAndPricing(t *testing.T) {
	r := newTestRegister(newFakeExporter(),
		WithCatalog("Vainilla", "Fresa"),
		WithDefaultStock(3),
		WithUnitPrice(domain.MustMoney("1.50")),
	)

	assert.Equal(t, map[string]int{"Vainilla": 3, "Fresa": 3}, r.CurrentStock())

	sale, err := r.RecordSale(context.Background(), "Fresa", 3)
	require.NoError(t, err)
	assert.Equal(t, "4.50", sale.Transaction.Total.String())

	r.ResetAll()
	assert.Equal(t, 3, r.CurrentStock()["Fresa"])
}

func TestWithCatalog_DropsDuplicates(t *testing.T) {
	r := newTestRegister(newFakeExporter(), WithCatalog("Fresa", "Vainilla", "Fresa", "Vainilla"))

	assert.Equal(t, []string{"Fresa", "Vainilla"}, r.SortedItemNames())
	assert.Len(t, r.CurrentStock(), 2)
}

func TestClearTransactions_KeepsStock(t *testing.T) {
	r := newTestRegister(newFakeExporter())
	_, err := r.RecordSale(context.Background(), "Chicle", 4)
	require.NoError(t, err)

	r.ClearTransactions()

	assert.Empty(t, r.Transactions())
	assert.True(t, r.TotalRevenue().IsZero())
	assert.Equal(t, 6, r.CurrentStock()["Chicle"])
}

func TestClearTransactions_RevenueFormulasDiverge(t *testing.T) {
	r := newTestRegister(newFakeExporter())
	_, err := r.RecordSale(context.Background(), "Chicle", 2)
	require.NoError(t, err)

	r.ClearTransactions()

	assert.True(t, r.TotalRevenue().IsZero())
	assert.Equal(t, "1.60", r.ItemsRevenue().String())
}

func TestResetAll(t *testing.T) {
	r := newTestRegister(newFakeExporter())
	_, err := r.RecordSale(context.Background(), "Chicle", 4)
	require.NoError(t, err)
	_, err = r.RecordSale(context.Background(), "Queso Crema", 10)
	require.NoError(t, err)

	r.ResetAll()

	for name, n := range r.CurrentStock() {
		assert.Equal(t, 10, n, name)
	}
	assert.True(t, r.TotalRevenue().IsZero())
	assert.True(t, r.ItemsRevenue().IsZero())
	assert.Empty(t, r.Transactions())
}

func TestResetItem(t *testing.T) {
	r := newTestRegister(newFakeExporter())
	_, err := r.RecordSale(context.Background(), "Chicle", 4)
	require.NoError(t, err)

	require.NoError(t, r.ResetItem("Chicle", 25))

	item, ok := r.Item("Chicle")
	require.True(t, ok)
	assert.Equal(t, 25, item.Stock)
	assert.Equal(t, 0, item.UnitsSold)

	assert.ErrorIs(t, r.ResetItem("Pistachio", 1), domain.ErrUnknownItem)
}

func TestExport_HandsSnapshotToExporter(t *testing.T) {
	exp := newFakeExporter()
	r := newTestRegister(exp)
	_, err := r.RecordSale(context.Background(), "Chicle", 2)
	require.NoError(t, err)

	require.NoError(t, r.Export(context.Background(), "ventas.xlsx"))

	require.Len(t, exp.exported["ventas.xlsx"], 1)
	require.Len(t, exp.stock, 20)
	assert.Equal(t, StockLine{ItemName: "Chicle", RemainingStock: 8}, exp.stock[0])
	assert.True(t, sort.SliceIsSorted(exp.stock, func(i, j int) bool {
		return exp.stock[i].ItemName < exp.stock[j].ItemName
	}))
}

func TestExport_FailureKeepsState(t *testing.T) {
	exp := newFakeExporter()
	exp.exportErr = errors.New("permission denied")
	r := newTestRegister(exp)
	_, err := r.RecordSale(context.Background(), "Chicle", 2)
	require.NoError(t, err)

	err = r.Export(context.Background(), "/readonly/ventas.xlsx")

	assert.ErrorIs(t, err, domain.ErrIOFailure)
	assert.Len(t, r.Transactions(), 1)
	assert.Equal(t, 8, r.CurrentStock()["Chicle"])
}

func TestExport_LayoutMismatchIsNotWrapped(t *testing.T) {
	exp := newFakeExporter()
	exp.exportErr = fmt.Errorf("%w: bad header", domain.ErrLayoutMismatch)
	r := newTestRegister(exp)

	err := r.Export(context.Background(), "ventas.xlsx")

	assert.ErrorIs(t, err, domain.ErrLayoutMismatch)
	assert.NotErrorIs(t, err, domain.ErrIOFailure)
}

func TestExportThenDelete_ResetsEverything(t *testing.T) {
	ctx := context.Background()
	exp := newFakeExporter()
	r := newTestRegister(exp)
	_, err := r.RecordSale(ctx, "Chocolate Coco", 3)
	require.NoError(t, err)
	require.NoError(t, r.Export(ctx, "ventas.xlsx"))

	require.NoError(t, r.DeleteExport(ctx, "ventas.xlsx"))

	assert.Equal(t, []string{"ventas.xlsx"}, exp.removed)
	assert.Empty(t, r.Transactions())
	for name, n := range r.CurrentStock() {
		assert.Equal(t, 10, n, name)
	}
}

func TestDeleteExport_MissingFileChangesNothing(t *testing.T) {
	ctx := context.Background()
	r := newTestRegister(newFakeExporter())
	_, err := r.RecordSale(ctx, "Chocolate Coco", 3)
	require.NoError(t, err)

	err = r.DeleteExport(ctx, "ventas.xlsx")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Len(t, r.Transactions(), 1)
	assert.Equal(t, 7, r.CurrentStock()["Chocolate Coco"])
}

func TestDeleteExport_IOFailure(t *testing.T) {
	exp := newFakeExporter()
	exp.removeErr = errors.New("device busy")
	r := newTestRegister(exp)

	err := r.DeleteExport(context.Background(), "ventas.xlsx")

	assert.ErrorIs(t, err, domain.ErrIOFailure)
}
