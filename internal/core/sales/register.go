package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matiassromo/registro-helados/internal/core/domain"
)

// Exporter persists a snapshot of the register outside the process.
type Exporter interface {
	Export(ctx context.Context, path string, txs []domain.Transaction, stock []StockLine) error
	Remove(ctx context.Context, path string) error
}

// StockLine is one row of the stock snapshot.
type StockLine struct {
	ItemName       string `json:"sabor"`
	RemainingStock int    `json:"stock_restante"`
}

// Sale is what a successful RecordSale hands back to the request layer.
type Sale struct {
	Message     string             `json:"message"`
	Transaction domain.Transaction `json:"venta"`
}

// Register owns the catalog and the transaction log. One mutex guards both,
// so every operation sees and leaves a consistent ledger.
type Register struct {
	mu           sync.Mutex
	items        map[string]*domain.Item
	names        []string
	transactions []domain.Transaction

	defaultStock int
	unitPrice    domain.Money
	exporter     Exporter
	now          func() time.Time
	logger       *slog.Logger
	onSale       func(domain.Transaction)
}

// Option configures a Register.
type Option func(*Register)

// WithCatalog replaces the default flavor list. Repeated names are kept once.
func WithCatalog(names ...string) Option {
	return func(r *Register) {
		seen := make(map[string]bool, len(names))
		r.names = r.names[:0:0]
		for _, name := range names {
			if seen[name] {
				continue
			}
			seen[name] = true
			r.names = append(r.names, name)
		}
	}
}

func WithDefaultStock(stock int) Option {
	return func(r *Register) { r.defaultStock = stock }
}

func WithUnitPrice(price domain.Money) Option {
	return func(r *Register) { r.unitPrice = price }
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Register) { r.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Register) { r.logger = logger }
}

// WithSaleHook registers fn to be called after every recorded sale, outside the lock.
func WithSaleHook(fn func(domain.Transaction)) Option {
	return func(r *Register) { r.onSale = fn }
}

// NewRegister builds a register with every catalog item at its default stock.
func NewRegister(exporter Exporter, opts ...Option) *Register {
	r := &Register{
		names:        append([]string(nil), DefaultCatalog...),
		defaultStock: domain.DefaultStock,
		unitPrice:    domain.DefaultUnitPrice,
		exporter:     exporter,
		now:          time.Now,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.items = make(map[string]*domain.Item, len(r.names))
	for _, name := range r.names {
		r.items[name] = domain.NewItem(name, r.defaultStock, r.unitPrice)
	}
	return r
}

// RecordSale sells quantity units of name. A rejected sale never reaches the log.
func (r *Register) RecordSale(ctx context.Context, name string, quantity int) (Sale, error) {
	if err := ctx.Err(); err != nil {
		return Sale{}, err
	}

	r.mu.Lock()
	item, ok := r.items[name]
	if !ok {
		r.mu.Unlock()
		msg := fmt.Sprintf("%s not available", name)
		return Sale{}, &domain.SaleError{Kind: domain.ErrUnknownItem, Message: msg}
	}

	amount, msg, err := item.Sell(quantity)
	if err != nil {
		r.mu.Unlock()
		return Sale{}, err
	}

	tx := domain.Transaction{
		ID:             uuid.New(),
		ItemName:       name,
		Quantity:       quantity,
		UnitPrice:      item.UnitPrice,
		Total:          amount,
		Timestamp:      r.now(),
		RemainingStock: item.Stock,
	}
	r.transactions = append(r.transactions, tx)
	hook := r.onSale
	r.mu.Unlock()

	r.logger.Info("Sale recorded",
		"id", tx.ID,
		"sabor", name,
		"cantidad", quantity,
		"total", amount.String(),
		"stock_restante", tx.RemainingStock,
	)

	if hook != nil {
		hook(tx)
	}
	return Sale{Message: msg, Transaction: tx}, nil
}

// TotalRevenue sums the totals of the transaction log.
func (r *Register) TotalRevenue() domain.Money {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := domain.Zero
	for _, tx := range r.transactions {
		total = total.Add(tx.Total)
	}
	return total
}

// ItemsRevenue sums units sold times price over the catalog. It agrees with
// TotalRevenue until ClearTransactions empties the log, which keeps units sold.
func (r *Register) ItemsRevenue() domain.Money {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := domain.Zero
	for _, item := range r.items {
		total = total.Add(item.Revenue())
	}
	return total
}

// Transactions returns a copy of the log in the order the sales happened.
func (r *Register) Transactions() []domain.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Transaction, len(r.transactions))
	copy(out, r.transactions)
	return out
}

// CurrentStock maps every flavor to its current stock.
func (r *Register) CurrentStock() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	stock := make(map[string]int, len(r.items))
	for name, item := range r.items {
		stock[name] = item.Stock
	}
	return stock
}

// Item returns a copy of the named item.
func (r *Register) Item(name string) (domain.Item, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[name]
	if !ok {
		return domain.Item{}, false
	}
	return *item, true
}

// SortedItemNames lists the catalog in ascending lexical order.
func (r *Register) SortedItemNames() []string {
	names := append([]string(nil), r.names...)
	sort.Strings(names)
	return names
}

// ClearTransactions empties the log. Stock counters are kept.
func (r *Register) ClearTransactions() {
	r.mu.Lock()
	r.transactions = nil
	r.mu.Unlock()

	r.logger.Info("Transactions cleared")
}

// ResetItem sets one flavor's stock and zeroes its units sold.
func (r *Register) ResetItem(name string, stock int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[name]
	if !ok {
		return &domain.SaleError{Kind: domain.ErrUnknownItem, Message: fmt.Sprintf("%s not available", name)}
	}
	item.ResetStock(stock)
	return nil
}

// ResetAll clears the log and puts every item back at its default stock.
func (r *Register) ResetAll() {
	r.mu.Lock()
	r.resetLocked()
	r.mu.Unlock()

	r.logger.Info("Stock reset and transactions cleared", "stock", r.defaultStock)
}

func (r *Register) resetLocked() {
	r.transactions = nil
	for _, item := range r.items {
		item.ResetStock(r.defaultStock)
	}
}

// Export writes the log and a stock snapshot to path. A failed export
// leaves the register as it was.
func (r *Register) Export(ctx context.Context, path string) error {
	r.mu.Lock()
	txs := make([]domain.Transaction, len(r.transactions))
	copy(txs, r.transactions)
	stock := r.stockLinesLocked()
	r.mu.Unlock()

	if err := r.exporter.Export(ctx, path, txs, stock); err != nil {
		r.logger.Error("Export failed", "error", err, "path", path)
		if errors.Is(err, domain.ErrLayoutMismatch) || errors.Is(err, domain.ErrIOFailure) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrIOFailure, err)
	}

	r.logger.Info("Sales exported", "path", path, "transactions", len(txs))
	return nil
}

// DeleteExport removes the export file and starts a new sales period:
// the log is cleared and every item is reset. A missing file changes nothing.
func (r *Register) DeleteExport(ctx context.Context, path string) error {
	if err := r.exporter.Remove(ctx, path); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrIOFailure, err)
	}

	r.mu.Lock()
	r.resetLocked()
	r.mu.Unlock()

	r.logger.Info("Export deleted, sales period restarted", "path", path)
	return nil
}

func (r *Register) stockLinesLocked() []StockLine {
	lines := make([]StockLine, 0, len(r.items))
	for name, item := range r.items {
		lines = append(lines, StockLine{ItemName: name, RemainingStock: item.Stock})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ItemName < lines[j].ItemName })
	return lines
}
