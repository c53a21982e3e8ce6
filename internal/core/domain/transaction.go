package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is how transaction times are rendered in responses and exports.
const TimestampLayout = "2006-01-02 15:04:05"

// Transaction is an immutable record of one completed sale.
// UnitPrice is copied at sale time so later price changes do not rewrite history.
type Transaction struct {
	ID             uuid.UUID `json:"id"`
	ItemName       string    `json:"sabor"`
	Quantity       int       `json:"cantidad"`
	UnitPrice      Money     `json:"precio"`
	Total          Money     `json:"total"`
	Timestamp      time.Time `json:"-"`
	RemainingStock int       `json:"stock_restante"`
}

// FormattedTimestamp renders Timestamp with TimestampLayout.
func (t Transaction) FormattedTimestamp() string {
	return t.Timestamp.Format(TimestampLayout)
}

// MarshalJSON adds the formatted timestamp as "fecha_hora".
func (t Transaction) MarshalJSON() ([]byte, error) {
	type plain Transaction
	return json.Marshal(struct {
		plain
		FechaHora string `json:"fecha_hora"`
	}{plain: plain(t), FechaHora: t.FormattedTimestamp()})
}
