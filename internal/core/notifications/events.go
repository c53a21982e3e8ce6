package notifications

import "github.com/matiassromo/registro-helados/internal/core/domain"

const EventSaleRecorded = "sale.recorded"

type Event struct {
	Event string             `json:"event"`
	Data  domain.Transaction `json:"data"`
}

// SaleRecorded wraps a completed sale into its webhook event.
func SaleRecorded(tx domain.Transaction) Event {
	return Event{Event: EventSaleRecorded, Data: tx}
}
