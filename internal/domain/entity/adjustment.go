package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Adjustment corrección de stock producida por una toma física o un ajuste manual.
type Adjustment struct {
	ID               string
	WarehouseID      string
	PartID           string
	Delta            decimal.Decimal
	PreviousQuantity decimal.Decimal
	NewQuantity      decimal.Decimal
	Reason           string
	Actor            string
	StocktakeID      string // vacío si es ajuste manual
	LedgerEntryID    string
	CreatedAt        time.Time
}
