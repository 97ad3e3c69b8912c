package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance representa el stock actual de una parte en una bodega (proyección del libro mayor).
// Único por (WarehouseID, PartID); CurrentStock nunca es negativo.
type Balance struct {
	WarehouseID      string
	PartID           string
	CurrentStock     decimal.Decimal
	MinimumThreshold decimal.Decimal
	LastUpdated      time.Time
}

// Key devuelve la llave de la fila de balance.
func (b *Balance) Key() BalanceKey {
	return BalanceKey{WarehouseID: b.WarehouseID, PartID: b.PartID}
}

// BalanceKey identifica una fila de balance.
type BalanceKey struct {
	WarehouseID string
	PartID      string
}

// Less ordena por bodega y luego por parte. Es el orden de adquisición de locks.
func (k BalanceKey) Less(o BalanceKey) bool {
	if k.WarehouseID != o.WarehouseID {
		return k.WarehouseID < o.WarehouseID
	}
	return k.PartID < o.PartID
}

// BalanceDelta es el efecto con signo de un movimiento sobre una fila de balance.
type BalanceDelta struct {
	WarehouseID string
	PartID      string
	Amount      decimal.Decimal
}

// Key devuelve la llave de la fila afectada.
func (d BalanceDelta) Key() BalanceKey {
	return BalanceKey{WarehouseID: d.WarehouseID, PartID: d.PartID}
}
