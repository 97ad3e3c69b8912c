package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntryType tipo de movimiento del libro mayor.
type LedgerEntryType string

// Tipos de movimiento de inventario.
const (
	LedgerCreation    LedgerEntryType = "CREATION"    // entrada de mercancía
	LedgerTransfer    LedgerEntryType = "TRANSFER"    // traslado entre bodegas
	LedgerConsumption LedgerEntryType = "CONSUMPTION" // consumo / salida
	LedgerAdjustment  LedgerEntryType = "ADJUSTMENT"  // ajuste (delta con signo)
)

// IsValid indica si el tipo es conocido.
func (t LedgerEntryType) IsValid() bool {
	switch t {
	case LedgerCreation, LedgerTransfer, LedgerConsumption, LedgerAdjustment:
		return true
	}
	return false
}

// LedgerEntry es un registro inmutable del libro mayor. Nunca se actualiza ni se borra.
// Quantity es magnitud (>0) salvo en ADJUSTMENT, donde es un delta con signo aplicado a ToWarehouse.
type LedgerEntry struct {
	ID            string
	Type          LedgerEntryType
	PartID        string
	FromWarehouse string // vacío = NULL
	ToWarehouse   string // vacío = NULL
	Quantity      decimal.Decimal
	Actor         string
	Timestamp     time.Time
	Reference     string
}

// Deltas devuelve los efectos con signo que el movimiento implica sobre los balances.
func (e *LedgerEntry) Deltas() []BalanceDelta {
	switch e.Type {
	case LedgerCreation, LedgerAdjustment:
		return []BalanceDelta{{WarehouseID: e.ToWarehouse, PartID: e.PartID, Amount: e.Quantity}}
	case LedgerConsumption:
		return []BalanceDelta{{WarehouseID: e.FromWarehouse, PartID: e.PartID, Amount: e.Quantity.Neg()}}
	case LedgerTransfer:
		return []BalanceDelta{
			{WarehouseID: e.FromWarehouse, PartID: e.PartID, Amount: e.Quantity.Neg()},
			{WarehouseID: e.ToWarehouse, PartID: e.PartID, Amount: e.Quantity},
		}
	}
	return nil
}

// DeltaFor devuelve el efecto neto del movimiento sobre la fila indicada.
func (e *LedgerEntry) DeltaFor(key BalanceKey) decimal.Decimal {
	total := decimal.Zero
	for _, d := range e.Deltas() {
		if d.Key() == key {
			total = total.Add(d.Amount)
		}
	}
	return total
}
