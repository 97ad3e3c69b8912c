package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StocktakeStatus estado de una toma física.
type StocktakeStatus string

const (
	StocktakePlanned    StocktakeStatus = "PLANNED"
	StocktakeInProgress StocktakeStatus = "IN_PROGRESS"
	StocktakeCompleted  StocktakeStatus = "COMPLETED"
	StocktakeCancelled  StocktakeStatus = "CANCELLED"
)

// Stocktake toma física de inventario sobre una bodega.
type Stocktake struct {
	ID            string
	WarehouseID   string
	Status        StocktakeStatus
	ScheduledDate time.Time
	ScheduledBy   string
	StartedAt     *time.Time
	CompletedBy   string
	CompletedAt   *time.Time
	CancelledBy   string
	CancelledAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Items         []StocktakeItem
}

// Item devuelve el ítem de la parte indicada, o nil.
func (s *Stocktake) Item(partID string) *StocktakeItem {
	for i := range s.Items {
		if s.Items[i].PartID == partID {
			return &s.Items[i]
		}
	}
	return nil
}

// CountedItems número de ítems con conteo registrado.
func (s *Stocktake) CountedItems() int {
	n := 0
	for _, it := range s.Items {
		if it.Counted() {
			n++
		}
	}
	return n
}

// StocktakeItem línea de la toma: cantidad esperada (snapshot) vs contada.
type StocktakeItem struct {
	StocktakeID      string
	PartID           string
	ExpectedQuantity decimal.Decimal
	ActualQuantity   *decimal.Decimal // nil hasta que se cuenta
	CountedBy        string
	CountedAt        *time.Time
}

// Counted indica si el ítem ya fue contado.
func (i *StocktakeItem) Counted() bool {
	return i.ActualQuantity != nil
}

// Difference devuelve actual - esperado. Cero si no se ha contado.
func (i *StocktakeItem) Difference() decimal.Decimal {
	if i.ActualQuantity == nil {
		return decimal.Zero
	}
	return i.ActualQuantity.Sub(i.ExpectedQuantity)
}
