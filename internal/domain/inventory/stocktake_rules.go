package inventory

import "github.com/jhoicas/inventario-ledger/internal/domain/entity"

// CanTransition indica si la toma puede pasar de from a to.
// PLANNED -> IN_PROGRESS -> COMPLETED; PLANNED|IN_PROGRESS -> CANCELLED. COMPLETED y CANCELLED son terminales.
func CanTransition(from, to entity.StocktakeStatus) bool {
	switch from {
	case entity.StocktakePlanned:
		return to == entity.StocktakeInProgress || to == entity.StocktakeCompleted || to == entity.StocktakeCancelled
	case entity.StocktakeInProgress:
		return to == entity.StocktakeCompleted || to == entity.StocktakeCancelled
	}
	return false
}

// IsTerminal indica si el estado no admite más transiciones.
func IsTerminal(s entity.StocktakeStatus) bool {
	return s == entity.StocktakeCompleted || s == entity.StocktakeCancelled
}

// AcceptsCounts indica si se pueden registrar conteos en el estado.
func AcceptsCounts(s entity.StocktakeStatus) bool {
	return s == entity.StocktakePlanned || s == entity.StocktakeInProgress
}

// CanComplete valida la finalización: desde IN_PROGRESS, o desde PLANNED sin ítems contados (no-op).
func CanComplete(st *entity.Stocktake) bool {
	switch st.Status {
	case entity.StocktakeInProgress:
		return true
	case entity.StocktakePlanned:
		return st.CountedItems() == 0
	}
	return false
}
