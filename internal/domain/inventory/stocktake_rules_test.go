package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
)

func TestCanTransition(t *testing.T) {
	all := []entity.StocktakeStatus{
		entity.StocktakePlanned, entity.StocktakeInProgress, entity.StocktakeCompleted, entity.StocktakeCancelled,
	}
	allowed := map[[2]entity.StocktakeStatus]bool{
		{entity.StocktakePlanned, entity.StocktakeInProgress}:   true,
		{entity.StocktakePlanned, entity.StocktakeCompleted}:    true,
		{entity.StocktakePlanned, entity.StocktakeCancelled}:    true,
		{entity.StocktakeInProgress, entity.StocktakeCompleted}: true,
		{entity.StocktakeInProgress, entity.StocktakeCancelled}: true,
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]entity.StocktakeStatus{from, to}], inventory.CanTransition(from, to),
				"%s -> %s", from, to)
		}
	}
	assert.True(t, inventory.IsTerminal(entity.StocktakeCompleted))
	assert.True(t, inventory.IsTerminal(entity.StocktakeCancelled))
	assert.False(t, inventory.IsTerminal(entity.StocktakeInProgress))
}

func TestCanComplete_PlanificadaSoloSinConteos(t *testing.T) {
	st := &entity.Stocktake{Status: entity.StocktakePlanned, Items: []entity.StocktakeItem{{PartID: "A"}}}
	assert.True(t, inventory.CanComplete(st))

	qty := decimal.NewFromInt(3)
	st.Items[0].ActualQuantity = &qty
	assert.False(t, inventory.CanComplete(st))

	st.Status = entity.StocktakeInProgress
	assert.True(t, inventory.CanComplete(st))

	st.Status = entity.StocktakeCancelled
	assert.False(t, inventory.CanComplete(st))
}
