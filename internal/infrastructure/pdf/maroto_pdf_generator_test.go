package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

func TestRenderStocktake(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	actual := decimal.NewFromInt(95)
	rep := app.StocktakeReport{
		Stocktake: &entity.Stocktake{
			ID: "st-1", WarehouseID: "A", Status: entity.StocktakeCompleted,
			ScheduledDate: now, ScheduledBy: "u1", CompletedBy: "u2", CompletedAt: &now,
			Items: []entity.StocktakeItem{
				{PartID: "X", ExpectedQuantity: decimal.NewFromInt(100), ActualQuantity: &actual, CountedBy: "u2"},
				{PartID: "Y", ExpectedQuantity: decimal.NewFromInt(7)},
			},
		},
		Warehouse:   &entity.Warehouse{ID: "A", Name: "Bodega Central"},
		Adjustments: []*entity.Adjustment{{ID: "adj-1", Delta: decimal.NewFromInt(-5)}},
		GeneratedAt: now,
	}

	out, err := NewMarotoPDFGenerator().RenderStocktake(rep)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderStocktake_SinToma(t *testing.T) {
	_, err := NewMarotoPDFGenerator().RenderStocktake(app.StocktakeReport{})
	assert.Error(t, err)
}

func TestSigned(t *testing.T) {
	assert.Equal(t, "+5", signed(decimal.NewFromInt(5)))
	assert.Equal(t, "-5", signed(decimal.NewFromInt(-5)))
	assert.Equal(t, "0", signed(decimal.Zero))
}
