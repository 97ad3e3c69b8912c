package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// StocktakeRepository puerto de persistencia para tomas físicas y sus ítems.
type StocktakeRepository interface {
	// Create inserta la toma junto con sus ítems.
	Create(ctx context.Context, st *entity.Stocktake) error
	// GetByID devuelve la toma con ítems, o nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Stocktake, error)
	// GetForUpdate igual que GetByID pero bloquea la cabecera hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Stocktake, error)
	// UpdateStatus persiste estado y campos de auditoría (started/completed/cancelled).
	UpdateStatus(ctx context.Context, st *entity.Stocktake) error
	UpsertItem(ctx context.Context, item *entity.StocktakeItem) error
	DeleteItems(ctx context.Context, stocktakeID string) error
}

// AdjustmentRepository puerto de persistencia de ajustes.
type AdjustmentRepository interface {
	Create(ctx context.Context, a *entity.Adjustment) error
	ListByStocktake(ctx context.Context, stocktakeID string) ([]*entity.Adjustment, error)
}
