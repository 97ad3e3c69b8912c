package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// BalanceFilter filtro para listar balances.
type BalanceFilter struct {
	WarehouseID    string
	PartID         string
	BelowThreshold bool // solo filas con current_stock < minimum_threshold
	Limit          int
	Offset         int
}

// BalanceRepository define el puerto para consultar/actualizar el balance por bodega+parte.
// Las escrituras solo deben hacerse desde el ConsistencyEnforcer, dentro de una transacción.
type BalanceRepository interface {
	// Get devuelve nil, nil si la fila no existe.
	Get(ctx context.Context, key entity.BalanceKey) (*entity.Balance, error)
	// LockForUpdate materializa la fila si falta (stock 0) y la bloquea hasta el fin de la transacción.
	LockForUpdate(ctx context.Context, key entity.BalanceKey) (*entity.Balance, error)
	// Upsert escribe stock, umbral y last_updated de la fila.
	Upsert(ctx context.Context, b *entity.Balance) error
	List(ctx context.Context, f BalanceFilter) ([]*entity.Balance, error)
	// ListStocked devuelve los balances de la bodega con current_stock > 0, ordenados por parte.
	ListStocked(ctx context.Context, warehouseID string) ([]*entity.Balance, error)
}
