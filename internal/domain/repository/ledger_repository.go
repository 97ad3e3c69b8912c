package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// LedgerFilter filtro de consulta del libro mayor. WarehouseID coincide con origen o destino.
type LedgerFilter struct {
	WarehouseID string
	PartID      string
	Limit       int
	Offset      int
}

// LedgerRepository puerto del libro mayor (solo inserción).
type LedgerRepository interface {
	Append(ctx context.Context, e *entity.LedgerEntry) error
	GetByID(ctx context.Context, id string) (*entity.LedgerEntry, error)
	// List devuelve los movimientos más recientes primero.
	List(ctx context.Context, f LedgerFilter) ([]*entity.LedgerEntry, error)
	// ListByPair devuelve, en orden cronológico, todos los movimientos que afectan a la fila.
	ListByPair(ctx context.Context, key entity.BalanceKey) ([]*entity.LedgerEntry, error)
}
