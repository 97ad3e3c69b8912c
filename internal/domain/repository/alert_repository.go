package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// AlertRepository puerto de persistencia de alertas.
type AlertRepository interface {
	// Insert devuelve domain.ErrDuplicateAlertSuppressed si ya hay una alerta activa
	// para (bodega, parte, tipo).
	Insert(ctx context.Context, a *entity.Alert) error
	// GetActive devuelve la alerta activa del tipo indicado, o nil.
	GetActive(ctx context.Context, key entity.BalanceKey, kind entity.AlertKind) (*entity.Alert, error)
	GetByID(ctx context.Context, id string) (*entity.Alert, error)
	// GetByIDForUpdate bloquea la alerta hasta el fin de la transacción; nil si no existe.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Alert, error)
	Update(ctx context.Context, a *entity.Alert) error
	// ListActive lista alertas activas; warehouseID vacío = todas las bodegas.
	ListActive(ctx context.Context, warehouseID string) ([]*entity.Alert, error)
}
