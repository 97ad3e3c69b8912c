package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// PartRepository puerto de solo lectura sobre el maestro de partes.
type PartRepository interface {
	// GetByID devuelve nil, nil si la parte no existe.
	GetByID(ctx context.Context, id string) (*entity.Part, error)
}
