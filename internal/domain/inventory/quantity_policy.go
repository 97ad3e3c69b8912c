package inventory

import (
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

const (
	// DefaultBulkScale decimales permitidos por defecto para partes a granel.
	DefaultBulkScale int32 = 3
	// MaxBulkScale escala de las columnas NUMERIC(18, 6); una escala mayor se redondearía al persistir.
	MaxBulkScale int32 = 6
)

// QuantityMode indica cómo se usa la cantidad que se valida.
type QuantityMode int

const (
	// ModeAbsolute stock absoluto (conteos, umbrales): >= 0.
	ModeAbsolute QuantityMode = iota
	// ModeMovement magnitud de un movimiento: > 0.
	ModeMovement
	// ModeSignedDelta delta de ajuste: != 0, cualquier signo.
	ModeSignedDelta
)

// QuantityPolicy valida la forma numérica de una cantidad según la categoría de la parte (servicio de dominio puro).
type QuantityPolicy struct {
	BulkScale int32
}

// NewQuantityPolicy construye la política. scale <= 0 usa DefaultBulkScale; se acota a MaxBulkScale.
func NewQuantityPolicy(scale int32) QuantityPolicy {
	if scale <= 0 {
		scale = DefaultBulkScale
	}
	if scale > MaxBulkScale {
		scale = MaxBulkScale
	}
	return QuantityPolicy{BulkScale: scale}
}

// Scale devuelve los decimales permitidos para la categoría.
func (p QuantityPolicy) Scale(category entity.PartCategory) int32 {
	if category == entity.PartCategoryBulk {
		return p.BulkScale
	}
	return 0
}

// Validate devuelve *domain.QuantityError (ErrInvalidQuantityPrecision) si q no cumple la política.
func (p QuantityPolicy) Validate(partID string, q decimal.Decimal, category entity.PartCategory, mode QuantityMode) error {
	fail := func(reason string) error {
		return &domain.QuantityError{PartID: partID, Category: string(category), Quantity: q.String(), Reason: reason}
	}
	if !category.IsValid() {
		return fail("categoría desconocida")
	}
	switch mode {
	case ModeAbsolute:
		if q.IsNegative() {
			return fail("no puede ser negativa")
		}
	case ModeMovement:
		if !q.IsPositive() {
			return fail("la magnitud debe ser mayor que cero")
		}
	case ModeSignedDelta:
		if q.IsZero() {
			return fail("el delta no puede ser cero")
		}
	}
	scale := p.Scale(category)
	if !q.Equal(q.Truncate(scale)) {
		if scale == 0 {
			return fail("las partes discretas solo admiten unidades enteras")
		}
		return fail("excede la escala decimal permitida")
	}
	return nil
}
