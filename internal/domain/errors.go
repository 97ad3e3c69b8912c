package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")

	ErrInvalidQuantityPrecision = errors.New("precisión de cantidad inválida")
	ErrUnknownWarehouseOrPart   = errors.New("bodega o parte desconocida")
	ErrInsufficientStock        = errors.New("stock insuficiente")
	ErrConcurrentModification   = errors.New("modificación concurrente, reintentar")
	ErrStocktakeState           = errors.New("estado de toma física inválido")

	// ErrDuplicateAlertSuppressed es informativo: ya existe una alerta activa
	// para (bodega, parte, tipo). No es un fallo.
	ErrDuplicateAlertSuppressed = errors.New("alerta duplicada suprimida")
)

// QuantityError detalla por qué una cantidad no cumple la política de su categoría.
type QuantityError struct {
	PartID   string
	Category string
	Quantity string
	Reason   string
}

func (e *QuantityError) Error() string {
	return fmt.Sprintf("%s: parte %s (%s) cantidad %s: %s",
		ErrInvalidQuantityPrecision, e.PartID, e.Category, e.Quantity, e.Reason)
}

func (e *QuantityError) Unwrap() error { return ErrInvalidQuantityPrecision }

// UnknownReferenceError identifica la bodega o parte que no existe (o está inactiva).
type UnknownReferenceError struct {
	WarehouseID string
	PartID      string
	Reason      string
}

func (e *UnknownReferenceError) Error() string {
	if e.WarehouseID != "" {
		return fmt.Sprintf("%s: bodega %s %s", ErrUnknownWarehouseOrPart, e.WarehouseID, e.Reason)
	}
	return fmt.Sprintf("%s: parte %s %s", ErrUnknownWarehouseOrPart, e.PartID, e.Reason)
}

func (e *UnknownReferenceError) Unwrap() error { return ErrUnknownWarehouseOrPart }

// InsufficientStockError nombra el primer par (bodega, parte) que quedaría negativo.
type InsufficientStockError struct {
	WarehouseID string
	PartID      string
	Available   string
	Requested   string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: bodega %s parte %s disponible %s, movimiento %s",
		ErrInsufficientStock, e.WarehouseID, e.PartID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// StocktakeStateError describe una transición no permitida de la toma física.
type StocktakeStateError struct {
	StocktakeID string
	Status      string
	Operation   string
}

func (e *StocktakeStateError) Error() string {
	return fmt.Sprintf("%s: toma %s en estado %s no admite %s",
		ErrStocktakeState, e.StocktakeID, e.Status, e.Operation)
}

func (e *StocktakeStateError) Unwrap() error { return ErrStocktakeState }

// ConflictError envuelve la causa de infraestructura (timeout de lock, deadlock, serialización).
type ConflictError struct {
	Resource string
	Cause    error
}

func (e *ConflictError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", ErrConcurrentModification, e.Resource)
	}
	return fmt.Sprintf("%s: %s: %v", ErrConcurrentModification, e.Resource, e.Cause)
}

func (e *ConflictError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrConcurrentModification}
	}
	return []error{ErrConcurrentModification, e.Cause}
}

// IsRetryable indica si el llamador puede reintentar la operación con backoff.
// Solo la contención de locks es reintentable.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
