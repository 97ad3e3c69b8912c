package entity

import "time"

// Warehouse representa una bodega donde se almacena inventario (dato maestro externo).
type Warehouse struct {
	ID             string
	OrganizationID string
	Name           string
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
