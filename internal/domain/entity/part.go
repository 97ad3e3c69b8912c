package entity

// PartCategory decide la política de precisión de cantidades.
type PartCategory string

const (
	PartCategoryDiscrete PartCategory = "DISCRETE" // unidades enteras
	PartCategoryBulk     PartCategory = "BULK"     // granel, admite decimales
)

// IsValid indica si la categoría es conocida.
func (c PartCategory) IsValid() bool {
	return c == PartCategoryDiscrete || c == PartCategoryBulk
}

// Part es el dato maestro de una parte (externo; solo lectura para el motor).
type Part struct {
	ID          string
	SKU         string
	Name        string
	Category    PartCategory
	UnitMeasure string
}
