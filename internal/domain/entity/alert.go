package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertKind tipo de alerta.
type AlertKind string

const (
	AlertLowStock    AlertKind = "LOW_STOCK"
	AlertStockout    AlertKind = "STOCKOUT"
	AlertExcess      AlertKind = "EXCESS"
	AlertDiscrepancy AlertKind = "DISCREPANCY"
)

// AlertSeverity severidad de la alerta.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "INFO"
	SeverityWarning  AlertSeverity = "WARNING"
	SeverityCritical AlertSeverity = "CRITICAL"
)

// Alert referencia (sin poseerla) la fila de balance (WarehouseID, PartID).
// Hay a lo sumo una alerta activa por (WarehouseID, PartID, Kind).
type Alert struct {
	ID              string
	WarehouseID     string
	PartID          string
	Kind            AlertKind
	Severity        AlertSeverity
	CurrentValue    decimal.Decimal
	ThresholdValue  decimal.Decimal
	Message         string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ResolvedAt      *time.Time
	ResolvedBy      string
	ResolutionNotes string
}
