package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AppendTransactionRequest body para POST /api/inventory/transactions.
type AppendTransactionRequest struct {
	Type            string          `json:"type"` // CREATION | TRANSFER | CONSUMPTION | ADJUSTMENT
	PartID          string          `json:"part_id"`
	FromWarehouseID string          `json:"from_warehouse_id,omitempty"`
	ToWarehouseID   string          `json:"to_warehouse_id,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	Reference       string          `json:"reference,omitempty"`
}

// LedgerEntryResponse salida de un movimiento.
type LedgerEntryResponse struct {
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	PartID          string          `json:"part_id"`
	FromWarehouseID string          `json:"from_warehouse_id,omitempty"`
	ToWarehouseID   string          `json:"to_warehouse_id,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	Actor           string          `json:"actor"`
	Timestamp       time.Time       `json:"timestamp"`
	Reference       string          `json:"reference,omitempty"`
}

// LedgerListResponse historial paginado.
type LedgerListResponse struct {
	Items []LedgerEntryResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}

// TransactionResponse resultado de registrar un movimiento.
type TransactionResponse struct {
	Entry    LedgerEntryResponse   `json:"entry"`
	Balances []BalanceResponse     `json:"balances"`
	Alerts   []AlertChangeResponse `json:"alerts,omitempty"`
}

// BalanceResponse saldo de un par (bodega, parte).
type BalanceResponse struct {
	WarehouseID      string          `json:"warehouse_id"`
	PartID           string          `json:"part_id"`
	CurrentStock     decimal.Decimal `json:"current_stock"`
	MinimumThreshold decimal.Decimal `json:"minimum_threshold"`
	LastUpdated      time.Time       `json:"last_updated"`
}

// BalanceListResponse lista paginada de saldos.
type BalanceListResponse struct {
	Items []BalanceResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// SetThresholdRequest body para PUT .../threshold.
type SetThresholdRequest struct {
	MinimumThreshold decimal.Decimal `json:"minimum_threshold"`
}

// CreateStocktakeRequest body para POST /api/inventory/stocktakes.
type CreateStocktakeRequest struct {
	WarehouseID   string     `json:"warehouse_id"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"` // vacío = ahora
}

// RecordCountRequest body para PUT /stocktakes/:id/items/:part_id.
type RecordCountRequest struct {
	ActualQuantity decimal.Decimal `json:"actual_quantity"`
}

// StocktakeItemResponse ítem de una toma física.
type StocktakeItemResponse struct {
	PartID           string           `json:"part_id"`
	ExpectedQuantity decimal.Decimal  `json:"expected_quantity"`
	ActualQuantity   *decimal.Decimal `json:"actual_quantity,omitempty"`
	Difference       *decimal.Decimal `json:"difference,omitempty"`
	CountedBy        string           `json:"counted_by,omitempty"`
	CountedAt        *time.Time       `json:"counted_at,omitempty"`
}

// StocktakeResponse salida de una toma física.
type StocktakeResponse struct {
	ID            string                  `json:"id"`
	WarehouseID   string                  `json:"warehouse_id"`
	Status        string                  `json:"status"`
	ScheduledDate time.Time               `json:"scheduled_date"`
	ScheduledBy   string                  `json:"scheduled_by"`
	StartedAt     *time.Time              `json:"started_at,omitempty"`
	CompletedBy   string                  `json:"completed_by,omitempty"`
	CompletedAt   *time.Time              `json:"completed_at,omitempty"`
	CancelledBy   string                  `json:"cancelled_by,omitempty"`
	CancelledAt   *time.Time              `json:"cancelled_at,omitempty"`
	Items         []StocktakeItemResponse `json:"items"`
}

// CompleteStocktakeResponse resultado de completar una toma.
type CompleteStocktakeResponse struct {
	Stocktake        StocktakeResponse    `json:"stocktake"`
	Adjustments      []AdjustmentResponse `json:"adjustments"`
	AlreadyCompleted bool                 `json:"already_completed"`
}

// AdjustmentRequest body para POST /api/inventory/adjustments.
type AdjustmentRequest struct {
	WarehouseID string          `json:"warehouse_id"`
	PartID      string          `json:"part_id"`
	Delta       decimal.Decimal `json:"delta"`
	Reason      string          `json:"reason"`
}

// AdjustmentResponse salida de un ajuste.
type AdjustmentResponse struct {
	ID               string          `json:"id"`
	WarehouseID      string          `json:"warehouse_id"`
	PartID           string          `json:"part_id"`
	Delta            decimal.Decimal `json:"delta"`
	PreviousQuantity decimal.Decimal `json:"previous_quantity"`
	NewQuantity      decimal.Decimal `json:"new_quantity"`
	Reason           string          `json:"reason"`
	Actor            string          `json:"actor"`
	StocktakeID      string          `json:"stocktake_id,omitempty"`
	LedgerEntryID    string          `json:"ledger_entry_id"`
	CreatedAt        time.Time       `json:"created_at"`
}

// AlertResponse salida de una alerta.
type AlertResponse struct {
	ID              string          `json:"id"`
	WarehouseID     string          `json:"warehouse_id"`
	PartID          string          `json:"part_id"`
	Kind            string          `json:"kind"`
	Severity        string          `json:"severity"`
	CurrentValue    decimal.Decimal `json:"current_value"`
	ThresholdValue  decimal.Decimal `json:"threshold_value"`
	Message         string          `json:"message"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	ResolvedAt      *time.Time      `json:"resolved_at,omitempty"`
	ResolvedBy      string          `json:"resolved_by,omitempty"`
	ResolutionNotes string          `json:"resolution_notes,omitempty"`
}

// AlertChangeResponse cambio de alerta provocado por un movimiento.
type AlertChangeResponse struct {
	Action string        `json:"action"`
	Alert  AlertResponse `json:"alert"`
}

// ResolveAlertRequest body para POST /alerts/:id/resolve.
type ResolveAlertRequest struct {
	Notes string `json:"notes"`
}

// ReplenishmentSuggestionDTO sugerencia de reposición para una parte por debajo de su umbral.
type ReplenishmentSuggestionDTO struct {
	WarehouseID       string          `json:"warehouse_id"`
	PartID            string          `json:"part_id"`
	CurrentStock      decimal.Decimal `json:"current_stock"`
	MinimumThreshold  decimal.Decimal `json:"minimum_threshold"`
	IdealStock        decimal.Decimal `json:"ideal_stock"`         // umbral * 1.5
	SuggestedOrderQty decimal.Decimal `json:"suggested_order_qty"` // IdealStock - CurrentStock
	Priority          int             `json:"priority"`            // 1 = más urgente
}
