package http

import (
	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	app "github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

func toLedgerEntryResponse(e *entity.LedgerEntry) dto.LedgerEntryResponse {
	return dto.LedgerEntryResponse{
		ID:              e.ID,
		Type:            string(e.Type),
		PartID:          e.PartID,
		FromWarehouseID: e.FromWarehouse,
		ToWarehouseID:   e.ToWarehouse,
		Quantity:        e.Quantity,
		Actor:           e.Actor,
		Timestamp:       e.Timestamp,
		Reference:       e.Reference,
	}
}

func toBalanceResponse(b *entity.Balance) dto.BalanceResponse {
	return dto.BalanceResponse{
		WarehouseID:      b.WarehouseID,
		PartID:           b.PartID,
		CurrentStock:     b.CurrentStock,
		MinimumThreshold: b.MinimumThreshold,
		LastUpdated:      b.LastUpdated,
	}
}

func toBalanceResponses(bs []*entity.Balance) []dto.BalanceResponse {
	out := make([]dto.BalanceResponse, 0, len(bs))
	for _, b := range bs {
		out = append(out, toBalanceResponse(b))
	}
	return out
}

func toAlertResponse(a *entity.Alert) dto.AlertResponse {
	return dto.AlertResponse{
		ID:              a.ID,
		WarehouseID:     a.WarehouseID,
		PartID:          a.PartID,
		Kind:            string(a.Kind),
		Severity:        string(a.Severity),
		CurrentValue:    a.CurrentValue,
		ThresholdValue:  a.ThresholdValue,
		Message:         a.Message,
		IsActive:        a.IsActive,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
		ResolvedAt:      a.ResolvedAt,
		ResolvedBy:      a.ResolvedBy,
		ResolutionNotes: a.ResolutionNotes,
	}
}

func toAlertChangeResponses(changes []app.AlertChange) []dto.AlertChangeResponse {
	if len(changes) == 0 {
		return nil
	}
	out := make([]dto.AlertChangeResponse, 0, len(changes))
	for _, ch := range changes {
		out = append(out, dto.AlertChangeResponse{Action: string(ch.Action), Alert: toAlertResponse(ch.Alert)})
	}
	return out
}

func toStocktakeResponse(st *entity.Stocktake) dto.StocktakeResponse {
	items := make([]dto.StocktakeItemResponse, 0, len(st.Items))
	for _, it := range st.Items {
		r := dto.StocktakeItemResponse{
			PartID:           it.PartID,
			ExpectedQuantity: it.ExpectedQuantity,
			ActualQuantity:   it.ActualQuantity,
			CountedBy:        it.CountedBy,
			CountedAt:        it.CountedAt,
		}
		if it.Counted() {
			d := it.Difference()
			r.Difference = &d
		}
		items = append(items, r)
	}
	return dto.StocktakeResponse{
		ID:            st.ID,
		WarehouseID:   st.WarehouseID,
		Status:        string(st.Status),
		ScheduledDate: st.ScheduledDate,
		ScheduledBy:   st.ScheduledBy,
		StartedAt:     st.StartedAt,
		CompletedBy:   st.CompletedBy,
		CompletedAt:   st.CompletedAt,
		CancelledBy:   st.CancelledBy,
		CancelledAt:   st.CancelledAt,
		Items:         items,
	}
}

func toAdjustmentResponse(a *entity.Adjustment) dto.AdjustmentResponse {
	return dto.AdjustmentResponse{
		ID:               a.ID,
		WarehouseID:      a.WarehouseID,
		PartID:           a.PartID,
		Delta:            a.Delta,
		PreviousQuantity: a.PreviousQuantity,
		NewQuantity:      a.NewQuantity,
		Reason:           a.Reason,
		Actor:            a.Actor,
		StocktakeID:      a.StocktakeID,
		LedgerEntryID:    a.LedgerEntryID,
		CreatedAt:        a.CreatedAt,
	}
}

func toAdjustmentResponses(as []*entity.Adjustment) []dto.AdjustmentResponse {
	out := make([]dto.AdjustmentResponse, 0, len(as))
	for _, a := range as {
		out = append(out, toAdjustmentResponse(a))
	}
	return out
}

func toReplenishmentDTOs(list []app.ReplenishmentSuggestion) []dto.ReplenishmentSuggestionDTO {
	out := make([]dto.ReplenishmentSuggestionDTO, 0, len(list))
	for _, s := range list {
		out = append(out, dto.ReplenishmentSuggestionDTO{
			WarehouseID:       s.WarehouseID,
			PartID:            s.PartID,
			CurrentStock:      s.CurrentStock,
			MinimumThreshold:  s.MinimumThreshold,
			IdealStock:        s.IdealStock,
			SuggestedOrderQty: s.SuggestedQty,
			Priority:          s.Priority,
		})
	}
	return out
}
