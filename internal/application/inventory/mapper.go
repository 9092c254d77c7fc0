package inventory

import (
	"github.com/jhoicas/Gestion-api/internal/application/dto"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
)

func toMovementResponse(m *entity.Movement) *dto.MovementResponse {
	out := &dto.MovementResponse{
		ID:             m.ID,
		Kind:           string(m.Kind),
		CounterpartyID: m.CounterpartyID,
		StateID:        m.StateID,
		Reference:      m.Reference,
		Subtotal:       m.Subtotal,
		Tax:            m.Tax,
		Total:          m.Total,
		Active:         m.Active,
		StockApplied:   m.StockApplied,
		CreatedBy:      m.CreatedBy,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
		Details:        make([]dto.MovementDetailResponse, 0, len(m.Details)),
	}
	for _, d := range m.Details {
		out.Details = append(out.Details, dto.MovementDetailResponse{
			ID:        d.ID,
			ProductID: d.ProductID,
			Quantity:  d.Quantity,
			UnitPrice: d.UnitPrice,
			Subtotal:  d.Subtotal,
		})
	}
	for _, s := range m.Services {
		out.Services = append(out.Services, dto.ServiceLineResponse{
			ID:            s.ID,
			ServiceID:     s.ServiceID,
			AppointmentID: s.AppointmentID,
			Quantity:      s.Quantity,
			UnitPrice:     s.UnitPrice,
			Subtotal:      s.Subtotal,
		})
	}
	return out
}

func toProductStockResponse(p *entity.Product) *dto.ProductStockResponse {
	return &dto.ProductStockResponse{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  p.Quantity,
		MinStock:  p.MinStock,
		MaxStock:  p.MaxStock,
		LowStock:  p.IsLowStock(),
		Active:    p.Active,
		UsageKind: string(p.UsageKind),
		UpdatedAt: p.UpdatedAt,
	}
}
