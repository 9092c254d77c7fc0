package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
)

// ReceiptLine línea del comprobante (producto o servicio).
type ReceiptLine struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// ReceiptData datos ya resueltos para renderizar el comprobante.
type ReceiptData struct {
	Title        string
	Movement     *entity.Movement
	Counterparty *entity.Counterparty
	State        *entity.ProcessState
	Lines        []ReceiptLine
}

// ReceiptUseCase genera el comprobante PDF de compras, ventas y abastecimientos.
type ReceiptUseCase struct {
	movements      repository.MovementRepository
	products       repository.ProductRepository
	counterparties repository.CounterpartyRepository
	states         repository.ProcessStateRepository
	services       repository.ServiceItemRepository
	generator      ReceiptGenerator
}

// NewReceiptUseCase construye el caso de uso inyectando todas sus dependencias.
func NewReceiptUseCase(
	movements repository.MovementRepository,
	products repository.ProductRepository,
	counterparties repository.CounterpartyRepository,
	states repository.ProcessStateRepository,
	services repository.ServiceItemRepository,
	generator ReceiptGenerator,
) *ReceiptUseCase {
	return &ReceiptUseCase{
		movements:      movements,
		products:       products,
		counterparties: counterparties,
		states:         states,
		services:       services,
		generator:      generator,
	}
}

// Download devuelve (pdfBytes, filename). NotFound si el movimiento no existe o es de otro tipo.
func (uc *ReceiptUseCase) Download(ctx context.Context, kind entity.MovementKind, id string) ([]byte, string, error) {
	pol, ok := PolicyFor(kind)
	if !ok {
		return nil, "", movementNotFound(id)
	}
	m, err := uc.movements.GetByID(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("comprobante: obtener movimiento: %w", err)
	}
	if m == nil || m.Kind != kind {
		return nil, "", movementNotFound(id)
	}
	if m.Details, err = uc.movements.GetDetails(ctx, id); err != nil {
		return nil, "", fmt.Errorf("comprobante: obtener líneas: %w", err)
	}
	if m.Services, err = uc.movements.GetServiceLines(ctx, id); err != nil {
		return nil, "", fmt.Errorf("comprobante: obtener servicios: %w", err)
	}

	data := ReceiptData{Title: "Comprobante de " + pol.Label, Movement: m}
	if m.CounterpartyID != nil {
		if data.Counterparty, err = uc.counterparties.GetByID(ctx, pol.Counterparty, *m.CounterpartyID); err != nil {
			return nil, "", fmt.Errorf("comprobante: obtener contraparte: %w", err)
		}
	}
	if m.StateID != nil {
		if data.State, err = uc.states.GetByID(ctx, *m.StateID); err != nil {
			return nil, "", fmt.Errorf("comprobante: obtener estado: %w", err)
		}
	}

	for _, d := range m.Details {
		name := d.ProductID
		if p, err := uc.products.GetByID(ctx, d.ProductID); err == nil && p != nil {
			name = p.Name
		}
		data.Lines = append(data.Lines, ReceiptLine{Description: name, Quantity: d.Quantity, UnitPrice: d.UnitPrice, Subtotal: d.Subtotal})
	}
	for _, s := range m.Services {
		name := s.ServiceID
		if item, err := uc.services.GetByID(ctx, s.ServiceID); err == nil && item != nil {
			name = item.Name
		}
		data.Lines = append(data.Lines, ReceiptLine{Description: name, Quantity: s.Quantity, UnitPrice: s.UnitPrice, Subtotal: s.Subtotal})
	}

	pdfBytes, err := uc.generator.GenerateMovementPDF(ctx, data)
	if err != nil {
		return nil, "", err
	}
	return pdfBytes, fmt.Sprintf("%s-%s.pdf", pol.Label, m.ID), nil
}
