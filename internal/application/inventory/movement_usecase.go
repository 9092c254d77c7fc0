package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Gestion-api/internal/application/dto"
	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	ledger "github.com/jhoicas/Gestion-api/internal/domain/inventory"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
)

// MovementDeps dependencias compartidas por los servicios de compra, venta y abastecimiento.
type MovementDeps struct {
	TxRunner       TxRunner
	Products       repository.ProductRepository
	Movements      repository.MovementRepository
	Counterparties repository.CounterpartyRepository
	States         repository.ProcessStateRepository
	Services       repository.ServiceItemRepository
	Notifier       StockNotifier
	TaxRate        decimal.Decimal
}

// MovementUseCase servicio genérico de movimientos del libro, parametrizado por Policy.
// Valida antes de abrir la transacción, persiste cabecera y líneas, aplica el efecto sobre
// existencias dentro de la misma transacción y notifica alertas después del commit.
type MovementUseCase struct {
	policy Policy
	deps   MovementDeps
}

// NewMovementUseCase construye el servicio para un tipo de movimiento.
func NewMovementUseCase(policy Policy, deps MovementDeps) *MovementUseCase {
	return &MovementUseCase{policy: policy, deps: deps}
}

// Policy devuelve la política con la que fue construido el servicio.
func (uc *MovementUseCase) Policy() Policy { return uc.policy }

// lineInput línea de producto normalizada (alta o edición).
type lineInput struct {
	ProductID string
	Quantity  int
	UnitPrice *decimal.Decimal
}

// Create registra un movimiento nuevo (activo). En ventas con estado sin affects_stock
// se guardan las cantidades sin tocar existencias.
func (uc *MovementUseCase) Create(ctx context.Context, userID string, in dto.CreateMovementRequest) (*dto.MovementResponse, error) {
	pol := uc.policy
	if len(in.Lines) == 0 && len(in.Services) == 0 {
		return nil, domain.NewInvalidInput("EMPTY_MOVEMENT", "el movimiento debe tener al menos una línea")
	}
	if len(in.Services) > 0 && !pol.AllowsServices {
		return nil, domain.NewInvalidInput("SERVICES_NOT_ALLOWED", "este movimiento no admite servicios")
	}
	lines := make([]lineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		if l.ProductID == "" || l.Quantity <= 0 {
			return nil, domain.NewInvalidInput("INVALID_LINE", "cada línea requiere product_id y cantidad mayor a cero")
		}
		lines = append(lines, lineInput{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}

	counterpartyID, err := uc.checkCounterparty(ctx, in.CounterpartyID)
	if err != nil {
		return nil, err
	}
	state, err := uc.resolveState(ctx, in.StateID)
	if err != nil {
		return nil, err
	}
	products, err := uc.loadProducts(ctx, lines)
	if err != nil {
		return nil, err
	}

	movementID := uuid.New().String()
	details, err := uc.buildDetails(movementID, lines, products, nil)
	if err != nil {
		return nil, err
	}
	services, err := uc.buildServices(ctx, movementID, in.Services)
	if err != nil {
		return nil, err
	}

	affects := pol.affectsStock(true, state)
	if affects && pol.Direction == ledger.Outbound {
		for id, qty := range ledger.Quantities(details) {
			if qty > products[id].Quantity {
				return nil, domain.NewInsufficientStock(id, qty, products[id].Quantity)
			}
		}
	}

	totals := uc.totals(details, services, in.Tax, in.Total)
	now := time.Now()
	header := &entity.Movement{
		ID:             movementID,
		Kind:           pol.Kind,
		CounterpartyID: counterpartyID,
		Reference:      in.Reference,
		Subtotal:       totals.Subtotal,
		Tax:            totals.Tax,
		Total:          totals.Total,
		Active:         true,
		StockApplied:   affects,
		CreatedBy:      userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if state != nil {
		header.StateID = &state.ID
	}

	var changes []StockChange
	err = uc.deps.TxRunner.Run(ctx, func(movRepo repository.MovementRepository, productRepo repository.ProductRepository) error {
		changes = nil
		if err := movRepo.Create(ctx, header); err != nil {
			return err
		}
		if err := persistLines(ctx, movRepo, details, services); err != nil {
			return err
		}
		if !affects {
			return nil
		}
		var err error
		changes, err = applyDeltas(ctx, productRepo, ledger.Deltas(pol.Direction, nil, ledger.Quantities(details)))
		return err
	})
	if err != nil {
		return nil, err
	}

	header.Details, header.Services = details, services
	log.Debug().Str("kind", string(pol.Kind)).Str("movement_id", header.ID).Bool("stock_applied", affects).Msg("movimiento registrado")
	uc.notify(ctx, changes, fmt.Sprintf("registro de %s %s", pol.Label, header.ID))
	return toMovementResponse(header), nil
}

// Get obtiene el agregado persistido. Un movimiento de otro tipo se reporta como no encontrado.
func (uc *MovementUseCase) Get(ctx context.Context, id string) (*dto.MovementResponse, error) {
	m, err := uc.deps.Movements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil || m.Kind != uc.policy.Kind {
		return nil, movementNotFound(id)
	}
	if m.Details, err = uc.deps.Movements.GetDetails(ctx, id); err != nil {
		return nil, err
	}
	if m.Services, err = uc.deps.Movements.GetServiceLines(ctx, id); err != nil {
		return nil, err
	}
	return toMovementResponse(m), nil
}

// List lista cabeceras del tipo con filtros y paginación (sin líneas).
func (uc *MovementUseCase) List(ctx context.Context, in dto.MovementFilterRequest) (*dto.MovementListResponse, error) {
	in.DefaultPage()
	items, total, err := uc.deps.Movements.List(ctx, repository.MovementFilter{
		Kind:           uc.policy.Kind,
		Active:         in.Active,
		CounterpartyID: in.CounterpartyID,
		StateID:        in.StateID,
		From:           in.From,
		To:             in.To,
		Limit:          in.Limit,
		Offset:         in.Offset,
	})
	if err != nil {
		return nil, err
	}
	out := &dto.MovementListResponse{
		Items: make([]dto.MovementResponse, 0, len(items)),
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: total},
	}
	for _, m := range items {
		out.Items = append(out.Items, *toMovementResponse(m))
	}
	return out, nil
}

// checkCounterparty valida la contraparte del tipo (debe existir y estar activa).
func (uc *MovementUseCase) checkCounterparty(ctx context.Context, id *string) (*string, error) {
	pol := uc.policy
	if id == nil || *id == "" {
		if pol.CounterpartyRequired {
			return nil, domain.NewInvalidInput("COUNTERPARTY_REQUIRED", "la contraparte es obligatoria")
		}
		return nil, nil
	}
	cp, err := uc.deps.Counterparties.GetByID(ctx, pol.Counterparty, *id)
	if err != nil {
		return nil, err
	}
	if cp == nil {
		return nil, domain.NewInvalidInput("COUNTERPARTY_NOT_FOUND", "contraparte no encontrada").WithDetail("counterparty_id", *id)
	}
	if !cp.Active {
		return nil, domain.NewInvalidInput("INACTIVE_COUNTERPARTY", "contraparte inactiva").WithDetail("counterparty_id", *id)
	}
	return &cp.ID, nil
}

// resolveState valida el estado de proceso recibido según la política.
func (uc *MovementUseCase) resolveState(ctx context.Context, id *string) (*entity.ProcessState, error) {
	pol := uc.policy
	if id == nil || *id == "" {
		if pol.RequiresState {
			return nil, domain.NewInvalidInput("STATE_REQUIRED", "el estado es obligatorio")
		}
		return nil, nil
	}
	if !pol.HasState {
		return nil, domain.NewInvalidInput("STATE_NOT_ALLOWED", "este movimiento no maneja estado")
	}
	st, err := uc.deps.States.GetByID(ctx, *id)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, domain.NewInvalidInput("STATE_NOT_FOUND", "estado no encontrado").WithDetail("state_id", *id)
	}
	return st, nil
}

// stateOf estado actual de una cabecera (nil si no tiene).
func (uc *MovementUseCase) stateOf(ctx context.Context, id *string) (*entity.ProcessState, error) {
	if id == nil || *id == "" {
		return nil, nil
	}
	return uc.deps.States.GetByID(ctx, *id)
}

// loadProducts lee (sin bloqueo) cada producto distinto y valida existencia, estado y uso.
func (uc *MovementUseCase) loadProducts(ctx context.Context, lines []lineInput) (map[string]*entity.Product, error) {
	out := make(map[string]*entity.Product, len(lines))
	for _, l := range lines {
		if _, ok := out[l.ProductID]; ok {
			continue
		}
		p, err := uc.deps.Products.GetByID(ctx, l.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, domain.NewInvalidInput("PRODUCT_NOT_FOUND", "producto no encontrado").WithDetail("product_id", l.ProductID)
		}
		if !p.Active {
			return nil, domain.NewInvalidInput("INACTIVE_PRODUCT", "producto inactivo").WithDetail("product_id", l.ProductID)
		}
		if uc.policy.Usage != "" && p.UsageKind != uc.policy.Usage {
			return nil, domain.NewInvalidInput("INVALID_PRODUCT_USAGE", "el producto no es de uso "+string(uc.policy.Usage)).
				WithDetail("product_id", l.ProductID)
		}
		out[l.ProductID] = p
	}
	return out, nil
}

// buildDetails arma las líneas con su precio congelado. snapshot trae los precios ya
// registrados del movimiento (edición): esos no cambian.
func (uc *MovementUseCase) buildDetails(
	movementID string,
	lines []lineInput,
	products map[string]*entity.Product,
	snapshot map[string]decimal.Decimal,
) ([]entity.MovementDetail, error) {
	pol := uc.policy
	out := make([]entity.MovementDetail, 0, len(lines))
	for _, l := range lines {
		var price decimal.Decimal
		if snap, ok := snapshot[l.ProductID]; ok {
			price = snap
		} else {
			switch {
			case pol.PriceFromProduct:
				price = products[l.ProductID].Price
			case l.UnitPrice != nil:
				if l.UnitPrice.IsNegative() {
					return nil, domain.NewInvalidInput("INVALID_UNIT_PRICE", "el precio unitario no puede ser negativo").
						WithDetail("product_id", l.ProductID)
				}
				price = *l.UnitPrice
			case pol.RequiresUnitPrice:
				return nil, domain.NewInvalidInput("MISSING_UNIT_PRICE", "el precio unitario es obligatorio").
					WithDetail("product_id", l.ProductID)
			default:
				price = products[l.ProductID].Price
			}
		}
		price = price.Round(2)
		out = append(out, entity.MovementDetail{
			ID:         uuid.New().String(),
			MovementID: movementID,
			ProductID:  l.ProductID,
			Quantity:   l.Quantity,
			UnitPrice:  price,
			Subtotal:   ledger.LineSubtotal(l.Quantity, price),
		})
	}
	return out, nil
}

// buildServices valida y arma las líneas de servicio de una venta.
func (uc *MovementUseCase) buildServices(ctx context.Context, movementID string, in []dto.ServiceLineRequest) ([]entity.ServiceLine, error) {
	if len(in) == 0 {
		return nil, nil
	}
	if !uc.policy.AllowsServices {
		return nil, domain.NewInvalidInput("SERVICES_NOT_ALLOWED", "este movimiento no admite servicios")
	}
	out := make([]entity.ServiceLine, 0, len(in))
	for _, s := range in {
		if s.ServiceID == "" || s.Quantity < 0 {
			return nil, domain.NewInvalidInput("INVALID_SERVICE_LINE", "línea de servicio inválida")
		}
		item, err := uc.deps.Services.GetByID(ctx, s.ServiceID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, domain.NewInvalidInput("SERVICE_NOT_FOUND", "servicio no encontrado").WithDetail("service_id", s.ServiceID)
		}
		if !item.Active {
			return nil, domain.NewInvalidInput("INACTIVE_SERVICE", "servicio inactivo").WithDetail("service_id", s.ServiceID)
		}
		qty := s.Quantity
		if qty == 0 {
			qty = 1
		}
		price := item.Price
		if s.UnitPrice != nil {
			if s.UnitPrice.IsNegative() {
				return nil, domain.NewInvalidInput("INVALID_UNIT_PRICE", "el precio unitario no puede ser negativo")
			}
			price = *s.UnitPrice
		}
		price = price.Round(2)
		out = append(out, entity.ServiceLine{
			ID:            uuid.New().String(),
			MovementID:    movementID,
			ServiceID:     s.ServiceID,
			AppointmentID: s.AppointmentID,
			Quantity:      qty,
			UnitPrice:     price,
			Subtotal:      ledger.LineSubtotal(qty, price),
		})
	}
	return out, nil
}

func (uc *MovementUseCase) totals(
	details []entity.MovementDetail,
	services []entity.ServiceLine,
	tax, total *decimal.Decimal,
) ledger.Totals {
	subtotal := decimal.Zero
	for _, d := range details {
		subtotal = subtotal.Add(d.Subtotal)
	}
	for _, s := range services {
		subtotal = subtotal.Add(s.Subtotal)
	}
	rate := decimal.Zero
	if uc.policy.Taxed {
		rate = uc.deps.TaxRate
	}
	return ledger.ComputeTotals(subtotal, rate, tax, total)
}

// notify dispara las alertas después del commit; nunca falla.
func (uc *MovementUseCase) notify(ctx context.Context, changes []StockChange, origin string) {
	if uc.deps.Notifier == nil {
		return
	}
	for _, ch := range changes {
		uc.deps.Notifier.CheckAndNotify(ctx, ch, origin)
	}
}

func persistLines(ctx context.Context, movRepo repository.MovementRepository, details []entity.MovementDetail, services []entity.ServiceLine) error {
	for i := range details {
		if err := movRepo.CreateDetail(ctx, &details[i]); err != nil {
			return err
		}
	}
	for i := range services {
		if err := movRepo.CreateServiceLine(ctx, &services[i]); err != nil {
			return err
		}
	}
	return nil
}

func movementNotFound(id string) error {
	return domain.NewNotFound("MOVEMENT_NOT_FOUND", "movimiento no encontrado").WithDetail("movement_id", id)
}
