package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Gestion-api/internal/application/dto"
	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	ledger "github.com/jhoicas/Gestion-api/internal/domain/inventory"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
)

// transition estado objetivo de una cabecera calculado a partir del estado bloqueado.
type transition struct {
	header          *entity.Movement
	details         []entity.MovementDetail
	services        []entity.ServiceLine
	replaceDetails  bool
	replaceServices bool
	deleted         bool
	noop            bool
}

type planFunc func(ctx context.Context, current *entity.Movement) (*transition, error)

// reconcile es el motor de reversión: bloquea la cabecera, lee active/stock_applied y
// cantidades vigentes, calcula el objetivo y aplica por producto
// delta = dir × (aplicadoDespués − aplicadoAntes) en la misma transacción.
func (uc *MovementUseCase) reconcile(ctx context.Context, id, action string, plan planFunc) (*entity.Movement, error) {
	pol := uc.policy
	var (
		changes []StockChange
		result  *entity.Movement
	)
	err := uc.deps.TxRunner.Run(ctx, func(movRepo repository.MovementRepository, productRepo repository.ProductRepository) error {
		changes, result = nil, nil

		current, err := movRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current == nil || current.Kind != pol.Kind {
			return movementNotFound(id)
		}
		if current.Details, err = movRepo.GetDetails(ctx, id); err != nil {
			return err
		}
		if current.Services, err = movRepo.GetServiceLines(ctx, id); err != nil {
			return err
		}

		t, err := plan(ctx, current)
		if err != nil {
			return err
		}
		if t.noop {
			result = current
			return nil
		}

		before := ledger.Applied(current.Details, current.StockApplied)
		after := map[string]int{}
		if !t.deleted {
			after = ledger.Applied(t.details, t.header.StockApplied)
		}
		changes, err = applyDeltas(ctx, productRepo, ledger.Deltas(pol.Direction, before, after))
		if err != nil {
			return err
		}

		if t.deleted {
			if err := movRepo.DeleteServiceLines(ctx, id); err != nil {
				return err
			}
			if err := movRepo.DeleteDetails(ctx, id); err != nil {
				return err
			}
			return movRepo.Delete(ctx, id)
		}

		if t.replaceDetails {
			if err := movRepo.DeleteDetails(ctx, id); err != nil {
				return err
			}
			if err := persistLines(ctx, movRepo, t.details, nil); err != nil {
				return err
			}
		}
		if t.replaceServices {
			if err := movRepo.DeleteServiceLines(ctx, id); err != nil {
				return err
			}
			if err := persistLines(ctx, movRepo, nil, t.services); err != nil {
				return err
			}
		}
		t.header.UpdatedAt = time.Now()
		if err := movRepo.Update(ctx, t.header); err != nil {
			return err
		}
		t.header.Details, t.header.Services = t.details, t.services
		result = t.header
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Debug().Str("kind", string(pol.Kind)).Str("movement_id", id).Str("action", action).Int("stock_changes", len(changes)).Msg("movimiento actualizado")
	uc.notify(ctx, changes, fmt.Sprintf("%s de %s %s", action, pol.Label, id))
	return result, nil
}

// keep transición que conserva líneas y servicios.
func keep(current *entity.Movement, next *entity.Movement) *transition {
	return &transition{header: next, details: current.Details, services: current.Services}
}

// Annul pasa la cabecera a inactiva y revierte exactamente el efecto aplicado.
// Si ya estaba inactiva no hace nada.
func (uc *MovementUseCase) Annul(ctx context.Context, id string) (*dto.MovementResponse, error) {
	m, err := uc.reconcile(ctx, id, "anulación", func(_ context.Context, cur *entity.Movement) (*transition, error) {
		if !cur.Active {
			return &transition{noop: true}, nil
		}
		next := *cur
		next.Active = false
		next.StockApplied = false
		return keep(cur, &next), nil
	})
	if err != nil {
		return nil, err
	}
	return toMovementResponse(m), nil
}

// Enable reactiva la cabecera y vuelve a aplicar el efecto si el estado lo exige.
// Las salidas se revalidan bajo bloqueo: si algún producto quedaría negativo, Conflict.
func (uc *MovementUseCase) Enable(ctx context.Context, id string) (*dto.MovementResponse, error) {
	m, err := uc.reconcile(ctx, id, "habilitación", func(ctx context.Context, cur *entity.Movement) (*transition, error) {
		if cur.Active {
			return &transition{noop: true}, nil
		}
		state, err := uc.stateOf(ctx, cur.StateID)
		if err != nil {
			return nil, err
		}
		next := *cur
		next.Active = true
		next.StockApplied = uc.policy.affectsStock(true, state)
		return keep(cur, &next), nil
	})
	if err != nil {
		return nil, err
	}
	return toMovementResponse(m), nil
}

// ChangeState cambia el estado de proceso. En ventas, entrar o salir de un estado con
// affects_stock aplica o revierte el efecto de una cabecera activa.
func (uc *MovementUseCase) ChangeState(ctx context.Context, id string, in dto.ChangeStateRequest) (*dto.MovementResponse, error) {
	if !uc.policy.HasState {
		return nil, domain.NewInvalidInput("STATE_NOT_ALLOWED", "este movimiento no maneja estado")
	}
	state, err := uc.resolveState(ctx, &in.StateID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, domain.NewInvalidInput("STATE_REQUIRED", "el estado es obligatorio")
	}
	m, err := uc.reconcile(ctx, id, "cambio de estado", func(_ context.Context, cur *entity.Movement) (*transition, error) {
		if cur.StateID != nil && *cur.StateID == state.ID {
			return &transition{noop: true}, nil
		}
		next := *cur
		next.StateID = &state.ID
		next.StockApplied = uc.policy.affectsStock(cur.Active, state)
		return keep(cur, &next), nil
	})
	if err != nil {
		return nil, err
	}
	return toMovementResponse(m), nil
}

// Update edita contraparte, referencia y/o líneas. Con el efecto aplicado, cada producto
// recibe delta = nueva − anterior en la dirección original. Los precios de productos que ya
// estaban en el movimiento se conservan.
func (uc *MovementUseCase) Update(ctx context.Context, id string, in dto.UpdateMovementRequest) (*dto.MovementResponse, error) {
	var (
		counterpartyID *string
		lines          []lineInput
		products       map[string]*entity.Product
		err            error
	)
	if in.CounterpartyID != nil {
		if counterpartyID, err = uc.checkCounterparty(ctx, in.CounterpartyID); err != nil {
			return nil, err
		}
	}
	if in.Lines != nil {
		for _, l := range *in.Lines {
			if l.ProductID == "" || l.Quantity < 0 {
				return nil, domain.NewInvalidInput("INVALID_LINE", "cada línea requiere product_id y cantidad no negativa")
			}
			if l.Quantity == 0 {
				continue
			}
			lines = append(lines, lineInput{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
		}
		if products, err = uc.loadProducts(ctx, lines); err != nil {
			return nil, err
		}
	}
	var services []entity.ServiceLine
	if in.Services != nil {
		if len(*in.Services) > 0 && !uc.policy.AllowsServices {
			return nil, domain.NewInvalidInput("SERVICES_NOT_ALLOWED", "este movimiento no admite servicios")
		}
		if services, err = uc.buildServices(ctx, id, *in.Services); err != nil {
			return nil, err
		}
	}

	m, err := uc.reconcile(ctx, id, "edición", func(_ context.Context, cur *entity.Movement) (*transition, error) {
		next := *cur
		t := keep(cur, &next)
		if in.CounterpartyID != nil {
			next.CounterpartyID = counterpartyID
		}
		if in.Reference != nil {
			next.Reference = *in.Reference
		}
		if in.Lines != nil {
			snapshot := make(map[string]decimal.Decimal, len(cur.Details))
			for _, d := range cur.Details {
				if _, ok := snapshot[d.ProductID]; !ok {
					snapshot[d.ProductID] = d.UnitPrice
				}
			}
			details, err := uc.buildDetails(cur.ID, lines, products, snapshot)
			if err != nil {
				return nil, err
			}
			t.details, t.replaceDetails = details, true
		}
		if in.Services != nil {
			t.services, t.replaceServices = services, true
		}
		if t.replaceDetails || t.replaceServices || in.Tax != nil || in.Total != nil {
			totals := uc.totals(t.details, t.services, in.Tax, in.Total)
			next.Subtotal, next.Tax, next.Total = totals.Subtotal, totals.Tax, totals.Total
		}
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return toMovementResponse(m), nil
}

// Delete borra físicamente el movimiento. Si el efecto estaba aplicado, primero lo revierte.
func (uc *MovementUseCase) Delete(ctx context.Context, id string) error {
	_, err := uc.reconcile(ctx, id, "eliminación", func(_ context.Context, _ *entity.Movement) (*transition, error) {
		return &transition{deleted: true}, nil
	})
	return err
}
