package repository

import (
	"context"

	"github.com/jhoicas/Gestion-api/internal/domain/entity"
)

// CounterpartyRepository lectura de proveedores, clientes y empleados.
type CounterpartyRepository interface {
	GetByID(ctx context.Context, kind entity.CounterpartyKind, id string) (*entity.Counterparty, error)
}

// ProcessStateRepository registro de estados de proceso.
type ProcessStateRepository interface {
	GetByID(ctx context.Context, id string) (*entity.ProcessState, error)
	List(ctx context.Context) ([]*entity.ProcessState, error)
}

// ServiceItemRepository catálogo de servicios.
type ServiceItemRepository interface {
	GetByID(ctx context.Context, id string) (*entity.ServiceItem, error)
}
