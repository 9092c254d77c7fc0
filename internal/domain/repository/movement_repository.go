package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Gestion-api/internal/domain/entity"
)

// MovementFilter filtros del listado de movimientos de un tipo.
type MovementFilter struct {
	Kind           entity.MovementKind
	Active         *bool
	CounterpartyID string
	StateID        string
	From, To       *time.Time
	Limit, Offset  int
}

// MovementRepository define el puerto de persistencia para cabeceras y líneas de movimientos.
type MovementRepository interface {
	Create(ctx context.Context, m *entity.Movement) error
	CreateDetail(ctx context.Context, d *entity.MovementDetail) error
	CreateServiceLine(ctx context.Context, s *entity.ServiceLine) error

	// GetByID y GetForUpdate devuelven solo la cabecera; (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Movement, error)
	GetDetails(ctx context.Context, movementID string) ([]entity.MovementDetail, error)
	GetServiceLines(ctx context.Context, movementID string) ([]entity.ServiceLine, error)
	List(ctx context.Context, f MovementFilter) ([]*entity.Movement, int, error)

	Update(ctx context.Context, m *entity.Movement) error
	DeleteDetails(ctx context.Context, movementID string) error
	DeleteServiceLines(ctx context.Context, movementID string) error
	Delete(ctx context.Context, id string) error
}
