package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
)

var (
	_ repository.CounterpartyRepository = (*CounterpartyRepo)(nil)
	_ repository.ProcessStateRepository = (*ProcessStateRepo)(nil)
	_ repository.ServiceItemRepository  = (*ServiceItemRepo)(nil)
)

var counterpartyTables = map[entity.CounterpartyKind]string{
	entity.CounterpartySupplier: "suppliers",
	entity.CounterpartyClient:   "clients",
	entity.CounterpartyEmployee: "employees",
}

// CounterpartyRepo lectura de los directorios de proveedores, clientes y empleados.
type CounterpartyRepo struct {
	q Querier
}

// NewCounterpartyRepository construye el adaptador.
func NewCounterpartyRepository(q Querier) *CounterpartyRepo {
	return &CounterpartyRepo{q: q}
}

// GetByID busca en la tabla del tipo indicado; (nil, nil) si no existe.
func (r *CounterpartyRepo) GetByID(ctx context.Context, kind entity.CounterpartyKind, id string) (*entity.Counterparty, error) {
	table, ok := counterpartyTables[kind]
	if !ok {
		return nil, fmt.Errorf("tipo de contraparte desconocido: %s", kind)
	}
	sql, args, err := builder().Select("id", "name", "email", "active").From(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var c entity.Counterparty
	if err := pgxscan.Get(ctx, r.q, &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", table, err)
	}
	c.Kind = kind
	return &c, nil
}

// ProcessStateRepo registro de estados de proceso.
type ProcessStateRepo struct {
	q Querier
}

// NewProcessStateRepository construye el adaptador.
func NewProcessStateRepository(q Querier) *ProcessStateRepo {
	return &ProcessStateRepo{q: q}
}

// GetByID estado por ID; (nil, nil) si no existe.
func (r *ProcessStateRepo) GetByID(ctx context.Context, id string) (*entity.ProcessState, error) {
	sql, args, err := builder().Select("id", "name", "affects_stock").From("process_states").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var st entity.ProcessState
	if err := pgxscan.Get(ctx, r.q, &st, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get process state: %w", err)
	}
	return &st, nil
}

// List todos los estados ordenados por nombre.
func (r *ProcessStateRepo) List(ctx context.Context) ([]*entity.ProcessState, error) {
	sql, args, err := builder().Select("id", "name", "affects_stock").From("process_states").OrderBy("name").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var list []*entity.ProcessState
	if err := pgxscan.Select(ctx, r.q, &list, sql, args...); err != nil {
		return nil, fmt.Errorf("list process states: %w", err)
	}
	return list, nil
}

// ServiceItemRepo catálogo de servicios.
type ServiceItemRepo struct {
	q Querier
}

// NewServiceItemRepository construye el adaptador.
func NewServiceItemRepository(q Querier) *ServiceItemRepo {
	return &ServiceItemRepo{q: q}
}

// GetByID servicio por ID; (nil, nil) si no existe.
func (r *ServiceItemRepo) GetByID(ctx context.Context, id string) (*entity.ServiceItem, error) {
	sql, args, err := builder().Select("id", "name", "price", "active").From("services").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var it entity.ServiceItem
	if err := pgxscan.Get(ctx, r.q, &it, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get service: %w", err)
	}
	return &it, nil
}
