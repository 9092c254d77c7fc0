package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

var (
	movementColumns = []string{
		"id", "kind", "counterparty_id", "state_id", "reference", "subtotal", "tax", "total",
		"active", "stock_applied", "created_by", "created_at", "updated_at",
	}
	detailColumns  = []string{"id", "movement_id", "product_id", "quantity", "unit_price", "subtotal"}
	serviceColumns = []string{"id", "movement_id", "service_id", "appointment_id", "quantity", "unit_price", "subtotal"}
)

// MovementRepo cabeceras (movements), líneas (movement_details) y servicios (movement_services).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

func (r *MovementRepo) exec(ctx context.Context, op string, q squirrel.Sqlizer) (int64, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s: %w", op, err)
	}
	cmd, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return cmd.RowsAffected(), nil
}

// Create persiste la cabecera.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	q := builder().Insert("movements").Columns(movementColumns...).Values(
		m.ID, m.Kind, m.CounterpartyID, m.StateID, m.Reference, m.Subtotal, m.Tax, m.Total,
		m.Active, m.StockApplied, m.CreatedBy, m.CreatedAt, m.UpdatedAt,
	)
	if _, err := r.exec(ctx, "insert movement", q); err != nil {
		if isUniqueViolation(err) {
			return domain.NewConflict("DUPLICATE_MOVEMENT", "el movimiento ya existe").WithDetail("movement_id", m.ID)
		}
		return err
	}
	return nil
}

// CreateDetail persiste una línea de producto.
func (r *MovementRepo) CreateDetail(ctx context.Context, d *entity.MovementDetail) error {
	q := builder().Insert("movement_details").Columns(detailColumns...).
		Values(d.ID, d.MovementID, d.ProductID, d.Quantity, d.UnitPrice, d.Subtotal)
	_, err := r.exec(ctx, "insert movement detail", q)
	return err
}

// CreateServiceLine persiste una línea de servicio.
func (r *MovementRepo) CreateServiceLine(ctx context.Context, s *entity.ServiceLine) error {
	q := builder().Insert("movement_services").Columns(serviceColumns...).
		Values(s.ID, s.MovementID, s.ServiceID, s.AppointmentID, s.Quantity, s.UnitPrice, s.Subtotal)
	_, err := r.exec(ctx, "insert movement service", q)
	return err
}

func (r *MovementRepo) get(ctx context.Context, id string, lock bool) (*entity.Movement, error) {
	q := builder().Select(movementColumns...).From("movements").Where(squirrel.Eq{"id": id})
	if lock {
		q = q.Suffix("FOR UPDATE")
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var m entity.Movement
	if err := pgxscan.Get(ctx, r.q, &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return &m, nil
}

// GetByID cabecera sin bloqueo; (nil, nil) si no existe.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate bloquea la cabecera: los cambios de estado del mismo movimiento se serializan.
func (r *MovementRepo) GetForUpdate(ctx context.Context, id string) (*entity.Movement, error) {
	return r.get(ctx, id, true)
}

// GetDetails líneas de producto en orden de inserción.
func (r *MovementRepo) GetDetails(ctx context.Context, movementID string) ([]entity.MovementDetail, error) {
	sql, args, err := builder().Select(detailColumns...).From("movement_details").
		Where(squirrel.Eq{"movement_id": movementID}).
		OrderBy("line_no ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var list []entity.MovementDetail
	if err := pgxscan.Select(ctx, r.q, &list, sql, args...); err != nil {
		return nil, fmt.Errorf("get movement details: %w", err)
	}
	return list, nil
}

// GetServiceLines líneas de servicio en orden de inserción.
func (r *MovementRepo) GetServiceLines(ctx context.Context, movementID string) ([]entity.ServiceLine, error) {
	sql, args, err := builder().Select(serviceColumns...).From("movement_services").
		Where(squirrel.Eq{"movement_id": movementID}).
		OrderBy("line_no ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var list []entity.ServiceLine
	if err := pgxscan.Select(ctx, r.q, &list, sql, args...); err != nil {
		return nil, fmt.Errorf("get movement services: %w", err)
	}
	return list, nil
}

// movementWhere condiciones comunes al listado y a su conteo.
func movementWhere(f repository.MovementFilter) squirrel.And {
	where := squirrel.And{squirrel.Eq{"kind": f.Kind}}
	if f.Active != nil {
		where = append(where, squirrel.Eq{"active": *f.Active})
	}
	if f.CounterpartyID != "" {
		where = append(where, squirrel.Eq{"counterparty_id": f.CounterpartyID})
	}
	if f.StateID != "" {
		where = append(where, squirrel.Eq{"state_id": f.StateID})
	}
	if f.From != nil {
		where = append(where, squirrel.GtOrEq{"created_at": *f.From})
	}
	if f.To != nil {
		where = append(where, squirrel.LtOrEq{"created_at": *f.To})
	}
	return where
}

func listMovementsQuery(f repository.MovementFilter) squirrel.SelectBuilder {
	return builder().Select(movementColumns...).From("movements").
		Where(movementWhere(f)).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset))
}

// List cabeceras filtradas (sin líneas) y el total sin paginar.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, int, error) {
	sql, args, err := listMovementsQuery(f).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}
	var list []*entity.Movement
	if err := pgxscan.Select(ctx, r.q, &list, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("list movements: %w", err)
	}

	sql, args, err = builder().Select("COUNT(*)").From("movements").Where(movementWhere(f)).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count: %w", err)
	}
	var total int
	if err := r.q.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movements: %w", err)
	}
	return list, total, nil
}

// Update reescribe los campos mutables de la cabecera.
func (r *MovementRepo) Update(ctx context.Context, m *entity.Movement) error {
	q := builder().Update("movements").
		Set("counterparty_id", m.CounterpartyID).
		Set("state_id", m.StateID).
		Set("reference", m.Reference).
		Set("subtotal", m.Subtotal).
		Set("tax", m.Tax).
		Set("total", m.Total).
		Set("active", m.Active).
		Set("stock_applied", m.StockApplied).
		Set("updated_at", m.UpdatedAt).
		Where(squirrel.Eq{"id": m.ID})
	n, err := r.exec(ctx, "update movement", q)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NewNotFound("MOVEMENT_NOT_FOUND", "movimiento no encontrado").WithDetail("movement_id", m.ID)
	}
	return nil
}

// DeleteDetails borra todas las líneas de producto del movimiento.
func (r *MovementRepo) DeleteDetails(ctx context.Context, movementID string) error {
	_, err := r.exec(ctx, "delete movement details", builder().Delete("movement_details").Where(squirrel.Eq{"movement_id": movementID}))
	return err
}

// DeleteServiceLines borra todas las líneas de servicio del movimiento.
func (r *MovementRepo) DeleteServiceLines(ctx context.Context, movementID string) error {
	_, err := r.exec(ctx, "delete movement services", builder().Delete("movement_services").Where(squirrel.Eq{"movement_id": movementID}))
	return err
}

// Delete borra la cabecera. Si otra tabla la referencia, Conflict.
func (r *MovementRepo) Delete(ctx context.Context, id string) error {
	n, err := r.exec(ctx, "delete movement", builder().Delete("movements").Where(squirrel.Eq{"id": id}))
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewConflict("MOVEMENT_REFERENCED", "el movimiento está referenciado por otros registros").
				WithDetail("movement_id", id)
		}
		return err
	}
	if n == 0 {
		return domain.NewNotFound("MOVEMENT_NOT_FOUND", "movimiento no encontrado").WithDetail("movement_id", id)
	}
	return nil
}
