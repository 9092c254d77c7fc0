package inventory_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Gestion-api/internal/application/inventory"
	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Store en memoria: las transacciones se serializan con txMu y un error restaura
// la foto tomada al inicio (equivalente a Rollback).
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	products       map[string]entity.Product
	movements      map[string]entity.Movement
	details        map[string][]entity.MovementDetail
	services       map[string][]entity.ServiceLine
	counterparties map[entity.CounterpartyKind]map[string]entity.Counterparty
	states         map[string]entity.ProcessState
	items          map[string]entity.ServiceItem

	failQuantityFor string          // UpdateQuantity falla para este producto
	referenced      map[string]bool // Delete de estos movimientos viola una FK
}

func newMemStore() *memStore {
	return &memStore{
		products:  map[string]entity.Product{},
		movements: map[string]entity.Movement{},
		details:   map[string][]entity.MovementDetail{},
		services:  map[string][]entity.ServiceLine{},
		counterparties: map[entity.CounterpartyKind]map[string]entity.Counterparty{
			entity.CounterpartySupplier: {},
			entity.CounterpartyClient:   {},
			entity.CounterpartyEmployee: {},
		},
		states:     map[string]entity.ProcessState{},
		items:      map[string]entity.ServiceItem{},
		referenced: map[string]bool{},
	}
}

type memSnapshot struct {
	products  map[string]entity.Product
	movements map[string]entity.Movement
	details   map[string][]entity.MovementDetail
	services  map[string][]entity.ServiceLine
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{
		products:  make(map[string]entity.Product, len(s.products)),
		movements: make(map[string]entity.Movement, len(s.movements)),
		details:   make(map[string][]entity.MovementDetail, len(s.details)),
		services:  make(map[string][]entity.ServiceLine, len(s.services)),
	}
	for k, v := range s.products {
		snap.products[k] = v
	}
	for k, v := range s.movements {
		snap.movements[k] = v
	}
	for k, v := range s.details {
		snap.details[k] = append([]entity.MovementDetail(nil), v...)
	}
	for k, v := range s.services {
		snap.services[k] = append([]entity.ServiceLine(nil), v...)
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products, s.movements, s.details, s.services = snap.products, snap.movements, snap.details, snap.services
}

// Run implementa inventory.TxRunner.
func (s *memStore) Run(ctx context.Context, fn func(repository.MovementRepository, repository.ProductRepository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snap := s.snapshot()
	if err := fn(memMovements{s}, memProducts{s}); err != nil {
		s.restore(snap)
		return err
	}
	if err := ctx.Err(); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) addProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *memStore) quantity(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Quantity
}

func (s *memStore) setPrice(id string, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[id]
	p.Price = price
	s.products[id] = p
}

func (s *memStore) movementCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.movements)
}

// ── products ─────────────────────────────────────────────────────────────────

type memProducts struct{ s *memStore }

func (r memProducts) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r memProducts) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r memProducts) UpdateQuantity(_ context.Context, id string, quantity int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failQuantityFor == id {
		return errors.New("conexión perdida")
	}
	if quantity < 0 {
		return errors.New("violates check constraint products_quantity_check")
	}
	p := r.s.products[id]
	p.Quantity = quantity
	r.s.products[id] = p
	return nil
}

func (r memProducts) ListBelowMinimum(_ context.Context, limit, offset int) ([]*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Product
	for _, p := range r.s.products {
		if p.Active && p.IsLowStock() {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ── movements ────────────────────────────────────────────────────────────────

type memMovements struct{ s *memStore }

func (r memMovements) Create(_ context.Context, m *entity.Movement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	h := *m
	h.Details, h.Services = nil, nil
	r.s.movements[m.ID] = h
	return nil
}

func (r memMovements) CreateDetail(_ context.Context, d *entity.MovementDetail) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.details[d.MovementID] = append(r.s.details[d.MovementID], *d)
	return nil
}

func (r memMovements) CreateServiceLine(_ context.Context, sl *entity.ServiceLine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.services[sl.MovementID] = append(r.s.services[sl.MovementID], *sl)
	return nil
}

func (r memMovements) GetByID(_ context.Context, id string) (*entity.Movement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.movements[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r memMovements) GetForUpdate(ctx context.Context, id string) (*entity.Movement, error) {
	return r.GetByID(ctx, id)
}

func (r memMovements) GetDetails(_ context.Context, id string) ([]entity.MovementDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]entity.MovementDetail(nil), r.s.details[id]...), nil
}

func (r memMovements) GetServiceLines(_ context.Context, id string) ([]entity.ServiceLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]entity.ServiceLine(nil), r.s.services[id]...), nil
}

func (r memMovements) List(_ context.Context, f repository.MovementFilter) ([]*entity.Movement, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Movement
	for _, m := range r.s.movements {
		if m.Kind != f.Kind {
			continue
		}
		if f.Active != nil && m.Active != *f.Active {
			continue
		}
		m := m
		out = append(out, &m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r memMovements) Update(_ context.Context, m *entity.Movement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	h := *m
	h.Details, h.Services = nil, nil
	r.s.movements[m.ID] = h
	return nil
}

func (r memMovements) DeleteDetails(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.details, id)
	return nil
}

func (r memMovements) DeleteServiceLines(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.services, id)
	return nil
}

func (r memMovements) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.referenced[id] {
		return domain.NewConflict("MOVEMENT_REFERENCED", "el movimiento está referenciado")
	}
	delete(r.s.movements, id)
	return nil
}

// ── reference data ───────────────────────────────────────────────────────────

type memCounterparties struct{ s *memStore }

func (r memCounterparties) GetByID(_ context.Context, kind entity.CounterpartyKind, id string) (*entity.Counterparty, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.counterparties[kind][id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

type memStates struct{ s *memStore }

func (r memStates) GetByID(_ context.Context, id string) (*entity.ProcessState, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.states[id]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (r memStates) List(_ context.Context) ([]*entity.ProcessState, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.ProcessState
	for _, st := range r.s.states {
		st := st
		out = append(out, &st)
	}
	return out, nil
}

type memItems struct{ s *memStore }

func (r memItems) GetByID(_ context.Context, id string) (*entity.ServiceItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.items[id]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Canal de alertas que graba lo recibido
// ──────────────────────────────────────────────────────────────────────────────

type recordingChannel struct {
	mu    sync.Mutex
	notes []inventory.Notification
	fail  error
}

func (c *recordingChannel) Name() string { return "test" }

func (c *recordingChannel) Send(_ context.Context, n inventory.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes = append(c.notes, n)
	return c.fail
}

func (c *recordingChannel) alerts() []inventory.Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]inventory.Alert, 0, len(c.notes))
	for _, n := range c.notes {
		out = append(out, n.Alert)
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Fixture con datos de referencia
// ──────────────────────────────────────────────────────────────────────────────

const (
	supplierID         = "sup-1"
	inactiveSupplierID = "sup-2"
	clientID           = "cli-1"
	employeeID         = "emp-1"
	statePending       = "st-pendiente"
	stateCompleted     = "st-completada"
	stateInProgress    = "st-en-proceso"
	serviceID          = "svc-1"
)

var testTaxRate = decimal.RequireFromString("0.19")

type fixture struct {
	store    *memStore
	channel  *recordingChannel
	notifier *inventory.AlertNotifier
	purchase *inventory.MovementUseCase
	sale     *inventory.MovementUseCase
	supply   *inventory.MovementUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := newMemStore()
	s.counterparties[entity.CounterpartySupplier][supplierID] = entity.Counterparty{ID: supplierID, Name: "Distribuciones S", Active: true}
	s.counterparties[entity.CounterpartySupplier][inactiveSupplierID] = entity.Counterparty{ID: inactiveSupplierID, Name: "Proveedor viejo"}
	s.counterparties[entity.CounterpartyClient][clientID] = entity.Counterparty{ID: clientID, Name: "Ana", Active: true}
	s.counterparties[entity.CounterpartyEmployee][employeeID] = entity.Counterparty{ID: employeeID, Name: "Luis", Active: true}
	s.states[statePending] = entity.ProcessState{ID: statePending, Name: "pendiente"}
	s.states[stateCompleted] = entity.ProcessState{ID: stateCompleted, Name: "completada", AffectsStock: true}
	s.states[stateInProgress] = entity.ProcessState{ID: stateInProgress, Name: "en_proceso", AffectsStock: true}
	s.items[serviceID] = entity.ServiceItem{ID: serviceID, Name: "Corte", Price: decimal.NewFromInt(30), Active: true}

	ch := &recordingChannel{}
	notifier := inventory.NewAlertNotifier(inventory.AlertConfig{Recipients: []string{"bodega@example.com"}}, nil, zerolog.Nop(), ch)
	t.Cleanup(notifier.Wait)

	deps := inventory.MovementDeps{
		TxRunner:       s,
		Products:       memProducts{s},
		Movements:      memMovements{s},
		Counterparties: memCounterparties{s},
		States:         memStates{s},
		Services:       memItems{s},
		Notifier:       notifier,
		TaxRate:        testTaxRate,
	}
	return &fixture{
		store:    s,
		channel:  ch,
		notifier: notifier,
		purchase: inventory.NewMovementUseCase(inventory.PurchasePolicy, deps),
		sale:     inventory.NewMovementUseCase(inventory.SalePolicy, deps),
		supply:   inventory.NewMovementUseCase(inventory.SupplyPolicy, deps),
	}
}

func saleProduct(id string, qty, min int) entity.Product {
	return entity.Product{ID: id, Name: "Producto " + id, Price: decimal.NewFromInt(10), Quantity: qty, MinStock: min, Active: true, UsageKind: entity.UsageSale}
}

func internalProduct(id string, qty, min int) entity.Product {
	p := saleProduct(id, qty, min)
	p.UsageKind = entity.UsageInternal
	return p
}

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
