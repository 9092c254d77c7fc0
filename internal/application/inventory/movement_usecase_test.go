package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Gestion-api/internal/application/dto"
	"github.com/jhoicas/Gestion-api/internal/application/inventory"
	"github.com/jhoicas/Gestion-api/internal/domain"
)

const testUser = "user-1"

func purchaseReq(productID string, qty int, price string) dto.CreateMovementRequest {
	return dto.CreateMovementRequest{
		CounterpartyID: strPtr(supplierID),
		Lines:          []dto.MovementLineRequest{{ProductID: productID, Quantity: qty, UnitPrice: decPtr(price)}},
	}
}

func saleReq(productID string, qty int, state string) dto.CreateMovementRequest {
	return dto.CreateMovementRequest{
		CounterpartyID: strPtr(clientID),
		StateID:        strPtr(state),
		Lines:          []dto.MovementLineRequest{{ProductID: productID, Quantity: qty}},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Compras
// ──────────────────────────────────────────────────────────────────────────────

func TestPurchase_SumaStockYCalculaTotales(t *testing.T) {
	f := newFixture(t)
	f.store.addProduct(saleProduct("p1", 5, 1))

	out, err := f.purchase.Create(context.Background(), testUser, purchaseReq("p1", 10, "2.50"))
	require.NoError(t, err)

	assert.Equal(t, 15, f.store.quantity("p1"))
	assert.True(t, out.Active)
	assert.True(t, out.StockApplied)
	assert.Equal(t, "25.00", out.Subtotal.StringFixed(2))
	assert.Equal(t, "4.75", out.Tax.StringFixed(2))
	assert.Equal(t, "29.75", out.Total.StringFixed(2))
	require.Len(t, out.Details, 1)
	assert.Equal(t, "2.50", out.Details[0].UnitPrice.StringFixed(2))
}

func TestPurchase_TotalesExplicitos(t *testing.T) {
	f := newFixture(t)
	f.store.addProduct(saleProduct("p1", 0, 0))

	in := purchaseReq("p1", 4, "10")
	in.Tax = decPtr("0")
	in.Total = decPtr("40")
	out, err := f.purchase.Create(context.Background(), testUser, in)
	require.NoError(t, err)

	assert.True(t, out.Tax.IsZero())
	assert.Equal(t, "40.00", out.Total.StringFixed(2))
}

func TestPurchase_ProveedorInactivo_BadRequest(t *testing.T) {
	f := newFixture(t)
	f.store.addProduct(saleProduct("p1", 5, 1))

	in := purchaseReq("p1", 1, "1")
	in.CounterpartyID = strPtr(inactiveSupplierID)
	_, err := f.purchase.Create(context.Background(), testUser, in)

	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Equal(t, 5, f.store.quantity("p1"))
	assert.Zero(t, f.store.movementCount())
}

func TestPurchase_SinProveedorOSinPrecio_BadRequest(t *testing.T) {
	f := newFixture(t)
	f.store.addProduct(saleProduct("p1", 5, 1))

	noSupplier := purchaseReq("p1", 1, "1")
	noSupplier.CounterpartyID = nil
	_, err := f.purchase.Create(context.Background(), testUser, noSupplier)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	noPrice := purchaseReq("p1", 1, "1")
	noPrice.Lines[0].UnitPrice = nil
	_, err = f.purchase.Create(context.Background(), testUser, noPrice)
	de, ok := domain.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "MISSING_UNIT_PRICE", de.Code)
}

func TestPurchase_ProductoInvalidoNoAplicaNada(t *testing.T) {
	f := newFixture(t)
	f.store.addProduct(saleProduct("p1", 5, 1))
	inactive := saleProduct("p2", 5, 1)
	inactive.Active = false
	f.store.addProduct(inactive)

	in := purchaseReq("p1", 3, "1")
	in.Lines = append(in.Lines, dto.MovementLineRequest{ProductID: "p2", Quantity: 1, UnitPrice: decPtr("1")})
	_, err := f.purchase.Create(context.Background(), testUser, in)

	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Equal(t, 5, f.store.quantity("p1"))

	in.Lines[1].ProductID = "no-existe"
	_, err = f.purchase.Create(context.Background(), testUser, in)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Zero(t, f.store.movementCount())
}

func TestPurchase_FallaDeEscrituraRevierteTodo(t *testing.T) {
	f := newFixture(t)
	f.store.addProduct(saleProduct("a", 1, 0))
	f.store.addProduct(saleProduct("b", 1, 0))
	f.store.failQuantityFor = "b"

	in := purchaseReq("a", 5, "1")
	in.Lines = append(in.Lines, dto.MovementLineRequest{ProductID: "b", Quantity: 5, UnitPrice: decPtr("1")})
	_, err := f.purchase.Create(context.Background(), testUser, in)

	require.Error(t, err)
	assert.Equal(t, 1, f.store.quantity("a"), "la línea ya aplicada debe revertirse")
	assert.Equal(t, 1, f.store.quantity("b"))
	assert.Zero(t, f.store.movementCount())
}

func TestPurchase_ContextoCanceladoRevierte(t *testing.T) {
	f := newFixture(t)
	f.store.addProduct(saleProduct("p1", 5, 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.purchase.Create(ctx, testUser, purchaseReq("p1", 3, "1"))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 5, f.store.quantity("p1"))
	assert.Zero(t, f.store.movementCount())
}

// ──────────────────────────────────────────────────────────────────────────────
// Ventas
// ──────────────────────────────────────────────────────────────────────────────

func TestSale_Limite(t *testing.T) {
	f := newFixture(t)
	f.store.addProduct(saleProduct("p1", 5, 0))
	f.store.addProduct(saleProduct("p2", 5, 0))

	_, err := f.sale.Create(context.Background(), testUser, saleReq("p1", 5, stateCompleted))
	require.NoError(t, err)
	assert.Equal(t, 0, f.store.quantity("p1"))

	_, err = f.sale.Create(context.Background(), testUser, saleReq("p2", 6, stateCompleted))
	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
	assert.Equal(t, 5, f.store.quantity("p2"))
}

func TestSale_LineasRepetidasSeAgreganParaValidar(t *testing.T) {
	f := newFixture(t)
	f.store.addProduct(saleProduct("p1", 5, 0))

	in := saleReq("p1", 3, stateCompleted)
	in.Lines = append(in.Lines, dto.MovementLineRequest{ProductID: "p1", Quantity: 3})
	_, err := f.sale.Create(context.Background(), testUser, in)

	de, ok := domain.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "INSUFFICIENT_STOCK", de.Code)
	assert.Equal(t, 6, de.Details["requested"])
	assert.Equal(t, 5, f.store.quantity("p1"))
}

func TestSale_ConcurrenciaSoloUnaGana(t *testing.T) {
	f := newFixture(t)
	f.store.addProduct(saleProduct("p1", 5, 0))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.sale.Create(context.Background(), testUser, saleReq("p1", 3, stateCompleted))
		}(i)
	}
	wg.Wait()

	conflicts := 0
	for _, err := range errs {
		if err != nil {
			require.True(t, errors.Is(err, domain.ErrConflict), "el único error admitido es Conflict: %v", err)
			conflicts++
		}
	}
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, 2, f.store.quantity("p1"))
}

func TestSale_EstadoPendienteNoTocaStock(t *testing.T) {
	f := newFixture(t)
	f.store.addProduct(saleProduct("p1", 5, 0))

	out, err := f.sale.Create(context.Background(), testUser, saleReq("p1", 10, statePending))
	require.NoError(t, err)

	assert.Equal(t, 5, f.store.quantity("p1"))
	assert.False(t, out.StockApplied)
	require.Len(t, out.Details, 1)
	assert.Equal(t, 10, out.Details[0].Quantity)
}

func TestSale_ReglasDeValidacion(t *testing.T) {
	f := newFixture(t)
	f.store.addProduct(internalProduct("int", 5, 0))
	f.store.addProduct(saleProduct("p1", 5, 0))

	_, err := f.sale.Create(context.Background(), testUser, saleReq("int", 1, stateCompleted))
	de, _ := domain.AsError(err)
	require.NotNil(t, de)
	assert.Equal(t, "INVALID_PRODUCT_USAGE", de.Code)

	noState := saleReq("p1", 1, stateCompleted)
	noState.StateID = nil
	_, err = f.sale.Create(context.Background(), testUser, noState)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	badState := saleReq("p1", 1, "st-x")
	_, err = f.sale.Create(context.Background(), testUser, badState)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = f.sale.Create(context.Background(), testUser, dto.CreateMovementRequest{StateID: strPtr(stateCompleted)})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestSale_AnonimaConServicios(t *testing.T) {
	f := newFixture(t)
	f.store.addProduct(saleProduct("p1", 5, 0))

	in := saleReq("p1", 2, stateCompleted)
	in.CounterpartyID = nil
	in.Services = []dto.ServiceLineRequest{{ServiceID: serviceID, AppointmentID: strPtr("cita-1")}}
	out, err := f.sale.Create(context.Background(), testUser, in)
	require.NoError(t, err)

	assert.Nil(t, out.CounterpartyID)
	assert.Equal(t, 3, f.store.quantity("p1"), "solo las líneas de producto mueven stock")
	require.Len(t, out.Services, 1)
	assert.Equal(t, 1, out.Services[0].Quantity)
	// 2×10 + 1×30 = 50; IVA 9.50
	assert.Equal(t, "50.00", out.Subtotal.StringFixed(2))
	assert.Equal(t, "59.50", out.Total.StringFixed(2))
}

// ──────────────────────────────────────────────────────────────────────────────
// Abastecimiento interno
// ──────────────────────────────────────────────────────────────────────────────

func TestSupply_SinImpuestoYPrecioDelProducto(t *testing.T) {
	f := newFixture(t)
	f.store.addProduct(internalProduct("int", 10, 0))

	out, err := f.supply.Create(context.Background(), testUser, dto.CreateMovementRequest{
		CounterpartyID: strPtr(employeeID),
		Lines:          []dto.MovementLineRequest{{ProductID: "int", Quantity: 4, UnitPrice: decPtr("999")}},
	})
	require.NoError(t, err)

	assert.Equal(t, 6, f.store.quantity("int"))
	assert.True(t, out.Tax.IsZero())
	assert.Equal(t, "40.00", out.Total.StringFixed(2))
}

func TestSupply_RequiereEmpleadoYProductoInterno(t *testing.T) {
	f := newFixture(t)
	f.store.addProduct(saleProduct("p1", 10, 0))
	f.store.addProduct(internalProduct("int", 10, 0))

	_, err := f.supply.Create(context.Background(), testUser, dto.CreateMovementRequest{
		Lines: []dto.MovementLineRequest{{ProductID: "int", Quantity: 1}},
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = f.supply.Create(context.Background(), testUser, dto.CreateMovementRequest{
		CounterpartyID: strPtr(employeeID),
		Lines:          []dto.MovementLineRequest{{ProductID: "p1", Quantity: 1}},
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = f.supply.Create(context.Background(), testUser, dto.CreateMovementRequest{
		CounterpartyID: strPtr(employeeID),
		StateID:        strPtr(stateCompleted),
		Lines:          []dto.MovementLineRequest{{ProductID: "int", Quantity: 1}},
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = f.supply.Create(context.Background(), testUser, dto.CreateMovementRequest{
		CounterpartyID: strPtr(employeeID),
		Lines:          []dto.MovementLineRequest{{ProductID: "int", Quantity: 11}},
	})
	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.Equal(t, 10, f.store.quantity("int"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Lectura
// ──────────────────────────────────────────────────────────────────────────────

func TestGet_OtroTipoEsNotFound(t *testing.T) {
	f := newFixture(t)
	f.store.addProduct(saleProduct("p1", 5, 0))
	out, err := f.purchase.Create(context.Background(), testUser, purchaseReq("p1", 1, "1"))
	require.NoError(t, err)

	got, err := f.purchase.Get(context.Background(), out.ID)
	require.NoError(t, err)
	assert.Equal(t, out.ID, got.ID)
	assert.Len(t, got.Details, 1)

	_, err = f.sale.Get(context.Background(), out.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestList_FiltraPorTipoYEstado(t *testing.T) {
	f := newFixture(t)
	f.store.addProduct(saleProduct("p1", 50, 0))
	first, err := f.purchase.Create(context.Background(), testUser, purchaseReq("p1", 1, "1"))
	require.NoError(t, err)
	_, err = f.purchase.Create(context.Background(), testUser, purchaseReq("p1", 1, "1"))
	require.NoError(t, err)
	_, err = f.sale.Create(context.Background(), testUser, saleReq("p1", 1, stateCompleted))
	require.NoError(t, err)
	_, err = f.purchase.Annul(context.Background(), first.ID)
	require.NoError(t, err)

	all, err := f.purchase.List(context.Background(), dto.MovementFilterRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
	assert.Equal(t, 20, all.Page.Limit)

	active := true
	onlyActive, err := f.purchase.List(context.Background(), dto.MovementFilterRequest{Active: &active})
	require.NoError(t, err)
	assert.Len(t, onlyActive.Items, 1)
}

func TestProductStock_LecturaYStockBajo(t *testing.T) {
	f := newFixture(t)
	f.store.addProduct(saleProduct("p1", 1, 5))
	f.store.addProduct(saleProduct("p2", 9, 5))
	uc := inventory.NewProductStockUseCase(memProducts{f.store})

	got, err := uc.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, got.LowStock)

	_, err = uc.GetByID(context.Background(), "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	low, err := uc.LowStock(context.Background(), dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, low.Items, 1)
	assert.Equal(t, "p1", low.Items[0].ID)
}

func TestTotals_Redondeo(t *testing.T) {
	f := newFixture(t)
	f.store.addProduct(saleProduct("p1", 0, 0))

	out, err := f.purchase.Create(context.Background(), testUser, purchaseReq("p1", 3, "0.333"))
	require.NoError(t, err)
	// precio congelado a 0.33 → subtotal 0.99, IVA 0.19 → 0.19
	assert.True(t, out.Subtotal.Equal(decimal.RequireFromString("0.99")))
	assert.Equal(t, "0.19", out.Tax.StringFixed(2))
}
