package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Gestion-api/internal/application/dto"
	"github.com/jhoicas/Gestion-api/internal/application/inventory"
	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
)

type captureGenerator struct {
	data inventory.ReceiptData
}

func (g *captureGenerator) GenerateMovementPDF(_ context.Context, data inventory.ReceiptData) ([]byte, error) {
	g.data = data
	return []byte("%PDF-1.3 fake"), nil
}

func newReceiptUseCase(f *fixture, gen inventory.ReceiptGenerator) *inventory.ReceiptUseCase {
	s := f.store
	return inventory.NewReceiptUseCase(memMovements{s}, memProducts{s}, memCounterparties{s}, memStates{s}, memItems{s}, gen)
}

func TestReceipt_ResuelveNombresYLineas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.addProduct(saleProduct("p1", 10, 0))

	in := saleReq("p1", 2, stateCompleted)
	in.Services = []dto.ServiceLineRequest{{ServiceID: serviceID, Quantity: 1}}
	out, err := f.sale.Create(ctx, testUser, in)
	require.NoError(t, err)

	gen := &captureGenerator{}
	pdf, name, err := newReceiptUseCase(f, gen).Download(ctx, entity.MovementSale, out.ID)
	require.NoError(t, err)

	assert.Equal(t, "venta-"+out.ID+".pdf", name)
	assert.Equal(t, "%PDF", string(pdf[:4]))
	assert.Equal(t, "Comprobante de venta", gen.data.Title)
	require.NotNil(t, gen.data.Counterparty)
	assert.Equal(t, "Ana", gen.data.Counterparty.Name)
	require.NotNil(t, gen.data.State)
	assert.Equal(t, "completada", gen.data.State.Name)
	require.Len(t, gen.data.Lines, 2)
	assert.Equal(t, "Producto p1", gen.data.Lines[0].Description)
	assert.Equal(t, "Corte", gen.data.Lines[1].Description)
}

func TestReceipt_TipoDistintoEsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.addProduct(saleProduct("p1", 10, 0))
	out, err := f.purchase.Create(ctx, testUser, purchaseReq("p1", 1, "1"))
	require.NoError(t, err)

	uc := newReceiptUseCase(f, &captureGenerator{})
	_, _, err = uc.Download(ctx, entity.MovementSale, out.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, _, err = uc.Download(ctx, entity.MovementKind("OTRO"), out.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
