// Package pdf genera el comprobante imprimible de compras, ventas y abastecimientos.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + estado      │  N° movimiento + Fecha       │
//	│  CONTRAPARTE: Nombre + email  │  Referencia                  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Descripción | P.Unit | Subtotal               │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Subtotal / Impuesto / TOTAL                        │
//	│  FOOTER: leyenda de anulado                                  │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Gestion-api/internal/application/inventory"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorDanger  = &props.Color{Red: 180, Green: 30, Blue: 30}
)

var _ inventory.ReceiptGenerator = (*ReceiptGenerator)(nil)

// ReceiptGenerator implementa inventory.ReceiptGenerator usando Maroto v2.
type ReceiptGenerator struct {
	company string
}

// NewReceiptGenerator construye el generador; company aparece como autor del documento.
func NewReceiptGenerator(company string) *ReceiptGenerator {
	return &ReceiptGenerator{company: company}
}

// GenerateMovementPDF genera el PDF y devuelve sus bytes.
func (g *ReceiptGenerator) GenerateMovementPDF(_ context.Context, data inventory.ReceiptData) ([]byte, error) {
	if data.Movement == nil {
		return nil, fmt.Errorf("pdf: movimiento vacío")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(data.Title, true).
		WithAuthor(nonEmpty(g.company, "Gestion"), true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(headerRow(data))
	m.AddRows(counterpartyRow(data))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.4}))
	m.AddRows(tableHeaderRow())
	m.AddRows(lineRows(data.Lines)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(data))
	if !data.Movement.Active {
		m.AddRows(annulledRow())
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(data inventory.ReceiptData) core.Row {
	mv := data.Movement
	state := "-"
	if data.State != nil {
		state = data.State.Name
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(strings.ToUpper(data.Title), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Estado: "+state, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("N° "+mv.ID, props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 1,
			}),
			text.New("Fecha: "+mv.CreatedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 7, Color: colorGray,
			}),
		),
	)
}

func counterpartyRow(data inventory.ReceiptData) core.Row {
	name, email := "Sin contraparte", "-"
	if data.Counterparty != nil {
		name = data.Counterparty.Name
		email = nonEmpty(data.Counterparty.Email, "-")
	}
	return row.New(12).Add(
		col.New(8).Add(
			text.New(name, props.Text{Style: fontstyle.Bold, Size: 10, Top: 1}),
			text.New("Email: "+email, props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
		col.New(4).Add(
			text.New("Referencia: "+nonEmpty(data.Movement.Reference, "-"), props.Text{
				Size: 8, Align: align.Right, Top: 1, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Descripción", 6, align.Left),
		h("Precio Unit.", 2, align.Right),
		h("Subtotal", 3, align.Right),
	)
}

func lineRows(lines []inventory.ReceiptLine) []core.Row {
	out := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		out = append(out, row.New(7).Add(
			col.New(1).Add(text.New(fmt.Sprintf("%d", l.Quantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(6).Add(text.New(l.Description, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New("$"+formatMoney(l.UnitPrice), props.Text{Size: 8, Align: align.Right, Top: 1})),
			col.New(3).Add(text.New("$"+formatMoney(l.Subtotal), props.Text{Size: 8, Align: align.Right, Top: 1})),
		))
	}
	return out
}

func totalsRow(data inventory.ReceiptData) core.Row {
	mv := data.Movement
	label := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: top})
	}
	value := func(d decimal.Decimal, top float64, bold bool) core.Component {
		p := props.Text{Size: 9, Align: align.Right, Top: top}
		if bold {
			p.Style, p.Color = fontstyle.Bold, colorPrimary
		}
		return text.New("$"+formatMoney(d), p)
	}
	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(label("Subtotal:", 1), label("Impuesto:", 7), label("TOTAL:", 13)),
		col.New(3).Add(value(mv.Subtotal, 1, false), value(mv.Tax, 7, false), value(mv.Total, 13, true)),
	)
}

func annulledRow() core.Row {
	return row.New(12).Add(col.New(12).Add(
		text.New("MOVIMIENTO ANULADO", props.Text{
			Style: fontstyle.Bold, Size: 14, Align: align.Center, Color: colorDanger, Top: 3,
		}),
	))
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney separa miles con punto y decimales con coma: 1234567.5 → "1.234.567,50".
func formatMoney(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-2:]
	n := len(intPart)
	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	for i := 0; i < n; i++ {
		if i > 0 && (n-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteByte(intPart[i])
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}
