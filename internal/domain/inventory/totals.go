package inventory

import "github.com/shopspring/decimal"

// Totals montos de la cabecera, siempre a 2 decimales.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// LineSubtotal qty × precio unitario.
func LineSubtotal(qty int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(qty))).Round(2)
}

// ComputeTotals tax = subtotal × taxRate y total = subtotal + tax, salvo que vengan explícitos.
func ComputeTotals(subtotal, taxRate decimal.Decimal, explicitTax, explicitTotal *decimal.Decimal) Totals {
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(taxRate).Round(2)
	if explicitTax != nil {
		tax = explicitTax.Round(2)
	}
	total := subtotal.Add(tax)
	if explicitTotal != nil {
		total = explicitTotal.Round(2)
	}
	return Totals{Subtotal: subtotal, Tax: tax, Total: total.Round(2)}
}
