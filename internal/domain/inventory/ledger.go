package inventory

import (
	"sort"

	"github.com/jhoicas/Gestion-api/internal/domain/entity"
)

// Direction signo con el que un movimiento afecta las existencias.
type Direction int

const (
	Inbound  Direction = 1
	Outbound Direction = -1
)

// DirectionOf compras suman; ventas y abastecimientos restan.
func DirectionOf(kind entity.MovementKind) Direction {
	if kind == entity.MovementPurchase {
		return Inbound
	}
	return Outbound
}

// Quantities agrega las cantidades por producto (líneas repetidas se suman).
func Quantities(details []entity.MovementDetail) map[string]int {
	out := make(map[string]int, len(details))
	for _, d := range details {
		out[d.ProductID] += d.Quantity
	}
	return out
}

// Applied cantidades efectivamente aplicadas al stock: todas si applied, ninguna si no.
func Applied(details []entity.MovementDetail, applied bool) map[string]int {
	if !applied {
		return map[string]int{}
	}
	return Quantities(details)
}

// Deltas calcula, por producto, delta = dir * (after - before).
// Es la misma fórmula para crear, anular, habilitar, cambiar de estado, editar y borrar.
// Los productos con delta cero se omiten.
func Deltas(dir Direction, before, after map[string]int) map[string]int {
	out := make(map[string]int)
	for id, q := range after {
		if d := int(dir) * (q - before[id]); d != 0 {
			out[id] = d
		}
	}
	for id, q := range before {
		if _, ok := after[id]; ok {
			continue
		}
		if d := int(dir) * -q; d != 0 {
			out[id] = d
		}
	}
	return out
}

// SortedIDs devuelve las claves en orden ascendente; los bloqueos de fila se toman en este orden.
func SortedIDs(m map[string]int) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
