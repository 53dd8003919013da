package inventory

import (
	"math"
	"sort"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

// Discrepancy es una línea cuyo stock cacheado no coincide con la suma del libro.
type Discrepancy struct {
	Key       entity.StockKey
	Quantity  int64
	LedgerSum int64
}

// Reconcile compara cada línea de stock con SUM(quantity_delta) de sus movimientos.
// Las sumas sin línea (movimientos huérfanos) también se reportan, con Quantity 0.
func Reconcile(lines []*entity.StockLine, sums map[entity.StockKey]int64) []Discrepancy {
	seen := make(map[entity.StockKey]struct{}, len(lines))
	var out []Discrepancy
	for _, l := range lines {
		k := l.Key()
		seen[k] = struct{}{}
		if sum := sums[k]; sum != l.Quantity {
			out = append(out, Discrepancy{Key: k, Quantity: l.Quantity, LedgerSum: sum})
		}
	}
	for k, sum := range sums {
		if _, ok := seen[k]; ok || sum == 0 {
			continue
		}
		out = append(out, Discrepancy{Key: k, LedgerSum: sum})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out
}

// Replay reconstruye el stock de cada línea a partir de los movimientos.
func Replay(movements []*entity.StockMovement) map[entity.StockKey]int64 {
	out := make(map[entity.StockKey]int64)
	for _, m := range movements {
		out[m.Key()] += m.QuantityDelta
	}
	return out
}

// SuggestedOrderQty es la cantidad a pedir para llevar la línea a 1.5 × su punto de reorden.
func SuggestedOrderQty(line *entity.StockLine) int64 {
	if line.ReorderPoint <= 0 {
		return 0
	}
	ideal := int64(math.Ceil(float64(line.ReorderPoint) * 1.5))
	if ideal <= line.Quantity {
		return 0
	}
	return ideal - line.Quantity
}
