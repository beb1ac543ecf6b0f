// internal/logcodec/balancing.go
package logcodec

import (
	"github.com/tamzrod/bydbox-reader/internal/logstore"
)

// BalancingStartCode is the tower log code carrying the balancing cell flags.
const BalancingStartCode = 17

// ModuleCells is the balancing count of every cell of one module.
type ModuleCells struct {
	Module int
	Counts []int
}

// Balancing is the cumulative balancing histogram of one tower.
type Balancing struct {
	// Total is the number of balancing start records.
	Total   int
	Modules []ModuleCells
}

// BalancingHistogram counts, per tower and per cell, how often the cell was
// reported balancing. Cell c of module m has flag index m*cells+c.
func BalancingHistogram(entries []logstore.Entry, modules, cells int) map[int]Balancing {
	totals := map[int]int{}
	perCell := map[int]map[int]int{}

	for _, e := range entries {
		if SourceOf(e.Unit) != SourceBMS || e.Code != BalancingStartCode {
			continue
		}
		totals[e.Unit]++
		counts := perCell[e.Unit]
		if counts == nil {
			counts = map[int]int{}
			perCell[e.Unit] = counts
		}
		for _, idx := range BalancingCells(e.Payload) {
			counts[idx]++
		}
	}

	out := make(map[int]Balancing, len(totals))
	for unit, total := range totals {
		b := Balancing{Total: total}
		for m := 0; m < modules; m++ {
			mc := ModuleCells{Module: m, Counts: make([]int, cells)}
			for c := 0; c < cells; c++ {
				mc.Counts[c] = perCell[unit][m*cells+c]
			}
			b.Modules = append(b.Modules, mc)
		}
		out[unit] = b
	}
	return out
}
