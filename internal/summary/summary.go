// Package summary rolls a record set up into per-currency totals.
package summary

import (
	"sort"

	"dlcprices/internal/pricing"
)

// Totals aggregates the records of one currency. Amounts are in the
// currency's minor units.
type Totals struct {
	Currency     string `json:"currency"`
	Items        int    `json:"items"`
	Free         int    `json:"free"`
	OnSale       int    `json:"on_sale"`
	InitialTotal int    `json:"initial_total"`
	FinalTotal   int    `json:"final_total"`
	Savings      int    `json:"savings"`
}

// ByCurrency groups records by currency code and sums them, sorted by
// currency so output is stable.
func ByCurrency(records map[int]pricing.Record) []Totals {
	byCur := make(map[string]*Totals, 2)
	for _, r := range records {
		t := byCur[r.Currency]
		if t == nil {
			t = &Totals{Currency: r.Currency}
			byCur[r.Currency] = t
		}
		t.Items++
		if r.IsFree {
			t.Free++
		}
		if r.OnSale() {
			t.OnSale++
		}
		t.InitialTotal += r.Initial
		t.FinalTotal += r.Final
	}

	out := make([]Totals, 0, len(byCur))
	for _, t := range byCur {
		t.Savings = t.InitialTotal - t.FinalTotal
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}
