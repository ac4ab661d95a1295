package pipeline

import "github.com/xxxsen/importdash/internal/model"

// Bar is the stacked progress bar of one import: three disjoint segments
// (shipped, invoiced but not shipped, synced but not invoiced) plus the
// per-stage legend percentages.
type Bar struct {
	ShippedShare      int `json:"shipped_share"`
	InvoicedOnlyShare int `json:"invoiced_only_share"`
	SyncedOnlyShare   int `json:"synced_only_share"`

	SyncedPct   int `json:"synced_pct"`
	InvoicedPct int `json:"invoiced_pct"`
	ShippedPct  int `json:"shipped_pct"`
}

// StackedBar decomposes progress into bar segments. Differences are clamped
// to zero so segments never get a negative width; when counters arrive out of
// order the bar under-represents synced.
func StackedBar(p model.Progress, total int) Bar {
	return Bar{
		ShippedShare:      Percent(p.Shipped, total),
		InvoicedOnlyShare: Percent(nonNegative(p.Invoiced-p.Shipped), total),
		SyncedOnlyShare:   Percent(nonNegative(p.Synced-p.Invoiced), total),
		SyncedPct:         Percent(p.Synced, total),
		InvoicedPct:       Percent(p.Invoiced, total),
		ShippedPct:        Percent(p.Shipped, total),
	}
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

type Summary struct {
	Status     Status `json:"pipeline_status"`
	Expandable bool   `json:"expandable"`
	Bar        *Bar   `json:"bar,omitempty"`
}

// Summarize bundles the derived status with the bar. The bar and the expanded
// per-stage view only exist once progress is present with a positive
// effective total.
func Summarize(rec model.ImportRecord) Summary {
	s := Summary{Status: DeriveStatus(rec)}
	if total := EffectiveTotal(rec); rec.Progress != nil && total > 0 {
		bar := StackedBar(*rec.Progress, total)
		s.Expandable = true
		s.Bar = &bar
	}
	return s
}
