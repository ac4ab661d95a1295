package pipeline

import (
	"math"

	"github.com/xxxsen/importdash/internal/model"
)

type Status string

const (
	StatusProcessing Status = "PROCESSING"
	StatusDone       Status = "DONE"
	StatusFailed     Status = "FAILED"
)

// DeriveStatus reduces an import record and its progress counters to a single
// pipeline status. Rules are checked in order and the first match wins.
func DeriveStatus(rec model.ImportRecord) Status {
	p := rec.Progress
	// failure is sticky and beats any completion signal
	if rec.Status == model.ImportStatusFailed || rec.FailedOrders > 0 || (p != nil && p.Failed > 0) {
		return StatusFailed
	}
	if p == nil {
		return StatusProcessing
	}
	total := EffectiveTotal(rec)
	if total <= 0 {
		return StatusProcessing
	}
	// >= tolerates counters that overshoot under concurrent updates
	if p.Synced >= total && p.Invoiced >= total && p.Shipped >= total {
		return StatusDone
	}
	return StatusProcessing
}

// EffectiveTotal is progress.total when the pipeline reported one, otherwise
// the record's total_orders. An explicit zero is kept.
func EffectiveTotal(rec model.ImportRecord) int {
	if rec.Progress != nil && rec.Progress.Total != nil {
		return *rec.Progress.Total
	}
	return rec.TotalOrders
}

// Percent returns round(100*part/total). It is 0 when total <= 0 and never
// negative.
func Percent(part, total int) int {
	if total <= 0 || part <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
