package pipeline

import "github.com/xxxsen/importdash/internal/model"

type Stage string

const (
	StageFailed      Stage = "Failed"
	StagePendingSync Stage = "Pending sync"
	StageSynced      Stage = "Synced"
	StageInvoiced    Stage = "Invoiced"
	StageShipped     Stage = "Shipped"
)

// DeriveOrderStage labels where a single order sits in sync -> invoice -> ship.
func DeriveOrderStage(o model.Order) Stage {
	switch {
	case o.Status == model.ImportStatusFailed:
		return StageFailed
	case o.MagentoOrderID == nil || *o.MagentoOrderID == 0:
		return StagePendingSync
	case o.InvoicedAt == nil || *o.InvoicedAt == "":
		return StageSynced
	case o.ShippedAt == nil || *o.ShippedAt == "":
		return StageInvoiced
	default:
		return StageShipped
	}
}
