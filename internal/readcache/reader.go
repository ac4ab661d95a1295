package readcache

import (
	"context"

	"github.com/xxxsen/importdash/internal/importapi"
	"github.com/xxxsen/importdash/internal/model"
)

// Reader is the read side of the import service.
type Reader interface {
	ListImports(ctx context.Context, q importapi.ImportQuery) (*model.ImportPage, error)
	GetImport(ctx context.Context, id int64) (*model.ImportDetail, error)
	ListJobs(ctx context.Context, q importapi.JobQuery) (*model.JobPage, error)
	ListOrders(ctx context.Context, q importapi.OrderQuery) ([]model.Order, error)
	GetOrder(ctx context.Context, id int64) (*model.OrderDetail, error)
}
