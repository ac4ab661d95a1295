package readcache

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/importdash/internal/importapi"
	"github.com/xxxsen/importdash/internal/model"
	"github.com/xxxsen/importdash/internal/pkg/optimistic"
)

// Cached keeps list pages of the import service for a short TTL. Orders are
// always read through.
type Cached struct {
	next    Reader
	imports *expirable.LRU[string, *model.ImportPage]
	details *expirable.LRU[int64, *model.ImportDetail]
	jobs    *expirable.LRU[string, *model.JobPage]
}

// WrapLru returns a caching Reader. A non-positive size or ttl disables
// caching but still yields a usable value.
func WrapLru(next Reader, size int, ttl time.Duration) *Cached {
	c := &Cached{next: next}
	if size <= 0 || ttl <= 0 {
		return c
	}
	c.imports = expirable.NewLRU[string, *model.ImportPage](size, nil, ttl)
	c.details = expirable.NewLRU[int64, *model.ImportDetail](size, nil, ttl)
	c.jobs = expirable.NewLRU[string, *model.JobPage](size, nil, ttl)
	return c
}

func (c *Cached) ListImports(ctx context.Context, q importapi.ImportQuery) (*model.ImportPage, error) {
	key := fmt.Sprintf("imports:%d:%d:%d", q.JobID, q.Limit, q.Offset)
	if c.imports != nil {
		if page, ok := c.imports.Get(key); ok {
			logutil.GetLogger(ctx).Debug("imports cache hit", zap.String("key", key))
			return cloneImportPage(page), nil
		}
	}
	page, err := c.next.ListImports(ctx, q)
	if err != nil {
		return nil, err
	}
	if c.imports != nil {
		c.imports.Add(key, cloneImportPage(page))
	}
	return page, nil
}

func (c *Cached) GetImport(ctx context.Context, id int64) (*model.ImportDetail, error) {
	if c.details != nil {
		if detail, ok := c.details.Get(id); ok {
			logutil.GetLogger(ctx).Debug("import detail cache hit", zap.Int64("import_id", id))
			return cloneImportDetail(detail), nil
		}
	}
	detail, err := c.next.GetImport(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.details != nil {
		c.details.Add(id, cloneImportDetail(detail))
	}
	return detail, nil
}

func (c *Cached) ListJobs(ctx context.Context, q importapi.JobQuery) (*model.JobPage, error) {
	key := fmt.Sprintf("jobs:%s:%s:%d:%d:%d", q.Status, q.Type, q.OrderID, q.Limit, q.Offset)
	if c.jobs != nil {
		if page, ok := c.jobs.Get(key); ok {
			logutil.GetLogger(ctx).Debug("jobs cache hit", zap.String("key", key))
			return cloneJobPage(page), nil
		}
	}
	page, err := c.next.ListJobs(ctx, q)
	if err != nil {
		return nil, err
	}
	if c.jobs != nil {
		c.jobs.Add(key, cloneJobPage(page))
	}
	return page, nil
}

func (c *Cached) ListOrders(ctx context.Context, q importapi.OrderQuery) ([]model.Order, error) {
	return c.next.ListOrders(ctx, q)
}

func (c *Cached) GetOrder(ctx context.Context, id int64) (*model.OrderDetail, error) {
	return c.next.GetOrder(ctx, id)
}

// Purge drops every cached page. Called after a commit creates new records.
func (c *Cached) Purge() {
	if c.imports != nil {
		c.imports.Purge()
	}
	if c.details != nil {
		c.details.Purge()
	}
	if c.jobs != nil {
		c.jobs.Purge()
	}
}

// ApplyEcho patches cached job pages in place of a refetch.
func (c *Cached) ApplyEcho(e optimistic.Echo[model.Job]) int {
	if c.jobs == nil {
		return 0
	}
	total := 0
	for _, key := range c.jobs.Keys() {
		page, ok := c.jobs.Peek(key)
		if !ok {
			continue
		}
		data, n := e.Apply(page.Data)
		if n == 0 {
			continue
		}
		patched := *page
		patched.Data = data
		c.jobs.Add(key, &patched)
		total += n
	}
	return total
}

func cloneImportPage(p *model.ImportPage) *model.ImportPage {
	out := *p
	out.Data = cloneSlice(p.Data)
	for i := range out.Data {
		out.Data[i] = cloneImportRecord(out.Data[i])
	}
	return &out
}

func cloneImportDetail(d *model.ImportDetail) *model.ImportDetail {
	out := *d
	out.Import = cloneImportRecord(d.Import)
	out.Orders = cloneSlice(d.Orders)
	return &out
}

// cloneImportRecord copies the pointer fields too, callers may mutate the
// progress counters of what they get back.
func cloneImportRecord(rec model.ImportRecord) model.ImportRecord {
	rec.Error = clonePtr(rec.Error)
	rec.JobID = clonePtr(rec.JobID)
	if rec.Progress != nil {
		p := *rec.Progress
		p.Total = clonePtr(p.Total)
		rec.Progress = &p
	}
	return rec
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneJobPage(p *model.JobPage) *model.JobPage {
	out := *p
	out.Data = cloneSlice(p.Data)
	return &out
}

func cloneSlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
