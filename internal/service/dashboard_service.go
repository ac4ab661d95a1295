package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/importdash/internal/importapi"
	"github.com/xxxsen/importdash/internal/importflow"
	"github.com/xxxsen/importdash/internal/model"
	"github.com/xxxsen/importdash/internal/pipeline"
	appErr "github.com/xxxsen/importdash/internal/pkg/errors"
	"github.com/xxxsen/importdash/internal/pkg/optimistic"
	"github.com/xxxsen/importdash/internal/readcache"
)

const maxPageLimit = 200

type JobRetrier interface {
	RetryJob(ctx context.Context, id int64) error
}

type ImportView struct {
	model.ImportRecord
	Pipeline pipeline.Summary `json:"pipeline"`
}

type ImportList struct {
	Data       []ImportView     `json:"data"`
	Pagination model.Pagination `json:"pagination"`
}

type ImportDetailView struct {
	Import ImportView            `json:"import"`
	Orders []model.ImportedOrder `json:"orders"`
}

type JobView struct {
	model.Job
	OrderID *int64 `json:"order_id"`
}

type JobList struct {
	Data       []JobView        `json:"data"`
	Pagination model.Pagination `json:"pagination"`
}

type OrderView struct {
	model.Order
	Stage pipeline.Stage `json:"stage"`
}

type OrderDetailView struct {
	Order OrderView         `json:"order"`
	Items []json.RawMessage `json:"items"`
}

type RetryResult struct {
	JobID   int64  `json:"job_id"`
	Patched int    `json:"patched"`
	Message string `json:"message"`
}

type DashboardService struct {
	reader  readcache.Reader
	retrier JobRetrier
	views   []optimistic.View[model.Job]
}

func NewDashboardService(reader readcache.Reader, retrier JobRetrier, views ...optimistic.View[model.Job]) *DashboardService {
	return &DashboardService{reader: reader, retrier: retrier, views: views}
}

func (s *DashboardService) ListImports(ctx context.Context, q importapi.ImportQuery) (*ImportList, error) {
	if err := checkPage(q.Limit, q.Offset); err != nil {
		return nil, err
	}
	page, err := s.reader.ListImports(ctx, q)
	if err != nil {
		return nil, upstream(err)
	}
	out := &ImportList{Data: make([]ImportView, 0, len(page.Data)), Pagination: page.Pagination}
	for _, rec := range page.Data {
		out.Data = append(out.Data, newImportView(rec))
	}
	return out, nil
}

func (s *DashboardService) GetImport(ctx context.Context, id int64) (*ImportDetailView, error) {
	if id <= 0 {
		return nil, appErr.ErrInvalid
	}
	detail, err := s.reader.GetImport(ctx, id)
	if err != nil {
		return nil, upstream(err)
	}
	return &ImportDetailView{Import: newImportView(detail.Import), Orders: detail.Orders}, nil
}

func (s *DashboardService) ListJobs(ctx context.Context, q importapi.JobQuery) (*JobList, error) {
	if err := checkPage(q.Limit, q.Offset); err != nil {
		return nil, err
	}
	page, err := s.reader.ListJobs(ctx, q)
	if err != nil {
		return nil, upstream(err)
	}
	out := &JobList{Data: make([]JobView, 0, len(page.Data)), Pagination: page.Pagination}
	for i := range page.Data {
		job := page.Data[i]
		out.Data = append(out.Data, JobView{Job: job, OrderID: job.OrderID()})
	}
	return out, nil
}

// RetryJob asks the import service to retry a job and, once accepted,
// shows it locally as pending with a cleared error and one more attempt.
func (s *DashboardService) RetryJob(ctx context.Context, id int64) (*RetryResult, error) {
	if id <= 0 {
		return nil, appErr.ErrInvalid
	}
	n, err := optimistic.Do(ctx, func(ctx context.Context) error {
		return s.retrier.RetryJob(ctx, id)
	}, retryEcho(id), s.views...)
	if err != nil {
		logutil.GetLogger(ctx).Error("retry job failed", zap.Int64("job_id", id), zap.Error(err))
		return nil, upstream(err)
	}
	logutil.GetLogger(ctx).Info("job queued for retry", zap.Int64("job_id", id), zap.Int("patched", n))
	return &RetryResult{
		JobID:   id,
		Patched: n,
		Message: fmt.Sprintf("Job #%d queued for retry.", id),
	}, nil
}

func retryEcho(id int64) optimistic.Echo[model.Job] {
	return optimistic.Echo[model.Job]{
		Match: func(j model.Job) bool { return j.ID == id },
		Patch: func(j model.Job) model.Job {
			j.Status = model.JobStatusPending
			j.LastError = nil
			j.Attempts++
			return j
		},
	}
}

func (s *DashboardService) ListOrders(ctx context.Context, q importapi.OrderQuery) ([]OrderView, error) {
	orders, err := s.reader.ListOrders(ctx, q)
	if err != nil {
		return nil, upstream(err)
	}
	out := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, OrderView{Order: o, Stage: pipeline.DeriveOrderStage(o)})
	}
	return out, nil
}

func (s *DashboardService) GetOrder(ctx context.Context, id int64) (*OrderDetailView, error) {
	if id <= 0 {
		return nil, appErr.ErrInvalid
	}
	detail, err := s.reader.GetOrder(ctx, id)
	if err != nil {
		return nil, upstream(err)
	}
	return &OrderDetailView{
		Order: OrderView{Order: detail.Order, Stage: pipeline.DeriveOrderStage(detail.Order)},
		Items: detail.Items,
	}, nil
}

func newImportView(rec model.ImportRecord) ImportView {
	return ImportView{ImportRecord: rec, Pipeline: pipeline.Summarize(rec)}
}

func checkPage(limit, offset int) error {
	if limit < 0 || offset < 0 || limit > maxPageLimit {
		return appErr.ErrInvalid
	}
	return nil
}

// upstream maps a missing remote record to ErrNotFound and marks every other
// remote failure as ErrUpstream.
func upstream(err error) error {
	if importapi.IsNotFound(err) {
		return fmt.Errorf("%w: %s", appErr.ErrNotFound, importflow.ErrorMessage(err, ""))
	}
	return &UpstreamError{Err: err}
}
