package service

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/importdash/internal/importflow"
	"github.com/xxxsen/importdash/internal/model"
	"github.com/xxxsen/importdash/internal/pipeline"
	"github.com/xxxsen/importdash/internal/repo"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100
)

type activityRepo interface {
	Create(ctx context.Context, item *model.RunActivity) error
	List(ctx context.Context, filter repo.ActivityFilter) ([]model.RunActivity, error)
	ListByPipelineStatus(ctx context.Context, status string, limit int) ([]model.RunActivity, error)
	UpdatePipelineStatus(ctx context.Context, id, status string, mtime int64) error
	DeleteBefore(ctx context.Context, ctime int64) (int64, error)
}

type ImportLookup interface {
	GetImport(ctx context.Context, id int64) (*model.ImportDetail, error)
}

// ActivityService keeps the recent-activity feed: one row per committed run,
// with the pipeline status refreshed until it settles.
type ActivityService struct {
	repo    activityRepo
	imports ImportLookup
}

func NewActivityService(activities activityRepo, imports ImportLookup) *ActivityService {
	return &ActivityService{repo: activities, imports: imports}
}

// RecordCommit is installed as a commit hook. Failures are logged, the
// commit itself already succeeded.
func (s *ActivityService) RecordCommit(ctx context.Context, c importflow.Committed) {
	now := time.Now().Unix()
	item := &model.RunActivity{
		ID:             newID(),
		RunID:          c.RunID,
		UserID:         c.Owner,
		ImportedBy:     c.ImportedBy,
		HeaderFilename: c.Header.Name,
		ItemsFilename:  c.Items.Name,
		Forced:         c.Forced,
		PipelineStatus: string(pipeline.StatusProcessing),
		Ctime:          now,
		Mtime:          now,
	}
	if c.Result != nil {
		item.ImportID = c.Result.ImportID
		item.JobID = c.Result.JobID
		item.TotalOrders = c.Result.Summary.TotalOrders
		item.ProcessedOrders = c.Result.Summary.ProcessedOrders
		item.SkippedOrders = c.Result.Summary.SkippedOrders
		item.FailedOrders = c.Result.Summary.FailedOrders
		if c.Result.Summary.FailedOrders > 0 {
			item.PipelineStatus = string(pipeline.StatusFailed)
		}
	}
	if err := s.repo.Create(ctx, item); err != nil {
		logutil.GetLogger(ctx).Error("record run activity failed", zap.String("run_id", c.RunID), zap.Error(err))
	}
}

func (s *ActivityService) List(ctx context.Context, userID string, limit, offset int) ([]model.RunActivity, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, repo.ActivityFilter{UserID: userID, Limit: limit, Offset: offset})
}

// RefreshPipelines re-derives the pipeline status of up to batch rows that
// are still processing and stores the ones that changed.
func (s *ActivityService) RefreshPipelines(ctx context.Context, batch int) (int, error) {
	items, err := s.repo.ListByPipelineStatus(ctx, string(pipeline.StatusProcessing), batch)
	if err != nil {
		return 0, err
	}
	logger := logutil.GetLogger(ctx)
	changed := 0
	for _, item := range items {
		if item.ImportID == nil {
			continue
		}
		detail, err := s.imports.GetImport(ctx, *item.ImportID)
		if err != nil {
			logger.Warn("load import for pipeline refresh failed", zap.Int64("import_id", *item.ImportID), zap.Error(err))
			continue
		}
		status := pipeline.DeriveStatus(detail.Import)
		if string(status) == item.PipelineStatus {
			continue
		}
		if err := s.repo.UpdatePipelineStatus(ctx, item.ID, string(status), time.Now().Unix()); err != nil {
			logger.Error("update pipeline status failed", zap.String("activity_id", item.ID), zap.Error(err))
			continue
		}
		logger.Info("import pipeline settled",
			zap.Int64("import_id", *item.ImportID),
			zap.String("from", item.PipelineStatus),
			zap.String("to", string(status)),
		)
		changed++
	}
	return changed, nil
}

func (s *ActivityService) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-retention).Unix()
	return s.repo.DeleteBefore(ctx, cutoff)
}
