package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type PipelineRefresher interface {
	RefreshPipelines(ctx context.Context, batch int) (int, error)
}

// PipelineWatchJob follows committed imports until their pipeline status
// settles.
type PipelineWatchJob struct {
	activities PipelineRefresher
	batch      int
}

func NewPipelineWatchJob(activities PipelineRefresher, batch int) *PipelineWatchJob {
	return &PipelineWatchJob{activities: activities, batch: batch}
}

func (j *PipelineWatchJob) Name() string {
	return "pipeline_watch"
}

func (j *PipelineWatchJob) Run(ctx context.Context) error {
	if j.activities == nil {
		return nil
	}
	batch := j.batch
	if batch <= 0 {
		batch = 100
	}
	changed, err := j.activities.RefreshPipelines(ctx, batch)
	if err != nil {
		return err
	}
	if changed > 0 {
		logutil.GetLogger(ctx).Info("pipeline statuses updated", zap.Int("count", changed))
	}
	return nil
}
