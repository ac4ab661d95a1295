package job

import (
	"context"
	"time"
)

type ActivityCleaner interface {
	Cleanup(ctx context.Context, retention time.Duration) (int64, error)
}

type ActivityCleanupJob struct {
	activities ActivityCleaner
	maxAgeDays int
}

func NewActivityCleanupJob(activities ActivityCleaner, maxAgeDays int) *ActivityCleanupJob {
	return &ActivityCleanupJob{activities: activities, maxAgeDays: maxAgeDays}
}

func (j *ActivityCleanupJob) Name() string {
	return "activity_cleanup"
}

func (j *ActivityCleanupJob) Run(ctx context.Context) error {
	if j.activities == nil {
		return nil
	}
	maxAgeDays := j.maxAgeDays
	if maxAgeDays <= 0 {
		maxAgeDays = 90
	}
	_, err := j.activities.Cleanup(ctx, time.Duration(maxAgeDays)*24*time.Hour)
	return err
}
