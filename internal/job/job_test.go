package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeActivities struct {
	batch     int
	retention time.Duration
	err       error
}

func (f *fakeActivities) RefreshPipelines(ctx context.Context, batch int) (int, error) {
	f.batch = batch
	return 2, f.err
}

func (f *fakeActivities) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	f.retention = retention
	return 1, f.err
}

func TestPipelineWatchJob(t *testing.T) {
	fake := &fakeActivities{}
	job := NewPipelineWatchJob(fake, 0)
	require.Equal(t, "pipeline_watch", job.Name())
	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, 100, fake.batch)

	fake.err = errors.New("db down")
	require.Error(t, job.Run(context.Background()))

	require.NoError(t, NewPipelineWatchJob(nil, 10).Run(context.Background()))
}

func TestActivityCleanupJob(t *testing.T) {
	fake := &fakeActivities{}
	job := NewActivityCleanupJob(fake, 7)
	require.Equal(t, "activity_cleanup", job.Name())
	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, 7*24*time.Hour, fake.retention)

	require.NoError(t, NewActivityCleanupJob(fake, 0).Run(context.Background()))
	require.Equal(t, 90*24*time.Hour, fake.retention)
}
