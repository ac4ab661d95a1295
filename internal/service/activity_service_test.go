package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/importdash/internal/importflow"
	"github.com/xxxsen/importdash/internal/model"
	"github.com/xxxsen/importdash/internal/pipeline"
	appErr "github.com/xxxsen/importdash/internal/pkg/errors"
	"github.com/xxxsen/importdash/internal/repo"
)

type memActivityRepo struct {
	mu    sync.Mutex
	items map[string]model.RunActivity
}

func newMemActivityRepo() *memActivityRepo {
	return &memActivityRepo{items: map[string]model.RunActivity{}}
}

func (r *memActivityRepo) Create(ctx context.Context, item *model.RunActivity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; ok {
		return appErr.ErrConflict
	}
	r.items[item.ID] = *item
	return nil
}

func (r *memActivityRepo) sorted() []model.RunActivity {
	out := make([]model.RunActivity, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ctime > out[j].Ctime })
	return out
}

func (r *memActivityRepo) List(ctx context.Context, filter repo.ActivityFilter) ([]model.RunActivity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.RunActivity, 0)
	for _, item := range r.sorted() {
		if filter.UserID == "" || item.UserID == filter.UserID {
			out = append(out, item)
		}
	}
	if filter.Offset >= len(out) {
		return []model.RunActivity{}, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memActivityRepo) ListByPipelineStatus(ctx context.Context, status string, limit int) ([]model.RunActivity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.RunActivity, 0)
	for _, item := range r.sorted() {
		if item.PipelineStatus == status && item.ImportID != nil {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *memActivityRepo) UpdatePipelineStatus(ctx context.Context, id, status string, mtime int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return appErr.ErrNotFound
	}
	item.PipelineStatus = status
	item.Mtime = mtime
	r.items[id] = item
	return nil
}

func (r *memActivityRepo) DeleteBefore(ctx context.Context, ctime int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, item := range r.items {
		if item.Ctime < ctime {
			delete(r.items, id)
			n++
		}
	}
	return n, nil
}

func TestActivityRecordCommit(t *testing.T) {
	activities := newMemActivityRepo()
	svc := NewActivityService(activities, &stubReader{})
	ctx := context.Background()

	svc.RecordCommit(ctx, importflow.Committed{
		RunID:      "run-1",
		Owner:      "u-1",
		Header:     model.FileRef{Name: "header.csv"},
		Items:      model.FileRef{Name: "items.csv"},
		ImportedBy: "ops@example.com",
		Forced:     true,
		Result: &model.UploadResult{
			ImportID: int64Ptr(42),
			JobID:    int64Ptr(7),
			Summary:  model.UploadSummary{TotalOrders: 5, ProcessedOrders: 4, FailedOrders: 1},
		},
	})
	svc.RecordCommit(ctx, importflow.Committed{RunID: "run-2", Owner: "u-2"})

	mine, err := svc.List(ctx, "u-1", 0, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	item := mine[0]
	require.Equal(t, "run-1", item.RunID)
	require.Equal(t, int64(42), *item.ImportID)
	require.True(t, item.Forced)
	require.Equal(t, 4, item.ProcessedOrders)
	require.Equal(t, string(pipeline.StatusFailed), item.PipelineStatus)

	all, err := svc.List(ctx, "", 1000, -1)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestActivityRefreshPipelines(t *testing.T) {
	activities := newMemActivityRepo()
	reader := &stubReader{imports: []model.ImportRecord{
		{ID: 1, Progress: &model.Progress{Total: intPtr(2), Synced: 2, Invoiced: 2, Shipped: 2}},
		{ID: 2, Progress: &model.Progress{Total: intPtr(2), Synced: 1}},
	}}
	svc := NewActivityService(activities, reader)
	ctx := context.Background()
	for i, importID := range []int64{1, 2, 3} {
		id := importID
		require.NoError(t, activities.Create(ctx, &model.RunActivity{
			ID:             string(rune('a' + i)),
			ImportID:       &id,
			PipelineStatus: string(pipeline.StatusProcessing),
			Ctime:          int64(i),
		}))
	}

	changed, err := svc.RefreshPipelines(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, changed)
	require.Equal(t, string(pipeline.StatusDone), activities.items["a"].PipelineStatus)
	require.Equal(t, string(pipeline.StatusProcessing), activities.items["b"].PipelineStatus)
	require.Equal(t, string(pipeline.StatusProcessing), activities.items["c"].PipelineStatus)
}

func TestActivityCleanup(t *testing.T) {
	activities := newMemActivityRepo()
	svc := NewActivityService(activities, &stubReader{})
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, activities.Create(ctx, &model.RunActivity{ID: "old", Ctime: now.Add(-48 * time.Hour).Unix()}))
	require.NoError(t, activities.Create(ctx, &model.RunActivity{ID: "new", Ctime: now.Unix()}))

	n, err := svc.Cleanup(ctx, 0)
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = svc.Cleanup(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	_, ok := activities.items["new"]
	require.True(t, ok)
}
