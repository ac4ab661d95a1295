package runs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/importdash/internal/importflow"
	"github.com/xxxsen/importdash/internal/model"
	appErr "github.com/xxxsen/importdash/internal/pkg/errors"
)

type nopGateway struct{}

func (nopGateway) Preview(ctx context.Context, req importflow.UploadRequest) (*model.PreviewResult, error) {
	return &model.PreviewResult{ValidationOK: true}, nil
}

func (nopGateway) Commit(ctx context.Context, req importflow.UploadRequest) (*model.UploadResult, error) {
	return &model.UploadResult{}, nil
}

type releaseLog struct {
	mu   sync.Mutex
	keys []string
}

func (l *releaseLog) release(files ...model.FileRef) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, f := range files {
		l.keys = append(l.keys, f.Key)
	}
}

func (l *releaseLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.keys...)
}

func TestRegistryOwnership(t *testing.T) {
	reg := NewRegistry(nopGateway{}, 8, time.Minute)
	c := reg.Create("user-1", "ops@example.com")
	require.NotEmpty(t, c.ID())
	require.Equal(t, "ops@example.com", c.Run().ImportedBy)

	got, err := reg.Get("user-1", c.ID())
	require.NoError(t, err)
	require.Same(t, c, got)

	_, err = reg.Get("user-2", c.ID())
	require.ErrorIs(t, err, appErr.ErrNotFound)
	require.ErrorIs(t, reg.Remove("user-2", c.ID()), appErr.ErrNotFound)
	require.Equal(t, 1, reg.Len())

	require.NoError(t, reg.Remove("user-1", c.ID()))
	_, err = reg.Get("user-1", c.ID())
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestRegistryEvictionReleasesFiles(t *testing.T) {
	log := &releaseLog{}
	reg := NewRegistry(nopGateway{}, 1, time.Minute, importflow.WithFileReleaser(log.release))

	first := reg.Create("user-1", "")
	require.NoError(t, first.SelectFile(importflow.SlotHeader, model.FileRef{Key: "h1", Name: "header.csv"}))
	require.NoError(t, first.SelectFile(importflow.SlotItems, model.FileRef{Key: "i1", Name: "items.csv"}))

	reg.Create("user-1", "")
	require.ElementsMatch(t, []string{"h1", "i1"}, log.snapshot())
	require.Equal(t, 1, reg.Len())
}

func TestRegistryRemoveReleasesFiles(t *testing.T) {
	log := &releaseLog{}
	reg := NewRegistry(nopGateway{}, 4, time.Minute, importflow.WithFileReleaser(log.release))
	c := reg.Create("user-1", "")
	require.NoError(t, c.SelectFile(importflow.SlotHeader, model.FileRef{Key: "h1"}))
	require.NoError(t, reg.Remove("user-1", c.ID()))
	require.Equal(t, []string{"h1"}, log.snapshot())
}
