package service

import (
	"context"
	"fmt"
	"io"

	"github.com/xxxsen/importdash/internal/filestore"
	"github.com/xxxsen/importdash/internal/importapi"
	"github.com/xxxsen/importdash/internal/importflow"
	"github.com/xxxsen/importdash/internal/model"
)

// ImportWriter is the mutating side of the import service.
type ImportWriter interface {
	Preview(ctx context.Context, payload importapi.UploadPayload) (*model.PreviewResult, error)
	Commit(ctx context.Context, payload importapi.UploadPayload) (*model.UploadResult, error)
}

// UploadGateway streams staged files from the file store to the import
// service.
type UploadGateway struct {
	store filestore.Store
	api   ImportWriter
}

var _ importflow.Gateway = (*UploadGateway)(nil)

func NewUploadGateway(store filestore.Store, api ImportWriter) *UploadGateway {
	return &UploadGateway{store: store, api: api}
}

func (g *UploadGateway) Preview(ctx context.Context, req importflow.UploadRequest) (*model.PreviewResult, error) {
	var out *model.PreviewResult
	err := g.withPayload(ctx, req, func(payload importapi.UploadPayload) error {
		res, err := g.api.Preview(ctx, payload)
		out = res
		return err
	})
	return out, err
}

func (g *UploadGateway) Commit(ctx context.Context, req importflow.UploadRequest) (*model.UploadResult, error) {
	var out *model.UploadResult
	err := g.withPayload(ctx, req, func(payload importapi.UploadPayload) error {
		res, err := g.api.Commit(ctx, payload)
		out = res
		return err
	})
	return out, err
}

func (g *UploadGateway) withPayload(ctx context.Context, req importflow.UploadRequest, fn func(importapi.UploadPayload) error) error {
	header, err := g.open(ctx, req.Header)
	if err != nil {
		return err
	}
	defer header.Close()
	items, err := g.open(ctx, req.Items)
	if err != nil {
		return err
	}
	defer items.Close()
	return fn(importapi.UploadPayload{
		Header:     importapi.File{Name: req.Header.Name, Reader: header},
		Items:      importapi.File{Name: req.Items.Name, Reader: items},
		ImportedBy: req.ImportedBy,
	})
}

func (g *UploadGateway) open(ctx context.Context, ref model.FileRef) (io.ReadCloser, error) {
	rc, err := g.store.Open(ctx, ref.Key)
	if err != nil {
		return nil, fmt.Errorf("open staged file %s: %w", ref.Name, err)
	}
	return rc, nil
}
