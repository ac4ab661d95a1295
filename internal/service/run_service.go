package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/importdash/internal/filestore"
	"github.com/xxxsen/importdash/internal/importflow"
	"github.com/xxxsen/importdash/internal/model"
	appErr "github.com/xxxsen/importdash/internal/pkg/errors"
	"github.com/xxxsen/importdash/internal/runs"
)

const releaseTimeout = 30 * time.Second

// Actor is the caller of a run operation. Identity is what attribution
// defaults to, usually the session email.
type Actor struct {
	UserID   string
	Identity string
}

type RunService struct {
	registry  *runs.Registry
	store     filestore.Store
	maxUpload int64
}

func NewRunService(registry *runs.Registry, store filestore.Store, maxUpload int64) *RunService {
	return &RunService{registry: registry, store: store, maxUpload: maxUpload}
}

// NewFileReleaser deletes staged files in the background.
func NewFileReleaser(store filestore.Store) importflow.FileReleaser {
	return func(files ...model.FileRef) {
		if len(files) == 0 {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			for _, f := range files {
				if err := store.Delete(ctx, f.Key); err != nil {
					logutil.GetLogger(ctx).Warn("delete staged file failed", zap.String("key", f.Key), zap.Error(err))
				}
			}
		}()
	}
}

func (s *RunService) Create(ctx context.Context, actor Actor) importflow.Snapshot {
	c := s.registry.Create(actor.UserID, actor.Identity)
	logutil.GetLogger(ctx).Info("import run created", zap.String("run_id", c.ID()), zap.String("user_id", actor.UserID))
	return c.Snapshot()
}

func (s *RunService) Get(ctx context.Context, actor Actor, runID string) (importflow.Snapshot, error) {
	c, err := s.controller(actor, runID)
	if err != nil {
		return importflow.Snapshot{}, err
	}
	return c.Snapshot(), nil
}

func (s *RunService) Delete(ctx context.Context, actor Actor, runID string) error {
	if err := s.registry.Remove(actor.UserID, runID); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("import run discarded", zap.String("run_id", runID))
	return nil
}

// UploadFile stages a CSV payload and selects it for the given slot. The
// bytes are stored untouched.
func (s *RunService) UploadFile(ctx context.Context, actor Actor, runID, slotName, filename string, r io.Reader, size int64) (importflow.Snapshot, error) {
	slot, ok := importflow.ParseSlot(slotName)
	if !ok {
		return importflow.Snapshot{}, fmt.Errorf("%w: %s", importflow.ErrInvalidSlot, slotName)
	}
	filename = filepath.Base(strings.TrimSpace(filename))
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return importflow.Snapshot{}, fmt.Errorf("%w: %s file must be a .csv", appErr.ErrInvalid, slot)
	}
	if s.maxUpload > 0 && size > s.maxUpload {
		return importflow.Snapshot{}, appErr.ErrFileTooLarge
	}
	c, err := s.controller(actor, runID)
	if err != nil {
		return importflow.Snapshot{}, err
	}
	if c.Run().Busy() {
		return c.Snapshot(), importflow.ErrBusy
	}
	ref := model.FileRef{Key: newFileKey(string(slot)), Name: filename, Size: size}
	if err := s.store.Save(ctx, ref.Key, r, size); err != nil {
		return importflow.Snapshot{}, fmt.Errorf("save %s file: %w", slot, err)
	}
	if err := c.SelectFile(slot, ref); err != nil {
		if delErr := s.store.Delete(ctx, ref.Key); delErr != nil {
			logutil.GetLogger(ctx).Warn("delete rejected upload failed", zap.String("key", ref.Key), zap.Error(delErr))
		}
		return c.Snapshot(), err
	}
	logutil.GetLogger(ctx).Info("import file staged",
		zap.String("run_id", runID),
		zap.String("slot", string(slot)),
		zap.String("name", filename),
		zap.Int64("size", size),
	)
	return c.Snapshot(), nil
}

func (s *RunService) SetImportedBy(ctx context.Context, actor Actor, runID, value string) (importflow.Snapshot, error) {
	c, err := s.controller(actor, runID)
	if err != nil {
		return importflow.Snapshot{}, err
	}
	if err := c.SetImportedBy(strings.TrimSpace(value)); err != nil {
		return c.Snapshot(), err
	}
	return c.Snapshot(), nil
}

func (s *RunService) SetForceRun(ctx context.Context, actor Actor, runID string, on bool) (importflow.Snapshot, error) {
	c, err := s.controller(actor, runID)
	if err != nil {
		return importflow.Snapshot{}, err
	}
	if err := c.SetForceRun(on); err != nil {
		return c.Snapshot(), err
	}
	return c.Snapshot(), nil
}

// Preview blocks until the import service answers. A failed call leaves the
// run idle with the error recorded in the snapshot.
func (s *RunService) Preview(ctx context.Context, actor Actor, runID string) (importflow.Snapshot, error) {
	c, err := s.controller(actor, runID)
	if err != nil {
		return importflow.Snapshot{}, err
	}
	c.Identify(actor.Identity)
	if _, err := c.Preview(ctx); err != nil {
		return c.Snapshot(), flowError(err)
	}
	return c.Snapshot(), nil
}

func (s *RunService) Commit(ctx context.Context, actor Actor, runID string) (importflow.Snapshot, error) {
	c, err := s.controller(actor, runID)
	if err != nil {
		return importflow.Snapshot{}, err
	}
	c.Identify(actor.Identity)
	if _, err := c.Commit(ctx); err != nil {
		return c.Snapshot(), flowError(err)
	}
	return c.Snapshot(), nil
}

func (s *RunService) Reset(ctx context.Context, actor Actor, runID string) (importflow.Snapshot, error) {
	c, err := s.controller(actor, runID)
	if err != nil {
		return importflow.Snapshot{}, err
	}
	c.Identify(actor.Identity)
	c.Reset()
	return c.Snapshot(), nil
}

func (s *RunService) controller(actor Actor, runID string) (*importflow.Controller, error) {
	if strings.TrimSpace(runID) == "" {
		return nil, appErr.ErrInvalid
	}
	return s.registry.Get(actor.UserID, runID)
}

// flowError keeps workflow sentinels as they are and marks remote failures
// with appErr.ErrUpstream.
func flowError(err error) error {
	for _, known := range []error{
		importflow.ErrBusy,
		importflow.ErrFilesMissing,
		importflow.ErrNoPreview,
		importflow.ErrAlreadyCommitted,
		importflow.ErrValidationBlocked,
		importflow.ErrSuperseded,
		context.Canceled,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return &UpstreamError{Err: err}
}

// UpstreamError wraps a failure of the import service. Message returns the
// text stored on the run.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return e.Err.Error()
}

func (e *UpstreamError) Message() string {
	return importflow.ErrorMessage(e.Err, "")
}

func (e *UpstreamError) Unwrap() []error {
	return []error{e.Err, appErr.ErrUpstream}
}
