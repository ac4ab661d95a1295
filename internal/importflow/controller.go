package importflow

import (
	"context"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/importdash/internal/model"
)

// UploadRequest is what both remote calls receive: the two staged files and
// the attribution string.
type UploadRequest struct {
	Header     model.FileRef
	Items      model.FileRef
	ImportedBy string
}

// Gateway is the import service as seen by the controller. Preview must not
// create any records; Commit creates the import, its job and its orders.
type Gateway interface {
	Preview(ctx context.Context, req UploadRequest) (*model.PreviewResult, error)
	Commit(ctx context.Context, req UploadRequest) (*model.UploadResult, error)
}

// Committed describes a successful commit, handed to commit hooks.
type Committed struct {
	RunID      string
	Owner      string
	Header     model.FileRef
	Items      model.FileRef
	ImportedBy string
	Forced     bool
	Result     *model.UploadResult
}

type CommitHook func(ctx context.Context, c Committed)

// FileReleaser is called with staged files the run no longer references.
type FileReleaser func(files ...model.FileRef)

type Option func(c *Controller)

func WithCommitHook(h CommitHook) Option {
	return func(c *Controller) {
		if h != nil {
			c.hooks = append(c.hooks, h)
		}
	}
}

func WithFileReleaser(fn FileReleaser) Option {
	return func(c *Controller) {
		c.release = fn
	}
}

// Controller owns one Run. Transitions go through Reduce under the lock; the
// lock is never held across a gateway call.
type Controller struct {
	id    string
	owner string
	gw    Gateway

	mu       sync.Mutex
	run      Run
	identity string
	cancel   context.CancelFunc

	hooks   []CommitHook
	release FileReleaser
}

func New(id, owner, identity string, gw Gateway, opts ...Option) *Controller {
	c := &Controller{
		id:       id,
		owner:    owner,
		gw:       gw,
		identity: identity,
		run:      NewRun(identity),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) ID() string {
	return c.id
}

func (c *Controller) Owner() string {
	return c.owner
}

func (c *Controller) SelectFile(slot Slot, file model.FileRef) error {
	c.mu.Lock()
	prev := c.run
	next, err := Reduce(c.run, SelectFile{Slot: slot, File: file})
	c.run = next
	c.mu.Unlock()
	if err != nil {
		return err
	}
	if slot == SlotHeader && prev.Header != nil {
		c.releaseFiles(*prev.Header)
	}
	if slot == SlotItems && prev.Items != nil {
		c.releaseFiles(*prev.Items)
	}
	return nil
}

func (c *Controller) SetImportedBy(value string) error {
	return c.dispatch(EditImportedBy{Value: value})
}

// Identify records the current session identity. It only fills the
// attribution when the operator has not entered one.
func (c *Controller) Identify(identity string) {
	if identity == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity = identity
	c.run, _ = Reduce(c.run, Identify{Identity: identity})
}

func (c *Controller) SetForceRun(on bool) error {
	return c.dispatch(ToggleForceRun{On: on})
}

func (c *Controller) Preview(ctx context.Context) (*model.PreviewResult, error) {
	req, gen, callCtx, err := c.begin(ctx, RequestPreview{})
	if err != nil {
		return nil, err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("run_id", c.id))
	logger.Info("preview requested",
		zap.String("header", req.Header.Name),
		zap.String("items", req.Items.Name),
		zap.String("imported_by", req.ImportedBy),
	)
	res, callErr := c.gw.Preview(callCtx, req)

	var ev Event = PreviewSucceeded{Gen: gen, Result: res}
	if callErr != nil {
		ev = PreviewFailed{Gen: gen, Message: ErrorMessage(callErr, PreviewFailedMessage)}
	}
	if err := c.finish(gen, ev); err != nil {
		logger.Warn("preview response discarded", zap.Error(err))
		return nil, err
	}
	if callErr != nil {
		logger.Error("preview failed", zap.Error(callErr))
		return nil, callErr
	}
	logger.Info("preview finished",
		zap.Bool("validation_ok", res.ValidationOK),
		zap.Int("issues", len(res.Issues)),
		zap.Int("total_orders", res.TotalOrders),
	)
	return res, nil
}

func (c *Controller) Commit(ctx context.Context) (*model.UploadResult, error) {
	req, gen, callCtx, err := c.begin(ctx, RequestCommit{})
	if err != nil {
		return nil, err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("run_id", c.id))
	c.mu.Lock()
	forced := c.run.ForceRun()
	c.mu.Unlock()
	logger.Info("commit requested", zap.Bool("forced", forced), zap.String("imported_by", req.ImportedBy))
	res, callErr := c.gw.Commit(callCtx, req)

	var ev Event = CommitSucceeded{Gen: gen, Result: res}
	if callErr != nil {
		ev = CommitFailed{Gen: gen, Message: ErrorMessage(callErr, ImportFailedMessage)}
	}
	if err := c.finish(gen, ev); err != nil {
		logger.Warn("commit response discarded", zap.Error(err))
		return nil, err
	}
	if callErr != nil {
		logger.Error("commit failed", zap.Error(callErr))
		return nil, callErr
	}
	logger.Info("commit finished",
		zap.Int("total_orders", res.Summary.TotalOrders),
		zap.Int("processed_orders", res.Summary.ProcessedOrders),
		zap.Int("failed_orders", res.Summary.FailedOrders),
	)
	committed := Committed{
		RunID:      c.id,
		Owner:      c.owner,
		Header:     req.Header,
		Items:      req.Items,
		ImportedBy: req.ImportedBy,
		Forced:     forced,
		Result:     res,
	}
	for _, h := range c.hooks {
		h(ctx, committed)
	}
	return res, nil
}

// Reset returns the run to its initial value, re-seeding the attribution from
// the session identity. An in-flight call is cancelled and its response
// discarded.
func (c *Controller) Reset() {
	c.mu.Lock()
	prev := c.run
	c.run, _ = Reduce(c.run, Reset{Identity: c.identity})
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	c.releaseFiles(filesOf(prev)...)
}

// Close releases everything the run still references.
func (c *Controller) Close() {
	c.mu.Lock()
	prev := c.run
	cancel := c.cancel
	c.cancel = nil
	c.run = NewRun(c.identity)
	c.run.Gen = prev.Gen + 1
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	c.releaseFiles(filesOf(prev)...)
}

func (c *Controller) Run() Run {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.run
}

func (c *Controller) Snapshot() Snapshot {
	return NewSnapshot(c.id, c.Run())
}

func (c *Controller) dispatch(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := Reduce(c.run, ev)
	c.run = next
	return err
}

func (c *Controller) begin(ctx context.Context, ev Event) (UploadRequest, uint64, context.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := Reduce(c.run, ev)
	c.run = next
	if err != nil {
		return UploadRequest{}, 0, nil, err
	}
	importedBy := next.ImportedBy
	if importedBy == "" {
		importedBy = DefaultImportedBy
	}
	req := UploadRequest{
		Header:     *next.Header,
		Items:      *next.Items,
		ImportedBy: importedBy,
	}
	callCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	return req, next.Gen, callCtx, nil
}

func (c *Controller) finish(gen uint64, ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run.Gen == gen && c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	next, err := Reduce(c.run, ev)
	c.run = next
	return err
}

func (c *Controller) releaseFiles(files ...model.FileRef) {
	if c.release == nil || len(files) == 0 {
		return
	}
	c.release(files...)
}

func filesOf(r Run) []model.FileRef {
	files := make([]model.FileRef, 0, 2)
	if r.Header != nil {
		files = append(files, *r.Header)
	}
	if r.Items != nil {
		files = append(files, *r.Items)
	}
	return files
}
