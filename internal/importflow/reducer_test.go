package importflow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/importdash/internal/model"
)

func fileRef(name string) model.FileRef {
	return model.FileRef{Key: "k-" + name, Name: name, Size: 128}
}

func mustReduce(t *testing.T, r Run, ev Event) Run {
	t.Helper()
	next, err := Reduce(r, ev)
	require.NoError(t, err)
	return next
}

func withFiles(t *testing.T) Run {
	r := NewRun("ops@example.com")
	r = mustReduce(t, r, SelectFile{Slot: SlotHeader, File: fileRef("header.csv")})
	return mustReduce(t, r, SelectFile{Slot: SlotItems, File: fileRef("items.csv")})
}

func previewed(t *testing.T, ok bool) Run {
	r := mustReduce(t, withFiles(t), RequestPreview{})
	return mustReduce(t, r, PreviewSucceeded{Gen: r.Gen, Result: &model.PreviewResult{ValidationOK: ok, TotalOrders: 5}})
}

func done(t *testing.T) Run {
	r := mustReduce(t, previewed(t, true), RequestCommit{})
	return mustReduce(t, r, CommitSucceeded{Gen: r.Gen, Result: &model.UploadResult{}})
}

func TestReduceSelectFileInvalidatesEveryNonBusyState(t *testing.T) {
	failedPreview := func(t *testing.T) Run {
		r := mustReduce(t, withFiles(t), RequestPreview{})
		return mustReduce(t, r, PreviewFailed{Gen: r.Gen, Message: "boom"})
	}
	forced := func(t *testing.T) Run {
		return mustReduce(t, previewed(t, false), ToggleForceRun{On: true})
	}
	starts := map[string]func(t *testing.T) Run{
		"idle":            withFiles,
		"idle with err":   failedPreview,
		"previewed":       func(t *testing.T) Run { return previewed(t, true) },
		"previewed+force": forced,
		"done":            done,
	}
	for name, start := range starts {
		t.Run(name, func(t *testing.T) {
			r := start(t)
			gen := r.Gen
			for _, slot := range []Slot{SlotHeader, SlotItems} {
				next := mustReduce(t, r, SelectFile{Slot: slot, File: fileRef("new.csv")})
				require.Equal(t, StepIdle, next.Step())
				require.Nil(t, next.Preview())
				require.Nil(t, next.Result())
				require.Empty(t, next.Err)
				require.False(t, next.ForceRun())
				require.Greater(t, next.Gen, gen)
			}
		})
	}
}

func TestReduceSelectFileRejectedWhileBusy(t *testing.T) {
	previewing := mustReduce(t, withFiles(t), RequestPreview{})
	importing := mustReduce(t, previewed(t, true), RequestCommit{})
	for _, r := range []Run{previewing, importing} {
		next, err := Reduce(r, SelectFile{Slot: SlotHeader, File: fileRef("x.csv")})
		require.ErrorIs(t, err, ErrBusy)
		require.Equal(t, r, next)
	}
}

func TestReduceSelectFileInvalidSlot(t *testing.T) {
	_, err := Reduce(NewRun(""), SelectFile{Slot: "other", File: fileRef("x.csv")})
	require.ErrorIs(t, err, ErrInvalidSlot)
}

func TestReducePreviewRequiresBothFiles(t *testing.T) {
	r := NewRun("")
	_, err := Reduce(r, RequestPreview{})
	require.ErrorIs(t, err, ErrFilesMissing)

	r = mustReduce(t, r, SelectFile{Slot: SlotHeader, File: fileRef("header.csv")})
	require.False(t, r.CanPreview())
	_, err = Reduce(r, RequestPreview{})
	require.ErrorIs(t, err, ErrFilesMissing)
}

func TestReducePreviewLifecycle(t *testing.T) {
	r := mustReduce(t, withFiles(t), RequestPreview{})
	require.Equal(t, StepPreviewing, r.Step())
	require.True(t, r.Busy())

	_, err := Reduce(r, RequestPreview{})
	require.ErrorIs(t, err, ErrBusy)

	failed := mustReduce(t, r, PreviewFailed{Gen: r.Gen, Message: "API 502"})
	require.Equal(t, StepIdle, failed.Step())
	require.Equal(t, "API 502", failed.Err)

	emptyMsg := mustReduce(t, r, PreviewFailed{Gen: r.Gen})
	require.Equal(t, PreviewFailedMessage, emptyMsg.Err)

	ok := mustReduce(t, r, PreviewSucceeded{Gen: r.Gen, Result: &model.PreviewResult{ValidationOK: true}})
	require.Equal(t, StepPreviewed, ok.Step())
	require.NotNil(t, ok.Preview())
	require.True(t, ok.CanCommit())
}

func TestReduceStaleResponsesDiscarded(t *testing.T) {
	r := mustReduce(t, withFiles(t), RequestPreview{})
	stale := r.Gen
	r = mustReduce(t, r, Reset{Identity: "ops@example.com"})

	next, err := Reduce(r, PreviewSucceeded{Gen: stale, Result: &model.PreviewResult{ValidationOK: true}})
	require.ErrorIs(t, err, ErrSuperseded)
	require.Equal(t, StepIdle, next.Step())
	require.Nil(t, next.Preview())

	r = mustReduce(t, previewed(t, true), RequestCommit{})
	_, err = Reduce(r, CommitSucceeded{Gen: r.Gen - 1})
	require.ErrorIs(t, err, ErrSuperseded)
}

func TestReduceCommitGate(t *testing.T) {
	tests := []struct {
		name    string
		ok      bool
		force   bool
		wantErr error
	}{
		{name: "valid", ok: true, force: false},
		{name: "valid forced", ok: true, force: true},
		{name: "invalid forced", ok: false, force: true},
		{name: "invalid not forced", ok: false, force: false, wantErr: ErrValidationBlocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustReduce(t, previewed(t, tt.ok), ToggleForceRun{On: tt.force})
			next, err := Reduce(r, RequestCommit{})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Equal(t, StepPreviewed, next.Step())
				require.Equal(t, GuardMessage, next.Err)
				require.Equal(t, r.Gen, next.Gen)
				return
			}
			require.NoError(t, err)
			require.Equal(t, StepImporting, next.Step())
			require.Empty(t, next.Err)
		})
	}
}

func TestReduceCommitRequiresPreview(t *testing.T) {
	_, err := Reduce(withFiles(t), RequestCommit{})
	require.ErrorIs(t, err, ErrNoPreview)

	_, err = Reduce(mustReduce(t, withFiles(t), RequestPreview{}), RequestCommit{})
	require.ErrorIs(t, err, ErrBusy)

	_, err = Reduce(done(t), RequestCommit{})
	require.ErrorIs(t, err, ErrAlreadyCommitted)
	require.NotErrorIs(t, err, ErrNoPreview)

	_, err = Reduce(done(t), ToggleForceRun{On: true})
	require.ErrorIs(t, err, ErrAlreadyCommitted)
}

func TestReduceCommitFailureKeepsPreview(t *testing.T) {
	r := mustReduce(t, previewed(t, false), ToggleForceRun{On: true})
	r = mustReduce(t, r, RequestCommit{})
	failed := mustReduce(t, r, CommitFailed{Gen: r.Gen, Message: "Import failed: 500"})
	require.Equal(t, StepPreviewed, failed.Step())
	require.NotNil(t, failed.Preview())
	require.True(t, failed.ForceRun())
	require.Equal(t, "Import failed: 500", failed.Err)

	retried := mustReduce(t, failed, RequestCommit{})
	require.Equal(t, StepImporting, retried.Step())
	require.Empty(t, retried.Err)
}

func TestReduceForceRunToggle(t *testing.T) {
	_, err := Reduce(withFiles(t), ToggleForceRun{On: true})
	require.ErrorIs(t, err, ErrNoPreview)

	_, err = Reduce(mustReduce(t, withFiles(t), RequestPreview{}), ToggleForceRun{On: true})
	require.ErrorIs(t, err, ErrBusy)

	r := mustReduce(t, previewed(t, false), ToggleForceRun{On: true})
	require.True(t, r.ForceRun())
	r = mustReduce(t, r, ToggleForceRun{On: false})
	require.False(t, r.ForceRun())
}

func TestReduceRepreviewKeepsForceRun(t *testing.T) {
	r := mustReduce(t, previewed(t, false), ToggleForceRun{On: true})
	r = mustReduce(t, r, RequestPreview{})
	require.True(t, r.ForceRun())
	r = mustReduce(t, r, PreviewSucceeded{Gen: r.Gen, Result: &model.PreviewResult{ValidationOK: false}})
	require.Equal(t, StepPreviewed, r.Step())
	require.True(t, r.ForceRun())
	require.True(t, r.CanCommit())

	// replacing a file still clears the override
	r = mustReduce(t, r, SelectFile{Slot: SlotItems, File: fileRef("items2.csv")})
	require.False(t, r.ForceRun())
	r = mustReduce(t, r, RequestPreview{})
	r = mustReduce(t, r, PreviewSucceeded{Gen: r.Gen, Result: &model.PreviewResult{ValidationOK: false}})
	require.False(t, r.ForceRun())
	require.False(t, r.CanCommit())
}

func TestReduceAttribution(t *testing.T) {
	r := NewRun("")
	r = mustReduce(t, r, Identify{Identity: "sso@example.com"})
	require.Equal(t, "sso@example.com", r.ImportedBy)

	r = mustReduce(t, r, Identify{Identity: "other@example.com"})
	require.Equal(t, "sso@example.com", r.ImportedBy)

	r = mustReduce(t, NewRun(""), EditImportedBy{Value: ""})
	r = mustReduce(t, r, Identify{Identity: "sso@example.com"})
	require.Empty(t, r.ImportedBy)

	r = mustReduce(t, r, EditImportedBy{Value: "warehouse-team"})
	r = mustReduce(t, r, Reset{Identity: "sso@example.com"})
	require.Equal(t, "sso@example.com", r.ImportedBy)
	r = mustReduce(t, r, Identify{Identity: "later@example.com"})
	require.Equal(t, "sso@example.com", r.ImportedBy)
}

func TestReduceResetClearsEverything(t *testing.T) {
	r := done(t)
	next := mustReduce(t, r, Reset{Identity: "ops@example.com"})
	require.Equal(t, StepIdle, next.Step())
	require.Nil(t, next.Header)
	require.Nil(t, next.Items)
	require.Nil(t, next.Preview())
	require.Nil(t, next.Result())
	require.False(t, next.ForceRun())
	require.Empty(t, next.Err)
	require.Equal(t, "ops@example.com", next.ImportedBy)
	require.Greater(t, next.Gen, r.Gen)
}
