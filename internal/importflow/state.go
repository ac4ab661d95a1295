package importflow

import "github.com/xxxsen/importdash/internal/model"

type Step string

const (
	StepIdle       Step = "idle"
	StepPreviewing Step = "previewing"
	StepPreviewed  Step = "previewed"
	StepImporting  Step = "importing"
	StepDone       Step = "done"
)

// State is one of Idle, Previewing, Previewed, Importing or Done. Each
// variant carries only the data that is valid in that state.
type State interface {
	Step() Step
}

type Idle struct{}

// Previewing keeps the override of the preview it replaces so that
// re-validating the same files does not drop it.
type Previewing struct {
	ForceRun bool
}

type Previewed struct {
	Preview  *model.PreviewResult
	ForceRun bool
}

type Importing struct {
	Preview  *model.PreviewResult
	ForceRun bool
}

type Done struct {
	Preview  *model.PreviewResult
	ForceRun bool
	Result   *model.UploadResult
}

func (Idle) Step() Step       { return StepIdle }
func (Previewing) Step() Step { return StepPreviewing }
func (Previewed) Step() Step  { return StepPreviewed }
func (Importing) Step() Step  { return StepImporting }
func (Done) Step() Step       { return StepDone }

type Slot string

const (
	SlotHeader Slot = "header"
	SlotItems  Slot = "items"
)

func ParseSlot(v string) (Slot, bool) {
	switch Slot(v) {
	case SlotHeader, SlotItems:
		return Slot(v), true
	}
	return "", false
}

// Run is the value owned by one workflow instance.
type Run struct {
	Header     *model.FileRef
	Items      *model.FileRef
	ImportedBy string
	State      State
	Err        string
	// Gen changes on every invalidation and every outbound request so that
	// responses for superseded requests can be recognised.
	Gen uint64

	importedByEdited bool
}

func NewRun(identity string) Run {
	return Run{ImportedBy: identity, State: Idle{}}
}

func (r Run) Step() Step {
	if r.State == nil {
		return StepIdle
	}
	return r.State.Step()
}

func (r Run) Busy() bool {
	step := r.Step()
	return step == StepPreviewing || step == StepImporting
}

func (r Run) CanPreview() bool {
	return !r.Busy() && r.Header != nil && r.Items != nil
}

// CanCommit reports whether a commit would pass the validation gate.
func (r Run) CanCommit() bool {
	s, ok := r.State.(Previewed)
	if !ok || s.Preview == nil {
		return false
	}
	return s.Preview.ValidationOK || s.ForceRun
}

func (r Run) Preview() *model.PreviewResult {
	switch s := r.State.(type) {
	case Previewed:
		return s.Preview
	case Importing:
		return s.Preview
	case Done:
		return s.Preview
	}
	return nil
}

func (r Run) Result() *model.UploadResult {
	if s, ok := r.State.(Done); ok {
		return s.Result
	}
	return nil
}

func (r Run) ForceRun() bool {
	switch s := r.State.(type) {
	case Previewing:
		return s.ForceRun
	case Previewed:
		return s.ForceRun
	case Importing:
		return s.ForceRun
	case Done:
		return s.ForceRun
	}
	return false
}
