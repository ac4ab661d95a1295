package importflow

import "github.com/xxxsen/importdash/internal/model"

type Event interface {
	event()
}

type SelectFile struct {
	Slot Slot
	File model.FileRef
}

type EditImportedBy struct {
	Value string
}

// Identify offers the session identity as default attribution.
type Identify struct {
	Identity string
}

type RequestPreview struct{}

type PreviewSucceeded struct {
	Gen    uint64
	Result *model.PreviewResult
}

type PreviewFailed struct {
	Gen     uint64
	Message string
}

type ToggleForceRun struct {
	On bool
}

type RequestCommit struct{}

type CommitSucceeded struct {
	Gen    uint64
	Result *model.UploadResult
}

type CommitFailed struct {
	Gen     uint64
	Message string
}

type Reset struct {
	Identity string
}

func (SelectFile) event()       {}
func (EditImportedBy) event()   {}
func (Identify) event()         {}
func (RequestPreview) event()   {}
func (PreviewSucceeded) event() {}
func (PreviewFailed) event()    {}
func (ToggleForceRun) event()   {}
func (RequestCommit) event()    {}
func (CommitSucceeded) event()  {}
func (CommitFailed) event()     {}
func (Reset) event()            {}

// Reduce applies ev to r. It is pure: a rejected event returns the run
// unchanged (apart from a surfaced guard message) together with the reason.
func Reduce(r Run, ev Event) (Run, error) {
	if r.State == nil {
		r.State = Idle{}
	}
	switch e := ev.(type) {
	case SelectFile:
		if r.Busy() {
			return r, ErrBusy
		}
		file := e.File
		switch e.Slot {
		case SlotHeader:
			r.Header = &file
		case SlotItems:
			r.Items = &file
		default:
			return r, ErrInvalidSlot
		}
		// new input makes every earlier validation decision stale
		r.State = Idle{}
		r.Err = ""
		r.Gen++
		return r, nil

	case EditImportedBy:
		if r.Busy() {
			return r, ErrBusy
		}
		r.ImportedBy = e.Value
		r.importedByEdited = true
		return r, nil

	case Identify:
		if !r.importedByEdited && r.ImportedBy == "" {
			r.ImportedBy = e.Identity
		}
		return r, nil

	case RequestPreview:
		if r.Busy() {
			return r, ErrBusy
		}
		if r.Header == nil || r.Items == nil {
			return r, ErrFilesMissing
		}
		r.Err = ""
		r.Gen++
		r.State = Previewing{ForceRun: r.ForceRun()}
		return r, nil

	case PreviewSucceeded:
		s, ok := r.State.(Previewing)
		if !ok || e.Gen != r.Gen {
			return r, ErrSuperseded
		}
		r.State = Previewed{Preview: e.Result, ForceRun: s.ForceRun}
		return r, nil

	case PreviewFailed:
		if _, ok := r.State.(Previewing); !ok || e.Gen != r.Gen {
			return r, ErrSuperseded
		}
		r.Err = messageOr(e.Message, PreviewFailedMessage)
		r.State = Idle{}
		return r, nil

	case ToggleForceRun:
		switch s := r.State.(type) {
		case Previewed:
			s.ForceRun = e.On
			r.State = s
			return r, nil
		case Previewing, Importing:
			return r, ErrBusy
		case Done:
			return r, ErrAlreadyCommitted
		}
		return r, ErrNoPreview

	case RequestCommit:
		switch s := r.State.(type) {
		case Previewing, Importing:
			return r, ErrBusy
		case Previewed:
			if r.Header == nil || r.Items == nil {
				return r, ErrFilesMissing
			}
			if s.Preview == nil {
				return r, ErrNoPreview
			}
			if !s.Preview.ValidationOK && !s.ForceRun {
				r.Err = GuardMessage
				return r, ErrValidationBlocked
			}
			r.Err = ""
			r.Gen++
			r.State = Importing{Preview: s.Preview, ForceRun: s.ForceRun}
			return r, nil
		case Done:
			// a second commit would create a duplicate import
			return r, ErrAlreadyCommitted
		}
		return r, ErrNoPreview

	case CommitSucceeded:
		s, ok := r.State.(Importing)
		if !ok || e.Gen != r.Gen {
			return r, ErrSuperseded
		}
		r.State = Done{Preview: s.Preview, ForceRun: s.ForceRun, Result: e.Result}
		return r, nil

	case CommitFailed:
		s, ok := r.State.(Importing)
		if !ok || e.Gen != r.Gen {
			return r, ErrSuperseded
		}
		// preview is kept so the commit can be retried without re-uploading
		r.Err = messageOr(e.Message, ImportFailedMessage)
		r.State = Previewed{Preview: s.Preview, ForceRun: s.ForceRun}
		return r, nil

	case Reset:
		next := NewRun(e.Identity)
		next.Gen = r.Gen + 1
		return next, nil
	}
	return r, nil
}

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
