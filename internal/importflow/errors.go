package importflow

import "errors"

const (
	GuardMessage         = `Preview found issues. Enable "Run anyway" if you really want to force the import.`
	PreviewFailedMessage = "Preview failed"
	ImportFailedMessage  = "Import failed"
	DefaultImportedBy    = "Dashboard"
)

var (
	ErrBusy              = errors.New("import run is busy")
	ErrFilesMissing      = errors.New("header and items files are required")
	ErrNoPreview         = errors.New("no preview available")
	ErrValidationBlocked = errors.New("preview found issues")
	ErrSuperseded        = errors.New("response belongs to a superseded request")
	ErrInvalidSlot       = errors.New("invalid file slot")
	ErrAlreadyCommitted  = errors.New("import run already committed")
)

type messager interface {
	Message() string
}

// ErrorMessage turns an error into a display string: a structured message
// when the error carries one, then the plain error text, then fallback.
func ErrorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var m messager
	if errors.As(err, &m) {
		if msg := m.Message(); msg != "" {
			return msg
		}
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
