package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrUnauthorized
	ErrForbidden
	ErrNotFound
	ErrInvalid
	ErrConflict
	ErrTooMany
	ErrInternal
	ErrInvalidFile
	ErrFileTooLarge
	ErrRunBusy
	ErrFilesMissing
	ErrNoPreview
	ErrValidationBlocked
	ErrPreviewFailed
	ErrImportFailed
	ErrUpstream
	ErrSuperseded
	ErrRunCommitted
)
