package model

// FileRef points at a staged CSV payload in the file store. The bytes are
// passed through to the import service untouched.
type FileRef struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}
