package service

import "github.com/google/uuid"

func newID() string {
	return uuid.NewString()
}

// newFileKey names a staged upload. Keys never contain path separators.
func newFileKey(slot string) string {
	return slot + "-" + uuid.NewString() + ".csv"
}
