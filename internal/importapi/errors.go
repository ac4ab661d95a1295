package importapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is returned for every non-2xx answer of the import service.
type APIError struct {
	Op         string
	Status     int
	StatusText string
	Body       string
}

func (e *APIError) Error() string {
	return e.Message()
}

// Message is the operator-facing text, e.g.
// "Import preview failed: 500 Internal Server Error upstream timeout".
func (e *APIError) Message() string {
	text := e.StatusText
	if text == "" {
		text = http.StatusText(e.Status)
	}
	return strings.TrimSpace(fmt.Sprintf("%s: %d %s %s", e.Op, e.Status, text, e.Body))
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func IsClientError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500
}
