package model

import (
	"bytes"
	"encoding/json"
)

const (
	JobStatusPending = "PENDING"
	JobStatusRunning = "RUNNING"
	JobStatusRetry   = "RETRY"
	JobStatusFailed  = "FAILED"
	JobStatusDone    = "DONE"
)

type Job struct {
	ID          int64           `json:"id"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	NextRunAt   *string         `json:"next_run_at"`
	LastError   *string         `json:"last_error"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

type JobPage struct {
	Data       []Job      `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type jobPayload struct {
	OrderID *int64 `json:"order_id"`
}

// OrderID extracts payload.order_id. The payload may be a JSON object or a
// JSON string holding an encoded object.
func (j *Job) OrderID() *int64 {
	raw := bytes.TrimSpace(j.Payload)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil
		}
		raw = []byte(encoded)
	}
	var payload jobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}
	return payload.OrderID
}
