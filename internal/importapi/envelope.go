package importapi

import (
	"bytes"
	"encoding/json"

	"github.com/xxxsen/importdash/internal/model"
)

// listEnvelope is the loosely typed shape of list endpoints. A missing or
// non-array data field reads as an empty list and every pagination field
// falls back on its own.
type listEnvelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination *struct {
		Limit  *int `json:"limit"`
		Offset *int `json:"offset"`
		Count  *int `json:"count"`
	} `json:"pagination"`
}

func (e listEnvelope) decodeData(out interface{}) error {
	raw := bytes.TrimSpace(e.Data)
	if len(raw) == 0 || raw[0] != '[' {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (e listEnvelope) pagination(limit, offset, count int) model.Pagination {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	p := model.Pagination{Limit: limit, Offset: offset, Count: count}
	if e.Pagination == nil {
		return p
	}
	if e.Pagination.Limit != nil {
		p.Limit = *e.Pagination.Limit
	}
	if e.Pagination.Offset != nil {
		p.Offset = *e.Pagination.Offset
	}
	if e.Pagination.Count != nil {
		p.Count = *e.Pagination.Count
	}
	return p
}
