package model

import "encoding/json"

// Issue is a business-rule finding reported by the import service during
// preview. Type is a categorical code such as SKU_NOT_FOUND or INVALID_QTY.
type Issue struct {
	Type     string `json:"type"`
	SKU      string `json:"sku,omitempty"`
	RowIndex *int   `json:"rowIndex"`
	Message  string `json:"message"`
}

// PreviewResult is returned by the read-only validation pass. ValidationOK is
// authoritative and is never recomputed from Issues.
type PreviewResult struct {
	HeaderFilename string  `json:"headerFilename"`
	ItemsFilename  string  `json:"itemsFilename"`
	TotalOrders    int     `json:"totalOrders"`
	TotalItemRows  int     `json:"totalItemRows"`
	ValidationOK   bool    `json:"validationOk"`
	Issues         []Issue `json:"issues"`
}

// IssueCounts groups issues by type for display.
func (p *PreviewResult) IssueCounts() map[string]int {
	counts := make(map[string]int)
	if p == nil {
		return counts
	}
	for _, issue := range p.Issues {
		counts[issue.Type]++
	}
	return counts
}

type UploadSummary struct {
	TotalOrders     int `json:"totalOrders"`
	ProcessedOrders int `json:"processedOrders"`
	SkippedOrders   int `json:"skippedOrders"`
	FailedOrders    int `json:"failedOrders"`
}

type UploadResult struct {
	ImportID *int64            `json:"importId"`
	JobID    *int64            `json:"jobId"`
	Summary  UploadSummary     `json:"summary"`
	Failures []json.RawMessage `json:"failures"`
}
