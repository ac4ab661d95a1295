package model

// RunActivity records a run committed through the dashboard.
type RunActivity struct {
	ID              string `json:"id"`
	RunID           string `json:"run_id"`
	UserID          string `json:"user_id"`
	ImportedBy      string `json:"imported_by"`
	ImportID        *int64 `json:"import_id"`
	JobID           *int64 `json:"job_id"`
	HeaderFilename  string `json:"header_filename"`
	ItemsFilename   string `json:"items_filename"`
	TotalOrders     int    `json:"total_orders"`
	ProcessedOrders int    `json:"processed_orders"`
	SkippedOrders   int    `json:"skipped_orders"`
	FailedOrders    int    `json:"failed_orders"`
	Forced          bool   `json:"forced"`
	PipelineStatus  string `json:"pipeline_status"`
	Ctime           int64  `json:"ctime"`
	Mtime           int64  `json:"mtime"`
}
