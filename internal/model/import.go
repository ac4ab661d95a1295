package model

const (
	ImportStatusRunning = "RUNNING"
	ImportStatusDone    = "DONE"
	ImportStatusFailed  = "FAILED"
)

// Progress is maintained by the backend job pipeline. Counters only grow, but
// nothing guarantees shipped <= invoiced <= synced. Total is nil when the
// pipeline has not reported one yet.
type Progress struct {
	Total    *int `json:"total"`
	Synced   int  `json:"synced"`
	Invoiced int  `json:"invoiced"`
	Shipped  int  `json:"shipped"`
	Failed   int  `json:"failed"`
}

type ImportRecord struct {
	ID              int64     `json:"id"`
	HeaderFilename  string    `json:"header_filename"`
	ItemsFilename   string    `json:"items_filename"`
	ImportedBy      string    `json:"imported_by"`
	TotalOrders     int       `json:"total_orders"`
	ProcessedOrders int       `json:"processed_orders"`
	FailedOrders    int       `json:"failed_orders"`
	SkippedOrders   int       `json:"skipped_orders"`
	Status          string    `json:"status"`
	Error           *string   `json:"error"`
	JobID           *int64    `json:"job_id"`
	CreatedAt       string    `json:"created_at"`
	UpdatedAt       string    `json:"updated_at"`
	Progress        *Progress `json:"progress,omitempty"`
}

type ImportedOrder struct {
	ID                 int64   `json:"id"`
	OrderNumber        string  `json:"order_number"`
	FileOrderID        string  `json:"file_order_id,omitempty"`
	Status             string  `json:"status"`
	ImportJobID        *int64  `json:"import_job_id"`
	CreatedAt          string  `json:"created_at"`
	MagentoOrderID     *int64  `json:"magento_order_id,omitempty"`
	MagentoIncrementID *string `json:"magento_increment_id,omitempty"`
	MagentoStatus      *string `json:"magento_status,omitempty"`
	OrderStatus        *string `json:"order_status,omitempty"`
}

type ImportDetail struct {
	Import ImportRecord    `json:"import"`
	Orders []ImportedOrder `json:"orders"`
}

type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

type ImportPage struct {
	Data       []ImportRecord `json:"data"`
	Pagination Pagination     `json:"pagination"`
}
