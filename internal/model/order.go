package model

import "encoding/json"

type Order struct {
	ID                 int64   `json:"id"`
	FileOrderID        string  `json:"file_order_id"`
	ExternalOrderID    *string `json:"external_order_id"`
	OrderChannel       string  `json:"order_channel"`
	StoreCode          string  `json:"store_code"`
	Status             string  `json:"status"`
	MagentoOrderID     *int64  `json:"magento_order_id"`
	MagentoIncrementID *string `json:"magento_increment_id"`
	CreatedDate        string  `json:"created_date"`
	Email              *string `json:"email"`
	Firstname          *string `json:"firstname"`
	Lastname           *string `json:"lastname"`
	Street             *string `json:"street"`
	City               *string `json:"city"`
	Postcode           *string `json:"postcode"`
	CountryID          *string `json:"country_id"`
	Telephone          *string `json:"telephone"`
	ImportedBy         *string `json:"imported_by"`
	InvoicedAt         *string `json:"invoiced_at"`
	ShippedAt          *string `json:"shipped_at"`
	ImportJobID        *int64  `json:"import_job_id"`
}

type OrderDetail struct {
	Order Order             `json:"order"`
	Items []json.RawMessage `json:"items"`
}
