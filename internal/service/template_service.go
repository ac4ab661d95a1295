package service

import (
	"fmt"

	"github.com/jszwec/csvutil"

	appErr "github.com/xxxsen/importdash/internal/pkg/errors"
)

const (
	TemplateHeader = "header"
	TemplateItems  = "items"
)

// HeaderRow is one order of the header file.
type HeaderRow struct {
	FileOrderID  string `csv:"file_order_id"`
	OrderChannel string `csv:"order_channel"`
	StoreCode    string `csv:"store_code"`
	CreatedDate  string `csv:"created_date"`
	Email        string `csv:"email"`
	Firstname    string `csv:"firstname"`
	Lastname     string `csv:"lastname"`
	Street       string `csv:"street"`
	City         string `csv:"city"`
	Postcode     string `csv:"postcode"`
	CountryID    string `csv:"country_id"`
	Telephone    string `csv:"telephone"`
}

// ItemRow is one order line of the items file, joined to the header by
// file_order_id.
type ItemRow struct {
	FileOrderID string `csv:"file_order_id"`
	SKU         string `csv:"sku"`
	Qty         int    `csv:"qty"`
}

type CSVTemplate struct {
	Filename string
	Columns  []string
	Content  []byte
}

type TemplateService struct{}

func NewTemplateService() *TemplateService {
	return &TemplateService{}
}

// Template renders a downloadable example file for kind.
func (s *TemplateService) Template(kind string) (*CSVTemplate, error) {
	var rows interface{}
	switch kind {
	case TemplateHeader:
		rows = []HeaderRow{{
			FileOrderID:  "ORDER-1001",
			OrderChannel: "web",
			StoreCode:    "default",
			CreatedDate:  "2024-01-31 09:30:00",
			Email:        "jane.doe@example.com",
			Firstname:    "Jane",
			Lastname:     "Doe",
			Street:       "1 Main Street",
			City:         "Springfield",
			Postcode:     "12345",
			CountryID:    "US",
			Telephone:    "+1 555 0100",
		}}
	case TemplateItems:
		rows = []ItemRow{
			{FileOrderID: "ORDER-1001", SKU: "SKU-RED-M", Qty: 2},
			{FileOrderID: "ORDER-1001", SKU: "SKU-BLUE-L", Qty: 1},
		}
	default:
		return nil, fmt.Errorf("%w: unknown template %q", appErr.ErrInvalid, kind)
	}
	content, err := csvutil.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("render %s template: %w", kind, err)
	}
	columns, err := s.Columns(kind)
	if err != nil {
		return nil, err
	}
	return &CSVTemplate{
		Filename: kind + "_template.csv",
		Columns:  columns,
		Content:  content,
	}, nil
}

func (s *TemplateService) Columns(kind string) ([]string, error) {
	switch kind {
	case TemplateHeader:
		return csvutil.Header(HeaderRow{}, "csv")
	case TemplateItems:
		return csvutil.Header(ItemRow{}, "csv")
	}
	return nil, fmt.Errorf("%w: unknown template %q", appErr.ErrInvalid, kind)
}
