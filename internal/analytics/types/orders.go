package types

import "encoding/json"

// Order is one sale row as produced by the mock source. Upstream rows are
// never decoded into it; they are forwarded as raw JSON objects.
type Order struct {
	ID              json.RawMessage `json:"id,omitempty"`
	Date            string          `json:"date"`
	TotalPrice      json.Number     `json:"total_price,omitempty"`
	PriceWithDisc   json.Number     `json:"price_with_disc,omitempty"`
	DiscountPercent json.Number     `json:"discount_percent,omitempty"`
	IsCancel        bool            `json:"is_cancel"`
	Quantity        json.Number     `json:"quantity,omitempty"`
	NmID            json.Number     `json:"nm_id,omitempty"`
	WarehouseName   string          `json:"warehouse_name,omitempty"`
	Subject         string          `json:"subject,omitempty"`
	Brand           string          `json:"brand,omitempty"`
	Category        string          `json:"category,omitempty"`
}

type PaginationInfo struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	Total       int `json:"total"`
	PerPage     int `json:"per_page"`
}

// ProxyResponse is the stable client-facing contract. Each element of Data is
// an upstream row re-emitted byte for byte.
type ProxyResponse struct {
	Data       []json.RawMessage `json:"data"`
	Pagination PaginationInfo    `json:"pagination"`
}
