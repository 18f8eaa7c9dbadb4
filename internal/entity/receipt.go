package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is one journal entry in receipt printing order. Monetary fields are
// exact decimals; float arithmetic is never applied to them.
type LineItem struct {
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	TaxLabel  string          `json:"tax_label"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	Total     decimal.Decimal `json:"total"`
}

// NormalizedReceipt is the assembled extraction result: canonical section key
// to canonical field name to value, plus the ordered line items.
type NormalizedReceipt struct {
	SourceURL   string                       `json:"source_url"`
	RetrievedAt time.Time                    `json:"retrieved_at"`
	FromCache   bool                         `json:"from_cache"`
	Sections    map[string]map[string]string `json:"sections"`
	Items       []LineItem                   `json:"items"`
}

// Section returns the named section map, or an empty map when absent.
func (r *NormalizedReceipt) Section(name string) map[string]string {
	if s, ok := r.Sections[name]; ok {
		return s
	}
	return map[string]string{}
}

// Receipt is a stored receipt row for data transfer between layers.
type Receipt struct {
	ID              uuid.UUID        `json:"id"`
	APIKey          uuid.UUID        `json:"-"`
	TaxID           string           `json:"tax_id"`
	StoreName       string           `json:"store_name"`
	BuyerID         string           `json:"buyer_id"`
	TransactionType string           `json:"transaction_type"`
	ReceiptType     string           `json:"receipt_type"`
	TotalAmount     *decimal.Decimal `json:"total_amount,omitempty"`
	ReceiptCounter  string           `json:"receipt_counter"`
	ProcessedAt     time.Time        `json:"processed_at"`
	CreatedAt       time.Time        `json:"created_at"`
	Source          []byte           `json:"-"`
	Items           []Item           `json:"items,omitempty"`
}

// Item is a stored line item row.
type Item struct {
	ID        uuid.UUID       `json:"id"`
	ReceiptID uuid.UUID       `json:"receipt_id"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	TaxLabel  string          `json:"tax_label"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
}
