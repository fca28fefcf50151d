package model

import "time"

// Item represents a single tracked device moving through the refurbishment
// pipeline. Every item belongs to exactly one company.
type Item struct {
	ID            string     `json:"id"`
	Model         string     `json:"model"`
	Serial        string     `json:"serial,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	Status        string     `json:"status"`
	Location      string     `json:"location,omitempty"`
	BuyerName     string     `json:"buyer_name,omitempty"`
	BuyerOrder    string     `json:"buyer_order,omitempty"`
	BuyerAddress  string     `json:"buyer_address,omitempty"`
	ShipBy        *time.Time `json:"ship_by,omitempty"`
	PhotoFilename string     `json:"photo_filename,omitempty"`
	SpecsURL      string     `json:"specs_url,omitempty"`
	CompanyID     string     `json:"company_id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Item statuses.
const (
	StatusReceived     = "Received"
	StatusNeedsRepair  = "Needs Repair"
	StatusInRepair     = "In Repair"
	StatusReadyForSale = "Ready for Sale"
	StatusSold         = "Sold"
	StatusShipped      = "Shipped"
)

// Statuses lists all item statuses in pipeline order.
var Statuses = []string{
	StatusReceived,
	StatusNeedsRepair,
	StatusInRepair,
	StatusReadyForSale,
	StatusSold,
	StatusShipped,
}

// ValidStatus reports whether status is one of the known item statuses.
func ValidStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}
