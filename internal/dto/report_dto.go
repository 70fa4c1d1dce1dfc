package dto

type ReportFilter struct {
	StartDate string // 2006-01-02, inclusive; empty means open
	EndDate   string
}

// ReportRow is one unit batch projected across all three phases.
type ReportRow struct {
	UnitID        string  `json:"unit_id"`
	BatchCode     string  `json:"batch_code,omitempty"`
	ProductName   string  `json:"product_name"`
	BatchStatus   string  `json:"batch_status"`
	Quantity      int     `json:"quantity"`
	PrepareStatus string  `json:"prepare_status,omitempty"`
	PrepareDate   string  `json:"prepare_date,omitempty"`
	ProduceStatus string  `json:"produce_status,omitempty"`
	ProduceMachine string `json:"produce_machine,omitempty"`
	PackageStatus string  `json:"package_status,omitempty"`
	PackageMachine string `json:"package_machine,omitempty"`
	WasteQuantity int     `json:"waste_quantity"`
	WastePct      string  `json:"waste_pct,omitempty"` // waste as % of quantity
	ExpiryDate    string  `json:"expiry_date,omitempty"`
}

// ReportGroup is all rows sharing one prepare date, newest date first.
type ReportGroup struct {
	Date string      `json:"date"`
	Rows []ReportRow `json:"rows"`
}

type ReportResponse struct {
	StartDate string        `json:"start_date,omitempty"`
	EndDate   string        `json:"end_date,omitempty"`
	Groups    []ReportGroup `json:"groups"`
	// Totals across the selected window.
	TotalBatches  int    `json:"total_batches"`
	TotalQuantity int    `json:"total_quantity"`
	TotalWaste    int    `json:"total_waste"`
	YieldPct      string `json:"yield_pct,omitempty"`
}
