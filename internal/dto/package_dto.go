package dto

type PackageFilter struct {
	Status    string
	ProductID string
	Date      string
	Tab       string
	Page      int
	Limit     int
}

type UpdateWasteRequest struct {
	WasteQuantity int `json:"waste_quantity" validate:"min=0"`
}

type PackageResponse struct {
	ID           string  `json:"id"`
	PackageID    string  `json:"package_id"`
	UnitBatchID  string  `json:"unit_batch_id"`
	UnitID       string  `json:"unit_id,omitempty"`
	BatchCode    string  `json:"batch_code,omitempty"`
	ProductName  string  `json:"product_name,omitempty"`
	PackageDate  string  `json:"package_date"`
	Status       string  `json:"status"`
	MachineID    string  `json:"machine_id,omitempty"`
	MachineName  string  `json:"machine_name,omitempty"`
	MachineCheck bool    `json:"machine_check"`
	WasteQuantity int    `json:"waste_quantity"`
	ExpiryDate   *string `json:"expiry_date,omitempty"`
}

type PackageListResponse struct {
	Data  []PackageResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
