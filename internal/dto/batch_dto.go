package dto

// Tab values for list filters: "today" matches the current date window,
// "history" everything before it.
const (
	TabToday   = "today"
	TabHistory = "history"
)

type CreateUnitBatchRequest struct {
	ProductID   string `json:"product_id" validate:"required,uuid"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
	PackageType string `json:"package_type" validate:"required,oneof=box pouch jar"`
	Shift       string `json:"shift" validate:"required,oneof=morning afternoon night"`
}

type BatchFilter struct {
	Status    string
	ProductID string
	Tab       string
	Page      int
	Limit     int
}

type UnitBatchResponse struct {
	ID          string  `json:"id"`
	UnitID      string  `json:"unit_id"`
	BatchCode   string  `json:"batch_code,omitempty"`
	Status      string  `json:"status"`
	ProductName string  `json:"product_name,omitempty"`
	Quantity    int     `json:"quantity"`
	PackageType string  `json:"package_type,omitempty"`
	Shift       string  `json:"shift,omitempty"`
	ExpiryDate  *string `json:"expiry_date,omitempty"`
	HasPrepare  bool    `json:"has_prepare"`
	HasProduce  bool    `json:"has_produce"`
	HasPackage  bool    `json:"has_package"`
	CreatedAt   string  `json:"created_at"`
}

type UnitBatchListResponse struct {
	Data  []UnitBatchResponse `json:"data"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}
