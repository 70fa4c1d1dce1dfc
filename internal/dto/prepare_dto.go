package dto

type CreatePrepareRequest struct {
	ProductID   string `json:"product_id" validate:"required,uuid"`
	PrepareDate string `json:"prepare_date" validate:"required,datetime=2006-01-02"`
	Notes       string `json:"notes"`
}

type PrepareFilter struct {
	Status    string
	ProductID string
	Date      string // exact prepare date, 2006-01-02
	Tab       string
	Page      int
	Limit     int
}

type PrepareIngredientResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Checked bool   `json:"checked"`
}

type PrepareResponse struct {
	ID          string `json:"id"`
	PrepareID   string `json:"prepare_id"`
	UnitBatchID string `json:"unit_batch_id"`
	UnitID      string `json:"unit_id,omitempty"`
	ProductName string `json:"product_name,omitempty"`
	PrepareDate string `json:"prepare_date"`
	Status      string `json:"status"`
	CreatedBy   string `json:"created_by,omitempty"`
	CheckedBy   string `json:"checked_by,omitempty"`
	Progress    string `json:"progress"`
	Percentage  float64 `json:"percentage"`
	Notes       *string `json:"notes,omitempty"`

	Ingredients []PrepareIngredientResponse `json:"ingredients,omitempty"`
}

type PrepareListResponse struct {
	Data  []PrepareResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
	// AutoCancelled reports how many stale rows the inline sweep cancelled
	// while building this page.
	AutoCancelled int `json:"auto_cancelled"`
}

// ToggleResult is the tri-state outcome of an ingredient toggle: callers
// branch on State to decide their response shape.
type ToggleResult struct {
	State      string          `json:"state"` // "completed" | "in_progress"
	Prepare    PrepareResponse `json:"prepare"`
	ProduceID  string          `json:"produce_id,omitempty"`
}
