package dto

// ChecklistAnswer accepts either a plain string or an array of strings (from
// multi-select option questions). Arrays are normalized by dropping blanks
// and joining with ", ".
type ChecklistAnswer struct {
	Value  string
	Values []string
	IsList bool
}

// UnmarshalJSON accepts "answer" or ["a","b"].
func (a *ChecklistAnswer) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		a.IsList = true
		return jsonUnmarshal(data, &a.Values)
	}
	return jsonUnmarshal(data, &a.Value)
}

type SelectMachineRequest struct {
	MachineID string `json:"machine_id" validate:"required,uuid"`
}

// SubmitChecklistRequest maps machine checking template IDs to raw answers.
type SubmitChecklistRequest struct {
	Answers map[string]ChecklistAnswer `json:"answers" validate:"required"`
}

type ChecklistEntryResponse struct {
	CheckingID string   `json:"checking_id"`
	Question   string   `json:"question"`
	Type       string   `json:"type"`
	Options    []string `json:"options,omitempty"`
	Answer     string   `json:"answer,omitempty"`
}

type ChecklistResponse struct {
	MachineID   string                   `json:"machine_id"`
	MachineName string                   `json:"machine_name"`
	Completed   bool                     `json:"completed"`
	Entries     []ChecklistEntryResponse `json:"entries"`
}

type ProduceFilter struct {
	Status    string
	ProductID string
	Date      string
	Tab       string
	Page      int
	Limit     int
}

type ProduceResponse struct {
	ID           string `json:"id"`
	ProduceID    string `json:"produce_id"`
	UnitBatchID  string `json:"unit_batch_id"`
	UnitID       string `json:"unit_id,omitempty"`
	BatchCode    string `json:"batch_code,omitempty"`
	ProductName  string `json:"product_name,omitempty"`
	ProduceDate  string `json:"produce_date"`
	Status       string `json:"status"`
	MachineID    string `json:"machine_id,omitempty"`
	MachineName  string `json:"machine_name,omitempty"`
	MachineCheck bool   `json:"machine_check"`
}

type ProduceListResponse struct {
	Data  []ProduceResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
