package dto

type MachineCheckingInput struct {
	Name  string `json:"name" validate:"required"`
	Type  string `json:"type" validate:"required,oneof=option text"`
	Value string `json:"value" validate:"required_if=Type option"`
}

type CreateMachineRequest struct {
	Name       string                 `json:"name" validate:"required"`
	Allocation string                 `json:"allocation" validate:"required,oneof=production packing testing"`
	Line       int                    `json:"line" validate:"min=0"`
	Checkings  []MachineCheckingInput `json:"checkings" validate:"dive"`
}

type UpdateMachineRequest struct {
	Name       *string                 `json:"name"`
	Allocation *string                 `json:"allocation" validate:"omitempty,oneof=production packing testing"`
	Line       *int                    `json:"line" validate:"omitempty,min=0"`
	Status     *string                 `json:"status" validate:"omitempty,oneof=inactive active under_maintenance"`
	Checkings  *[]MachineCheckingInput `json:"checkings" validate:"omitempty,dive"`
}

type MachineFilter struct {
	Allocation string
	Status     string
}

type MachineCheckingResponse struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Options []string `json:"options,omitempty"`
}

type MachineResponse struct {
	ID           string                    `json:"id"`
	Name         string                    `json:"name"`
	SerialNumber string                    `json:"serial_number"`
	Status       string                    `json:"status"`
	Allocation   string                    `json:"allocation"`
	Line         int                       `json:"line"`
	Checkings    []MachineCheckingResponse `json:"checkings,omitempty"`
}
