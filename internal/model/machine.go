package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Machine status: "inactive" | "active" | "under_maintenance".
// inactive --assign--> active --release--> inactive. under_maintenance is an
// out-of-band state set manually, never reachable through assignment.
const (
	MachineInactive         = "inactive"
	MachineActive           = "active"
	MachineUnderMaintenance = "under_maintenance"
)

// Allocation: "production" | "packing" | "testing" — the declared purpose of
// a machine, gating which phase may reserve it.
const (
	AllocationProduction = "production"
	AllocationPacking    = "packing"
	AllocationTesting    = "testing"
)

// Machine is a physical or logical line resource. At most one in-flight
// phase record (Produce or Package) may hold a machine at a time; the
// reservation manager enforces this with a conditional status update.
type Machine struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string    `gorm:"not null"`
	SerialNumber string    `gorm:"uniqueIndex;not null"` // 10 hex chars, uppercase
	Status       string    `gorm:"type:varchar(20);not null;default:'inactive';index"`
	Allocation   string    `gorm:"type:varchar(20);not null;index"`
	Line         int       `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Checkings []MachineChecking `gorm:"foreignKey:MachineID;constraint:OnDelete:CASCADE"`
}

func (m *Machine) Inactive() bool { return m.Status == MachineInactive }
func (m *Machine) Active() bool   { return m.Status == MachineActive }

// ValidAllocation reports whether s is one of the defined purposes.
func ValidAllocation(s string) bool {
	return s == AllocationProduction || s == AllocationPacking || s == AllocationTesting
}

// MachineChecking type: "option" | "text"
const (
	CheckingOption = "option"
	CheckingText   = "text"
)

// MachineChecking is a checklist question template attached to a machine.
// For option questions, Value holds the comma-separated choices.
type MachineChecking struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MachineID uuid.UUID `gorm:"type:uuid;index;not null"`
	Name      string    `gorm:"not null"`
	Type      string    `gorm:"type:varchar(10);not null"`
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Options splits the comma-separated choices of an option question.
func (c *MachineChecking) Options() []string {
	if c.Type != CheckingOption || c.Value == "" {
		return nil
	}
	parts := strings.Split(c.Value, ",")
	opts := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			opts = append(opts, s)
		}
	}
	return opts
}
