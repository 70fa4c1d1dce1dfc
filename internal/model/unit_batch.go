package model

import (
	"time"

	"github.com/google/uuid"
)

// UnitBatch status: "preparation" | "production" | "testing" | "packing" | "cancelled".
// Status only moves forward through the pipeline; the single exception is the
// explicit undo operation, which steps back one phase and destroys the
// downstream phase record. "testing" is a defined state with no transition
// that populates it — it remains a legal undo source only.
const (
	BatchPreparation = "preparation"
	BatchProduction  = "production"
	BatchTesting     = "testing"
	BatchPacking     = "packing"
	BatchCancelled   = "cancelled"
)

// Shift: "morning" | "afternoon" | "night"
const (
	ShiftMorning   = "morning"
	ShiftAfternoon = "afternoon"
	ShiftNight     = "night"
)

// PackageType: "box" | "pouch" | "jar"
const (
	PackageTypeBox   = "box"
	PackageTypePouch = "pouch"
	PackageTypeJar   = "jar"
)

// UnitBatch is the root aggregate of one production run. It owns at most one
// Prepare, Produce, and Package, created progressively as the run advances.
type UnitBatch struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UnitID    string    `gorm:"uniqueIndex;not null"` // UNIT-YYYYMMDD-N
	BatchCode string    `gorm:"index"`                // PRODUCTCODE-YYYYMMDD-SHIFTLETTER-LNN-SEQ3
	ProductID uuid.UUID `gorm:"type:uuid;index;not null"`
	Quantity  int       `gorm:"not null;default:0"`
	// PackageType and Shift may be empty for batches created through the
	// quick preparation path; the batch code is only built when both are set.
	PackageType string     `gorm:"type:varchar(10)"`
	Shift       string     `gorm:"type:varchar(10)"`
	Status      string     `gorm:"type:varchar(20);not null;default:'preparation';index"`
	ExpiryDate  *time.Time // computed from product shelf life at packaging

	CreatedAt time.Time
	UpdatedAt time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
	Prepare *Prepare `gorm:"foreignKey:UnitBatchID;constraint:OnDelete:CASCADE"`
	Produce *Produce `gorm:"foreignKey:UnitBatchID;constraint:OnDelete:CASCADE"`
	Package *Package `gorm:"foreignKey:UnitBatchID;constraint:OnDelete:CASCADE"`
}

func (b *UnitBatch) InPreparation() bool { return b.Status == BatchPreparation }
func (b *UnitBatch) InProduction() bool  { return b.Status == BatchProduction }
func (b *UnitBatch) InPacking() bool     { return b.Status == BatchPacking }
func (b *UnitBatch) Cancelled() bool     { return b.Status == BatchCancelled }

// ShiftLetter returns the single-letter shift code used in batch codes.
func ShiftLetter(shift string) string {
	switch shift {
	case ShiftMorning:
		return "M"
	case ShiftAfternoon:
		return "A"
	case ShiftNight:
		return "N"
	}
	return ""
}

// ValidShift reports whether s is one of the defined shifts.
func ValidShift(s string) bool {
	return s == ShiftMorning || s == ShiftAfternoon || s == ShiftNight
}

// ValidPackageType reports whether s is one of the defined package types.
func ValidPackageType(s string) bool {
	return s == PackageTypeBox || s == PackageTypePouch || s == PackageTypeJar
}
