package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Prepare status: "unchecked" | "checking" | "checked" | "cancelled"
const (
	PrepareUnchecked = "unchecked"
	PrepareChecking  = "checking"
	PrepareChecked   = "checked"
	PrepareCancelled = "cancelled"
)

// Prepare is the ingredient-staging phase of a unit batch, 1:1 with its
// UnitBatch. Its ingredient rows are a snapshot of the product recipe taken
// at creation time. The two counter columns are denormalized and maintained
// transactionally on every toggle — checked_ingredients_count must always
// equal the true count of checked rows.
type Prepare struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PrepareID   string    `gorm:"uniqueIndex;not null"` // PRP-YYYYMMDD-N
	UnitBatchID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	PrepareDate time.Time `gorm:"type:date;not null;index"`
	Status      string    `gorm:"type:varchar(20);not null;default:'unchecked';index"`
	CreatedByID uuid.UUID `gorm:"type:uuid;not null"`
	CheckedByID *uuid.UUID `gorm:"type:uuid"`

	PrepareIngredientsCount int `gorm:"not null;default:0"`
	CheckedIngredientsCount int `gorm:"not null;default:0"`

	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time

	UnitBatch   *UnitBatch          `gorm:"foreignKey:UnitBatchID"`
	CreatedBy   *User               `gorm:"foreignKey:CreatedByID"`
	CheckedBy   *User               `gorm:"foreignKey:CheckedByID"`
	Ingredients []PrepareIngredient `gorm:"foreignKey:PrepareID;constraint:OnDelete:CASCADE"`
}

func (p *Prepare) Unchecked() bool { return p.Status == PrepareUnchecked }
func (p *Prepare) Checking() bool  { return p.Status == PrepareChecking }
func (p *Prepare) Checked() bool   { return p.Status == PrepareChecked }
func (p *Prepare) Cancelled() bool { return p.Status == PrepareCancelled }

// CanBeCheckedBy reports whether user may claim this preparation's checklist.
func (p *Prepare) CanBeCheckedBy(user *User) bool {
	return user.CanCheckPrepares() && !p.Checked() && !p.Cancelled()
}

// AllIngredientsChecked holds only when the checklist is non-empty and every
// row is checked. An empty checklist can never complete.
func (p *Prepare) AllIngredientsChecked() bool {
	return p.PrepareIngredientsCount > 0 &&
		p.CheckedIngredientsCount == p.PrepareIngredientsCount
}

// ShouldBeCancelled reports whether the auto-cancel sweep applies: the
// prepare date has passed and the checklist never completed.
func (p *Prepare) ShouldBeCancelled(today time.Time) bool {
	return p.PrepareDate.Before(truncateToDay(today)) && (p.Unchecked() || p.Checking())
}

// CheckingProgress renders "checked/total" for display.
func (p *Prepare) CheckingProgress() string {
	return fmt.Sprintf("%d/%d", p.CheckedIngredientsCount, p.PrepareIngredientsCount)
}

// CheckingPercentage returns completion as a percentage, 0 for empty lists.
func (p *Prepare) CheckingPercentage() float64 {
	if p.PrepareIngredientsCount == 0 {
		return 0
	}
	return float64(p.CheckedIngredientsCount) / float64(p.PrepareIngredientsCount) * 100
}

// PrepareIngredient is one checklist line, snapshotted by name from the
// product recipe. Toggling a row keeps the parent counter in sync within the
// same transaction.
type PrepareIngredient struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PrepareID      uuid.UUID `gorm:"type:uuid;index;not null"`
	IngredientName string    `gorm:"not null"`
	Checked        bool      `gorm:"not null;default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
