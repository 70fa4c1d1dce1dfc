package model

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog entry. Its ingredient list is the template that gets
// snapshotted into PrepareIngredient rows when a preparation is created —
// later catalog edits never touch in-flight preparations.
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"index;not null"`
	ProductCode string    `gorm:"uniqueIndex;not null"` // "PRD" + 6 hex chars, uppercase
	CreatedByID uuid.UUID `gorm:"type:uuid;not null"`
	// Shelf life, summed into an expiry date when the batch reaches packaging.
	PeriodYear  int `gorm:"not null;default:0"`
	PeriodMonth int `gorm:"not null;default:0"`
	PeriodWeek  int `gorm:"not null;default:0"`
	PeriodDay   int `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	CreatedBy   *User        `gorm:"foreignKey:CreatedByID"`
	Ingredients []Ingredient `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// ShelfLife reports whether the product has any shelf-life period configured.
func (p *Product) ShelfLife() bool {
	return p.PeriodYear > 0 || p.PeriodMonth > 0 || p.PeriodWeek > 0 || p.PeriodDay > 0
}

// ExpiryFrom computes the expiry date for a batch packaged on the given date.
// Returns the zero time when no period is configured.
func (p *Product) ExpiryFrom(packagedAt time.Time) time.Time {
	if !p.ShelfLife() {
		return time.Time{}
	}
	return packagedAt.AddDate(p.PeriodYear, p.PeriodMonth, p.PeriodWeek*7+p.PeriodDay)
}

// Ingredient is one line of a product's recipe.
type Ingredient struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID uuid.UUID `gorm:"type:uuid;index;not null"`
	Name      string    `gorm:"index;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
