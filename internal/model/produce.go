package model

import (
	"time"

	"github.com/google/uuid"
)

// Produce status: "unproduce" | "producing" | "produced".
// producing is only reachable after the machine checklist completes.
const (
	ProduceUnproduce = "unproduce"
	ProduceProducing = "producing"
	ProduceProduced  = "produced"
)

// Produce is the manufacturing phase of a unit batch, 1:1 with its UnitBatch.
// It exists only after the preparation checklist completed (or an explicit
// move-to-produce), and must finish its machine checklist before production
// may start.
type Produce struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProduceID   string    `gorm:"uniqueIndex;not null"` // PROD-YYYYMMDD-N
	UnitBatchID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	ProduceDate time.Time `gorm:"type:date;not null;index"`
	Status      string    `gorm:"type:varchar(20);not null;default:'unproduce';index"`
	MachineID   *uuid.UUID `gorm:"type:uuid"`
	MachineCheck bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	UnitBatch *UnitBatch           `gorm:"foreignKey:UnitBatchID"`
	Machine   *Machine             `gorm:"foreignKey:MachineID"`
	Checks    []ProduceMachineCheck `gorm:"foreignKey:ProduceID;constraint:OnDelete:CASCADE"`
}

func (p *Produce) Unproduce() bool { return p.Status == ProduceUnproduce }
func (p *Produce) Producing() bool { return p.Status == ProduceProducing }
func (p *Produce) Produced() bool  { return p.Status == ProduceProduced }

// ProduceMachineCheck is a recorded checklist answer for a produce. Question
// snapshots the template name at answer time.
type ProduceMachineCheck struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProduceID         uuid.UUID `gorm:"type:uuid;index;not null"`
	MachineCheckingID uuid.UUID `gorm:"type:uuid;not null"`
	Question          string    `gorm:"not null"`
	Answer            string    `gorm:"not null"`
	CreatedAt         time.Time

	MachineChecking *MachineChecking `gorm:"foreignKey:MachineCheckingID"`
}
