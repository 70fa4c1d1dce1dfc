package model

import (
	"time"

	"github.com/google/uuid"
)

// Package status: "unpackage" | "packaging" | "package".
// Unlike Produce, completing the machine checklist moves the record straight
// into packaging.
const (
	PackageUnpackage = "unpackage"
	PackagePackaging = "packaging"
	PackagePackaged  = "package"
)

// Package is the packaging phase of a unit batch, 1:1 with its UnitBatch.
// Created automatically when production completes; its creation stamps the
// batch's expiry date from the product shelf life.
type Package struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PackageID   string    `gorm:"uniqueIndex;not null"` // PACK-YYYYMMDD-N
	UnitBatchID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	PackageDate time.Time `gorm:"type:date;not null;index"`
	Status      string    `gorm:"type:varchar(20);not null;default:'unpackage';index"`
	MachineID   *uuid.UUID `gorm:"type:uuid"`
	MachineCheck bool      `gorm:"not null;default:false"`
	WasteQuantity int      `gorm:"not null;default:0"` // units discarded, >= 0
	CreatedAt   time.Time
	UpdatedAt   time.Time

	UnitBatch *UnitBatch            `gorm:"foreignKey:UnitBatchID"`
	Machine   *Machine              `gorm:"foreignKey:MachineID"`
	Checks    []PackageMachineCheck `gorm:"foreignKey:PackageID;constraint:OnDelete:CASCADE"`
}

func (p *Package) Unpackage() bool { return p.Status == PackageUnpackage }
func (p *Package) Packaging() bool { return p.Status == PackagePackaging }
func (p *Package) Packaged() bool  { return p.Status == PackagePackaged }

// PackageMachineCheck is a recorded checklist answer for a package.
type PackageMachineCheck struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PackageID         uuid.UUID `gorm:"type:uuid;index;not null"`
	MachineCheckingID uuid.UUID `gorm:"type:uuid;not null"`
	Question          string    `gorm:"not null"`
	Answer            string    `gorm:"not null"`
	CreatedAt         time.Time

	MachineChecking *MachineChecking `gorm:"foreignKey:MachineCheckingID"`
}
