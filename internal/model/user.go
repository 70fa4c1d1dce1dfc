package model

import (
	"time"

	"github.com/google/uuid"
)

// Role: "worker" | "tester" | "supervisor" | "manager" | "head"
const (
	RoleWorker     = "worker"
	RoleTester     = "tester"
	RoleSupervisor = "supervisor"
	RoleManager    = "manager"
	RoleHead       = "head"
)

// User stores system users with capability-based access. Roles are not a
// privilege hierarchy — each capability below is an explicit predicate and is
// re-checked by the service layer on every transition.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email        string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"not null"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"type:varchar(20);not null"`
	Active       bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) IsWorker() bool     { return u.Role == RoleWorker }
func (u *User) IsTester() bool     { return u.Role == RoleTester }
func (u *User) IsSupervisor() bool { return u.Role == RoleSupervisor }
func (u *User) IsManager() bool    { return u.Role == RoleManager }
func (u *User) IsHead() bool       { return u.Role == RoleHead }

// Catalog and administration.
func (u *User) CanCreateProducts() bool { return u.IsManager() || u.IsHead() }
func (u *User) CanManageMachines() bool { return u.IsManager() || u.IsHead() }
func (u *User) CanManageUsers() bool    { return u.IsManager() || u.IsHead() }

// Preparation phase. Supervisors and above plan preparations; only workers
// execute the ingredient checklist.
func (u *User) CanCreatePrepares() bool {
	return u.IsSupervisor() || u.IsManager() || u.IsHead()
}
func (u *User) CanCheckPrepares() bool { return u.IsWorker() }

// Production and packaging. View is broader than edit: every role may
// observe the pipeline, testers never drive it.
func (u *User) CanViewProduces() bool { return true }
func (u *User) CanViewPackages() bool { return true }
func (u *User) CanEditProduces() bool {
	return u.IsWorker() || u.IsSupervisor() || u.IsManager() || u.IsHead()
}
func (u *User) CanEditPackages() bool {
	return u.IsWorker() || u.IsSupervisor() || u.IsManager() || u.IsHead()
}
