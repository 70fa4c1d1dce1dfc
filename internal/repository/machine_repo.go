package repository

import (
	"context"

	"github.com/jusondac/factory-app/internal/dto"
	"github.com/jusondac/factory-app/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MachineRepository interface {
	Create(ctx context.Context, m *model.Machine) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Machine, error)
	List(ctx context.Context, filter dto.MachineFilter) ([]model.Machine, error)
	Update(ctx context.Context, m *model.Machine) error
	SaveTx(tx *gorm.DB, m *model.Machine) error
	ReplaceCheckingsTx(tx *gorm.DB, machineID uuid.UUID, checkings []model.MachineChecking) error
	Delete(ctx context.Context, id uuid.UUID) error
	SerialExists(ctx context.Context, serial string) (bool, error)

	// ReserveTx atomically flips inactive -> active. Returns false when the
	// machine was not inactive (lost race, maintenance, or already held);
	// this single conditional UPDATE is the exclusivity guarantee.
	ReserveTx(tx *gorm.DB, id uuid.UUID) (bool, error)
	// ReleaseTx flips active -> inactive. No-op for other states.
	ReleaseTx(tx *gorm.DB, id uuid.UUID) error

	DB() *gorm.DB
}

type machineRepo struct{ db *gorm.DB }

func NewMachineRepository(db *gorm.DB) MachineRepository { return &machineRepo{db: db} }

func (r *machineRepo) Create(ctx context.Context, m *model.Machine) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *machineRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Machine, error) {
	var m model.Machine
	err := r.db.WithContext(ctx).Preload("Checkings", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).First(&m, "id = ?", id).Error
	return &m, err
}

func (r *machineRepo) List(ctx context.Context, filter dto.MachineFilter) ([]model.Machine, error) {
	var machines []model.Machine
	q := r.db.WithContext(ctx).Preload("Checkings").Order("name ASC")
	if filter.Allocation != "" {
		q = q.Where("allocation = ?", filter.Allocation)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	err := q.Find(&machines).Error
	return machines, err
}

func (r *machineRepo) Update(ctx context.Context, m *model.Machine) error {
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *machineRepo) SaveTx(tx *gorm.DB, m *model.Machine) error {
	return tx.Omit("Checkings").Save(m).Error
}

func (r *machineRepo) ReplaceCheckingsTx(tx *gorm.DB, machineID uuid.UUID, checkings []model.MachineChecking) error {
	if err := tx.Where("machine_id = ?", machineID).Delete(&model.MachineChecking{}).Error; err != nil {
		return err
	}
	if len(checkings) == 0 {
		return nil
	}
	return tx.Create(&checkings).Error
}

func (r *machineRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Machine{}, "id = ?", id).Error
}

func (r *machineRepo) SerialExists(ctx context.Context, serial string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Machine{}).Where("serial_number = ?", serial).Count(&count).Error
	return count > 0, err
}

func (r *machineRepo) ReserveTx(tx *gorm.DB, id uuid.UUID) (bool, error) {
	res := tx.Model(&model.Machine{}).
		Where("id = ? AND status = ?", id, model.MachineInactive).
		Update("status", model.MachineActive)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *machineRepo) ReleaseTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Model(&model.Machine{}).
		Where("id = ? AND status = ?", id, model.MachineActive).
		Update("status", model.MachineInactive).Error
}

func (r *machineRepo) DB() *gorm.DB { return r.db }
