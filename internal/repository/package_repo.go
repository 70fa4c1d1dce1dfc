package repository

import (
	"context"

	"github.com/jusondac/factory-app/internal/dto"
	"github.com/jusondac/factory-app/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PackageRepository interface {
	CreateTx(tx *gorm.DB, p *model.Package) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Package, error)
	List(ctx context.Context, filter dto.PackageFilter) ([]model.Package, int64, error)
	SaveTx(tx *gorm.DB, p *model.Package) error
	DeleteByUnitBatchTx(tx *gorm.DB, unitBatchID uuid.UUID) error
	CountIDsWithPrefix(ctx context.Context, prefix string) (int64, error)

	AssignMachineTx(tx *gorm.DB, packageID, machineID uuid.UUID) error
	SetMachineCheckTx(tx *gorm.DB, packageID uuid.UUID, checked bool) error
	DeleteChecksTx(tx *gorm.DB, packageID uuid.UUID) error
	CreateChecksTx(tx *gorm.DB, checks []model.PackageMachineCheck) error

	DB() *gorm.DB
}

type packageRepo struct{ db *gorm.DB }

func NewPackageRepository(db *gorm.DB) PackageRepository { return &packageRepo{db: db} }

func (r *packageRepo) CreateTx(tx *gorm.DB, p *model.Package) error {
	return tx.Create(p).Error
}

func (r *packageRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Package, error) {
	var p model.Package
	err := r.db.WithContext(ctx).
		Preload("UnitBatch.Product").
		Preload("UnitBatch.Produce").
		Preload("Machine.Checkings").
		Preload("Checks.MachineChecking").
		First(&p, "id = ?", id).Error
	return &p, err
}

func (r *packageRepo) List(ctx context.Context, filter dto.PackageFilter) ([]model.Package, int64, error) {
	var packages []model.Package
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Package{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Date != "" {
		q = q.Where("package_date = ?", filter.Date)
	}
	if filter.ProductID != "" {
		q = q.Joins("JOIN unit_batches ON unit_batches.id = packages.unit_batch_id").
			Where("unit_batches.product_id = ?", filter.ProductID)
	}
	switch filter.Tab {
	case dto.TabToday:
		q = q.Where("package_date = CURRENT_DATE")
	case dto.TabHistory:
		q = q.Where("package_date < CURRENT_DATE")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("UnitBatch.Product").Preload("Machine").
		Order("package_date DESC, created_at DESC").
		Limit(filter.Limit).Offset(offset).Find(&packages).Error
	return packages, total, err
}

func (r *packageRepo) SaveTx(tx *gorm.DB, p *model.Package) error {
	return tx.Save(p).Error
}

func (r *packageRepo) DeleteByUnitBatchTx(tx *gorm.DB, unitBatchID uuid.UUID) error {
	var p model.Package
	err := tx.Where("unit_batch_id = ?", unitBatchID).First(&p).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if err := tx.Where("package_id = ?", p.ID).Delete(&model.PackageMachineCheck{}).Error; err != nil {
		return err
	}
	return tx.Delete(&p).Error
}

func (r *packageRepo) CountIDsWithPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Package{}).
		Where("package_id LIKE ?", prefix+"%").Count(&count).Error
	return count, err
}

func (r *packageRepo) AssignMachineTx(tx *gorm.DB, packageID, machineID uuid.UUID) error {
	return tx.Model(&model.Package{}).Where("id = ?", packageID).
		Update("machine_id", machineID).Error
}

func (r *packageRepo) SetMachineCheckTx(tx *gorm.DB, packageID uuid.UUID, checked bool) error {
	return tx.Model(&model.Package{}).Where("id = ?", packageID).
		Update("machine_check", checked).Error
}

func (r *packageRepo) DeleteChecksTx(tx *gorm.DB, packageID uuid.UUID) error {
	return tx.Where("package_id = ?", packageID).Delete(&model.PackageMachineCheck{}).Error
}

func (r *packageRepo) CreateChecksTx(tx *gorm.DB, checks []model.PackageMachineCheck) error {
	if len(checks) == 0 {
		return nil
	}
	return tx.Create(&checks).Error
}

func (r *packageRepo) DB() *gorm.DB { return r.db }
