package repository

import (
	"context"

	"github.com/jusondac/factory-app/internal/dto"
	"github.com/jusondac/factory-app/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProduceRepository interface {
	CreateTx(tx *gorm.DB, p *model.Produce) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Produce, error)
	List(ctx context.Context, filter dto.ProduceFilter) ([]model.Produce, int64, error)
	SaveTx(tx *gorm.DB, p *model.Produce) error
	DeleteByUnitBatchTx(tx *gorm.DB, unitBatchID uuid.UUID) error
	CountIDsWithPrefix(ctx context.Context, prefix string) (int64, error)

	// AssignMachineTx binds the machine; checklist rows are managed separately.
	AssignMachineTx(tx *gorm.DB, produceID, machineID uuid.UUID) error
	SetMachineCheckTx(tx *gorm.DB, produceID uuid.UUID, checked bool) error
	DeleteChecksTx(tx *gorm.DB, produceID uuid.UUID) error
	CreateChecksTx(tx *gorm.DB, checks []model.ProduceMachineCheck) error

	DB() *gorm.DB
}

type produceRepo struct{ db *gorm.DB }

func NewProduceRepository(db *gorm.DB) ProduceRepository { return &produceRepo{db: db} }

func (r *produceRepo) CreateTx(tx *gorm.DB, p *model.Produce) error {
	return tx.Create(p).Error
}

func (r *produceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Produce, error) {
	var p model.Produce
	err := r.db.WithContext(ctx).
		Preload("UnitBatch.Product").
		Preload("UnitBatch.Prepare").
		Preload("Machine.Checkings").
		Preload("Checks.MachineChecking").
		First(&p, "id = ?", id).Error
	return &p, err
}

func (r *produceRepo) List(ctx context.Context, filter dto.ProduceFilter) ([]model.Produce, int64, error) {
	var produces []model.Produce
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Produce{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Date != "" {
		q = q.Where("produce_date = ?", filter.Date)
	}
	if filter.ProductID != "" {
		q = q.Joins("JOIN unit_batches ON unit_batches.id = produces.unit_batch_id").
			Where("unit_batches.product_id = ?", filter.ProductID)
	}
	switch filter.Tab {
	case dto.TabToday:
		q = q.Where("produce_date = CURRENT_DATE")
	case dto.TabHistory:
		q = q.Where("produce_date < CURRENT_DATE")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("UnitBatch.Product").Preload("Machine").
		Order("produce_date DESC, created_at DESC").
		Limit(filter.Limit).Offset(offset).Find(&produces).Error
	return produces, total, err
}

func (r *produceRepo) SaveTx(tx *gorm.DB, p *model.Produce) error {
	return tx.Save(p).Error
}

func (r *produceRepo) DeleteByUnitBatchTx(tx *gorm.DB, unitBatchID uuid.UUID) error {
	var p model.Produce
	err := tx.Where("unit_batch_id = ?", unitBatchID).First(&p).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if err := tx.Where("produce_id = ?", p.ID).Delete(&model.ProduceMachineCheck{}).Error; err != nil {
		return err
	}
	return tx.Delete(&p).Error
}

func (r *produceRepo) CountIDsWithPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Produce{}).
		Where("produce_id LIKE ?", prefix+"%").Count(&count).Error
	return count, err
}

func (r *produceRepo) AssignMachineTx(tx *gorm.DB, produceID, machineID uuid.UUID) error {
	return tx.Model(&model.Produce{}).Where("id = ?", produceID).
		Update("machine_id", machineID).Error
}

func (r *produceRepo) SetMachineCheckTx(tx *gorm.DB, produceID uuid.UUID, checked bool) error {
	return tx.Model(&model.Produce{}).Where("id = ?", produceID).
		Update("machine_check", checked).Error
}

func (r *produceRepo) DeleteChecksTx(tx *gorm.DB, produceID uuid.UUID) error {
	return tx.Where("produce_id = ?", produceID).Delete(&model.ProduceMachineCheck{}).Error
}

func (r *produceRepo) CreateChecksTx(tx *gorm.DB, checks []model.ProduceMachineCheck) error {
	if len(checks) == 0 {
		return nil
	}
	return tx.Create(&checks).Error
}

func (r *produceRepo) DB() *gorm.DB { return r.db }
