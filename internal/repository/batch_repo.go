package repository

import (
	"context"
	"time"

	"github.com/jusondac/factory-app/internal/dto"
	"github.com/jusondac/factory-app/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UnitBatchRepository interface {
	CreateTx(tx *gorm.DB, b *model.UnitBatch) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.UnitBatch, error)
	List(ctx context.Context, filter dto.BatchFilter) ([]model.UnitBatch, int64, error)
	SaveTx(tx *gorm.DB, b *model.UnitBatch) error
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error
	UpdateBatchCodeTx(tx *gorm.DB, id uuid.UUID, batchCode string) error
	UpdateExpiryTx(tx *gorm.DB, id uuid.UUID, expiry time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ListForReport returns every batch whose preparation falls in the date
	// window, with all phases preloaded. Open bounds are allowed.
	ListForReport(ctx context.Context, start, end string) ([]model.UnitBatch, error)

	// CountUnitIDsWithPrefix backs the date-scoped identifier sequence.
	CountUnitIDsWithPrefix(ctx context.Context, prefix string) (int64, error)
	// CountBatchCodesWithPrefix backs the batch-code SEQ3 suffix.
	CountBatchCodesWithPrefix(ctx context.Context, prefix string) (int64, error)

	DB() *gorm.DB
}

type batchRepo struct{ db *gorm.DB }

func NewUnitBatchRepository(db *gorm.DB) UnitBatchRepository { return &batchRepo{db: db} }

func (r *batchRepo) CreateTx(tx *gorm.DB, b *model.UnitBatch) error {
	return tx.Create(b).Error
}

func (r *batchRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.UnitBatch, error) {
	var b model.UnitBatch
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Prepare").
		Preload("Produce").
		Preload("Package").
		First(&b, "id = ?", id).Error
	return &b, err
}

func (r *batchRepo) List(ctx context.Context, filter dto.BatchFilter) ([]model.UnitBatch, int64, error) {
	var batches []model.UnitBatch
	var total int64

	q := r.db.WithContext(ctx).Model(&model.UnitBatch{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.ProductID != "" {
		q = q.Where("product_id = ?", filter.ProductID)
	}
	switch filter.Tab {
	case dto.TabToday:
		q = q.Where("created_at >= CURRENT_DATE")
	case dto.TabHistory:
		q = q.Where("created_at < CURRENT_DATE")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Product").Preload("Prepare").Preload("Produce").Preload("Package").
		Order("created_at DESC").Limit(filter.Limit).Offset(offset).Find(&batches).Error
	return batches, total, err
}

func (r *batchRepo) SaveTx(tx *gorm.DB, b *model.UnitBatch) error {
	return tx.Save(b).Error
}

func (r *batchRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error {
	return tx.Model(&model.UnitBatch{}).Where("id = ?", id).Update("status", status).Error
}

func (r *batchRepo) UpdateBatchCodeTx(tx *gorm.DB, id uuid.UUID, batchCode string) error {
	return tx.Model(&model.UnitBatch{}).Where("id = ?", id).Update("batch_code", batchCode).Error
}

func (r *batchRepo) UpdateExpiryTx(tx *gorm.DB, id uuid.UUID, expiry time.Time) error {
	return tx.Model(&model.UnitBatch{}).Where("id = ?", id).Update("expiry_date", expiry).Error
}

func (r *batchRepo) Delete(ctx context.Context, id uuid.UUID) error {
	// Phase records cascade via FK constraints.
	return r.db.WithContext(ctx).Select("Prepare", "Produce", "Package").
		Delete(&model.UnitBatch{ID: id}).Error
}

func (r *batchRepo) ListForReport(ctx context.Context, start, end string) ([]model.UnitBatch, error) {
	var batches []model.UnitBatch
	q := r.db.WithContext(ctx).Model(&model.UnitBatch{}).
		Joins("JOIN prepares ON prepares.unit_batch_id = unit_batches.id")
	if start != "" {
		q = q.Where("prepares.prepare_date >= ?", start)
	}
	if end != "" {
		q = q.Where("prepares.prepare_date <= ?", end)
	}
	err := q.Preload("Product").Preload("Prepare").
		Preload("Produce.Machine").Preload("Package.Machine").
		Order("prepares.prepare_date DESC, unit_batches.created_at DESC").
		Find(&batches).Error
	return batches, err
}

func (r *batchRepo) CountUnitIDsWithPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.UnitBatch{}).
		Where("unit_id LIKE ?", prefix+"%").Count(&count).Error
	return count, err
}

func (r *batchRepo) CountBatchCodesWithPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.UnitBatch{}).
		Where("batch_code LIKE ?", prefix+"%").Count(&count).Error
	return count, err
}

func (r *batchRepo) DB() *gorm.DB { return r.db }
