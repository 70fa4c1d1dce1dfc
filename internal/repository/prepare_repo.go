package repository

import (
	"context"
	"time"

	"github.com/jusondac/factory-app/internal/dto"
	"github.com/jusondac/factory-app/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PrepareRepository interface {
	CreateTx(tx *gorm.DB, p *model.Prepare) error
	CreateIngredientsTx(tx *gorm.DB, ingredients []model.PrepareIngredient) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Prepare, error)
	List(ctx context.Context, filter dto.PrepareFilter) ([]model.Prepare, int64, error)
	SaveTx(tx *gorm.DB, p *model.Prepare) error
	ExistsForProductOnDate(ctx context.Context, productID uuid.UUID, date time.Time) (bool, error)
	CountIDsWithPrefix(ctx context.Context, prefix string) (int64, error)

	FindIngredient(ctx context.Context, prepareID, ingredientID uuid.UUID) (*model.PrepareIngredient, error)
	// SetIngredientCheckedTx flips one row and, in the same transaction,
	// RecountCheckedTx must be called to restore the counter invariant.
	SetIngredientCheckedTx(tx *gorm.DB, ingredientID uuid.UUID, checked bool) error
	// RecountCheckedTx recomputes checked_ingredients_count from the true row
	// count in a single UPDATE, and returns the new value.
	RecountCheckedTx(tx *gorm.DB, prepareID uuid.UUID) (int, error)

	// CancelOutdated batch-cancels the given prepares in one statement:
	// status=cancelled, checked_by cleared. Returns rows affected. Already
	// cancelled/checked rows are excluded by the status filter, which makes
	// repeated sweeps idempotent.
	CancelOutdated(ctx context.Context, ids []uuid.UUID) (int64, error)
	// OutdatedBefore lists ids of unchecked/checking prepares dated before day.
	OutdatedBefore(ctx context.Context, day time.Time) ([]uuid.UUID, error)

	DB() *gorm.DB
}

type prepareRepo struct{ db *gorm.DB }

func NewPrepareRepository(db *gorm.DB) PrepareRepository { return &prepareRepo{db: db} }

func (r *prepareRepo) CreateTx(tx *gorm.DB, p *model.Prepare) error {
	return tx.Create(p).Error
}

func (r *prepareRepo) CreateIngredientsTx(tx *gorm.DB, ingredients []model.PrepareIngredient) error {
	if len(ingredients) == 0 {
		return nil
	}
	return tx.Create(&ingredients).Error
}

func (r *prepareRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Prepare, error) {
	var p model.Prepare
	err := r.db.WithContext(ctx).
		Preload("UnitBatch.Product").
		Preload("CreatedBy").
		Preload("CheckedBy").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("ingredient_name ASC")
		}).
		First(&p, "id = ?", id).Error
	return &p, err
}

func (r *prepareRepo) List(ctx context.Context, filter dto.PrepareFilter) ([]model.Prepare, int64, error) {
	var prepares []model.Prepare
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Prepare{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Date != "" {
		q = q.Where("prepare_date = ?", filter.Date)
	}
	if filter.ProductID != "" {
		q = q.Joins("JOIN unit_batches ON unit_batches.id = prepares.unit_batch_id").
			Where("unit_batches.product_id = ?", filter.ProductID)
	}
	switch filter.Tab {
	case dto.TabToday:
		q = q.Where("prepare_date = CURRENT_DATE")
	case dto.TabHistory:
		q = q.Where("prepare_date < CURRENT_DATE")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("UnitBatch.Product").Preload("CreatedBy").Preload("CheckedBy").
		Order("prepare_date DESC, created_at DESC").
		Limit(filter.Limit).Offset(offset).Find(&prepares).Error
	return prepares, total, err
}

func (r *prepareRepo) SaveTx(tx *gorm.DB, p *model.Prepare) error {
	return tx.Save(p).Error
}

func (r *prepareRepo) ExistsForProductOnDate(ctx context.Context, productID uuid.UUID, date time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Prepare{}).
		Joins("JOIN unit_batches ON unit_batches.id = prepares.unit_batch_id").
		Where("unit_batches.product_id = ? AND prepares.prepare_date = ?", productID, date.Format("2006-01-02")).
		Count(&count).Error
	return count > 0, err
}

func (r *prepareRepo) CountIDsWithPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Prepare{}).
		Where("prepare_id LIKE ?", prefix+"%").Count(&count).Error
	return count, err
}

func (r *prepareRepo) FindIngredient(ctx context.Context, prepareID, ingredientID uuid.UUID) (*model.PrepareIngredient, error) {
	var ing model.PrepareIngredient
	err := r.db.WithContext(ctx).
		Where("id = ? AND prepare_id = ?", ingredientID, prepareID).
		First(&ing).Error
	return &ing, err
}

func (r *prepareRepo) SetIngredientCheckedTx(tx *gorm.DB, ingredientID uuid.UUID, checked bool) error {
	return tx.Model(&model.PrepareIngredient{}).
		Where("id = ?", ingredientID).Update("checked", checked).Error
}

func (r *prepareRepo) RecountCheckedTx(tx *gorm.DB, prepareID uuid.UUID) (int, error) {
	if err := tx.Model(&model.Prepare{}).Where("id = ?", prepareID).
		Update("checked_ingredients_count", gorm.Expr(
			"(SELECT COUNT(*) FROM prepare_ingredients WHERE prepare_id = ? AND checked = true)", prepareID,
		)).Error; err != nil {
		return 0, err
	}
	var count int
	err := tx.Model(&model.Prepare{}).Where("id = ?", prepareID).
		Pluck("checked_ingredients_count", &count).Error
	return count, err
}

func (r *prepareRepo) CancelOutdated(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&model.Prepare{}).
		Where("id IN ? AND status IN ?", ids, []string{model.PrepareUnchecked, model.PrepareChecking}).
		Updates(map[string]interface{}{"status": model.PrepareCancelled, "checked_by_id": nil})
	return res.RowsAffected, res.Error
}

func (r *prepareRepo) OutdatedBefore(ctx context.Context, day time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Prepare{}).
		Where("prepare_date < ? AND status IN ?", day.Format("2006-01-02"),
			[]string{model.PrepareUnchecked, model.PrepareChecking}).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *prepareRepo) DB() *gorm.DB { return r.db }
