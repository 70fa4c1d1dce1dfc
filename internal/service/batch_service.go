package service

import (
	"context"

	"github.com/jusondac/factory-app/internal/apierror"
	"github.com/jusondac/factory-app/internal/dto"
	"github.com/jusondac/factory-app/internal/model"
	"github.com/jusondac/factory-app/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type BatchService interface {
	Create(ctx context.Context, user *model.User, req dto.CreateUnitBatchRequest) (*dto.UnitBatchResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.UnitBatchResponse, error)
	List(ctx context.Context, filter dto.BatchFilter) (*dto.UnitBatchListResponse, error)
	Remove(ctx context.Context, user *model.User, id uuid.UUID) error

	// Explicit phase moves for operators correcting the pipeline.
	// MoveToPrepare only backfills a missing preparation snapshot; forward
	// moves require the batch to be in the phase directly before the target
	// and create the missing phase record. Undo steps back one phase and
	// destroys the downstream record.
	MoveToPrepare(ctx context.Context, user *model.User, id uuid.UUID) (*dto.UnitBatchResponse, error)
	MoveToProduction(ctx context.Context, user *model.User, id uuid.UUID) (*dto.UnitBatchResponse, error)
	MoveToPackage(ctx context.Context, user *model.User, id uuid.UUID) (*dto.UnitBatchResponse, error)
	Undo(ctx context.Context, user *model.User, id uuid.UUID) (*dto.UnitBatchResponse, error)
}

type batchService struct {
	repo     repository.UnitBatchRepository
	prepares repository.PrepareRepository
	produces repository.ProduceRepository
	packages repository.PackageRepository
	products repository.ProductRepository
	machines repository.MachineRepository
	ids      *IDGenerator
	clock    Clock
}

func NewBatchService(
	repo repository.UnitBatchRepository,
	prepares repository.PrepareRepository,
	produces repository.ProduceRepository,
	packages repository.PackageRepository,
	products repository.ProductRepository,
	machines repository.MachineRepository,
	ids *IDGenerator,
	clock Clock,
) BatchService {
	return &batchService{
		repo: repo, prepares: prepares, produces: produces, packages: packages,
		products: products, machines: machines, ids: ids, clock: clock,
	}
}

// Create starts a full production run: unit batch with batch code, plus the
// preparation snapshot dated today. One preparation per product per date
// still holds on this path.
func (s *batchService) Create(ctx context.Context, user *model.User, req dto.CreateUnitBatchRequest) (*dto.UnitBatchResponse, error) {
	if !user.CanCreatePrepares() {
		return nil, apierror.Unauthorized("only supervisors and above may create batches")
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, apierror.Validation(map[string]string{"product_id": "must be a valid uuid"})
	}
	if !model.ValidShift(req.Shift) || !model.ValidPackageType(req.PackageType) {
		return nil, apierror.Validation(map[string]string{"shift": "invalid shift or package type"})
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, apierror.NotFound("product not found")
	}
	if len(product.Ingredients) == 0 {
		return nil, apierror.Validation(map[string]string{"product_id": "product has no ingredients to prepare"})
	}

	day := today(s.clock)
	exists, err := s.prepares.ExistsForProductOnDate(ctx, productID, day)
	if err != nil {
		log.Error().Err(err).Msg("prepare duplicate check failed")
		return nil, apierror.Internal("could not verify existing preparations")
	}
	if exists {
		return nil, apierror.New(apierror.KindDuplicatePreparation,
			"a preparation for this product already exists today")
	}

	var batch model.UnitBatch
	for attempt := 0; attempt < idGenAttempts; attempt++ {
		unitID, err := s.ids.NextUnitID(ctx, day)
		if err != nil {
			return nil, apierror.Internal("could not allocate unit id")
		}
		batchCode, err := s.ids.NextBatchCode(ctx, product.ProductCode, day, model.ShiftLetter(req.Shift))
		if err != nil {
			return nil, apierror.Internal("could not allocate batch code")
		}
		prepareID, err := s.ids.NextPrepareID(ctx, day)
		if err != nil {
			return nil, apierror.Internal("could not allocate prepare id")
		}

		batch = model.UnitBatch{
			UnitID:      unitID,
			BatchCode:   batchCode,
			ProductID:   product.ID,
			Quantity:    req.Quantity,
			PackageType: req.PackageType,
			Shift:       req.Shift,
			Status:      model.BatchPreparation,
		}

		txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			if err := s.repo.CreateTx(tx, &batch); err != nil {
				return err
			}
			prepare := model.Prepare{
				PrepareID:               prepareID,
				UnitBatchID:             batch.ID,
				PrepareDate:             day,
				Status:                  model.PrepareUnchecked,
				CreatedByID:             user.ID,
				PrepareIngredientsCount: len(product.Ingredients),
			}
			if err := s.prepares.CreateTx(tx, &prepare); err != nil {
				return err
			}
			rows := make([]model.PrepareIngredient, 0, len(product.Ingredients))
			for _, ing := range product.Ingredients {
				rows = append(rows, model.PrepareIngredient{
					PrepareID:      prepare.ID,
					IngredientName: ing.Name,
				})
			}
			if err := s.prepares.CreateIngredientsTx(tx, rows); err != nil {
				return err
			}
			batch.Prepare = &prepare
			return nil
		})
		if txErr == nil {
			break
		}
		if isDuplicate(txErr) && attempt < idGenAttempts-1 {
			continue
		}
		log.Error().Err(txErr).Str("product_id", req.ProductID).Msg("batch creation failed")
		return nil, apierror.Internal("could not create batch")
	}

	batch.Product = product
	return batchToResponse(&batch), nil
}

func (s *batchService) Get(ctx context.Context, id uuid.UUID) (*dto.UnitBatchResponse, error) {
	batch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("batch not found")
	}
	return batchToResponse(batch), nil
}

func (s *batchService) List(ctx context.Context, filter dto.BatchFilter) (*dto.UnitBatchListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	batches, total, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("batch list failed")
		return nil, apierror.Internal("could not list batches")
	}
	data := make([]dto.UnitBatchResponse, 0, len(batches))
	for i := range batches {
		data = append(data, *batchToResponse(&batches[i]))
	}
	return &dto.UnitBatchListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *batchService) Remove(ctx context.Context, user *model.User, id uuid.UUID) error {
	if !user.IsManager() && !user.IsHead() {
		return apierror.Unauthorized("only managers may delete batches")
	}
	batch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return apierror.NotFound("batch not found")
	}
	// Machines held by in-flight phases must go back to the pool before the
	// phase records cascade away.
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if batch.Produce != nil && batch.Produce.MachineID != nil && !batch.Produce.Produced() {
			if err := s.machines.ReleaseTx(tx, *batch.Produce.MachineID); err != nil {
				return err
			}
		}
		if batch.Package != nil && batch.Package.MachineID != nil && !batch.Package.Packaged() {
			if err := s.machines.ReleaseTx(tx, *batch.Package.MachineID); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		log.Error().Err(txErr).Str("unit", batch.UnitID).Msg("batch machine release failed")
		return apierror.Internal("could not delete batch")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		log.Error().Err(err).Str("unit", batch.UnitID).Msg("batch delete failed")
		return apierror.Internal("could not delete batch")
	}
	return nil
}

// MoveToPrepare backfills the preparation snapshot for a batch that is
// missing one. It never changes the batch's phase; stepping back is Undo's
// job. A batch that already has a prepare is a no-op.
func (s *batchService) MoveToPrepare(ctx context.Context, user *model.User, id uuid.UUID) (*dto.UnitBatchResponse, error) {
	if !user.CanCreatePrepares() {
		return nil, apierror.Unauthorized("only supervisors and above may move batches")
	}
	batch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("batch not found")
	}
	if batch.Prepare != nil {
		return batchToResponse(batch), nil
	}
	product, err := s.products.FindByID(ctx, batch.ProductID)
	if err != nil {
		return nil, apierror.NotFound("product not found")
	}

	for attempt := 0; attempt < idGenAttempts; attempt++ {
		txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			prepareID, err := s.ids.NextPrepareID(ctx, today(s.clock))
			if err != nil {
				return err
			}
			prepare := model.Prepare{
				PrepareID:               prepareID,
				UnitBatchID:             batch.ID,
				PrepareDate:             today(s.clock),
				Status:                  model.PrepareUnchecked,
				CreatedByID:             user.ID,
				PrepareIngredientsCount: len(product.Ingredients),
			}
			if err := s.prepares.CreateTx(tx, &prepare); err != nil {
				return err
			}
			rows := make([]model.PrepareIngredient, 0, len(product.Ingredients))
			for _, ing := range product.Ingredients {
				rows = append(rows, model.PrepareIngredient{PrepareID: prepare.ID, IngredientName: ing.Name})
			}
			if err := s.prepares.CreateIngredientsTx(tx, rows); err != nil {
				return err
			}
			batch.Prepare = &prepare
			return nil
		})
		if txErr == nil {
			break
		}
		if isDuplicate(txErr) && attempt < idGenAttempts-1 {
			continue
		}
		log.Error().Err(txErr).Str("unit", batch.UnitID).Msg("move to prepare failed")
		return nil, apierror.Internal("could not move batch")
	}
	return batchToResponse(batch), nil
}

func (s *batchService) MoveToProduction(ctx context.Context, user *model.User, id uuid.UUID) (*dto.UnitBatchResponse, error) {
	if !user.CanCreatePrepares() {
		return nil, apierror.Unauthorized("only supervisors and above may move batches")
	}
	batch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("batch not found")
	}
	if batch.InProduction() {
		return nil, apierror.InvalidTransition("batch is already in production")
	}
	if !batch.InPreparation() {
		return nil, apierror.InvalidTransition("only a batch in preparation may move to production")
	}
	if batch.Prepare == nil || !batch.Prepare.Checked() {
		return nil, apierror.InvalidTransition("preparation must be checked before production")
	}

	for attempt := 0; attempt < idGenAttempts; attempt++ {
		txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			if batch.Produce == nil {
				produceID, err := s.ids.NextProduceID(ctx, today(s.clock))
				if err != nil {
					return err
				}
				produce := model.Produce{
					ProduceID:   produceID,
					UnitBatchID: batch.ID,
					ProduceDate: today(s.clock),
					Status:      model.ProduceUnproduce,
				}
				if err := s.produces.CreateTx(tx, &produce); err != nil {
					return err
				}
				batch.Produce = &produce
			}
			batch.Status = model.BatchProduction
			return s.repo.UpdateStatusTx(tx, batch.ID, model.BatchProduction)
		})
		if txErr == nil {
			break
		}
		if isDuplicate(txErr) && attempt < idGenAttempts-1 {
			continue
		}
		log.Error().Err(txErr).Str("unit", batch.UnitID).Msg("move to production failed")
		return nil, apierror.Internal("could not move batch")
	}
	return batchToResponse(batch), nil
}

func (s *batchService) MoveToPackage(ctx context.Context, user *model.User, id uuid.UUID) (*dto.UnitBatchResponse, error) {
	if !user.CanCreatePrepares() {
		return nil, apierror.Unauthorized("only supervisors and above may move batches")
	}
	batch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("batch not found")
	}
	if batch.InPacking() {
		return nil, apierror.InvalidTransition("batch is already in packing")
	}
	if !batch.InProduction() {
		return nil, apierror.InvalidTransition("only a batch in production may move to packing")
	}

	for attempt := 0; attempt < idGenAttempts; attempt++ {
		txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			if batch.Package == nil {
				packageID, err := s.ids.NextPackageID(ctx, today(s.clock))
				if err != nil {
					return err
				}
				pkg := model.Package{
					PackageID:   packageID,
					UnitBatchID: batch.ID,
					PackageDate: today(s.clock),
					Status:      model.PackageUnpackage,
				}
				if err := s.packages.CreateTx(tx, &pkg); err != nil {
					return err
				}
				batch.Package = &pkg
				if batch.Product != nil {
					if expiry := batch.Product.ExpiryFrom(today(s.clock)); !expiry.IsZero() {
						if err := s.repo.UpdateExpiryTx(tx, batch.ID, expiry); err != nil {
							return err
						}
						batch.ExpiryDate = &expiry
					}
				}
			}
			batch.Status = model.BatchPacking
			return s.repo.UpdateStatusTx(tx, batch.ID, model.BatchPacking)
		})
		if txErr == nil {
			break
		}
		if isDuplicate(txErr) && attempt < idGenAttempts-1 {
			continue
		}
		log.Error().Err(txErr).Str("unit", batch.UnitID).Msg("move to package failed")
		return nil, apierror.Internal("could not move batch")
	}
	return batchToResponse(batch), nil
}

// Undo steps the batch back one phase and destroys the downstream record,
// releasing any machine it held. A batch in preparation has nothing to undo.
func (s *batchService) Undo(ctx context.Context, user *model.User, id uuid.UUID) (*dto.UnitBatchResponse, error) {
	if !user.CanCreatePrepares() {
		return nil, apierror.Unauthorized("only supervisors and above may undo batch phases")
	}
	batch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("batch not found")
	}

	switch batch.Status {
	case model.BatchPacking:
		txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			if batch.Package != nil && batch.Package.MachineID != nil {
				if err := s.machines.ReleaseTx(tx, *batch.Package.MachineID); err != nil {
					return err
				}
			}
			if err := s.packages.DeleteByUnitBatchTx(tx, batch.ID); err != nil {
				return err
			}
			return s.repo.UpdateStatusTx(tx, batch.ID, model.BatchProduction)
		})
		if txErr != nil {
			log.Error().Err(txErr).Str("unit", batch.UnitID).Msg("undo packing failed")
			return nil, apierror.Internal("could not undo batch phase")
		}
		batch.Status = model.BatchProduction
		batch.Package = nil

	case model.BatchProduction, model.BatchTesting:
		txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			if batch.Produce != nil && batch.Produce.MachineID != nil {
				if err := s.machines.ReleaseTx(tx, *batch.Produce.MachineID); err != nil {
					return err
				}
			}
			if err := s.produces.DeleteByUnitBatchTx(tx, batch.ID); err != nil {
				return err
			}
			return s.repo.UpdateStatusTx(tx, batch.ID, model.BatchPreparation)
		})
		if txErr != nil {
			log.Error().Err(txErr).Str("unit", batch.UnitID).Msg("undo production failed")
			return nil, apierror.Internal("could not undo batch phase")
		}
		batch.Status = model.BatchPreparation
		batch.Produce = nil

	default:
		return nil, apierror.InvalidTransition("nothing to undo from this phase")
	}

	return batchToResponse(batch), nil
}

func batchToResponse(b *model.UnitBatch) *dto.UnitBatchResponse {
	resp := &dto.UnitBatchResponse{
		ID:          b.ID.String(),
		UnitID:      b.UnitID,
		BatchCode:   b.BatchCode,
		Status:      b.Status,
		Quantity:    b.Quantity,
		PackageType: b.PackageType,
		Shift:       b.Shift,
		HasPrepare:  b.Prepare != nil,
		HasProduce:  b.Produce != nil,
		HasPackage:  b.Package != nil,
		CreatedAt:   b.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if b.Product != nil {
		resp.ProductName = b.Product.Name
	}
	if b.ExpiryDate != nil {
		expiry := b.ExpiryDate.Format("2006-01-02")
		resp.ExpiryDate = &expiry
	}
	return resp
}
