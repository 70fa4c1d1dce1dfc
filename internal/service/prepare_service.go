package service

import (
	"context"
	"time"

	"github.com/jusondac/factory-app/internal/apierror"
	"github.com/jusondac/factory-app/internal/dto"
	"github.com/jusondac/factory-app/internal/model"
	"github.com/jusondac/factory-app/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type PrepareService interface {
	Create(ctx context.Context, user *model.User, req dto.CreatePrepareRequest) (*dto.PrepareResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.PrepareResponse, error)
	List(ctx context.Context, filter dto.PrepareFilter) (*dto.PrepareListResponse, error)
	// CancelOutdated is the sweep entry point: it cancels every unchecked or
	// checking preparation whose date has passed. Called inline before each
	// list and periodically by the background worker.
	CancelOutdated(ctx context.Context) (int64, error)
}

type prepareService struct {
	repo     repository.PrepareRepository
	batches  repository.UnitBatchRepository
	products repository.ProductRepository
	ids      *IDGenerator
	clock    Clock
}

func NewPrepareService(
	repo repository.PrepareRepository,
	batches repository.UnitBatchRepository,
	products repository.ProductRepository,
	ids *IDGenerator,
	clock Clock,
) PrepareService {
	return &prepareService{repo: repo, batches: batches, products: products, ids: ids, clock: clock}
}

// Create plans a preparation for a product on a date. It creates the backing
// unit batch and snapshots the product recipe into checklist rows, all in one
// transaction. One preparation per product per date.
func (s *prepareService) Create(ctx context.Context, user *model.User, req dto.CreatePrepareRequest) (*dto.PrepareResponse, error) {
	if !user.CanCreatePrepares() {
		return nil, apierror.Unauthorized("only supervisors and above may plan preparations")
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, apierror.Validation(map[string]string{"product_id": "must be a valid uuid"})
	}
	prepareDate, err := time.ParseInLocation("2006-01-02", req.PrepareDate, s.clock.Now().Location())
	if err != nil {
		return nil, apierror.Validation(map[string]string{"prepare_date": "must be YYYY-MM-DD"})
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, apierror.NotFound("product not found")
	}
	if len(product.Ingredients) == 0 {
		return nil, apierror.Validation(map[string]string{"product_id": "product has no ingredients to prepare"})
	}

	exists, err := s.repo.ExistsForProductOnDate(ctx, productID, prepareDate)
	if err != nil {
		log.Error().Err(err).Msg("prepare duplicate check failed")
		return nil, apierror.Internal("could not verify existing preparations")
	}
	if exists {
		return nil, apierror.New(apierror.KindDuplicatePreparation,
			"a preparation for this product already exists on this date")
	}

	var prepare model.Prepare
	var batch model.UnitBatch

	// Unit and prepare IDs are count-then-format; the unique index breaks
	// ties between concurrent creators, so retry on a duplicate key.
	for attempt := 0; attempt < idGenAttempts; attempt++ {
		unitID, err := s.ids.NextUnitID(ctx, today(s.clock))
		if err != nil {
			return nil, apierror.Internal("could not allocate unit id")
		}
		prepareID, err := s.ids.NextPrepareID(ctx, prepareDate)
		if err != nil {
			return nil, apierror.Internal("could not allocate prepare id")
		}

		batch = model.UnitBatch{
			UnitID:    unitID,
			ProductID: product.ID,
			Status:    model.BatchPreparation,
		}
		prepare = model.Prepare{
			PrepareID:               prepareID,
			PrepareDate:             prepareDate,
			Status:                  model.PrepareUnchecked,
			CreatedByID:             user.ID,
			PrepareIngredientsCount: len(product.Ingredients),
		}
		if req.Notes != "" {
			notes := req.Notes
			prepare.Notes = &notes
		}

		txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			if err := s.batches.CreateTx(tx, &batch); err != nil {
				return err
			}
			prepare.UnitBatchID = batch.ID
			if err := s.repo.CreateTx(tx, &prepare); err != nil {
				return err
			}
			rows := make([]model.PrepareIngredient, 0, len(product.Ingredients))
			for _, ing := range product.Ingredients {
				rows = append(rows, model.PrepareIngredient{
					PrepareID:      prepare.ID,
					IngredientName: ing.Name,
				})
			}
			return s.repo.CreateIngredientsTx(tx, rows)
		})
		if txErr == nil {
			break
		}
		if isDuplicate(txErr) && attempt < idGenAttempts-1 {
			continue
		}
		log.Error().Err(txErr).Str("product_id", req.ProductID).Msg("prepare creation failed")
		return nil, apierror.Internal("could not create preparation")
	}

	prepare.UnitBatch = &batch
	batch.Product = product
	return prepareToResponse(&prepare), nil
}

func (s *prepareService) Get(ctx context.Context, id uuid.UUID) (*dto.PrepareResponse, error) {
	prepare, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("preparation not found")
	}
	return prepareToResponse(prepare), nil
}

// List sweeps stale preparations before querying so callers never see an
// expired row as still pending.
func (s *prepareService) List(ctx context.Context, filter dto.PrepareFilter) (*dto.PrepareListResponse, error) {
	cancelled, err := s.CancelOutdated(ctx)
	if err != nil {
		// Listing still works with stale rows; the periodic sweep will retry.
		log.Warn().Err(err).Msg("inline prepare sweep failed")
		cancelled = 0
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	prepares, total, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("prepare list failed")
		return nil, apierror.Internal("could not list preparations")
	}

	data := make([]dto.PrepareResponse, 0, len(prepares))
	for i := range prepares {
		data = append(data, *prepareToResponse(&prepares[i]))
	}
	return &dto.PrepareListResponse{
		Data:          data,
		Total:         total,
		Page:          filter.Page,
		Limit:         filter.Limit,
		AutoCancelled: int(cancelled),
	}, nil
}

func (s *prepareService) CancelOutdated(ctx context.Context) (int64, error) {
	ids, err := s.repo.OutdatedBefore(ctx, today(s.clock))
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	cancelled, err := s.repo.CancelOutdated(ctx, ids)
	if err != nil {
		return 0, err
	}
	if cancelled > 0 {
		log.Info().Int64("cancelled", cancelled).Msg("stale preparations auto-cancelled")
	}
	return cancelled, nil
}

func prepareToResponse(p *model.Prepare) *dto.PrepareResponse {
	resp := &dto.PrepareResponse{
		ID:          p.ID.String(),
		PrepareID:   p.PrepareID,
		UnitBatchID: p.UnitBatchID.String(),
		PrepareDate: p.PrepareDate.Format("2006-01-02"),
		Status:      p.Status,
		Progress:    p.CheckingProgress(),
		Percentage:  p.CheckingPercentage(),
		Notes:       p.Notes,
	}
	if p.UnitBatch != nil {
		resp.UnitID = p.UnitBatch.UnitID
		if p.UnitBatch.Product != nil {
			resp.ProductName = p.UnitBatch.Product.Name
		}
	}
	if p.CreatedBy != nil {
		resp.CreatedBy = p.CreatedBy.Name
	}
	if p.CheckedBy != nil {
		resp.CheckedBy = p.CheckedBy.Name
	}
	for _, ing := range p.Ingredients {
		resp.Ingredients = append(resp.Ingredients, dto.PrepareIngredientResponse{
			ID:      ing.ID.String(),
			Name:    ing.IngredientName,
			Checked: ing.Checked,
		})
	}
	return resp
}
