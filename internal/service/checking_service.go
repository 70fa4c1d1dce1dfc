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

// CheckingService drives the ingredient checklist of a preparation: claiming
// it, toggling rows, and the completion chain that advances the batch into
// production.
type CheckingService interface {
	StartChecking(ctx context.Context, user *model.User, prepareID uuid.UUID) (*dto.PrepareResponse, error)
	CancelChecking(ctx context.Context, user *model.User, prepareID uuid.UUID) (*dto.PrepareResponse, error)
	ToggleIngredient(ctx context.Context, user *model.User, prepareID, ingredientID uuid.UUID, checked bool) (*dto.ToggleResult, error)
	CompleteChecking(ctx context.Context, user *model.User, prepareID uuid.UUID) (*dto.ToggleResult, error)
}

type checkingService struct {
	repo     repository.PrepareRepository
	batches  repository.UnitBatchRepository
	produces repository.ProduceRepository
	ids      *IDGenerator
	clock    Clock
}

func NewCheckingService(
	repo repository.PrepareRepository,
	batches repository.UnitBatchRepository,
	produces repository.ProduceRepository,
	ids *IDGenerator,
	clock Clock,
) CheckingService {
	return &checkingService{repo: repo, batches: batches, produces: produces, ids: ids, clock: clock}
}

// StartChecking claims a preparation for the calling worker. A preparation
// already under checking may be taken over by another worker; only checked
// and cancelled ones are off limits.
func (s *checkingService) StartChecking(ctx context.Context, user *model.User, prepareID uuid.UUID) (*dto.PrepareResponse, error) {
	prepare, err := s.repo.FindByID(ctx, prepareID)
	if err != nil {
		return nil, apierror.NotFound("preparation not found")
	}
	if prepare.Checked() {
		return nil, apierror.AlreadyCompleted("preparation is already checked")
	}
	if !prepare.CanBeCheckedBy(user) {
		return nil, apierror.Unauthorized("only workers may check preparations")
	}

	prepare.Status = model.PrepareChecking
	uid := user.ID
	prepare.CheckedByID = &uid
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.repo.SaveTx(tx, prepare)
	})
	if txErr != nil {
		log.Error().Err(txErr).Str("prepare", prepare.PrepareID).Msg("start checking failed")
		return nil, apierror.Internal("could not start checking")
	}
	prepare.CheckedBy = user
	return prepareToResponse(prepare), nil
}

// CancelChecking abandons a claimed preparation and cancels its unit batch.
// Only the worker currently holding the checklist may cancel.
func (s *checkingService) CancelChecking(ctx context.Context, user *model.User, prepareID uuid.UUID) (*dto.PrepareResponse, error) {
	prepare, err := s.repo.FindByID(ctx, prepareID)
	if err != nil {
		return nil, apierror.NotFound("preparation not found")
	}
	if prepare.Checked() {
		return nil, apierror.AlreadyCompleted("preparation is already checked")
	}
	if prepare.Cancelled() {
		return nil, apierror.InvalidTransition("preparation is already cancelled")
	}
	if !prepare.Checking() {
		return nil, apierror.InvalidTransition("preparation has not been claimed for checking")
	}
	if !user.CanCheckPrepares() || prepare.CheckedByID == nil || *prepare.CheckedByID != user.ID {
		return nil, apierror.Unauthorized("only the claiming worker may cancel this preparation")
	}

	prepare.Status = model.PrepareCancelled
	prepare.CheckedByID = nil
	prepare.CheckedBy = nil
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.SaveTx(tx, prepare); err != nil {
			return err
		}
		return s.batches.UpdateStatusTx(tx, prepare.UnitBatchID, model.BatchCancelled)
	})
	if txErr != nil {
		log.Error().Err(txErr).Str("prepare", prepare.PrepareID).Msg("cancel checking failed")
		return nil, apierror.Internal("could not cancel preparation")
	}
	if prepare.UnitBatch != nil {
		prepare.UnitBatch.Status = model.BatchCancelled
	}
	return prepareToResponse(prepare), nil
}

// ToggleIngredient flips one checklist row and recounts the parent counter in
// the same transaction. A toggle on an unchecked preparation claims it first.
// Checking the final row completes the preparation: the batch advances to
// production and its produce record is created, still inside the transaction.
func (s *checkingService) ToggleIngredient(ctx context.Context, user *model.User, prepareID, ingredientID uuid.UUID, checked bool) (*dto.ToggleResult, error) {
	prepare, err := s.repo.FindByID(ctx, prepareID)
	if err != nil {
		return nil, apierror.NotFound("preparation not found")
	}
	if prepare.Checked() {
		return nil, apierror.AlreadyCompleted("preparation is already checked")
	}
	if !prepare.CanBeCheckedBy(user) {
		return nil, apierror.Unauthorized("only workers may check preparations")
	}
	if prepare.Checking() && (prepare.CheckedByID == nil || *prepare.CheckedByID != user.ID) {
		return nil, apierror.Unauthorized("preparation is claimed by another worker")
	}
	if prepare.Cancelled() {
		return nil, apierror.InvalidTransition("preparation is cancelled")
	}
	if _, err := s.repo.FindIngredient(ctx, prepareID, ingredientID); err != nil {
		return nil, apierror.NotFound("ingredient not found on this preparation")
	}

	result := &dto.ToggleResult{State: "in_progress"}

	for attempt := 0; attempt < idGenAttempts; attempt++ {
		var produce model.Produce
		completed := false

		txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			if prepare.Unchecked() {
				prepare.Status = model.PrepareChecking
				uid := user.ID
				prepare.CheckedByID = &uid
				prepare.CheckedBy = user
				if err := s.repo.SaveTx(tx, prepare); err != nil {
					return err
				}
			}
			if err := s.repo.SetIngredientCheckedTx(tx, ingredientID, checked); err != nil {
				return err
			}
			count, err := s.repo.RecountCheckedTx(tx, prepareID)
			if err != nil {
				return err
			}
			prepare.CheckedIngredientsCount = count

			if !prepare.AllIngredientsChecked() {
				return nil
			}
			completed = true
			prepare.Status = model.PrepareChecked
			if err := s.repo.SaveTx(tx, prepare); err != nil {
				return err
			}
			p, err := s.createProduceTx(ctx, tx, prepare.UnitBatchID)
			if err != nil {
				return err
			}
			produce = *p
			return nil
		})
		if txErr == nil {
			if completed {
				result.State = "completed"
				result.ProduceID = produce.ProduceID
			}
			break
		}
		if isDuplicate(txErr) && attempt < idGenAttempts-1 {
			continue
		}
		log.Error().Err(txErr).Str("prepare", prepare.PrepareID).Msg("ingredient toggle failed")
		return nil, apierror.Internal("could not update ingredient")
	}

	// Reflect the toggle in the preloaded rows for the response.
	for i := range prepare.Ingredients {
		if prepare.Ingredients[i].ID == ingredientID {
			prepare.Ingredients[i].Checked = checked
		}
	}
	result.Prepare = *prepareToResponse(prepare)
	return result, nil
}

// CompleteChecking force-finishes a preparation whose rows are all checked.
// It exists for recovery when the completion chain did not run on the final
// toggle; completing with unchecked rows remains impossible.
func (s *checkingService) CompleteChecking(ctx context.Context, user *model.User, prepareID uuid.UUID) (*dto.ToggleResult, error) {
	prepare, err := s.repo.FindByID(ctx, prepareID)
	if err != nil {
		return nil, apierror.NotFound("preparation not found")
	}
	if prepare.Checked() {
		return nil, apierror.AlreadyCompleted("preparation is already checked")
	}
	if !prepare.CanBeCheckedBy(user) {
		return nil, apierror.Unauthorized("only workers may check preparations")
	}
	if prepare.Checking() && (prepare.CheckedByID == nil || *prepare.CheckedByID != user.ID) {
		return nil, apierror.Unauthorized("preparation is claimed by another worker")
	}
	if !prepare.AllIngredientsChecked() {
		return nil, apierror.InvalidTransition("not every ingredient is checked")
	}

	result := &dto.ToggleResult{State: "completed"}
	for attempt := 0; attempt < idGenAttempts; attempt++ {
		var produce model.Produce
		txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			prepare.Status = model.PrepareChecked
			if err := s.repo.SaveTx(tx, prepare); err != nil {
				return err
			}
			p, err := s.createProduceTx(ctx, tx, prepare.UnitBatchID)
			if err != nil {
				return err
			}
			produce = *p
			return nil
		})
		if txErr == nil {
			result.ProduceID = produce.ProduceID
			break
		}
		if isDuplicate(txErr) && attempt < idGenAttempts-1 {
			continue
		}
		log.Error().Err(txErr).Str("prepare", prepare.PrepareID).Msg("complete checking failed")
		return nil, apierror.Internal("could not complete preparation")
	}
	result.Prepare = *prepareToResponse(prepare)
	return result, nil
}

// createProduceTx advances the batch into production and creates its produce
// record dated today.
func (s *checkingService) createProduceTx(ctx context.Context, tx *gorm.DB, unitBatchID uuid.UUID) (*model.Produce, error) {
	if err := s.batches.UpdateStatusTx(tx, unitBatchID, model.BatchProduction); err != nil {
		return nil, err
	}
	produceID, err := s.ids.NextProduceID(ctx, today(s.clock))
	if err != nil {
		return nil, err
	}
	produce := &model.Produce{
		ProduceID:   produceID,
		UnitBatchID: unitBatchID,
		ProduceDate: today(s.clock),
		Status:      model.ProduceUnproduce,
	}
	if err := s.produces.CreateTx(tx, produce); err != nil {
		return nil, err
	}
	return produce, nil
}
