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

type ProduceService interface {
	Get(ctx context.Context, id uuid.UUID) (*dto.ProduceResponse, error)
	List(ctx context.Context, filter dto.ProduceFilter) (*dto.ProduceListResponse, error)
	// StartProduction moves unproduce -> producing. Requires a completed
	// machine checklist.
	StartProduction(ctx context.Context, user *model.User, id uuid.UUID) (*dto.ProduceResponse, error)
	// CompleteProduction moves producing -> produced, releases the machine,
	// advances the batch to packing and creates its package record. The
	// batch expiry date is stamped from the product shelf life.
	CompleteProduction(ctx context.Context, user *model.User, id uuid.UUID) (*dto.ProduceResponse, error)
}

type produceService struct {
	repo     repository.ProduceRepository
	packages repository.PackageRepository
	batches  repository.UnitBatchRepository
	machines repository.MachineRepository
	ids      *IDGenerator
	clock    Clock
}

func NewProduceService(
	repo repository.ProduceRepository,
	packages repository.PackageRepository,
	batches repository.UnitBatchRepository,
	machines repository.MachineRepository,
	ids *IDGenerator,
	clock Clock,
) ProduceService {
	return &produceService{repo: repo, packages: packages, batches: batches, machines: machines, ids: ids, clock: clock}
}

func (s *produceService) Get(ctx context.Context, id uuid.UUID) (*dto.ProduceResponse, error) {
	produce, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("produce not found")
	}
	return produceToResponse(produce), nil
}

func (s *produceService) List(ctx context.Context, filter dto.ProduceFilter) (*dto.ProduceListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	produces, total, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("produce list failed")
		return nil, apierror.Internal("could not list produces")
	}
	data := make([]dto.ProduceResponse, 0, len(produces))
	for i := range produces {
		data = append(data, *produceToResponse(&produces[i]))
	}
	return &dto.ProduceListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *produceService) StartProduction(ctx context.Context, user *model.User, id uuid.UUID) (*dto.ProduceResponse, error) {
	if !user.CanEditProduces() {
		return nil, apierror.Unauthorized("testers may not drive production")
	}
	produce, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("produce not found")
	}
	if produce.Produced() {
		return nil, apierror.AlreadyCompleted("production is already finished")
	}
	if !produce.Unproduce() {
		return nil, apierror.InvalidTransition("production has already started")
	}
	if produce.MachineID == nil || !produce.MachineCheck {
		return nil, apierror.InvalidTransition("machine checklist must be completed before production starts")
	}

	produce.Status = model.ProduceProducing
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.repo.SaveTx(tx, produce)
	})
	if txErr != nil {
		log.Error().Err(txErr).Str("produce", produce.ProduceID).Msg("start production failed")
		return nil, apierror.Internal("could not start production")
	}
	return produceToResponse(produce), nil
}

func (s *produceService) CompleteProduction(ctx context.Context, user *model.User, id uuid.UUID) (*dto.ProduceResponse, error) {
	if !user.CanEditProduces() {
		return nil, apierror.Unauthorized("testers may not drive production")
	}
	produce, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("produce not found")
	}
	if produce.Produced() {
		return nil, apierror.AlreadyCompleted("production is already finished")
	}
	if !produce.Producing() {
		return nil, apierror.InvalidTransition("production has not started")
	}

	for attempt := 0; attempt < idGenAttempts; attempt++ {
		packageID, err := s.ids.NextPackageID(ctx, today(s.clock))
		if err != nil {
			return nil, apierror.Internal("could not allocate package id")
		}

		txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			produce.Status = model.ProduceProduced
			if err := s.repo.SaveTx(tx, produce); err != nil {
				return err
			}
			if produce.MachineID != nil {
				if err := s.machines.ReleaseTx(tx, *produce.MachineID); err != nil {
					return err
				}
			}
			if err := s.batches.UpdateStatusTx(tx, produce.UnitBatchID, model.BatchPacking); err != nil {
				return err
			}
			pkg := &model.Package{
				PackageID:   packageID,
				UnitBatchID: produce.UnitBatchID,
				PackageDate: today(s.clock),
				Status:      model.PackageUnpackage,
			}
			if err := s.packages.CreateTx(tx, pkg); err != nil {
				return err
			}
			if produce.UnitBatch != nil && produce.UnitBatch.Product != nil {
				if expiry := produce.UnitBatch.Product.ExpiryFrom(today(s.clock)); !expiry.IsZero() {
					if err := s.batches.UpdateExpiryTx(tx, produce.UnitBatchID, expiry); err != nil {
						return err
					}
				}
			}
			return nil
		})
		if txErr == nil {
			break
		}
		produce.Status = model.ProduceProducing
		if isDuplicate(txErr) && attempt < idGenAttempts-1 {
			continue
		}
		log.Error().Err(txErr).Str("produce", produce.ProduceID).Msg("complete production failed")
		return nil, apierror.Internal("could not complete production")
	}

	if produce.Machine != nil {
		produce.Machine.Status = model.MachineInactive
	}
	return produceToResponse(produce), nil
}

func produceToResponse(p *model.Produce) *dto.ProduceResponse {
	resp := &dto.ProduceResponse{
		ID:           p.ID.String(),
		ProduceID:    p.ProduceID,
		UnitBatchID:  p.UnitBatchID.String(),
		ProduceDate:  p.ProduceDate.Format("2006-01-02"),
		Status:       p.Status,
		MachineCheck: p.MachineCheck,
	}
	if p.UnitBatch != nil {
		resp.UnitID = p.UnitBatch.UnitID
		resp.BatchCode = p.UnitBatch.BatchCode
		if p.UnitBatch.Product != nil {
			resp.ProductName = p.UnitBatch.Product.Name
		}
	}
	if p.MachineID != nil {
		resp.MachineID = p.MachineID.String()
	}
	if p.Machine != nil {
		resp.MachineName = p.Machine.Name
	}
	return resp
}
