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

type MachineService interface {
	Create(ctx context.Context, user *model.User, req dto.CreateMachineRequest) (*dto.MachineResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.MachineResponse, error)
	List(ctx context.Context, filter dto.MachineFilter) ([]dto.MachineResponse, error)
	Update(ctx context.Context, user *model.User, id uuid.UUID, req dto.UpdateMachineRequest) (*dto.MachineResponse, error)
	Delete(ctx context.Context, user *model.User, id uuid.UUID) error

	// SelectProduceMachine reserves a production machine for a produce. A
	// swap releases the prior machine and discards its checklist answers.
	SelectProduceMachine(ctx context.Context, user *model.User, produceID uuid.UUID, req dto.SelectMachineRequest) (*dto.ProduceResponse, error)
	SelectPackageMachine(ctx context.Context, user *model.User, packageID uuid.UUID, req dto.SelectMachineRequest) (*dto.PackageResponse, error)
}

type machineService struct {
	repo     repository.MachineRepository
	produces repository.ProduceRepository
	packages repository.PackageRepository
	batches  repository.UnitBatchRepository
}

func NewMachineService(
	repo repository.MachineRepository,
	produces repository.ProduceRepository,
	packages repository.PackageRepository,
	batches repository.UnitBatchRepository,
) MachineService {
	return &machineService{repo: repo, produces: produces, packages: packages, batches: batches}
}

func (s *machineService) Create(ctx context.Context, user *model.User, req dto.CreateMachineRequest) (*dto.MachineResponse, error) {
	if !user.CanManageMachines() {
		return nil, apierror.Unauthorized("only managers may manage machines")
	}

	machine := &model.Machine{
		Name:       req.Name,
		Status:     model.MachineInactive,
		Allocation: req.Allocation,
		Line:       req.Line,
	}
	for _, c := range req.Checkings {
		machine.Checkings = append(machine.Checkings, model.MachineChecking{
			Name:  c.Name,
			Type:  c.Type,
			Value: c.Value,
		})
	}

	for attempt := 0; attempt < idGenAttempts; attempt++ {
		serial, err := NewSerialNumber()
		if err != nil {
			return nil, apierror.Internal("could not generate serial number")
		}
		machine.SerialNumber = serial
		err = s.repo.Create(ctx, machine)
		if err == nil {
			return machineToResponse(machine), nil
		}
		if isDuplicate(err) && attempt < idGenAttempts-1 {
			continue
		}
		log.Error().Err(err).Msg("machine creation failed")
		return nil, apierror.Internal("could not create machine")
	}
	return nil, apierror.Internal("could not create machine")
}

func (s *machineService) Get(ctx context.Context, id uuid.UUID) (*dto.MachineResponse, error) {
	machine, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("machine not found")
	}
	return machineToResponse(machine), nil
}

func (s *machineService) List(ctx context.Context, filter dto.MachineFilter) ([]dto.MachineResponse, error) {
	machines, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("machine list failed")
		return nil, apierror.Internal("could not list machines")
	}
	resp := make([]dto.MachineResponse, 0, len(machines))
	for i := range machines {
		resp = append(resp, *machineToResponse(&machines[i]))
	}
	return resp, nil
}

func (s *machineService) Update(ctx context.Context, user *model.User, id uuid.UUID, req dto.UpdateMachineRequest) (*dto.MachineResponse, error) {
	if !user.CanManageMachines() {
		return nil, apierror.Unauthorized("only managers may manage machines")
	}
	machine, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("machine not found")
	}
	if req.Name != nil {
		machine.Name = *req.Name
	}
	if req.Allocation != nil {
		machine.Allocation = *req.Allocation
	}
	if req.Line != nil {
		machine.Line = *req.Line
	}
	if req.Status != nil {
		machine.Status = *req.Status
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if req.Checkings != nil {
			checkings := make([]model.MachineChecking, 0, len(*req.Checkings))
			for _, c := range *req.Checkings {
				checkings = append(checkings, model.MachineChecking{
					MachineID: machine.ID,
					Name:      c.Name,
					Type:      c.Type,
					Value:     c.Value,
				})
			}
			if err := s.repo.ReplaceCheckingsTx(tx, machine.ID, checkings); err != nil {
				return err
			}
			machine.Checkings = checkings
		}
		return s.repo.SaveTx(tx, machine)
	})
	if txErr != nil {
		log.Error().Err(txErr).Str("machine_id", id.String()).Msg("machine update failed")
		return nil, apierror.Internal("could not update machine")
	}
	return machineToResponse(machine), nil
}

func (s *machineService) Delete(ctx context.Context, user *model.User, id uuid.UUID) error {
	if !user.CanManageMachines() {
		return apierror.Unauthorized("only managers may manage machines")
	}
	machine, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return apierror.NotFound("machine not found")
	}
	if machine.Active() {
		return apierror.InvalidTransition("machine is currently assigned to a batch")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		log.Error().Err(err).Str("machine_id", id.String()).Msg("machine delete failed")
		return apierror.Internal("could not delete machine")
	}
	return nil
}

func (s *machineService) SelectProduceMachine(ctx context.Context, user *model.User, produceID uuid.UUID, req dto.SelectMachineRequest) (*dto.ProduceResponse, error) {
	if !user.CanEditProduces() {
		return nil, apierror.Unauthorized("testers may not drive production")
	}
	produce, err := s.produces.FindByID(ctx, produceID)
	if err != nil {
		return nil, apierror.NotFound("produce not found")
	}
	if produce.MachineCheck {
		return nil, apierror.AlreadyCompleted("machine checklist is already completed")
	}
	machineID, err := uuid.Parse(req.MachineID)
	if err != nil {
		return nil, apierror.Validation(map[string]string{"machine_id": "must be a valid uuid"})
	}
	if produce.MachineID != nil && *produce.MachineID == machineID {
		return produceToResponse(produce), nil
	}
	machine, err := s.repo.FindByID(ctx, machineID)
	if err != nil {
		return nil, apierror.NotFound("machine not found")
	}
	if machine.Allocation != model.AllocationProduction {
		return nil, apierror.MachineUnavailable("machine is not allocated for production")
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		reserved, err := s.repo.ReserveTx(tx, machineID)
		if err != nil {
			return err
		}
		if !reserved {
			return apierror.MachineUnavailable("machine is busy or under maintenance")
		}
		// A swap invalidates the prior machine's checklist answers and
		// returns the machine to the pool.
		if produce.MachineID != nil {
			if err := s.produces.DeleteChecksTx(tx, produce.ID); err != nil {
				return err
			}
			if err := s.repo.ReleaseTx(tx, *produce.MachineID); err != nil {
				return err
			}
		}
		if err := s.produces.AssignMachineTx(tx, produce.ID, machineID); err != nil {
			return err
		}
		produce.MachineID = &machineID
		produce.Machine = machine
		produce.MachineCheck = false
		produce.Checks = nil
		if err := s.produces.SetMachineCheckTx(tx, produce.ID, false); err != nil {
			return err
		}
		// The batch code carries the line of the production machine.
		if produce.UnitBatch != nil && produce.UnitBatch.BatchCode != "" {
			if code, ok := RewriteBatchCodeLine(produce.UnitBatch.BatchCode, machine.Line); ok {
				produce.UnitBatch.BatchCode = code
				if err := s.batches.UpdateBatchCodeTx(tx, produce.UnitBatchID, code); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if txErr != nil {
		if apiErr, ok := txErr.(*apierror.Error); ok {
			return nil, apiErr
		}
		log.Error().Err(txErr).Str("produce", produce.ProduceID).Msg("produce machine selection failed")
		return nil, apierror.Internal("could not assign machine")
	}
	return produceToResponse(produce), nil
}

func (s *machineService) SelectPackageMachine(ctx context.Context, user *model.User, packageID uuid.UUID, req dto.SelectMachineRequest) (*dto.PackageResponse, error) {
	if !user.CanEditPackages() {
		return nil, apierror.Unauthorized("testers may not drive packaging")
	}
	pkg, err := s.packages.FindByID(ctx, packageID)
	if err != nil {
		return nil, apierror.NotFound("package not found")
	}
	if pkg.MachineCheck {
		return nil, apierror.AlreadyCompleted("machine checklist is already completed")
	}
	machineID, err := uuid.Parse(req.MachineID)
	if err != nil {
		return nil, apierror.Validation(map[string]string{"machine_id": "must be a valid uuid"})
	}
	if pkg.MachineID != nil && *pkg.MachineID == machineID {
		return packageToResponse(pkg), nil
	}
	machine, err := s.repo.FindByID(ctx, machineID)
	if err != nil {
		return nil, apierror.NotFound("machine not found")
	}
	if machine.Allocation != model.AllocationPacking {
		return nil, apierror.MachineUnavailable("machine is not allocated for packing")
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		reserved, err := s.repo.ReserveTx(tx, machineID)
		if err != nil {
			return err
		}
		if !reserved {
			return apierror.MachineUnavailable("machine is busy or under maintenance")
		}
		if pkg.MachineID != nil {
			if err := s.packages.DeleteChecksTx(tx, pkg.ID); err != nil {
				return err
			}
			if err := s.repo.ReleaseTx(tx, *pkg.MachineID); err != nil {
				return err
			}
		}
		if err := s.packages.AssignMachineTx(tx, pkg.ID, machineID); err != nil {
			return err
		}
		pkg.MachineID = &machineID
		pkg.Machine = machine
		pkg.MachineCheck = false
		pkg.Checks = nil
		return s.packages.SetMachineCheckTx(tx, pkg.ID, false)
	})
	if txErr != nil {
		if apiErr, ok := txErr.(*apierror.Error); ok {
			return nil, apiErr
		}
		log.Error().Err(txErr).Str("package", pkg.PackageID).Msg("package machine selection failed")
		return nil, apierror.Internal("could not assign machine")
	}
	return packageToResponse(pkg), nil
}

func machineToResponse(m *model.Machine) *dto.MachineResponse {
	resp := &dto.MachineResponse{
		ID:           m.ID.String(),
		Name:         m.Name,
		SerialNumber: m.SerialNumber,
		Status:       m.Status,
		Allocation:   m.Allocation,
		Line:         m.Line,
	}
	for i := range m.Checkings {
		c := &m.Checkings[i]
		resp.Checkings = append(resp.Checkings, dto.MachineCheckingResponse{
			ID:      c.ID.String(),
			Name:    c.Name,
			Type:    c.Type,
			Options: c.Options(),
		})
	}
	return resp
}
