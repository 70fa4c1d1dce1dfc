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

type PackageService interface {
	Get(ctx context.Context, id uuid.UUID) (*dto.PackageResponse, error)
	List(ctx context.Context, filter dto.PackageFilter) (*dto.PackageListResponse, error)
	// StartPackaging moves unpackage -> packaging. Normally the checklist
	// submission does this already; the explicit start covers packages whose
	// checklist was completed without advancing.
	StartPackaging(ctx context.Context, user *model.User, id uuid.UUID) (*dto.PackageResponse, error)
	// CompletePackaging moves packaging -> package and releases the machine.
	// This is the end of the pipeline; the batch stays in packing.
	CompletePackaging(ctx context.Context, user *model.User, id uuid.UUID) (*dto.PackageResponse, error)
	UpdateWaste(ctx context.Context, user *model.User, id uuid.UUID, req dto.UpdateWasteRequest) (*dto.PackageResponse, error)
}

type packageService struct {
	repo     repository.PackageRepository
	machines repository.MachineRepository
}

func NewPackageService(repo repository.PackageRepository, machines repository.MachineRepository) PackageService {
	return &packageService{repo: repo, machines: machines}
}

func (s *packageService) Get(ctx context.Context, id uuid.UUID) (*dto.PackageResponse, error) {
	pkg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("package not found")
	}
	return packageToResponse(pkg), nil
}

func (s *packageService) List(ctx context.Context, filter dto.PackageFilter) (*dto.PackageListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	packages, total, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("package list failed")
		return nil, apierror.Internal("could not list packages")
	}
	data := make([]dto.PackageResponse, 0, len(packages))
	for i := range packages {
		data = append(data, *packageToResponse(&packages[i]))
	}
	return &dto.PackageListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *packageService) StartPackaging(ctx context.Context, user *model.User, id uuid.UUID) (*dto.PackageResponse, error) {
	if !user.CanEditPackages() {
		return nil, apierror.Unauthorized("testers may not drive packaging")
	}
	pkg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("package not found")
	}
	if pkg.Packaged() {
		return nil, apierror.AlreadyCompleted("packaging is already finished")
	}
	if !pkg.Unpackage() {
		return nil, apierror.InvalidTransition("packaging has already started")
	}
	if pkg.MachineID == nil || !pkg.MachineCheck {
		return nil, apierror.InvalidTransition("machine checklist must be completed before packaging starts")
	}

	pkg.Status = model.PackagePackaging
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.repo.SaveTx(tx, pkg)
	})
	if txErr != nil {
		log.Error().Err(txErr).Str("package", pkg.PackageID).Msg("start packaging failed")
		return nil, apierror.Internal("could not start packaging")
	}
	return packageToResponse(pkg), nil
}

func (s *packageService) CompletePackaging(ctx context.Context, user *model.User, id uuid.UUID) (*dto.PackageResponse, error) {
	if !user.CanEditPackages() {
		return nil, apierror.Unauthorized("testers may not drive packaging")
	}
	pkg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("package not found")
	}
	if pkg.Packaged() {
		return nil, apierror.AlreadyCompleted("packaging is already finished")
	}
	if !pkg.Packaging() {
		return nil, apierror.InvalidTransition("packaging has not started")
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		pkg.Status = model.PackagePackaged
		if err := s.repo.SaveTx(tx, pkg); err != nil {
			return err
		}
		if pkg.MachineID != nil {
			return s.machines.ReleaseTx(tx, *pkg.MachineID)
		}
		return nil
	})
	if txErr != nil {
		log.Error().Err(txErr).Str("package", pkg.PackageID).Msg("complete packaging failed")
		return nil, apierror.Internal("could not complete packaging")
	}
	if pkg.Machine != nil {
		pkg.Machine.Status = model.MachineInactive
	}
	return packageToResponse(pkg), nil
}

// UpdateWaste records discarded units. Waste can never exceed the batch
// quantity.
func (s *packageService) UpdateWaste(ctx context.Context, user *model.User, id uuid.UUID, req dto.UpdateWasteRequest) (*dto.PackageResponse, error) {
	if !user.CanEditPackages() {
		return nil, apierror.Unauthorized("testers may not drive packaging")
	}
	pkg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("package not found")
	}
	if req.WasteQuantity < 0 {
		return nil, apierror.Validation(map[string]string{"waste_quantity": "must not be negative"})
	}
	if pkg.UnitBatch != nil && req.WasteQuantity > pkg.UnitBatch.Quantity {
		return nil, apierror.Validation(map[string]string{"waste_quantity": "must not exceed the batch quantity"})
	}

	pkg.WasteQuantity = req.WasteQuantity
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.repo.SaveTx(tx, pkg)
	})
	if txErr != nil {
		log.Error().Err(txErr).Str("package", pkg.PackageID).Msg("waste update failed")
		return nil, apierror.Internal("could not update waste")
	}
	return packageToResponse(pkg), nil
}

func packageToResponse(p *model.Package) *dto.PackageResponse {
	resp := &dto.PackageResponse{
		ID:            p.ID.String(),
		PackageID:     p.PackageID,
		UnitBatchID:   p.UnitBatchID.String(),
		PackageDate:   p.PackageDate.Format("2006-01-02"),
		Status:        p.Status,
		MachineCheck:  p.MachineCheck,
		WasteQuantity: p.WasteQuantity,
	}
	if p.UnitBatch != nil {
		resp.UnitID = p.UnitBatch.UnitID
		resp.BatchCode = p.UnitBatch.BatchCode
		if p.UnitBatch.Product != nil {
			resp.ProductName = p.UnitBatch.Product.Name
		}
		if p.UnitBatch.ExpiryDate != nil {
			expiry := p.UnitBatch.ExpiryDate.Format("2006-01-02")
			resp.ExpiryDate = &expiry
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
