package service

import (
	"context"
	"strings"

	"github.com/jusondac/factory-app/internal/apierror"
	"github.com/jusondac/factory-app/internal/dto"
	"github.com/jusondac/factory-app/internal/model"
	"github.com/jusondac/factory-app/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ChecklistService renders and records the machine checklists that gate
// production and packaging. Submissions replace any prior answers wholesale;
// the produce/package is marked machine-checked in the same transaction.
type ChecklistService interface {
	GetProduceChecklist(ctx context.Context, produceID uuid.UUID) (*dto.ChecklistResponse, error)
	SubmitProduceChecklist(ctx context.Context, user *model.User, produceID uuid.UUID, req dto.SubmitChecklistRequest) (*dto.ChecklistResponse, error)
	GetPackageChecklist(ctx context.Context, packageID uuid.UUID) (*dto.ChecklistResponse, error)
	SubmitPackageChecklist(ctx context.Context, user *model.User, packageID uuid.UUID, req dto.SubmitChecklistRequest) (*dto.ChecklistResponse, error)
}

type checklistService struct {
	produces repository.ProduceRepository
	packages repository.PackageRepository
}

func NewChecklistService(produces repository.ProduceRepository, packages repository.PackageRepository) ChecklistService {
	return &checklistService{produces: produces, packages: packages}
}

// normalizeAnswer flattens a submitted answer to its stored form: lists drop
// blank entries and join with ", "; scalars are trimmed. An empty result
// means the question was left unanswered and no row is recorded.
func normalizeAnswer(a dto.ChecklistAnswer) string {
	if a.IsList {
		kept := make([]string, 0, len(a.Values))
		for _, v := range a.Values {
			if s := strings.TrimSpace(v); s != "" {
				kept = append(kept, s)
			}
		}
		return strings.Join(kept, ", ")
	}
	return strings.TrimSpace(a.Value)
}

func (s *checklistService) GetProduceChecklist(ctx context.Context, produceID uuid.UUID) (*dto.ChecklistResponse, error) {
	produce, err := s.produces.FindByID(ctx, produceID)
	if err != nil {
		return nil, apierror.NotFound("produce not found")
	}
	if produce.Machine == nil {
		return nil, apierror.InvalidTransition("no machine assigned")
	}
	return renderChecklist(produce.Machine, produce.MachineCheck, produceAnswers(produce.Checks)), nil
}

func (s *checklistService) SubmitProduceChecklist(ctx context.Context, user *model.User, produceID uuid.UUID, req dto.SubmitChecklistRequest) (*dto.ChecklistResponse, error) {
	if !user.CanEditProduces() {
		return nil, apierror.Unauthorized("testers may not drive production")
	}
	produce, err := s.produces.FindByID(ctx, produceID)
	if err != nil {
		return nil, apierror.NotFound("produce not found")
	}
	if produce.Machine == nil {
		return nil, apierror.InvalidTransition("no machine assigned")
	}
	if produce.MachineCheck {
		return nil, apierror.AlreadyCompleted("machine checklist is already completed")
	}

	checks := buildProduceChecks(produce.ID, produce.Machine.Checkings, req.Answers)
	txErr := runTx(ctx, s.produces.DB(), func(tx *gorm.DB) error {
		if err := s.produces.DeleteChecksTx(tx, produce.ID); err != nil {
			return err
		}
		if err := s.produces.CreateChecksTx(tx, checks); err != nil {
			return err
		}
		return s.produces.SetMachineCheckTx(tx, produce.ID, true)
	})
	if txErr != nil {
		log.Error().Err(txErr).Str("produce", produce.ProduceID).Msg("produce checklist submit failed")
		return nil, apierror.Internal("could not record checklist")
	}

	produce.Checks = checks
	produce.MachineCheck = true
	return renderChecklist(produce.Machine, true, produceAnswers(checks)), nil
}

func (s *checklistService) GetPackageChecklist(ctx context.Context, packageID uuid.UUID) (*dto.ChecklistResponse, error) {
	pkg, err := s.packages.FindByID(ctx, packageID)
	if err != nil {
		return nil, apierror.NotFound("package not found")
	}
	if pkg.Machine == nil {
		return nil, apierror.InvalidTransition("no machine assigned")
	}
	return renderChecklist(pkg.Machine, pkg.MachineCheck, packageAnswers(pkg.Checks)), nil
}

// SubmitPackageChecklist records the answers and, unlike produce, moves the
// package straight into packaging.
func (s *checklistService) SubmitPackageChecklist(ctx context.Context, user *model.User, packageID uuid.UUID, req dto.SubmitChecklistRequest) (*dto.ChecklistResponse, error) {
	if !user.CanEditPackages() {
		return nil, apierror.Unauthorized("testers may not drive packaging")
	}
	pkg, err := s.packages.FindByID(ctx, packageID)
	if err != nil {
		return nil, apierror.NotFound("package not found")
	}
	if pkg.Machine == nil {
		return nil, apierror.InvalidTransition("no machine assigned")
	}
	if pkg.MachineCheck {
		return nil, apierror.AlreadyCompleted("machine checklist is already completed")
	}

	checks := buildPackageChecks(pkg.ID, pkg.Machine.Checkings, req.Answers)
	txErr := runTx(ctx, s.packages.DB(), func(tx *gorm.DB) error {
		if err := s.packages.DeleteChecksTx(tx, pkg.ID); err != nil {
			return err
		}
		if err := s.packages.CreateChecksTx(tx, checks); err != nil {
			return err
		}
		if err := s.packages.SetMachineCheckTx(tx, pkg.ID, true); err != nil {
			return err
		}
		pkg.Status = model.PackagePackaging
		pkg.MachineCheck = true
		return s.packages.SaveTx(tx, pkg)
	})
	if txErr != nil {
		log.Error().Err(txErr).Str("package", pkg.PackageID).Msg("package checklist submit failed")
		return nil, apierror.Internal("could not record checklist")
	}

	pkg.Checks = checks
	return renderChecklist(pkg.Machine, true, packageAnswers(checks)), nil
}

func buildProduceChecks(produceID uuid.UUID, templates []model.MachineChecking, answers map[string]dto.ChecklistAnswer) []model.ProduceMachineCheck {
	checks := make([]model.ProduceMachineCheck, 0, len(templates))
	for _, t := range templates {
		a, ok := answers[t.ID.String()]
		if !ok {
			continue
		}
		answer := normalizeAnswer(a)
		if answer == "" {
			continue
		}
		checks = append(checks, model.ProduceMachineCheck{
			ProduceID:         produceID,
			MachineCheckingID: t.ID,
			Question:          t.Name,
			Answer:            answer,
		})
	}
	return checks
}

func buildPackageChecks(packageID uuid.UUID, templates []model.MachineChecking, answers map[string]dto.ChecklistAnswer) []model.PackageMachineCheck {
	checks := make([]model.PackageMachineCheck, 0, len(templates))
	for _, t := range templates {
		a, ok := answers[t.ID.String()]
		if !ok {
			continue
		}
		answer := normalizeAnswer(a)
		if answer == "" {
			continue
		}
		checks = append(checks, model.PackageMachineCheck{
			PackageID:         packageID,
			MachineCheckingID: t.ID,
			Question:          t.Name,
			Answer:            answer,
		})
	}
	return checks
}

func produceAnswers(checks []model.ProduceMachineCheck) map[uuid.UUID]string {
	m := make(map[uuid.UUID]string, len(checks))
	for _, c := range checks {
		m[c.MachineCheckingID] = c.Answer
	}
	return m
}

func packageAnswers(checks []model.PackageMachineCheck) map[uuid.UUID]string {
	m := make(map[uuid.UUID]string, len(checks))
	for _, c := range checks {
		m[c.MachineCheckingID] = c.Answer
	}
	return m
}

func renderChecklist(machine *model.Machine, completed bool, answers map[uuid.UUID]string) *dto.ChecklistResponse {
	resp := &dto.ChecklistResponse{
		MachineID:   machine.ID.String(),
		MachineName: machine.Name,
		Completed:   completed,
	}
	for i := range machine.Checkings {
		t := &machine.Checkings[i]
		resp.Entries = append(resp.Entries, dto.ChecklistEntryResponse{
			CheckingID: t.ID.String(),
			Question:   t.Name,
			Type:       t.Type,
			Options:    t.Options(),
			Answer:     answers[t.ID],
		})
	}
	return resp
}
