package service

import (
	"context"
	"testing"

	"github.com/jusondac/factory-app/internal/apierror"
	"github.com/jusondac/factory-app/internal/dto"
	"github.com/jusondac/factory-app/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type machineFixture struct {
	svc      MachineService
	machines *stubMachineRepo
	produces *stubProduceRepo
	packages *stubPackageRepo
	batches  *stubBatchRepo
}

func newMachineFixture() *machineFixture {
	machines := newStubMachineRepo()
	produces := newStubProduceRepo()
	packages := newStubPackageRepo()
	batches := newStubBatchRepo()
	return &machineFixture{
		svc:      NewMachineService(machines, produces, packages, batches),
		machines: machines,
		produces: produces,
		packages: packages,
		batches:  batches,
	}
}

func (f *machineFixture) addMachine(allocation string, line int) *model.Machine {
	m := &model.Machine{
		Name:         "Mixer",
		SerialNumber: uuid.NewString()[:10],
		Status:       model.MachineInactive,
		Allocation:   allocation,
		Line:         line,
	}
	f.machines.add(m)
	return m
}

func (f *machineFixture) addProduce(t *testing.T, batchCode string) *model.Produce {
	t.Helper()
	batch := &model.UnitBatch{
		UnitID:    "UNIT-20260314-1",
		BatchCode: batchCode,
		Status:    model.BatchProduction,
	}
	require.NoError(t, f.batches.CreateTx(nil, batch))
	produce := &model.Produce{
		ProduceID:   "PROD-20260314-1",
		UnitBatchID: batch.ID,
		ProduceDate: mustDate("2026-03-14"),
		Status:      model.ProduceUnproduce,
		UnitBatch:   batch,
	}
	f.produces.add(produce)
	return produce
}

func TestMachineCreate_Success(t *testing.T) {
	f := newMachineFixture()

	resp, err := f.svc.Create(context.Background(), managerUser(), dto.CreateMachineRequest{
		Name:       "Mixer A",
		Allocation: model.AllocationProduction,
		Line:       3,
		Checkings: []dto.MachineCheckingInput{
			{Name: "Temperature", Type: model.CheckingOption, Value: "low, high"},
		},
	})
	require.NoError(t, err)

	assert.Regexp(t, `^[0-9A-F]{10}$`, resp.SerialNumber)
	assert.Equal(t, model.MachineInactive, resp.Status)
	assert.Equal(t, 3, resp.Line)
	require.Len(t, resp.Checkings, 1)
	assert.Equal(t, []string{"low", "high"}, resp.Checkings[0].Options)
}

func TestMachineCreate_RejectsNonManagers(t *testing.T) {
	f := newMachineFixture()
	for _, user := range []*model.User{workerUser(), testerUser(), supervisorUser()} {
		_, err := f.svc.Create(context.Background(), user, dto.CreateMachineRequest{
			Name: "Mixer", Allocation: model.AllocationProduction,
		})
		assertKind(t, err, apierror.KindUnauthorized)
	}
}

func TestMachineDelete_BlockedWhileAssigned(t *testing.T) {
	f := newMachineFixture()
	m := f.addMachine(model.AllocationProduction, 1)
	m.Status = model.MachineActive

	err := f.svc.Delete(context.Background(), managerUser(), m.ID)
	assertKind(t, err, apierror.KindInvalidTransition)

	m.Status = model.MachineInactive
	require.NoError(t, f.svc.Delete(context.Background(), managerUser(), m.ID))
	assert.Empty(t, f.machines.machines)
}

func TestSelectProduceMachine_ReservesAndRewritesBatchCode(t *testing.T) {
	f := newMachineFixture()
	produce := f.addProduce(t, "PRDA1B2C3-20260314-M-L00-001")
	machine := f.addMachine(model.AllocationProduction, 7)

	resp, err := f.svc.SelectProduceMachine(context.Background(), workerUser(), produce.ID,
		dto.SelectMachineRequest{MachineID: machine.ID.String()})
	require.NoError(t, err)

	assert.Equal(t, machine.ID.String(), resp.MachineID)
	assert.False(t, resp.MachineCheck)
	assert.Equal(t, model.MachineActive, machine.Status)
	assert.Equal(t, "PRDA1B2C3-20260314-M-L07-001", produce.UnitBatch.BatchCode)

	stored, err := f.batches.FindByID(context.Background(), produce.UnitBatchID)
	require.NoError(t, err)
	assert.Equal(t, "PRDA1B2C3-20260314-M-L07-001", stored.BatchCode)
}

func TestSelectProduceMachine_BusyMachine(t *testing.T) {
	f := newMachineFixture()
	produce := f.addProduce(t, "")
	machine := f.addMachine(model.AllocationProduction, 1)
	machine.Status = model.MachineActive

	_, err := f.svc.SelectProduceMachine(context.Background(), workerUser(), produce.ID,
		dto.SelectMachineRequest{MachineID: machine.ID.String()})
	assertKind(t, err, apierror.KindMachineUnavailable)
	assert.Nil(t, produce.MachineID)

	machine.Status = model.MachineUnderMaintenance
	_, err = f.svc.SelectProduceMachine(context.Background(), workerUser(), produce.ID,
		dto.SelectMachineRequest{MachineID: machine.ID.String()})
	assertKind(t, err, apierror.KindMachineUnavailable)
}

func TestSelectProduceMachine_WrongAllocation(t *testing.T) {
	f := newMachineFixture()
	produce := f.addProduce(t, "")
	machine := f.addMachine(model.AllocationPacking, 1)

	_, err := f.svc.SelectProduceMachine(context.Background(), workerUser(), produce.ID,
		dto.SelectMachineRequest{MachineID: machine.ID.String()})
	assertKind(t, err, apierror.KindMachineUnavailable)
}

func TestSelectProduceMachine_SwapReleasesPriorAndClearsChecks(t *testing.T) {
	f := newMachineFixture()
	produce := f.addProduce(t, "PRDA1B2C3-20260314-M-L01-001")
	first := f.addMachine(model.AllocationProduction, 1)
	second := f.addMachine(model.AllocationProduction, 4)

	_, err := f.svc.SelectProduceMachine(context.Background(), workerUser(), produce.ID,
		dto.SelectMachineRequest{MachineID: first.ID.String()})
	require.NoError(t, err)

	produce.Checks = []model.ProduceMachineCheck{{ProduceID: produce.ID, Question: "Temperature", Answer: "low"}}

	_, err = f.svc.SelectProduceMachine(context.Background(), workerUser(), produce.ID,
		dto.SelectMachineRequest{MachineID: second.ID.String()})
	require.NoError(t, err)

	assert.Equal(t, model.MachineInactive, first.Status)
	assert.Equal(t, model.MachineActive, second.Status)
	assert.Equal(t, second.ID, *produce.MachineID)
	assert.False(t, produce.MachineCheck)
	assert.Empty(t, produce.Checks)
	assert.Equal(t, "PRDA1B2C3-20260314-M-L04-001", produce.UnitBatch.BatchCode)
}

func TestSelectProduceMachine_SameMachineIsNoOp(t *testing.T) {
	f := newMachineFixture()
	produce := f.addProduce(t, "")
	machine := f.addMachine(model.AllocationProduction, 1)

	_, err := f.svc.SelectProduceMachine(context.Background(), workerUser(), produce.ID,
		dto.SelectMachineRequest{MachineID: machine.ID.String()})
	require.NoError(t, err)

	resp, err := f.svc.SelectProduceMachine(context.Background(), workerUser(), produce.ID,
		dto.SelectMachineRequest{MachineID: machine.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, machine.ID.String(), resp.MachineID)
	assert.Equal(t, model.MachineActive, machine.Status)
}

func TestSelectProduceMachine_LockedOnceChecklistCompleted(t *testing.T) {
	f := newMachineFixture()
	produce := f.addProduce(t, "")
	first := f.addMachine(model.AllocationProduction, 1)
	second := f.addMachine(model.AllocationProduction, 2)

	_, err := f.svc.SelectProduceMachine(context.Background(), workerUser(), produce.ID,
		dto.SelectMachineRequest{MachineID: first.ID.String()})
	require.NoError(t, err)
	produce.MachineCheck = true
	produce.Status = model.ProduceProducing

	// No swap after the checklist is recorded, even to the same machine.
	_, err = f.svc.SelectProduceMachine(context.Background(), workerUser(), produce.ID,
		dto.SelectMachineRequest{MachineID: second.ID.String()})
	assertKind(t, err, apierror.KindAlreadyCompleted)
	_, err = f.svc.SelectProduceMachine(context.Background(), workerUser(), produce.ID,
		dto.SelectMachineRequest{MachineID: first.ID.String()})
	assertKind(t, err, apierror.KindAlreadyCompleted)

	assert.Equal(t, first.ID, *produce.MachineID)
	assert.True(t, produce.MachineCheck)
	assert.Equal(t, model.MachineActive, first.Status)
	assert.Equal(t, model.MachineInactive, second.Status)
}

func TestSelectProduceMachine_Guards(t *testing.T) {
	f := newMachineFixture()
	produce := f.addProduce(t, "")
	machine := f.addMachine(model.AllocationProduction, 1)

	_, err := f.svc.SelectProduceMachine(context.Background(), testerUser(), produce.ID,
		dto.SelectMachineRequest{MachineID: machine.ID.String()})
	assertKind(t, err, apierror.KindUnauthorized)

	_, err = f.svc.SelectProduceMachine(context.Background(), workerUser(), produce.ID,
		dto.SelectMachineRequest{MachineID: "not-a-uuid"})
	assertKind(t, err, apierror.KindValidationFailed)

	_, err = f.svc.SelectProduceMachine(context.Background(), workerUser(), produce.ID,
		dto.SelectMachineRequest{MachineID: uuid.NewString()})
	assertKind(t, err, apierror.KindNotFound)

	produce.MachineCheck = true
	_, err = f.svc.SelectProduceMachine(context.Background(), workerUser(), produce.ID,
		dto.SelectMachineRequest{MachineID: machine.ID.String()})
	assertKind(t, err, apierror.KindAlreadyCompleted)
}

func TestSelectPackageMachine_ReservesPackingMachine(t *testing.T) {
	f := newMachineFixture()
	pkg := &model.Package{
		PackageID:   "PACK-20260314-1",
		UnitBatchID: uuid.New(),
		PackageDate: mustDate("2026-03-14"),
		Status:      model.PackageUnpackage,
	}
	f.packages.add(pkg)
	machine := f.addMachine(model.AllocationPacking, 2)

	resp, err := f.svc.SelectPackageMachine(context.Background(), workerUser(), pkg.ID,
		dto.SelectMachineRequest{MachineID: machine.ID.String()})
	require.NoError(t, err)

	assert.Equal(t, machine.ID.String(), resp.MachineID)
	assert.False(t, resp.MachineCheck)
	assert.Equal(t, model.MachineActive, machine.Status)
}

func TestSelectPackageMachine_WrongAllocation(t *testing.T) {
	f := newMachineFixture()
	pkg := &model.Package{
		PackageID:   "PACK-20260314-1",
		UnitBatchID: uuid.New(),
		PackageDate: mustDate("2026-03-14"),
		Status:      model.PackageUnpackage,
	}
	f.packages.add(pkg)
	machine := f.addMachine(model.AllocationTesting, 1)

	_, err := f.svc.SelectPackageMachine(context.Background(), workerUser(), pkg.ID,
		dto.SelectMachineRequest{MachineID: machine.ID.String()})
	assertKind(t, err, apierror.KindMachineUnavailable)
}

func TestSelectPackageMachine_LockedOnceChecklistCompleted(t *testing.T) {
	f := newMachineFixture()
	pkg := &model.Package{
		PackageID:    "PACK-20260314-1",
		UnitBatchID:  uuid.New(),
		PackageDate:  mustDate("2026-03-14"),
		Status:       model.PackagePackaging,
		MachineCheck: true,
	}
	f.packages.add(pkg)
	machine := f.addMachine(model.AllocationPacking, 2)

	_, err := f.svc.SelectPackageMachine(context.Background(), workerUser(), pkg.ID,
		dto.SelectMachineRequest{MachineID: machine.ID.String()})
	assertKind(t, err, apierror.KindAlreadyCompleted)
	assert.Equal(t, model.MachineInactive, machine.Status)
}

func TestMachineUpdate_ReplacesCheckings(t *testing.T) {
	f := newMachineFixture()
	m := f.addMachine(model.AllocationProduction, 1)
	m.Checkings = []model.MachineChecking{{ID: uuid.New(), MachineID: m.ID, Name: "Old", Type: model.CheckingText}}

	name := "Mixer B"
	status := model.MachineUnderMaintenance
	checkings := []dto.MachineCheckingInput{
		{Name: "Pressure", Type: model.CheckingOption, Value: "ok, too high"},
	}
	resp, err := f.svc.Update(context.Background(), managerUser(), m.ID, dto.UpdateMachineRequest{
		Name:      &name,
		Status:    &status,
		Checkings: &checkings,
	})
	require.NoError(t, err)

	assert.Equal(t, "Mixer B", resp.Name)
	assert.Equal(t, model.MachineUnderMaintenance, resp.Status)
	require.Len(t, resp.Checkings, 1)
	assert.Equal(t, "Pressure", resp.Checkings[0].Name)
}
