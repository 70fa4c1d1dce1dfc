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

func TestNormalizeAnswer(t *testing.T) {
	cases := []struct {
		name   string
		answer dto.ChecklistAnswer
		want   string
	}{
		{"scalar trimmed", dto.ChecklistAnswer{Value: "  42 C  "}, "42 C"},
		{"scalar blank", dto.ChecklistAnswer{Value: "   "}, ""},
		{"list joined", dto.ChecklistAnswer{IsList: true, Values: []string{"gloves", "hairnet"}}, "gloves, hairnet"},
		{"list drops blanks", dto.ChecklistAnswer{IsList: true, Values: []string{" gloves ", "", "  "}}, "gloves"},
		{"empty list", dto.ChecklistAnswer{IsList: true}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalizeAnswer(tc.answer))
		})
	}
}

func TestChecklistAnswer_UnmarshalJSON(t *testing.T) {
	var a dto.ChecklistAnswer
	require.NoError(t, a.UnmarshalJSON([]byte(`"yes"`)))
	assert.False(t, a.IsList)
	assert.Equal(t, "yes", a.Value)

	var b dto.ChecklistAnswer
	require.NoError(t, b.UnmarshalJSON([]byte(`["a","b"]`)))
	assert.True(t, b.IsList)
	assert.Equal(t, []string{"a", "b"}, b.Values)
}

type checklistFixture struct {
	svc      ChecklistService
	produces *stubProduceRepo
	packages *stubPackageRepo
	machine  *model.Machine
	temp     uuid.UUID // option template
	notes    uuid.UUID // text template
}

func newChecklistFixture() *checklistFixture {
	produces := newStubProduceRepo()
	packages := newStubPackageRepo()

	temp := uuid.New()
	notes := uuid.New()
	machine := &model.Machine{
		ID:   uuid.New(),
		Name: "Mixer A",
		Checkings: []model.MachineChecking{
			{ID: temp, Name: "Temperature setting", Type: model.CheckingOption, Value: "low, high"},
			{ID: notes, Name: "Visual inspection notes", Type: model.CheckingText},
		},
	}
	return &checklistFixture{
		svc:      NewChecklistService(produces, packages),
		produces: produces,
		packages: packages,
		machine:  machine,
		temp:     temp,
		notes:    notes,
	}
}

func (f *checklistFixture) addProduce() *model.Produce {
	mid := f.machine.ID
	p := &model.Produce{
		ProduceID:   "PROD-20260314-1",
		UnitBatchID: uuid.New(),
		ProduceDate: mustDate("2026-03-14"),
		Status:      model.ProduceUnproduce,
		MachineID:   &mid,
		Machine:     f.machine,
	}
	f.produces.add(p)
	return p
}

func (f *checklistFixture) addPackage() *model.Package {
	mid := f.machine.ID
	p := &model.Package{
		PackageID:   "PACK-20260314-1",
		UnitBatchID: uuid.New(),
		PackageDate: mustDate("2026-03-14"),
		Status:      model.PackageUnpackage,
		MachineID:   &mid,
		Machine:     f.machine,
	}
	f.packages.add(p)
	return p
}

func TestSubmitProduceChecklist_RecordsAnswersAndMarksChecked(t *testing.T) {
	f := newChecklistFixture()
	produce := f.addProduce()

	resp, err := f.svc.SubmitProduceChecklist(context.Background(), workerUser(), produce.ID, dto.SubmitChecklistRequest{
		Answers: map[string]dto.ChecklistAnswer{
			f.temp.String():  {IsList: true, Values: []string{"low", "high"}},
			f.notes.String(): {Value: "  all clear "},
		},
	})
	require.NoError(t, err)

	assert.True(t, resp.Completed)
	assert.True(t, produce.MachineCheck)
	require.Len(t, produce.Checks, 2)
	assert.Equal(t, "Temperature setting", produce.Checks[0].Question)
	assert.Equal(t, "low, high", produce.Checks[0].Answer)
	assert.Equal(t, "all clear", produce.Checks[1].Answer)

	// Produce stays in unproduce; starting production is a separate call.
	assert.Equal(t, model.ProduceUnproduce, produce.Status)
}

func TestSubmitProduceChecklist_SkipsUnansweredQuestions(t *testing.T) {
	f := newChecklistFixture()
	produce := f.addProduce()

	_, err := f.svc.SubmitProduceChecklist(context.Background(), workerUser(), produce.ID, dto.SubmitChecklistRequest{
		Answers: map[string]dto.ChecklistAnswer{
			f.temp.String():  {Value: "low"},
			f.notes.String(): {Value: "   "},
		},
	})
	require.NoError(t, err)
	require.Len(t, produce.Checks, 1)
	assert.Equal(t, f.temp, produce.Checks[0].MachineCheckingID)
}

func TestSubmitProduceChecklist_ReplacesPriorAnswers(t *testing.T) {
	f := newChecklistFixture()
	produce := f.addProduce()

	submit := func(answer string) {
		_, err := f.svc.SubmitProduceChecklist(context.Background(), workerUser(), produce.ID, dto.SubmitChecklistRequest{
			Answers: map[string]dto.ChecklistAnswer{f.temp.String(): {Value: answer}},
		})
		require.NoError(t, err)
	}
	submit("low")

	// Only a machine swap reopens the checklist; simulate one.
	produce.MachineCheck = false
	submit("high")

	require.Len(t, produce.Checks, 1)
	assert.Equal(t, "high", produce.Checks[0].Answer)
}

func TestSubmitProduceChecklist_ResubmissionRejected(t *testing.T) {
	f := newChecklistFixture()
	produce := f.addProduce()

	_, err := f.svc.SubmitProduceChecklist(context.Background(), workerUser(), produce.ID, dto.SubmitChecklistRequest{
		Answers: map[string]dto.ChecklistAnswer{f.temp.String(): {Value: "low"}},
	})
	require.NoError(t, err)

	_, err = f.svc.SubmitProduceChecklist(context.Background(), workerUser(), produce.ID, dto.SubmitChecklistRequest{
		Answers: map[string]dto.ChecklistAnswer{f.temp.String(): {Value: "high"}},
	})
	assertKind(t, err, apierror.KindAlreadyCompleted)

	require.Len(t, produce.Checks, 1)
	assert.Equal(t, "low", produce.Checks[0].Answer)
	assert.True(t, produce.MachineCheck)
}

func TestSubmitProduceChecklist_Guards(t *testing.T) {
	f := newChecklistFixture()
	produce := f.addProduce()
	req := dto.SubmitChecklistRequest{Answers: map[string]dto.ChecklistAnswer{}}

	_, err := f.svc.SubmitProduceChecklist(context.Background(), testerUser(), produce.ID, req)
	assertKind(t, err, apierror.KindUnauthorized)

	produce.MachineCheck = true
	_, err = f.svc.SubmitProduceChecklist(context.Background(), workerUser(), produce.ID, req)
	assertKind(t, err, apierror.KindAlreadyCompleted)

	bare := &model.Produce{ProduceID: "PROD-20260314-2", UnitBatchID: uuid.New(), Status: model.ProduceUnproduce}
	f.produces.add(bare)
	_, err = f.svc.SubmitProduceChecklist(context.Background(), workerUser(), bare.ID, req)
	assertKind(t, err, apierror.KindInvalidTransition)
}

func TestGetProduceChecklist_RendersTemplatesWithAnswers(t *testing.T) {
	f := newChecklistFixture()
	produce := f.addProduce()
	produce.Checks = []model.ProduceMachineCheck{
		{ProduceID: produce.ID, MachineCheckingID: f.temp, Question: "Temperature setting", Answer: "low"},
	}

	resp, err := f.svc.GetProduceChecklist(context.Background(), produce.ID)
	require.NoError(t, err)

	assert.False(t, resp.Completed)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "low", resp.Entries[0].Answer)
	assert.Equal(t, []string{"low", "high"}, resp.Entries[0].Options)
	assert.Empty(t, resp.Entries[1].Answer)
}

func TestSubmitPackageChecklist_AdvancesToPackaging(t *testing.T) {
	f := newChecklistFixture()
	pkg := f.addPackage()

	resp, err := f.svc.SubmitPackageChecklist(context.Background(), workerUser(), pkg.ID, dto.SubmitChecklistRequest{
		Answers: map[string]dto.ChecklistAnswer{
			f.temp.String(): {Value: "low"},
		},
	})
	require.NoError(t, err)

	assert.True(t, resp.Completed)
	assert.True(t, pkg.MachineCheck)
	assert.Equal(t, model.PackagePackaging, pkg.Status)
	require.Len(t, pkg.Checks, 1)

	// One shot per machine assignment.
	_, err = f.svc.SubmitPackageChecklist(context.Background(), workerUser(), pkg.ID, dto.SubmitChecklistRequest{
		Answers: map[string]dto.ChecklistAnswer{f.temp.String(): {Value: "high"}},
	})
	assertKind(t, err, apierror.KindAlreadyCompleted)
	assert.Equal(t, "low", pkg.Checks[0].Answer)
}

func TestSubmitPackageChecklist_Guards(t *testing.T) {
	f := newChecklistFixture()
	pkg := f.addPackage()
	req := dto.SubmitChecklistRequest{Answers: map[string]dto.ChecklistAnswer{}}

	_, err := f.svc.SubmitPackageChecklist(context.Background(), testerUser(), pkg.ID, req)
	assertKind(t, err, apierror.KindUnauthorized)

	pkg.MachineCheck = true
	_, err = f.svc.SubmitPackageChecklist(context.Background(), workerUser(), pkg.ID, req)
	assertKind(t, err, apierror.KindAlreadyCompleted)
}
