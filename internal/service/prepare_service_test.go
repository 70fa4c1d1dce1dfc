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

func assertKind(t *testing.T, err error, kind apierror.Kind) {
	t.Helper()
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, kind, apiErr.Kind)
}

type prepareFixture struct {
	svc      PrepareService
	batches  *stubBatchRepo
	prepares *stubPrepareRepo
	products *stubProductRepo
	product  *model.Product
	clock    fakeClock
}

func newPrepareFixture() *prepareFixture {
	batches := newStubBatchRepo()
	prepares := newStubPrepareRepo(batches)
	products := newStubProductRepo()
	clock := fakeClock{t: mustDate("2026-03-14")}

	product := &model.Product{
		Name:        "Granola Mix",
		ProductCode: "PRDA1B2C3",
		Ingredients: []model.Ingredient{{Name: "Oats"}, {Name: "Honey"}},
	}
	products.add(product)

	ids := NewIDGenerator(batches, prepares, newStubProduceRepo(), newStubPackageRepo())
	return &prepareFixture{
		svc:      NewPrepareService(prepares, batches, products, ids, clock),
		batches:  batches,
		prepares: prepares,
		products: products,
		product:  product,
		clock:    clock,
	}
}

func TestPrepareCreate_Success(t *testing.T) {
	f := newPrepareFixture()

	resp, err := f.svc.Create(context.Background(), supervisorUser(), dto.CreatePrepareRequest{
		ProductID:   f.product.ID.String(),
		PrepareDate: "2026-03-14",
		Notes:       "rush order",
	})
	require.NoError(t, err)

	assert.Equal(t, "PRP-20260314-1", resp.PrepareID)
	assert.Equal(t, model.PrepareUnchecked, resp.Status)
	assert.Equal(t, "0/2", resp.Progress)
	assert.Equal(t, "Granola Mix", resp.ProductName)
	require.NotNil(t, resp.Notes)
	assert.Equal(t, "rush order", *resp.Notes)

	// Backing batch and recipe snapshot were created in the same call.
	require.Len(t, f.batches.batches, 1)
	for _, b := range f.batches.batches {
		assert.Equal(t, "UNIT-20260314-1", b.UnitID)
		assert.Equal(t, model.BatchPreparation, b.Status)
		assert.Equal(t, f.product.ID, b.ProductID)
	}
	assert.Len(t, f.prepares.ingredients, 2)
}

func TestPrepareCreate_RejectsWorker(t *testing.T) {
	f := newPrepareFixture()
	_, err := f.svc.Create(context.Background(), workerUser(), dto.CreatePrepareRequest{
		ProductID:   f.product.ID.String(),
		PrepareDate: "2026-03-14",
	})
	assertKind(t, err, apierror.KindUnauthorized)
}

func TestPrepareCreate_BadInput(t *testing.T) {
	f := newPrepareFixture()
	user := supervisorUser()

	_, err := f.svc.Create(context.Background(), user, dto.CreatePrepareRequest{
		ProductID: "not-a-uuid", PrepareDate: "2026-03-14",
	})
	assertKind(t, err, apierror.KindValidationFailed)

	_, err = f.svc.Create(context.Background(), user, dto.CreatePrepareRequest{
		ProductID: f.product.ID.String(), PrepareDate: "14/03/2026",
	})
	assertKind(t, err, apierror.KindValidationFailed)

	_, err = f.svc.Create(context.Background(), user, dto.CreatePrepareRequest{
		ProductID: uuid.NewString(), PrepareDate: "2026-03-14",
	})
	assertKind(t, err, apierror.KindNotFound)
}

func TestPrepareCreate_ProductWithoutIngredients(t *testing.T) {
	f := newPrepareFixture()
	empty := &model.Product{Name: "Water", ProductCode: "PRD000000"}
	f.products.add(empty)

	_, err := f.svc.Create(context.Background(), supervisorUser(), dto.CreatePrepareRequest{
		ProductID: empty.ID.String(), PrepareDate: "2026-03-14",
	})
	assertKind(t, err, apierror.KindValidationFailed)
}

func TestPrepareCreate_DuplicateProductAndDate(t *testing.T) {
	f := newPrepareFixture()
	user := supervisorUser()
	req := dto.CreatePrepareRequest{ProductID: f.product.ID.String(), PrepareDate: "2026-03-14"}

	_, err := f.svc.Create(context.Background(), user, req)
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), user, req)
	assertKind(t, err, apierror.KindDuplicatePreparation)

	// Same product on another date is fine.
	_, err = f.svc.Create(context.Background(), user, dto.CreatePrepareRequest{
		ProductID: f.product.ID.String(), PrepareDate: "2026-03-15",
	})
	require.NoError(t, err)
}

func TestPrepareList_SweepsStaleRows(t *testing.T) {
	f := newPrepareFixture()

	stale := &model.Prepare{
		PrepareID:   "PRP-20260313-1",
		UnitBatchID: uuid.New(),
		PrepareDate: mustDate("2026-03-13"),
		Status:      model.PrepareChecking,
	}
	fresh := &model.Prepare{
		PrepareID:   "PRP-20260314-1",
		UnitBatchID: uuid.New(),
		PrepareDate: mustDate("2026-03-14"),
		Status:      model.PrepareUnchecked,
	}
	f.prepares.add(stale)
	f.prepares.add(fresh)

	resp, err := f.svc.List(context.Background(), dto.PrepareFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.AutoCancelled)
	assert.Equal(t, model.PrepareCancelled, stale.Status)
	assert.Equal(t, model.PrepareUnchecked, fresh.Status)

	// The sweep is idempotent.
	resp, err = f.svc.List(context.Background(), dto.PrepareFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.AutoCancelled)
}

func TestPrepareCancelOutdated_SkipsTerminalRows(t *testing.T) {
	f := newPrepareFixture()
	checked := &model.Prepare{
		PrepareID:   "PRP-20260313-1",
		UnitBatchID: uuid.New(),
		PrepareDate: mustDate("2026-03-13"),
		Status:      model.PrepareChecked,
	}
	f.prepares.add(checked)

	cancelled, err := f.svc.CancelOutdated(context.Background())
	require.NoError(t, err)
	assert.Zero(t, cancelled)
	assert.Equal(t, model.PrepareChecked, checked.Status)
}

func TestPrepareGet_NotFound(t *testing.T) {
	f := newPrepareFixture()
	_, err := f.svc.Get(context.Background(), uuid.New())
	assertKind(t, err, apierror.KindNotFound)
}
