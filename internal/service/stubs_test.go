package service

// Shared in-memory repository stubs. Transactions degrade to a straight call
// with a nil *gorm.DB (see runTx), so the stubs never touch a database.
// Unique-index behaviour is simulated: creating a row whose business ID
// collides with a stored one returns gorm.ErrDuplicatedKey, which is what the
// identifier retry loops key on.

import (
	"context"
	"errors"
	"time"

	"github.com/jusondac/factory-app/internal/dto"
	"github.com/jusondac/factory-app/internal/model"
	"github.com/jusondac/factory-app/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var errNotFound = errors.New("not found")

type fakeClock struct{ t time.Time }

func (c fakeClock) Now() time.Time { return c.t }

// mustDate parses 2006-01-02 in local time.
func mustDate(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

func workerUser() *model.User {
	return &model.User{ID: uuid.New(), Name: "Wanda Worker", Role: model.RoleWorker, Active: true}
}

func testerUser() *model.User {
	return &model.User{ID: uuid.New(), Name: "Toni Tester", Role: model.RoleTester, Active: true}
}

func supervisorUser() *model.User {
	return &model.User{ID: uuid.New(), Name: "Sami Supervisor", Role: model.RoleSupervisor, Active: true}
}

func managerUser() *model.User {
	return &model.User{ID: uuid.New(), Name: "Mori Manager", Role: model.RoleManager, Active: true}
}

// ── UnitBatch ────────────────────────────────────────────────────────────────

type stubBatchRepo struct {
	batches    map[uuid.UUID]*model.UnitBatch
	reportRows []model.UnitBatch
}

func newStubBatchRepo() *stubBatchRepo {
	return &stubBatchRepo{batches: make(map[uuid.UUID]*model.UnitBatch)}
}

func (r *stubBatchRepo) CreateTx(_ *gorm.DB, b *model.UnitBatch) error {
	for _, other := range r.batches {
		if other.UnitID == b.UnitID {
			return gorm.ErrDuplicatedKey
		}
		if b.BatchCode != "" && other.BatchCode == b.BatchCode {
			return gorm.ErrDuplicatedKey
		}
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	r.batches[b.ID] = b
	return nil
}

func (r *stubBatchRepo) FindByID(_ context.Context, id uuid.UUID) (*model.UnitBatch, error) {
	b, ok := r.batches[id]
	if !ok {
		return nil, errNotFound
	}
	return b, nil
}

func (r *stubBatchRepo) List(_ context.Context, filter dto.BatchFilter) ([]model.UnitBatch, int64, error) {
	var out []model.UnitBatch
	for _, b := range r.batches {
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, *b)
	}
	return out, int64(len(out)), nil
}

func (r *stubBatchRepo) SaveTx(_ *gorm.DB, b *model.UnitBatch) error {
	r.batches[b.ID] = b
	return nil
}

func (r *stubBatchRepo) UpdateStatusTx(_ *gorm.DB, id uuid.UUID, status string) error {
	b, ok := r.batches[id]
	if !ok {
		return errNotFound
	}
	b.Status = status
	return nil
}

func (r *stubBatchRepo) UpdateBatchCodeTx(_ *gorm.DB, id uuid.UUID, batchCode string) error {
	b, ok := r.batches[id]
	if !ok {
		return errNotFound
	}
	b.BatchCode = batchCode
	return nil
}

func (r *stubBatchRepo) UpdateExpiryTx(_ *gorm.DB, id uuid.UUID, expiry time.Time) error {
	b, ok := r.batches[id]
	if !ok {
		return errNotFound
	}
	b.ExpiryDate = &expiry
	return nil
}

func (r *stubBatchRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.batches, id)
	return nil
}

func (r *stubBatchRepo) ListForReport(_ context.Context, _, _ string) ([]model.UnitBatch, error) {
	return r.reportRows, nil
}

func (r *stubBatchRepo) CountUnitIDsWithPrefix(_ context.Context, prefix string) (int64, error) {
	var n int64
	for _, b := range r.batches {
		if len(b.UnitID) >= len(prefix) && b.UnitID[:len(prefix)] == prefix {
			n++
		}
	}
	return n, nil
}

func (r *stubBatchRepo) CountBatchCodesWithPrefix(_ context.Context, prefix string) (int64, error) {
	var n int64
	for _, b := range r.batches {
		if len(b.BatchCode) >= len(prefix) && b.BatchCode[:len(prefix)] == prefix {
			n++
		}
	}
	return n, nil
}

func (r *stubBatchRepo) DB() *gorm.DB { return nil }

var _ repository.UnitBatchRepository = (*stubBatchRepo)(nil)

// ── Prepare ──────────────────────────────────────────────────────────────────

type stubPrepareRepo struct {
	prepares    map[uuid.UUID]*model.Prepare
	ingredients map[uuid.UUID]*model.PrepareIngredient // by ingredient ID
	batches     *stubBatchRepo                         // resolves product for duplicate checks
}

func newStubPrepareRepo(batches *stubBatchRepo) *stubPrepareRepo {
	return &stubPrepareRepo{
		prepares:    make(map[uuid.UUID]*model.Prepare),
		ingredients: make(map[uuid.UUID]*model.PrepareIngredient),
		batches:     batches,
	}
}

// add stores a fully built prepare with its ingredient rows, as FindByID
// would return it.
func (r *stubPrepareRepo) add(p *model.Prepare) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	for i := range p.Ingredients {
		ing := &p.Ingredients[i]
		if ing.ID == uuid.Nil {
			ing.ID = uuid.New()
		}
		ing.PrepareID = p.ID
		r.ingredients[ing.ID] = ing
	}
	r.prepares[p.ID] = p
}

func (r *stubPrepareRepo) CreateTx(_ *gorm.DB, p *model.Prepare) error {
	for _, other := range r.prepares {
		if other.PrepareID == p.PrepareID {
			return gorm.ErrDuplicatedKey
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.prepares[p.ID] = p
	return nil
}

func (r *stubPrepareRepo) CreateIngredientsTx(_ *gorm.DB, ingredients []model.PrepareIngredient) error {
	for i := range ingredients {
		ing := ingredients[i]
		if ing.ID == uuid.Nil {
			ing.ID = uuid.New()
		}
		stored := ing
		r.ingredients[stored.ID] = &stored
	}
	return nil
}

func (r *stubPrepareRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Prepare, error) {
	p, ok := r.prepares[id]
	if !ok {
		return nil, errNotFound
	}
	return p, nil
}

func (r *stubPrepareRepo) List(_ context.Context, filter dto.PrepareFilter) ([]model.Prepare, int64, error) {
	var out []model.Prepare
	for _, p := range r.prepares {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubPrepareRepo) SaveTx(_ *gorm.DB, p *model.Prepare) error {
	r.prepares[p.ID] = p
	return nil
}

func (r *stubPrepareRepo) ExistsForProductOnDate(_ context.Context, productID uuid.UUID, date time.Time) (bool, error) {
	day := date.Format("2006-01-02")
	for _, p := range r.prepares {
		b, ok := r.batches.batches[p.UnitBatchID]
		if !ok {
			continue
		}
		if b.ProductID == productID && p.PrepareDate.Format("2006-01-02") == day {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubPrepareRepo) CountIDsWithPrefix(_ context.Context, prefix string) (int64, error) {
	var n int64
	for _, p := range r.prepares {
		if len(p.PrepareID) >= len(prefix) && p.PrepareID[:len(prefix)] == prefix {
			n++
		}
	}
	return n, nil
}

func (r *stubPrepareRepo) FindIngredient(_ context.Context, prepareID, ingredientID uuid.UUID) (*model.PrepareIngredient, error) {
	ing, ok := r.ingredients[ingredientID]
	if !ok || ing.PrepareID != prepareID {
		return nil, errNotFound
	}
	return ing, nil
}

func (r *stubPrepareRepo) SetIngredientCheckedTx(_ *gorm.DB, ingredientID uuid.UUID, checked bool) error {
	ing, ok := r.ingredients[ingredientID]
	if !ok {
		return errNotFound
	}
	ing.Checked = checked
	return nil
}

func (r *stubPrepareRepo) RecountCheckedTx(_ *gorm.DB, prepareID uuid.UUID) (int, error) {
	p, ok := r.prepares[prepareID]
	if !ok {
		return 0, errNotFound
	}
	count := 0
	for _, ing := range r.ingredients {
		if ing.PrepareID == prepareID && ing.Checked {
			count++
		}
	}
	p.CheckedIngredientsCount = count
	return count, nil
}

func (r *stubPrepareRepo) CancelOutdated(_ context.Context, ids []uuid.UUID) (int64, error) {
	var n int64
	for _, id := range ids {
		p, ok := r.prepares[id]
		if !ok {
			continue
		}
		if p.Status != model.PrepareUnchecked && p.Status != model.PrepareChecking {
			continue
		}
		p.Status = model.PrepareCancelled
		p.CheckedByID = nil
		n++
	}
	return n, nil
}

func (r *stubPrepareRepo) OutdatedBefore(_ context.Context, day time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id, p := range r.prepares {
		if p.PrepareDate.Before(day) && (p.Status == model.PrepareUnchecked || p.Status == model.PrepareChecking) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *stubPrepareRepo) DB() *gorm.DB { return nil }

var _ repository.PrepareRepository = (*stubPrepareRepo)(nil)

// ── Produce ──────────────────────────────────────────────────────────────────

type stubProduceRepo struct {
	produces map[uuid.UUID]*model.Produce
}

func newStubProduceRepo() *stubProduceRepo {
	return &stubProduceRepo{produces: make(map[uuid.UUID]*model.Produce)}
}

func (r *stubProduceRepo) add(p *model.Produce) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.produces[p.ID] = p
}

func (r *stubProduceRepo) CreateTx(_ *gorm.DB, p *model.Produce) error {
	for _, other := range r.produces {
		if other.ProduceID == p.ProduceID {
			return gorm.ErrDuplicatedKey
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.produces[p.ID] = p
	return nil
}

func (r *stubProduceRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Produce, error) {
	p, ok := r.produces[id]
	if !ok {
		return nil, errNotFound
	}
	return p, nil
}

func (r *stubProduceRepo) List(_ context.Context, filter dto.ProduceFilter) ([]model.Produce, int64, error) {
	var out []model.Produce
	for _, p := range r.produces {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubProduceRepo) SaveTx(_ *gorm.DB, p *model.Produce) error {
	r.produces[p.ID] = p
	return nil
}

func (r *stubProduceRepo) DeleteByUnitBatchTx(_ *gorm.DB, unitBatchID uuid.UUID) error {
	for id, p := range r.produces {
		if p.UnitBatchID == unitBatchID {
			delete(r.produces, id)
		}
	}
	return nil
}

func (r *stubProduceRepo) CountIDsWithPrefix(_ context.Context, prefix string) (int64, error) {
	var n int64
	for _, p := range r.produces {
		if len(p.ProduceID) >= len(prefix) && p.ProduceID[:len(prefix)] == prefix {
			n++
		}
	}
	return n, nil
}

func (r *stubProduceRepo) AssignMachineTx(_ *gorm.DB, produceID, machineID uuid.UUID) error {
	p, ok := r.produces[produceID]
	if !ok {
		return errNotFound
	}
	mid := machineID
	p.MachineID = &mid
	return nil
}

func (r *stubProduceRepo) SetMachineCheckTx(_ *gorm.DB, produceID uuid.UUID, checked bool) error {
	p, ok := r.produces[produceID]
	if !ok {
		return errNotFound
	}
	p.MachineCheck = checked
	return nil
}

func (r *stubProduceRepo) DeleteChecksTx(_ *gorm.DB, produceID uuid.UUID) error {
	p, ok := r.produces[produceID]
	if !ok {
		return errNotFound
	}
	p.Checks = nil
	return nil
}

func (r *stubProduceRepo) CreateChecksTx(_ *gorm.DB, checks []model.ProduceMachineCheck) error {
	if len(checks) == 0 {
		return nil
	}
	p, ok := r.produces[checks[0].ProduceID]
	if !ok {
		return errNotFound
	}
	p.Checks = append(p.Checks, checks...)
	return nil
}

func (r *stubProduceRepo) DB() *gorm.DB { return nil }

var _ repository.ProduceRepository = (*stubProduceRepo)(nil)

// ── Package ──────────────────────────────────────────────────────────────────

type stubPackageRepo struct {
	packages map[uuid.UUID]*model.Package
}

func newStubPackageRepo() *stubPackageRepo {
	return &stubPackageRepo{packages: make(map[uuid.UUID]*model.Package)}
}

func (r *stubPackageRepo) add(p *model.Package) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.packages[p.ID] = p
}

func (r *stubPackageRepo) CreateTx(_ *gorm.DB, p *model.Package) error {
	for _, other := range r.packages {
		if other.PackageID == p.PackageID {
			return gorm.ErrDuplicatedKey
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.packages[p.ID] = p
	return nil
}

func (r *stubPackageRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Package, error) {
	p, ok := r.packages[id]
	if !ok {
		return nil, errNotFound
	}
	return p, nil
}

func (r *stubPackageRepo) List(_ context.Context, filter dto.PackageFilter) ([]model.Package, int64, error) {
	var out []model.Package
	for _, p := range r.packages {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubPackageRepo) SaveTx(_ *gorm.DB, p *model.Package) error {
	r.packages[p.ID] = p
	return nil
}

func (r *stubPackageRepo) DeleteByUnitBatchTx(_ *gorm.DB, unitBatchID uuid.UUID) error {
	for id, p := range r.packages {
		if p.UnitBatchID == unitBatchID {
			delete(r.packages, id)
		}
	}
	return nil
}

func (r *stubPackageRepo) CountIDsWithPrefix(_ context.Context, prefix string) (int64, error) {
	var n int64
	for _, p := range r.packages {
		if len(p.PackageID) >= len(prefix) && p.PackageID[:len(prefix)] == prefix {
			n++
		}
	}
	return n, nil
}

func (r *stubPackageRepo) AssignMachineTx(_ *gorm.DB, packageID, machineID uuid.UUID) error {
	p, ok := r.packages[packageID]
	if !ok {
		return errNotFound
	}
	mid := machineID
	p.MachineID = &mid
	return nil
}

func (r *stubPackageRepo) SetMachineCheckTx(_ *gorm.DB, packageID uuid.UUID, checked bool) error {
	p, ok := r.packages[packageID]
	if !ok {
		return errNotFound
	}
	p.MachineCheck = checked
	return nil
}

func (r *stubPackageRepo) DeleteChecksTx(_ *gorm.DB, packageID uuid.UUID) error {
	p, ok := r.packages[packageID]
	if !ok {
		return errNotFound
	}
	p.Checks = nil
	return nil
}

func (r *stubPackageRepo) CreateChecksTx(_ *gorm.DB, checks []model.PackageMachineCheck) error {
	if len(checks) == 0 {
		return nil
	}
	p, ok := r.packages[checks[0].PackageID]
	if !ok {
		return errNotFound
	}
	p.Checks = append(p.Checks, checks...)
	return nil
}

func (r *stubPackageRepo) DB() *gorm.DB { return nil }

var _ repository.PackageRepository = (*stubPackageRepo)(nil)

// ── Machine ──────────────────────────────────────────────────────────────────

type stubMachineRepo struct {
	machines map[uuid.UUID]*model.Machine
}

func newStubMachineRepo() *stubMachineRepo {
	return &stubMachineRepo{machines: make(map[uuid.UUID]*model.Machine)}
}

func (r *stubMachineRepo) add(m *model.Machine) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.machines[m.ID] = m
}

func (r *stubMachineRepo) Create(_ context.Context, m *model.Machine) error {
	for _, other := range r.machines {
		if other.SerialNumber == m.SerialNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.machines[m.ID] = m
	return nil
}

func (r *stubMachineRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Machine, error) {
	m, ok := r.machines[id]
	if !ok {
		return nil, errNotFound
	}
	return m, nil
}

func (r *stubMachineRepo) List(_ context.Context, filter dto.MachineFilter) ([]model.Machine, error) {
	var out []model.Machine
	for _, m := range r.machines {
		if filter.Allocation != "" && m.Allocation != filter.Allocation {
			continue
		}
		if filter.Status != "" && m.Status != filter.Status {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

func (r *stubMachineRepo) Update(_ context.Context, m *model.Machine) error {
	r.machines[m.ID] = m
	return nil
}

func (r *stubMachineRepo) SaveTx(_ *gorm.DB, m *model.Machine) error {
	r.machines[m.ID] = m
	return nil
}

func (r *stubMachineRepo) ReplaceCheckingsTx(_ *gorm.DB, machineID uuid.UUID, checkings []model.MachineChecking) error {
	m, ok := r.machines[machineID]
	if !ok {
		return errNotFound
	}
	for i := range checkings {
		if checkings[i].ID == uuid.Nil {
			checkings[i].ID = uuid.New()
		}
	}
	m.Checkings = checkings
	return nil
}

func (r *stubMachineRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.machines, id)
	return nil
}

func (r *stubMachineRepo) SerialExists(_ context.Context, serial string) (bool, error) {
	for _, m := range r.machines {
		if m.SerialNumber == serial {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubMachineRepo) ReserveTx(_ *gorm.DB, id uuid.UUID) (bool, error) {
	m, ok := r.machines[id]
	if !ok {
		return false, errNotFound
	}
	if m.Status != model.MachineInactive {
		return false, nil
	}
	m.Status = model.MachineActive
	return true, nil
}

func (r *stubMachineRepo) ReleaseTx(_ *gorm.DB, id uuid.UUID) error {
	m, ok := r.machines[id]
	if !ok {
		return errNotFound
	}
	if m.Status == model.MachineActive {
		m.Status = model.MachineInactive
	}
	return nil
}

func (r *stubMachineRepo) DB() *gorm.DB { return nil }

var _ repository.MachineRepository = (*stubMachineRepo)(nil)

// ── Product ──────────────────────────────────────────────────────────────────

type stubProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *stubProductRepo) add(p *model.Product) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	for i := range p.Ingredients {
		if p.Ingredients[i].ID == uuid.Nil {
			p.Ingredients[i].ID = uuid.New()
		}
		p.Ingredients[i].ProductID = p.ID
	}
	r.products[p.ID] = p
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	for _, other := range r.products {
		if other.ProductCode == p.ProductCode {
			return gorm.ErrDuplicatedKey
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, errNotFound
	}
	return p, nil
}

func (r *stubProductRepo) List(_ context.Context, _ dto.ProductFilter) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) SaveTx(_ *gorm.DB, p *model.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) ReplaceIngredientsTx(_ *gorm.DB, productID uuid.UUID, ingredients []model.Ingredient) error {
	p, ok := r.products[productID]
	if !ok {
		return errNotFound
	}
	for i := range ingredients {
		if ingredients[i].ID == uuid.Nil {
			ingredients[i].ID = uuid.New()
		}
	}
	p.Ingredients = ingredients
	return nil
}

func (r *stubProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.products, id)
	return nil
}

func (r *stubProductRepo) CodeExists(_ context.Context, code string) (bool, error) {
	for _, p := range r.products {
		if p.ProductCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

var _ repository.ProductRepository = (*stubProductRepo)(nil)

// ── User ─────────────────────────────────────────────────────────────────────

type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *stubUserRepo) add(u *model.User) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	for _, other := range r.users {
		if other.Email == u.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, errNotFound
	}
	return u, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email && u.Active {
			return u, nil
		}
	}
	return nil, errNotFound
}

func (r *stubUserRepo) List(_ context.Context, includeInactive bool) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		if !includeInactive && !u.Active {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *model.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return errNotFound
	}
	u.Active = false
	return nil
}

var _ repository.UserRepository = (*stubUserRepo)(nil)
