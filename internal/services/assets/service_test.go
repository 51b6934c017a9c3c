package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"github.com/xelth-com/eckassets/internal/access"
	"github.com/xelth-com/eckassets/internal/apperr"
	"github.com/xelth-com/eckassets/internal/models"
	"github.com/xelth-com/eckassets/internal/repository"
	"github.com/xelth-com/eckassets/internal/services/history"
	"github.com/xelth-com/eckassets/internal/services/qr"
	"github.com/xelth-com/eckassets/internal/testutil"
)

func TestMain(m *testing.M) {
	os.Exit(testutil.RunWithDatabase(m))
}

type fakeRenderer struct {
	mu        sync.Mutex
	n         int
	released  []string
	renderErr error
}

func (f *fakeRenderer) Render(_ context.Context, assetID uint) (qr.Rendered, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.renderErr != nil {
		return qr.Rendered{}, f.renderErr
	}
	f.n++
	return qr.Rendered{
		Content:  qr.Content("http://test/assets", assetID),
		ImageRef: fmt.Sprintf("img-%d-%d.png", assetID, f.n),
	}, nil
}

func (f *fakeRenderer) Release(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, ref)
	return nil
}

type failingHistory struct{}

func (failingHistory) Record(context.Context, history.Entry) error {
	return errors.New("history table locked")
}

type fixture struct {
	db       *gorm.DB
	svc      *Service
	renderer *fakeRenderer
	logs     *observer.ObservedLogs
	company  *models.Company
	admin    access.Identity
	tech     access.Identity
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	log, logs := testutil.ObservedLogger()
	renderer := &fakeRenderer{}
	company := testutil.SeedCompany(t, db, "acme")

	return &fixture{
		db:       db,
		svc:      NewService(repos, history.NewRecorder(repos.History), renderer, "http://test/assets", log),
		renderer: renderer,
		logs:     logs,
		company:  company,
		admin:    access.Identity{UserID: 1, CompanyID: company.ID, Role: access.RoleAdmin},
		tech:     access.Identity{UserID: 2, CompanyID: company.ID, Role: access.RoleTechnician},
	}
}

func TestCreate_StoresQRAndHistory(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	asset, err := f.svc.Create(ctx, f.admin, CreateInput{
		Code:          "LAP-001",
		Name:          "Laptop",
		PurchaseValue: decimal.NewNullDecimal(decimal.RequireFromString("1299.90")),
	})
	require.NoError(t, err)
	assert.Equal(t, models.AssetStatusActive, asset.Status)
	assert.Equal(t, f.company.ID, asset.CompanyID)

	detail, err := f.svc.Get(ctx, f.admin, asset.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.QR)
	assert.Equal(t, fmt.Sprintf("http://test/assets/%d", asset.ID), detail.QR.Content)
	require.Len(t, detail.History, 1)
	assert.Equal(t, history.ActionCreated, detail.History[0].Action)
	assert.Equal(t, "active", detail.History[0].StatusAfter)
	assert.True(t, detail.PurchaseValue.Valid)
	assert.Equal(t, "1299.9", detail.PurchaseValue.Decimal.String())
}

func TestCreate_RejectsDuplicateCodeAcrossCompanies(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	other := testutil.SeedCompany(t, f.db, "globex")

	first, err := f.svc.Create(ctx, f.admin, CreateInput{Code: "DUP-1", Name: "First"})
	require.NoError(t, err)

	otherAdmin := access.Identity{UserID: 9, CompanyID: other.ID, Role: access.RoleAdmin}
	_, err = f.svc.Create(ctx, otherAdmin, CreateInput{Code: "DUP-1", Name: "Second"})
	require.ErrorIs(t, err, apperr.ErrConflict)

	stored, err := f.svc.Get(ctx, f.admin, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "First", stored.Name)
	assert.Equal(t, f.company.ID, stored.CompanyID)
}

func TestCreate_SurvivesSideEffectFailures(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.renderer.renderErr = errors.New("renderer offline")
	f.svc.history = failingHistory{}

	asset, err := f.svc.Create(ctx, f.admin, CreateInput{Code: "SE-1", Name: "Printer"})
	require.NoError(t, err)
	require.NotZero(t, asset.ID)

	warnings := f.logs.FilterMessage("side effect failed")
	assert.Equal(t, 1, warnings.FilterField(zap.String("effect", "qr render")).Len())
	assert.Equal(t, 1, warnings.FilterField(zap.String("effect", "history")).Len())

	detail, err := f.svc.Get(ctx, f.admin, asset.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.QR)
	assert.Empty(t, detail.History)
}

func TestCreate_Validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.admin, CreateInput{Code: " ", Name: "x"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.Create(ctx, f.admin, CreateInput{Code: "X", Name: "x", Status: "broken"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.Create(ctx, f.tech, CreateInput{Code: "X", Name: "x"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestUpdate_AppendsOneEntryPerTrackedChange(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	site := testutil.SeedSite(t, f.db, f.company.ID, "HQ")
	area1 := testutil.SeedArea(t, f.db, site.ID, "IT")
	area2 := testutil.SeedArea(t, f.db, site.ID, "Finance")
	emp := testutil.SeedEmployee(t, f.db, f.company.ID, "Ana", nil)

	asset, err := f.svc.Create(ctx, f.admin, CreateInput{Code: "H-1", Name: "Desk", AreaID: &area1.ID})
	require.NoError(t, err)

	inMaint := models.AssetStatusInMaintenance
	active := models.AssetStatusActive
	patches := []UpdateInput{
		{Status: &inMaint},
		{AreaID: Set(&area2.ID)},
		{ResponsibleID: Set(&emp.ID)},
		{Status: &active},
		{ResponsibleID: Set[*uint](nil)},
	}
	for _, p := range patches {
		_, err := f.svc.Update(ctx, f.admin, asset.ID, p)
		require.NoError(t, err)
	}

	// untracked change writes nothing
	name := "Standing desk"
	_, err = f.svc.Update(ctx, f.admin, asset.ID, UpdateInput{Name: &name})
	require.NoError(t, err)

	var entries []models.AssetHistoryEntry
	require.NoError(t, f.db.Where("asset_id = ? AND action = ?", asset.ID, history.ActionUpdated).
		Order("id ASC").Find(&entries).Error)
	require.Len(t, entries, len(patches))

	assert.Equal(t, "active", entries[0].StatusBefore)
	assert.Equal(t, "in_maintenance", entries[0].StatusAfter)

	require.NotNil(t, entries[1].AreaBefore)
	require.NotNil(t, entries[1].AreaAfter)
	assert.Equal(t, area1.ID, *entries[1].AreaBefore)
	assert.Equal(t, area2.ID, *entries[1].AreaAfter)

	assert.Nil(t, entries[2].ResponsibleBefore)
	require.NotNil(t, entries[2].ResponsibleAfter)
	assert.Equal(t, emp.ID, *entries[2].ResponsibleAfter)

	assert.Equal(t, "in_maintenance", entries[3].StatusBefore)
	assert.Equal(t, "active", entries[3].StatusAfter)

	require.NotNil(t, entries[4].ResponsibleBefore)
	assert.Nil(t, entries[4].ResponsibleAfter)

	// earlier rows are untouched by later updates
	var first models.AssetHistoryEntry
	require.NoError(t, f.db.First(&first, entries[0].ID).Error)
	assert.Equal(t, entries[0].StatusAfter, first.StatusAfter)
	assert.Equal(t, entries[0].CreatedAt.UnixMicro(), first.CreatedAt.UnixMicro())
}

func TestUpdate_MultipleFieldsInOneCall(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	site := testutil.SeedSite(t, f.db, f.company.ID, "HQ")
	area := testutil.SeedArea(t, f.db, site.ID, "IT")
	asset := testutil.SeedAsset(t, f.db, f.company.ID, "M-1")

	lost := models.AssetStatusLost
	_, err := f.svc.Update(ctx, f.admin, asset.ID, UpdateInput{Status: &lost, AreaID: Set(&area.ID)})
	require.NoError(t, err)

	count, err := repository.NewHistoryRepository(f.db).CountByAction(ctx, asset.ID, history.ActionUpdated)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestUpdate_CodeConflictAndNotFound(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutil.SeedAsset(t, f.db, f.company.ID, "TAKEN")
	asset := testutil.SeedAsset(t, f.db, f.company.ID, "MINE")

	taken := "TAKEN"
	_, err := f.svc.Update(ctx, f.admin, asset.ID, UpdateInput{Code: &taken})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	same := "MINE"
	_, err = f.svc.Update(ctx, f.admin, asset.ID, UpdateInput{Code: &same})
	assert.NoError(t, err)

	_, err = f.svc.Update(ctx, f.admin, 99999, UpdateInput{Code: &same})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdate_HistoryFailureIsNotFatal(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.svc.history = failingHistory{}
	asset := testutil.SeedAsset(t, f.db, f.company.ID, "HF-1")

	retired := models.AssetStatusRetired
	updated, err := f.svc.Update(ctx, f.admin, asset.ID, UpdateInput{Status: &retired})
	require.NoError(t, err)
	assert.Equal(t, models.AssetStatusRetired, updated.Status)
	assert.Equal(t, 1, f.logs.FilterField(zap.String("effect", "history")).Len())
}

func TestSetStatus_ByTechnician(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	asset := testutil.SeedAsset(t, f.db, f.company.ID, "T-1")

	lost := models.AssetStatusLost
	_, err := f.svc.Update(ctx, f.tech, asset.ID, UpdateInput{Status: &lost})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	updated, err := f.svc.SetStatus(ctx, f.tech, asset.ID, models.AssetStatusInMaintenance)
	require.NoError(t, err)
	assert.Equal(t, models.AssetStatusInMaintenance, updated.Status)

	// no-op change records nothing
	_, err = f.svc.SetStatus(ctx, f.tech, asset.ID, models.AssetStatusInMaintenance)
	require.NoError(t, err)

	entries, err := f.svc.History(ctx, f.tech, asset.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, history.ActionStatusChanged, entries[0].Action)
	assert.Equal(t, uint(2), entries[0].UserID)

	_, err = f.svc.SetStatus(ctx, f.tech, asset.ID, "melted")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestGet_RelationsAndRedaction(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	site := testutil.SeedSite(t, f.db, f.company.ID, "Plant")
	cat := testutil.SeedCategory(t, f.db, f.company.ID, "IT")
	emp := testutil.SeedEmployee(t, f.db, f.company.ID, "Luis", nil)
	asset := testutil.SeedAsset(t, f.db, f.company.ID, "G-1", func(a *models.Asset) {
		a.SiteID = &site.ID
		a.CategoryID = &cat.ID
		a.ResponsibleID = &emp.ID
		a.CurrentValue = decimal.NewNullDecimal(decimal.NewFromInt(500))
	})
	require.NoError(t, f.db.Create(&models.Assignment{AssetID: asset.ID, EmployeeID: emp.ID, IssuedByUserID: 1, AssignedAt: asset.CreatedAt}).Error)
	require.NoError(t, f.db.Create(&models.Warranty{AssetID: asset.ID, Provider: "Dell"}).Error)

	detail, err := f.svc.Get(ctx, f.admin, asset.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Company)
	assert.Equal(t, "acme", detail.Company.Name)
	require.NotNil(t, detail.Site)
	assert.Equal(t, "Plant", detail.Site.Name)
	require.NotNil(t, detail.Category)
	require.NotNil(t, detail.Responsible)
	assert.Equal(t, "Luis", detail.Responsible.Name)
	assert.Nil(t, detail.Area)
	assert.Len(t, detail.Assignments, 1)
	assert.Len(t, detail.Warranties, 1)
	assert.True(t, detail.CurrentValue.Valid)

	techView, err := f.svc.Get(ctx, f.tech, asset.ID)
	require.NoError(t, err)
	assert.False(t, techView.CurrentValue.Valid)

	_, err = f.svc.Get(ctx, f.admin, 424242)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestList_TenantScope(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	other := testutil.SeedCompany(t, f.db, "globex")
	testutil.SeedAsset(t, f.db, f.company.ID, "L-1")
	testutil.SeedAsset(t, f.db, f.company.ID, "L-2", func(a *models.Asset) { a.Status = models.AssetStatusRetired })
	testutil.SeedAsset(t, f.db, other.ID, "L-3")

	mine, err := f.svc.List(ctx, f.admin, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	retired, err := f.svc.List(ctx, f.admin, ListFilter{Status: models.AssetStatusRetired})
	require.NoError(t, err)
	require.Len(t, retired, 1)
	assert.Equal(t, "L-2", retired[0].Code)

	root := access.Identity{UserID: 100, Role: access.RoleSystemAdmin}
	all, err := f.svc.List(ctx, root, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	pinned, err := f.svc.List(ctx, root, ListFilter{CompanyID: &other.ID})
	require.NoError(t, err)
	require.Len(t, pinned, 1)
	assert.Equal(t, "L-3", pinned[0].Code)

	// explicit company from a non-super caller is honored as given
	crossed, err := f.svc.List(ctx, f.admin, ListFilter{CompanyID: &other.ID})
	require.NoError(t, err)
	assert.Len(t, crossed, 1)
}

func TestRemove_CascadesDependents(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	emp := testutil.SeedEmployee(t, f.db, f.company.ID, "Eva", nil)

	asset, err := f.svc.Create(ctx, f.admin, CreateInput{Code: "R-1", Name: "Drill"})
	require.NoError(t, err)
	require.NoError(t, f.db.Create(&models.Assignment{AssetID: asset.ID, EmployeeID: emp.ID, IssuedByUserID: 1, AssignedAt: asset.CreatedAt}).Error)
	require.NoError(t, f.db.Create(&models.MaintenanceRecord{AssetID: asset.ID, TechnicianID: 2, Type: models.MaintenanceCorrective, ExecutedAt: asset.CreatedAt}).Error)

	require.NoError(t, f.svc.Remove(ctx, f.admin, asset.ID))

	for _, model := range []interface{}{&models.Assignment{}, &models.MaintenanceRecord{}, &models.AssetHistoryEntry{}, &models.AssetQR{}} {
		var count int64
		require.NoError(t, f.db.Model(model).Where("asset_id = ?", asset.ID).Count(&count).Error)
		assert.Zero(t, count, "%T", model)
	}
	assert.Equal(t, []string{fmt.Sprintf("img-%d-1.png", asset.ID)}, f.renderer.released)

	assert.ErrorIs(t, f.svc.Remove(ctx, f.admin, asset.ID), apperr.ErrNotFound)
	assert.ErrorIs(t, f.svc.Remove(ctx, f.tech, asset.ID), apperr.ErrForbidden)
}

func TestRegenerateQR_ReplacesAndReleases(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	asset, err := f.svc.Create(ctx, f.admin, CreateInput{Code: "Q-1", Name: "Scanner"})
	require.NoError(t, err)

	row, err := f.svc.RegenerateQR(ctx, f.tech, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("img-%d-2.png", asset.ID), row.ImageRef)
	assert.Equal(t, []string{fmt.Sprintf("img-%d-1.png", asset.ID)}, f.renderer.released)

	var count int64
	require.NoError(t, f.db.Model(&models.AssetQR{}).Where("asset_id = ?", asset.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	_, err = f.svc.RegenerateQR(ctx, f.admin, 123456)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLabelsPDF(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	other := testutil.SeedCompany(t, f.db, "globex")
	a := testutil.SeedAsset(t, f.db, f.company.ID, "P-1")
	b := testutil.SeedAsset(t, f.db, other.ID, "P-2")

	pdf, err := f.svc.LabelsPDF(ctx, f.admin, []uint{a.ID, b.ID})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	_, err = f.svc.LabelsPDF(ctx, f.admin, []uint{b.ID})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.LabelsPDF(ctx, f.admin, nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
