package maintenance

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/xelth-com/eckassets/internal/access"
	"github.com/xelth-com/eckassets/internal/apperr"
	"github.com/xelth-com/eckassets/internal/models"
	"github.com/xelth-com/eckassets/internal/repository"
	"github.com/xelth-com/eckassets/internal/testutil"
)

func TestMain(m *testing.M) {
	os.Exit(testutil.RunWithDatabase(m))
}

type fixture struct {
	db      *gorm.DB
	svc     *Service
	company *models.Company
	asset   *models.Asset
	admin   access.Identity
	tech    access.Identity
	other   access.Identity
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	log, _ := testutil.ObservedLogger()
	company := testutil.SeedCompany(t, db, "acme")
	return &fixture{
		db:      db,
		svc:     NewService(repository.NewRepositories(db), log),
		company: company,
		asset:   testutil.SeedAsset(t, db, company.ID, "M-1"),
		admin:   access.Identity{UserID: 1, CompanyID: company.ID, Role: access.RoleAdmin},
		tech:    access.Identity{UserID: 5, CompanyID: company.ID, Role: access.RoleTechnician},
		other:   access.Identity{UserID: 6, CompanyID: company.ID, Role: access.RoleTechnician},
	}
}

func TestCreate_TechnicianRecordsAreCorrectiveAndOwned(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	someoneElse := uint(99)
	rec, err := f.svc.Create(ctx, f.tech, CreateInput{
		AssetID:      f.asset.ID,
		TechnicianID: &someoneElse,
		Type:         models.MaintenancePreventive,
		Notes:        "belt slipping",
	})
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceCorrective, rec.Type)
	assert.Equal(t, f.tech.UserID, rec.TechnicianID)
	assert.False(t, rec.ExecutedAt.IsZero())
}

func TestCreate_Privileged(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tech := f.tech.UserID
	rec, err := f.svc.Create(ctx, f.admin, CreateInput{
		AssetID:      f.asset.ID,
		TechnicianID: &tech,
		Type:         models.MaintenancePreventive,
		Cost:         decimal.NewNullDecimal(decimal.NewFromFloat(120.25)),
	})
	require.NoError(t, err)
	assert.Equal(t, models.MaintenancePreventive, rec.Type)
	assert.Equal(t, tech, rec.TechnicianID)

	_, err = f.svc.Create(ctx, f.admin, CreateInput{AssetID: f.asset.ID})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.Create(ctx, f.admin, CreateInput{AssetID: 777, Type: models.MaintenanceCorrective})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateAsTechnician(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, f.tech, CreateInput{AssetID: f.asset.ID, Notes: "first"})
	require.NoError(t, err)

	notes := "second look"
	report := "bearing worn"
	updated, err := f.svc.Update(ctx, f.tech, rec.ID, UpdateInput{Notes: &notes, TechnicalReport: &report})
	require.NoError(t, err)
	assert.Equal(t, "second look", updated.Notes)
	assert.Equal(t, "bearing worn", updated.TechnicalReport)

	_, err = f.svc.UpdateAsTechnician(ctx, f.other, rec.ID, UpdateInput{Notes: &notes})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	preventive := models.MaintenancePreventive
	_, err = f.svc.UpdateAsTechnician(ctx, f.tech, rec.ID, UpdateInput{Type: &preventive})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	cost := decimal.NewNullDecimal(decimal.NewFromInt(10))
	_, err = f.svc.Update(ctx, f.tech, rec.ID, UpdateInput{Cost: &cost, Notes: &notes})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	reassign := f.other.UserID
	_, err = f.svc.UpdateAsTechnician(ctx, f.tech, rec.ID, UpdateInput{TechnicianID: &reassign})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	stored, err := f.svc.Get(ctx, f.admin, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceCorrective, stored.Type)
	assert.False(t, stored.Cost.Valid)
	assert.Equal(t, f.tech.UserID, stored.TechnicianID)
}

func TestUpdate_PrivilegedEditsAnyField(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, f.tech, CreateInput{AssetID: f.asset.ID})
	require.NoError(t, err)

	preventive := models.MaintenancePreventive
	cost := decimal.NewNullDecimal(decimal.RequireFromString("80.00"))
	reassign := f.other.UserID
	dur := 30
	tasks := []string{"oil"}
	updated, err := f.svc.Update(ctx, f.admin, rec.ID, UpdateInput{
		Type: &preventive, Cost: &cost, TechnicianID: &reassign, DurationMinutes: &dur, CompletedTasks: &tasks,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MaintenancePreventive, updated.Type)
	assert.Equal(t, reassign, updated.TechnicianID)
	assert.True(t, updated.Cost.Decimal.Equal(decimal.NewFromInt(80)))

	bad := models.MaintenanceType("cosmetic")
	_, err = f.svc.Update(ctx, f.admin, rec.ID, UpdateInput{Type: &bad})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.Update(ctx, f.admin, 5150, UpdateInput{Type: &preventive})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReadsAndListing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	older := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	mine, err := f.svc.Create(ctx, f.tech, CreateInput{AssetID: f.asset.ID, ExecutedAt: &older})
	require.NoError(t, err)
	theirs, err := f.svc.Create(ctx, f.other, CreateInput{AssetID: f.asset.ID, ExecutedAt: &newer})
	require.NoError(t, err)

	byAsset, err := f.svc.ForAsset(ctx, f.admin, f.asset.ID)
	require.NoError(t, err)
	require.Len(t, byAsset, 2)
	assert.Equal(t, theirs.ID, byAsset[0].ID)
	assert.Equal(t, mine.ID, byAsset[1].ID)

	_, err = f.svc.Get(ctx, f.tech, theirs.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	got, err := f.svc.Get(ctx, f.tech, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.ID)

	techList, err := f.svc.List(ctx, f.tech, ListFilter{})
	require.NoError(t, err)
	require.Len(t, techList, 1)
	assert.Equal(t, mine.ID, techList[0].ID)

	adminList, err := f.svc.List(ctx, f.admin, ListFilter{Type: models.MaintenanceCorrective})
	require.NoError(t, err)
	assert.Len(t, adminList, 2)

	_, err = f.svc.ForAsset(ctx, f.admin, 8080)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRemove(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, f.tech, CreateInput{AssetID: f.asset.ID})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Remove(ctx, f.tech, rec.ID), apperr.ErrForbidden)
	require.NoError(t, f.svc.Remove(ctx, f.admin, rec.ID))
	assert.ErrorIs(t, f.svc.Remove(ctx, f.admin, rec.ID), apperr.ErrNotFound)
}
