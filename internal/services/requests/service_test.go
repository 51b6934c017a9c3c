package requests

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xelth-com/eckassets/internal/access"
	"github.com/xelth-com/eckassets/internal/apperr"
	"github.com/xelth-com/eckassets/internal/models"
	"github.com/xelth-com/eckassets/internal/repository"
	"github.com/xelth-com/eckassets/internal/services/notify"
	"github.com/xelth-com/eckassets/internal/testutil"
)

func TestMain(m *testing.M) {
	os.Exit(testutil.RunWithDatabase(m))
}

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, notify.Message) error { return errors.New("smtp down") }

func TestWorkflow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	repos := repository.NewRepositories(db)
	log, _ := testutil.ObservedLogger()
	svc := NewService(repos, notify.NewService(repos.Notifications), log)

	company := testutil.SeedCompany(t, db, "acme")
	asset := testutil.SeedAsset(t, db, company.ID, "RQ-1")
	admin := access.Identity{UserID: 1, CompanyID: company.ID, Role: access.RoleAdmin}
	tech := access.Identity{UserID: 2, CompanyID: company.ID, Role: access.RoleTechnician}
	other := access.Identity{UserID: 3, CompanyID: company.ID, Role: access.RoleTechnician}

	req, err := svc.Create(ctx, tech, CreateInput{Kind: models.RequestSparePart, AssetID: &asset.ID, Reason: "need a new fan"})
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, req.Status)
	assert.Equal(t, company.ID, req.CompanyID)

	_, err = svc.Complete(ctx, admin, req.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = svc.Approve(ctx, tech, req.ID, "")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	approved, err := svc.Approve(ctx, admin, req.ID, "ok")
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, approved.Status)
	require.NotNil(t, approved.ApproverID)
	assert.Equal(t, admin.UserID, *approved.ApproverID)
	assert.NotNil(t, approved.DecidedAt)

	_, err = svc.Reject(ctx, admin, req.ID, "too late")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	completed, err := svc.Complete(ctx, admin, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestCompleted, completed.Status)

	notes, err := repos.Notifications.ListForUser(ctx, tech.UserID, false)
	require.NoError(t, err)
	require.Len(t, notes, 3)
	for _, n := range notes {
		assert.Equal(t, models.NotificationRequest, n.Kind)
	}

	_, err = svc.Get(ctx, other, req.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	own, err := svc.Get(ctx, tech, req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, own.ID)
}

func TestReject(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	repos := repository.NewRepositories(db)
	log, logs := testutil.ObservedLogger()
	svc := NewService(repos, failingNotifier{}, log)

	company := testutil.SeedCompany(t, db, "acme")
	admin := access.Identity{UserID: 1, CompanyID: company.ID, Role: access.RoleAdmin}
	tech := access.Identity{UserID: 2, CompanyID: company.ID, Role: access.RoleTechnician}

	req, err := svc.Create(ctx, tech, CreateInput{Kind: models.RequestRetirement, Reason: "broken beyond repair"})
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterField(zap.String("effect", "notify")).Len())

	_, err = svc.Reject(ctx, admin, req.ID, "  ")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	rejected, err := svc.Reject(ctx, admin, req.ID, "still under warranty")
	require.NoError(t, err)
	assert.Equal(t, models.RequestRejected, rejected.Status)
	assert.Equal(t, "still under warranty", rejected.Observations)

	_, err = svc.Complete(ctx, admin, req.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	_, err = svc.Approve(ctx, admin, 999, "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateValidationAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	repos := repository.NewRepositories(db)
	log, _ := testutil.ObservedLogger()
	svc := NewService(repos, notify.NewService(repos.Notifications), log)

	acme := testutil.SeedCompany(t, db, "acme")
	globex := testutil.SeedCompany(t, db, "globex")
	admin := access.Identity{UserID: 1, CompanyID: acme.ID, Role: access.RoleAdmin}
	tech := access.Identity{UserID: 2, CompanyID: acme.ID, Role: access.RoleTechnician}
	tech2 := access.Identity{UserID: 3, CompanyID: acme.ID, Role: access.RoleTechnician}
	foreign := access.Identity{UserID: 4, CompanyID: globex.ID, Role: access.RoleAdmin}

	_, err := svc.Create(ctx, tech, CreateInput{Kind: "gift", Reason: "x"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.Create(ctx, tech, CreateInput{Kind: models.RequestTransfer})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	missing := uint(4040)
	_, err = svc.Create(ctx, tech, CreateInput{Kind: models.RequestTransfer, AssetID: &missing, Reason: "move"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	for _, who := range []access.Identity{tech, tech, tech2, foreign} {
		_, err := svc.Create(ctx, who, CreateInput{Kind: models.RequestMaintenance, Reason: "noise"})
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, admin, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := svc.List(ctx, tech, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	pending, err := svc.List(ctx, foreign, ListFilter{Status: models.RequestPending})
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
