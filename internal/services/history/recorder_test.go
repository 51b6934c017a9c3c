package history

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckassets/internal/models"
	"github.com/xelth-com/eckassets/internal/repository"
	"github.com/xelth-com/eckassets/internal/testutil"
)

func TestMain(m *testing.M) {
	os.Exit(testutil.RunWithDatabase(m))
}

func u(v uint) *uint { return &v }

func TestChanged(t *testing.T) {
	base := Snapshot{ResponsibleID: u(1), AreaID: u(2), Status: models.AssetStatusActive}

	assert.Empty(t, Changed(base, base))
	assert.Empty(t, Changed(base, Snapshot{ResponsibleID: u(1), AreaID: u(2), Status: models.AssetStatusActive}))

	after := base
	after.Status = models.AssetStatusLost
	assert.Equal(t, []string{FieldStatus}, Changed(base, after))

	after = base
	after.ResponsibleID = nil
	after.AreaID = u(3)
	assert.Equal(t, []string{FieldResponsible, FieldArea}, Changed(base, after))
}

func TestDescribe(t *testing.T) {
	before := Snapshot{Status: models.AssetStatusActive}
	after := Snapshot{Status: models.AssetStatusRetired, ResponsibleID: u(9)}

	assert.Equal(t, "status: active -> retired", Describe(FieldStatus, before, after))
	assert.Equal(t, "responsibleEmployeeId: none -> 9", Describe(FieldResponsible, before, after))
}

func TestSnapshotOfCopiesPointers(t *testing.T) {
	a := &models.Asset{AreaID: u(4), Status: models.AssetStatusActive}
	snap := SnapshotOf(a)
	*a.AreaID = 5
	assert.Equal(t, uint(4), *snap.AreaID)
}

func TestRecorder_RecordAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	company := testutil.SeedCompany(t, db, "acme")
	asset := testutil.SeedAsset(t, db, company.ID, "A-1")

	rec := NewRecorder(repository.NewHistoryRepository(db))

	before := Snapshot{Status: models.AssetStatusActive}
	after := Snapshot{Status: models.AssetStatusLost}
	require.NoError(t, rec.Record(ctx, Entry{AssetID: asset.ID, UserID: 7, Action: ActionCreated}))
	require.NoError(t, rec.Record(ctx, Entry{
		AssetID: asset.ID, UserID: 7, Action: ActionUpdated,
		Description: Describe(FieldStatus, before, after),
		Before:      &before, After: &after,
	}))

	entries, err := rec.ForAsset(ctx, asset.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ActionUpdated, entries[0].Action)
	assert.Equal(t, "active", entries[0].StatusBefore)
	assert.Equal(t, "lost", entries[0].StatusAfter)
	assert.Equal(t, ActionCreated, entries[1].Action)
}
