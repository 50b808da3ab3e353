package repositories_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/2lambda123/nasa-cumulus-sub001/config"
	"github.com/2lambda123/nasa-cumulus-sub001/internal/repositories/collection"
	"github.com/2lambda123/nasa-cumulus-sub001/internal/repositories/execution"
	"github.com/2lambda123/nasa-cumulus-sub001/internal/repositories/file"
	"github.com/2lambda123/nasa-cumulus-sub001/internal/repositories/granule"
	"github.com/2lambda123/nasa-cumulus-sub001/internal/repositories/granuleexecution"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/database"
	cumuluserrors "github.com/2lambda123/nasa-cumulus-sub001/pkg/errors"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/models"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

const resetTables = `TRUNCATE granules_executions, files, granules, pdrs, executions,
	async_operations, providers, collections RESTART IDENTITY CASCADE`

func setupDB(t *testing.T) database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping PostgreSQL repository test in short mode")
	}
	if os.Getenv("DB_HOST") == "" {
		t.Skip("DB_HOST not set")
	}

	cfg, err := config.Load(nil)
	require.NoError(t, err)

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.DatabaseConfig(), testLogger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	schema := database.NewSchemaService(testLogger, &database.SchemaConfig{FolderPath: "../../db/pg"})
	require.NoError(t, schema.Apply(db))

	_, err = db.ExecContext(ctx, resetTables)
	require.NoError(t, err)
	return db
}

func ts(minute int) time.Time {
	return time.Date(2024, 1, 1, 0, minute, 0, 0, time.UTC)
}

func TestExecutionUpsert_RunningKeepsTerminalDetail(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := execution.NewRepository(db, testLogger)

	final, err := database.NewJSON(map[string]any{"done": true})
	require.NoError(t, err)
	completed := &models.Execution{
		Arn:          "arn:exec:a",
		Status:       "completed",
		FinalPayload: final,
		CreatedAt:    ts(0),
		UpdatedAt:    ts(5),
	}
	id, err := repo.Upsert(ctx, completed)
	require.NoError(t, err)

	running := &models.Execution{
		Arn:       "arn:exec:a",
		Status:    models.StatusRunning,
		CreatedAt: ts(0),
		UpdatedAt: ts(6),
	}
	again, err := repo.Upsert(ctx, running)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	stored, err := repo.GetByArn(ctx, "arn:exec:a")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "completed", stored.Status)
	assert.JSONEq(t, `{"done":true}`, string(stored.FinalPayload))
	assert.True(t, stored.UpdatedAt.Equal(ts(6)))
}

func TestGranuleUpsert_Guards(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	collectionID, err := collection.NewRepository(db, testLogger).Create(ctx, "MOD09GQ", "006")
	require.NoError(t, err)
	executionID, err := execution.NewRepository(db, testLogger).Upsert(ctx, &models.Execution{
		Arn: "arn:exec:g", Status: "completed", CreatedAt: ts(0), UpdatedAt: ts(0),
	})
	require.NoError(t, err)

	granules := granule.NewRepository(db, testLogger)
	links := granuleexecution.NewRepository(db, testLogger)

	granuleID, err := granules.Upsert(ctx, &models.Granule{
		GranuleID: "g-1", CollectionCumulusID: collectionID, Status: "completed",
		CreatedAt: ts(10), UpdatedAt: ts(10),
	}, executionID)
	require.NoError(t, err)
	require.NoError(t, links.Link(ctx, granuleID, executionID))
	require.NoError(t, links.Link(ctx, granuleID, executionID))

	linked, err := links.Exists(ctx, granuleID, executionID)
	require.NoError(t, err)
	assert.True(t, linked)
	linked, err = links.Exists(ctx, granuleID, executionID+1)
	require.NoError(t, err)
	assert.False(t, linked)

	files := file.NewRepository(db, testLogger)
	for _, key := range []string{"g-1.jpg", "g-1.hdf", "g-1.jpg"} {
		_, err := files.Upsert(ctx, &models.File{
			GranuleCumulusID: granuleID, Bucket: "protected", Key: key, CreatedAt: ts(10), UpdatedAt: ts(10),
		})
		require.NoError(t, err)
	}
	stored, err := files.ListByGranule(ctx, granuleID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "g-1.hdf", stored[0].Key)
	assert.Equal(t, "g-1.jpg", stored[1].Key)

	t.Run("older created_at is rejected", func(t *testing.T) {
		_, err := granules.Upsert(ctx, &models.Granule{
			GranuleID: "g-1", CollectionCumulusID: collectionID, Status: "failed",
			CreatedAt: ts(1), UpdatedAt: ts(20),
		}, executionID)
		assert.True(t, cumuluserrors.IsWriteConflict(err))
	})

	t.Run("running already linked is rejected", func(t *testing.T) {
		_, err := granules.Upsert(ctx, &models.Granule{
			GranuleID: "g-1", CollectionCumulusID: collectionID, Status: models.StatusRunning,
			CreatedAt: ts(10), UpdatedAt: ts(30),
		}, executionID)
		assert.True(t, cumuluserrors.IsWriteConflict(err))

		stored, err := granules.Get(ctx, "g-1", collectionID)
		require.NoError(t, err)
		assert.Equal(t, "completed", stored.Status)
	})
}

func TestTransactor_RollsBackGranuleAndFiles(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	collectionID, err := collection.NewRepository(db, testLogger).Create(ctx, "MOD09GQ", "006")
	require.NoError(t, err)

	granules := granule.NewRepository(db, testLogger)
	files := file.NewRepository(db, testLogger)
	boom := errors.New("boom")

	var granuleID int64
	err = database.NewTransactor(db, testLogger).WithTransaction(ctx, func(ctx context.Context) error {
		id, err := granules.Upsert(ctx, &models.Granule{
			GranuleID: "g-2", CollectionCumulusID: collectionID, Status: "completed",
			CreatedAt: ts(0), UpdatedAt: ts(0),
		}, 0)
		if err != nil {
			return err
		}
		granuleID = id
		if _, err := files.Upsert(ctx, &models.File{
			GranuleCumulusID: id, Bucket: "protected", Key: "g-2.hdf", CreatedAt: ts(0), UpdatedAt: ts(0),
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	stored, err := granules.Get(ctx, "g-2", collectionID)
	require.NoError(t, err)
	assert.Nil(t, stored)

	orphans, err := files.ListByGranule(ctx, granuleID)
	require.NoError(t, err)
	assert.Empty(t, orphans)
}
