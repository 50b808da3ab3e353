package migration

import (
	"context"
	"testing"

	cumuluserrors "github.com/2lambda123/nasa-cumulus-sub001/pkg/errors"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func migrateExecution(t *testing.T, h *harness, arn string) int64 {
	t.Helper()
	require.NoError(t, h.executionMigrator(0).MigrateRecord(context.Background(), executionRecord(arn, "", "completed", 100)))
	row, ok := h.db.execution(arn)
	require.True(t, ok)
	return row.CumulusID
}

func TestGranuleMigrator_WritesGranuleFilesAndLink(t *testing.T) {
	h := newHarness(t)
	executionID := migrateExecution(t, h, "E")
	h.put(t, granulesTable, granuleRecord("G1", "E", "completed", 100,
		fileRecord("protected", "G1.hdf"),
		fileRecord("public", "G1.jpg"),
	))

	m := h.granuleMigrator()
	result := h.drive(t, m, granulesTable)

	assert.Equal(t, models.MigrationSummary{TotalRecords: 1, Migrated: 1}, result.Summary)
	assert.Equal(t, models.MigrationSummary{TotalRecords: 2, Migrated: 2}, m.FilesSummary())

	granule, ok := h.db.granule("G1")
	require.True(t, ok)
	require.NotNil(t, granule.ProviderCumulusID)
	assert.Equal(t, h.db.t.providers[testProvider], *granule.ProviderCumulusID)
	assert.Equal(t, 2, h.db.fileCount())
	assert.True(t, h.db.linked(granule.CumulusID, executionID))
}

func TestGranuleMigrator_IsIdempotent(t *testing.T) {
	h := newHarness(t)
	migrateExecution(t, h, "E")
	h.put(t, granulesTable, granuleRecord("G1", "E", "completed", 100, fileRecord("protected", "G1.hdf")))

	h.drive(t, h.granuleMigrator(), granulesTable)

	m := h.granuleMigrator()
	result := h.drive(t, m, granulesTable)
	assert.Equal(t, models.MigrationSummary{TotalRecords: 1, Skipped: 1}, result.Summary)
	assert.Equal(t, models.MigrationSummary{TotalRecords: 1, Skipped: 1}, m.FilesSummary())
}

func TestGranuleMigrator_MonotonicUpdate(t *testing.T) {
	h := newHarness(t)
	migrateExecution(t, h, "E")
	m := h.granuleMigrator()
	ctx := context.Background()

	newer := granuleRecord("G1", "E", "completed", 200)
	newer["cmrLink"] = "https://cmr/new"
	older := granuleRecord("G1", "E", "completed", 100)
	older["cmrLink"] = "https://cmr/old"

	require.NoError(t, m.MigrateRecord(ctx, newer))
	err := m.MigrateRecord(ctx, older)
	assert.True(t, cumuluserrors.IsRecordAlreadyMigrated(err))

	granule, _ := h.db.granule("G1")
	assert.Equal(t, "https://cmr/new", *granule.CmrLink)
}

func TestGranuleMigrator_RollsBackOnBadFile(t *testing.T) {
	h := newHarness(t)
	executionID := migrateExecution(t, h, "E")
	ctx := context.Background()

	bad := granuleRecord("G1", "E", "completed", 100,
		fileRecord("protected", "G1.hdf"),
		map[string]any{"fileName": "no-location.txt"},
	)
	m := h.granuleMigrator()
	err := m.MigrateRecord(ctx, bad)
	require.Error(t, err)
	assert.True(t, cumuluserrors.IsSchemaValidationError(err))
	assert.Equal(t, models.MigrationSummary{TotalRecords: 2, Failed: 2}, m.FilesSummary())

	_, ok := h.db.granule("G1")
	assert.False(t, ok)
	assert.Zero(t, h.db.fileCount())

	fixed := granuleRecord("G1", "E", "completed", 100,
		fileRecord("protected", "G1.hdf"),
		map[string]any{"filename": "s3://public/G1.txt"},
	)
	require.NoError(t, m.MigrateRecord(ctx, fixed))

	granule, ok := h.db.granule("G1")
	require.True(t, ok)
	assert.Equal(t, 2, h.db.fileCount())
	assert.True(t, h.db.linked(granule.CumulusID, executionID))
}

func TestGranuleMigrator_RollsBackOnStoreFailure(t *testing.T) {
	h := newHarness(t)
	migrateExecution(t, h, "E")
	h.db.failFileKey = "public/G1.jpg"

	err := h.granuleMigrator().MigrateRecord(context.Background(), granuleRecord("G1", "E", "completed", 100,
		fileRecord("protected", "G1.hdf"),
		fileRecord("public", "G1.jpg"),
	))
	require.Error(t, err)
	assert.Equal(t, "unclassified", cumuluserrors.Reason(err))

	_, ok := h.db.granule("G1")
	assert.False(t, ok)
	assert.Zero(t, h.db.fileCount())
}

func TestGranuleMigrator_RunningGranuleAlreadyLinked(t *testing.T) {
	h := newHarness(t)
	migrateExecution(t, h, "E")
	m := h.granuleMigrator()
	ctx := context.Background()

	require.NoError(t, m.MigrateRecord(ctx, granuleRecord("G1", "E", "running", 100)))

	err := m.MigrateRecord(ctx, granuleRecord("G1", "E", "running", 200))
	require.Error(t, err)
	assert.True(t, cumuluserrors.IsWriteConflict(err))

	granule, _ := h.db.granule("G1")
	assert.Equal(t, int64(100), granule.UpdatedAt.UnixMilli())
}

func TestGranuleMigrator_CreatedAtGuard(t *testing.T) {
	h := newHarness(t)
	migrateExecution(t, h, "E")
	m := h.granuleMigrator()
	ctx := context.Background()

	first := granuleRecord("G1", "E", "completed", 100)
	first["createdAt"] = 90
	require.NoError(t, m.MigrateRecord(ctx, first))

	// newer update but created before the stored row
	second := granuleRecord("G1", "E", "completed", 200)
	second["createdAt"] = 50
	err := m.MigrateRecord(ctx, second)
	assert.True(t, cumuluserrors.IsWriteConflict(err))
}

func TestGranuleMigrator_Dependencies(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r map[string]any)
		reason string
	}{
		{
			name:   "unknown collection",
			mutate: func(r map[string]any) { r["collectionId"] = "missing___1" },
			reason: "dependency_not_found",
		},
		{
			name:   "unmigrated execution",
			mutate: func(r map[string]any) { r["execution"] = "https://console/executions/details/arn:states:nope" },
			reason: "dependency_not_found",
		},
		{
			name:   "unknown provider",
			mutate: func(r map[string]any) { r["provider"] = "nobody" },
			reason: "dependency_not_found",
		},
		{
			name:   "missing granule id",
			mutate: func(r map[string]any) { delete(r, "granuleId") },
			reason: "schema_validation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			migrateExecution(t, h, "E")

			record := granuleRecord("G1", "E", "completed", 100)
			tt.mutate(record)
			err := h.granuleMigrator().MigrateRecord(context.Background(), record)
			assert.Equal(t, tt.reason, cumuluserrors.Reason(err))
		})
	}
}

func TestGranuleMigrator_PdrReferenceIsSoft(t *testing.T) {
	h := newHarness(t)
	migrateExecution(t, h, "E")
	m := h.granuleMigrator()
	ctx := context.Background()

	unmigrated := granuleRecord("G1", "E", "completed", 100)
	unmigrated["pdrName"] = "later.PDR"
	require.NoError(t, m.MigrateRecord(ctx, unmigrated))
	g1, _ := h.db.granule("G1")
	assert.Nil(t, g1.PdrCumulusID)

	require.NoError(t, h.pdrMigrator().MigrateRecord(ctx, pdrRecord("known.PDR", "", 100)))
	pdr, _ := h.db.pdr("known.PDR")

	migrated := granuleRecord("G2", "E", "completed", 100)
	migrated["pdrName"] = "known.PDR"
	require.NoError(t, m.MigrateRecord(ctx, migrated))
	g2, _ := h.db.granule("G2")
	require.NotNil(t, g2.PdrCumulusID)
	assert.Equal(t, pdr.CumulusID, *g2.PdrCumulusID)
}
