package migration

import (
	"context"
	"testing"

	cumuluserrors "github.com/2lambda123/nasa-cumulus-sub001/pkg/errors"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPdrMigrator(t *testing.T) {
	h := newHarness(t)
	executionID := migrateExecution(t, h, "E")
	h.put(t, pdrsTable,
		pdrRecord("a.PDR", "E", 100),
		pdrRecord("b.PDR", "", 100),
	)

	result := h.drive(t, h.pdrMigrator(), pdrsTable)
	assert.Equal(t, models.MigrationSummary{TotalRecords: 2, Migrated: 2}, result.Summary)

	a, ok := h.db.pdr("a.PDR")
	require.True(t, ok)
	require.NotNil(t, a.ExecutionCumulusID)
	assert.Equal(t, executionID, *a.ExecutionCumulusID)
	assert.Equal(t, h.db.t.collections[testCollection], a.CollectionCumulusID)
	assert.Equal(t, h.db.t.providers[testProvider], a.ProviderCumulusID)

	b, ok := h.db.pdr("b.PDR")
	require.True(t, ok)
	assert.Nil(t, b.ExecutionCumulusID)

	again := h.drive(t, h.pdrMigrator(), pdrsTable)
	assert.Equal(t, models.MigrationSummary{TotalRecords: 2, Skipped: 2}, again.Summary)
}

func TestPdrMigrator_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r map[string]any)
		reason string
	}{
		{
			name:   "unknown provider",
			mutate: func(r map[string]any) { r["provider"] = "nobody" },
			reason: "dependency_not_found",
		},
		{
			name:   "unmigrated execution",
			mutate: func(r map[string]any) { r["execution"] = "https://console/executions/details/arn:states:nope" },
			reason: "dependency_not_found",
		},
		{
			name:   "missing provider",
			mutate: func(r map[string]any) { delete(r, "provider") },
			reason: "schema_validation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			record := pdrRecord("a.PDR", "", 100)
			tt.mutate(record)

			err := h.pdrMigrator().MigrateRecord(context.Background(), record)
			assert.Equal(t, tt.reason, cumuluserrors.Reason(err))
			_, ok := h.db.pdr("a.PDR")
			assert.False(t, ok)
		})
	}
}
