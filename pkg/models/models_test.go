package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCollectionID(t *testing.T) {
	tests := []struct {
		id          string
		wantName    string
		wantVersion string
		wantErr     bool
	}{
		{id: "MOD09GQ___006", wantName: "MOD09GQ", wantVersion: "006"},
		{id: "my___name___1.0", wantName: "my___name", wantVersion: "1.0"},
		{id: "MOD09GQ", wantErr: true},
		{id: "___006", wantErr: true},
		{id: "MOD09GQ___", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			name, version, err := ParseCollectionID(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantVersion, version)
			assert.Equal(t, tt.id, BuildCollectionID(name, version))
		})
	}
}

func TestOrderEntities(t *testing.T) {
	assert.Equal(t,
		[]Entity{EntityExecutions, EntityPdrs},
		OrderEntities([]Entity{EntityPdrs, EntityExecutions, EntityPdrs}))

	_, err := ParseEntity("rules")
	assert.Error(t, err)
	e, err := ParseEntity(" Granules ")
	require.NoError(t, err)
	assert.Equal(t, EntityGranules, e)
}

func TestMigrationSummary(t *testing.T) {
	var s MigrationSummary
	s.Add(OutcomeMigrated)
	s.Add(OutcomeSkipped)
	s.AddN(OutcomeFailed, 2)

	assert.Equal(t, MigrationSummary{TotalRecords: 4, Migrated: 1, Skipped: 1, Failed: 2}, s)

	body, err := json.Marshal(RunSummary{RunID: "r", Granules: &GranulesAndFilesSummary{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"run_id": "r",
		"granules": {
			"granules": {"total_dynamo_db_records": 0, "migrated": 0, "skipped": 0, "failed": 0},
			"files": {"total_dynamo_db_records": 0, "migrated": 0, "skipped": 0, "failed": 0}
		}
	}`, string(body))
}
