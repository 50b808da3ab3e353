package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertBuilder_OnConflictSetWhereReturning(t *testing.T) {
	ib := NewInsertBuilder()
	ib.InsertInto("granules").
		Cols("granule_id", "collection_cumulus_id", "status", "created_at").
		Values("g-1", int64(7), "running", "2024-01-01")
	ib.OnConflict("granule_id", "collection_cumulus_id").
		Set("status", "created_at").
		Where("granules.created_at <= %v", Excluded("created_at")).
		Where("NOT EXISTS (SELECT 1 FROM granules_executions WHERE execution_cumulus_id = %v)", int64(42))
	ib.Returning("cumulus_id")

	query, args := ib.Build()

	assert.Contains(t, query, "INSERT INTO granules")
	assert.Contains(t, query, " ON CONFLICT (granule_id, collection_cumulus_id) DO UPDATE SET status = EXCLUDED.status, created_at = EXCLUDED.created_at")
	assert.Contains(t, query, " WHERE granules.created_at <= EXCLUDED.created_at AND NOT EXISTS (SELECT 1 FROM granules_executions WHERE execution_cumulus_id = $5)")
	assert.Contains(t, query, " RETURNING cumulus_id")
	require.Len(t, args, 5)
	assert.Equal(t, int64(42), args[4])
}

func TestInsertBuilder_ConflictGuardKeepsLiteralOperators(t *testing.T) {
	ib := NewInsertBuilder()
	ib.InsertInto("granules").
		Cols("granule_id", "query_fields").
		Values("g-1", `{"a":1}`)
	ib.OnConflict("granule_id").
		Set("query_fields").
		Where("NOT (granules.query_fields ? %v) AND granules.status <> %v", "locked", "running")

	query, args := ib.Build()

	assert.Contains(t, query, "VALUES ($1, $2) ON CONFLICT (granule_id) DO UPDATE SET query_fields = EXCLUDED.query_fields")
	assert.Contains(t, query, " WHERE NOT (granules.query_fields ? $3) AND granules.status <> $4")
	assert.Equal(t, []any{"g-1", `{"a":1}`, "locked", "running"}, args)
}

func TestInsertBuilder_OnConflictDoNothing(t *testing.T) {
	ib := NewInsertBuilder()
	ib.InsertInto("granules_executions").
		Cols("granule_cumulus_id", "execution_cumulus_id").
		Values(int64(1), int64(2)).
		OnConflictDoNothing("granule_cumulus_id", "execution_cumulus_id")

	query, args := ib.Build()

	assert.Contains(t, query, " ON CONFLICT (granule_cumulus_id, execution_cumulus_id) DO NOTHING")
	assert.NotContains(t, query, "RETURNING")
	assert.Len(t, args, 2)
}

func TestJSON_ValueAndScan(t *testing.T) {
	var empty JSON
	v, err := empty.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	j, err := NewJSON(map[string]any{"a": 1})
	require.NoError(t, err)
	v, err = j.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(v.([]byte)))

	var scanned JSON
	require.NoError(t, scanned.Scan([]byte(`{"b":2}`)))
	assert.JSONEq(t, `{"b":2}`, string(scanned))
	require.NoError(t, scanned.Scan(nil))
	assert.Nil(t, scanned)
}
