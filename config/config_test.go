package config

import (
	"testing"
	"time"

	"github.com/2lambda123/nasa-cumulus-sub001/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "cumulus-migration", cfg.AppName)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "5432", cfg.DatabasePort)
	assert.Equal(t, int32(100), cfg.DynamoScanPageLimit)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, []string{"executions", "granules", "pdrs"}, cfg.MigrationEntities)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.False(t, cfg.RunOnce)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("EXECUTIONS_TABLE", "prefix-ExecutionsTable")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("RUN_ONCE", "true")
	t.Setenv("MIGRATION_ENTITIES", "pdrs,executions")
	t.Setenv("DB_CONN_MAX_LIFETIME", "30s")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "prefix-ExecutionsTable", cfg.ExecutionsTable)
	assert.Equal(t, "db.internal", cfg.DatabaseConfig().Host)
	assert.True(t, cfg.RunOnce)
	assert.Equal(t, 30*time.Second, cfg.DatabaseConnMaxLifetime)

	entities, err := cfg.Entities()
	require.NoError(t, err)
	assert.Equal(t, []models.Entity{models.EntityPdrs, models.EntityExecutions}, entities)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GRANULES_TABLE", "from-env")

	cfg, err := Load(map[string]string{
		"GRANULES_TABLE":         "from-override",
		"DB_PORT":                "6543",
		"MIGRATION_LOG_INTERVAL": "5",
		"SOMETHING_ELSE":         "ignored",
	})
	require.NoError(t, err)

	assert.Equal(t, "from-override", cfg.GranulesTable)
	assert.Equal(t, "6543", cfg.DatabasePort)
	assert.Equal(t, 5, cfg.MigrationLogInterval)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]string
	}{
		{name: "malformed number", overrides: map[string]string{"PORT": "abc"}},
		{name: "out of range", overrides: map[string]string{"MIGRATION_LOG_INTERVAL": "0"}},
		{name: "unknown entity", overrides: map[string]string{"MIGRATION_ENTITIES": "executions,rules"}},
		{name: "unknown log level", overrides: map[string]string{"LOG_LEVEL": "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.overrides)
			assert.Error(t, err)
		})
	}
}
