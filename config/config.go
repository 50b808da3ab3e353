package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/2lambda123/nasa-cumulus-sub001/pkg/database"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

type Config struct {
	AppName                       string `env:"APP_NAME" env-default:"cumulus-migration"`
	Port                          int    `env:"PORT" env-default:"3000" validate:"min=1,max=65535"`
	LogLevel                      string `env:"LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
	PrettyLogs                    bool   `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int    `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"900"`
	HttpServerReadTimeoutSeconds  int    `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int    `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	StartupMaxAttempts            int    `env:"STARTUP_MAX_ATTEMPTS" env-default:"5" validate:"min=1"`
	// RunOnce migrates once at startup and exits instead of serving the API.
	RunOnce bool `env:"RUN_ONCE" env-default:"false"`

	// PostgreSQL (target store)
	DatabaseDriver              string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseHost                string        `env:"DB_HOST" env-default:""`
	DatabasePort                string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName            string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword            string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                string        `env:"DB_NAME" env-default:"cumulus"`
	DatabaseSSLMode             string        `env:"DB_SQL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns        int           `env:"DB_MAX_OPEN_CONNS" env-default:"10"`
	DatabaseMaxIdleConns        int           `env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	DatabaseConnMaxLifetime     time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10m"`
	DatabaseMigrationsEnabled   bool          `env:"DB_MIGRATIONS_ENABLED" env-default:"false"`
	DatabaseMigrationFolderPath string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion    uint          `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationForce      int           `env:"DB_MIGRATION_FORCE" env-default:"0"`

	// DynamoDB (legacy store)
	ExecutionsTable     string `env:"EXECUTIONS_TABLE" env-default:""`
	GranulesTable       string `env:"GRANULES_TABLE" env-default:""`
	PdrsTable           string `env:"PDRS_TABLE" env-default:""`
	AWSRegion           string `env:"AWS_REGION" env-default:"us-east-1"`
	DynamoEndpoint      string `env:"DYNAMO_ENDPOINT" env-default:""`
	DynamoScanPageLimit int32  `env:"DYNAMO_SCAN_PAGE_LIMIT" env-default:"100" validate:"min=1"`

	// Migration
	MigrationEntities       []string `env:"MIGRATION_ENTITIES" env-default:"executions,granules,pdrs"`
	MigrationLogInterval    int      `env:"MIGRATION_LOG_INTERVAL" env-default:"100" validate:"min=1"`
	MigrationMaxParentDepth int      `env:"MIGRATION_MAX_PARENT_DEPTH" env-default:"100" validate:"min=1"`

	// Surrogate id cache
	CacheTTL       time.Duration `env:"CACHE_TTL" env-default:"10m"`
	RedisEnabled   bool          `env:"REDIS_ENABLED" env-default:"false"`
	RedisHost      string        `env:"REDIS_HOST" env-default:"localhost"`
	RedisPort      int           `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword  string        `env:"REDIS_PASSWORD" env-default:""`
	RedisDB        int           `env:"REDIS_DB" env-default:"0"`
	RedisKeyPrefix string        `env:"REDIS_KEY_PREFIX" env-default:"cumulus-migration"`

	// Kafka run events
	KafkaEnabled bool     `env:"KAFKA_ENABLED" env-default:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaTopic   string   `env:"KAFKA_TOPIC" env-default:"cumulus-migrations"`

	// S3 error artifacts
	ErrorArtifactBucket string `env:"ERROR_ARTIFACT_BUCKET" env-default:""`
	ErrorArtifactPrefix string `env:"ERROR_ARTIFACT_PREFIX" env-default:"migrations"`
	S3Endpoint          string `env:"S3_ENDPOINT" env-default:""`

	// Tracing
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:""`
	OTLPProtocol string `env:"OTEL_EXPORTER_OTLP_PROTOCOL" env-default:"grpc" validate:"oneof=grpc http"`
	OTLPInsecure bool   `env:"OTEL_EXPORTER_OTLP_INSECURE" env-default:"true"`
}

// Load binds the config from the process environment. Overrides use the same
// variable names and win over the environment; names that are not part of
// the config are ignored.
func Load(overrides map[string]string) (*Config, error) {
	v := viper.New()
	known := map[string]bool{}

	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Tag.Get("env")
		if name == "" {
			continue
		}
		known[name] = true
		v.SetDefault(name, t.Field(i).Tag.Get("env-default"))
		if err := v.BindEnv(name, name); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", name, err)
		}
	}

	for name, value := range overrides {
		if known[name] {
			v.Set(name, value)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "env"
	}); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := c.Entities(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Entities parses MIGRATION_ENTITIES.
func (c *Config) Entities() ([]models.Entity, error) {
	entities := make([]models.Entity, 0, len(c.MigrationEntities))
	for _, name := range c.MigrationEntities {
		if name = strings.TrimSpace(name); name == "" {
			continue
		}
		entity, err := models.ParseEntity(name)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

func (c *Config) DatabaseConfig() database.Config {
	return database.Config{
		Driver:          c.DatabaseDriver,
		Host:            c.DatabaseHost,
		Port:            c.DatabasePort,
		UserName:        c.DatabaseUserName,
		Password:        c.DatabasePassword,
		Name:            c.DatabaseName,
		SSLMode:         c.DatabaseSSLMode,
		MaxOpenConns:    c.DatabaseMaxOpenConns,
		MaxIdleConns:    c.DatabaseMaxIdleConns,
		ConnMaxLifetime: c.DatabaseConnMaxLifetime,
	}
}
