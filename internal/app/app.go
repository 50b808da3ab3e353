// Package app wires the migration engine to its stores and invocation
// surfaces.
package app

import (
	"context"
	"time"

	"github.com/2lambda123/nasa-cumulus-sub001/config"
	"github.com/2lambda123/nasa-cumulus-sub001/internal/repositories/asyncoperation"
	"github.com/2lambda123/nasa-cumulus-sub001/internal/repositories/collection"
	"github.com/2lambda123/nasa-cumulus-sub001/internal/repositories/execution"
	"github.com/2lambda123/nasa-cumulus-sub001/internal/repositories/file"
	"github.com/2lambda123/nasa-cumulus-sub001/internal/repositories/granule"
	"github.com/2lambda123/nasa-cumulus-sub001/internal/repositories/granuleexecution"
	"github.com/2lambda123/nasa-cumulus-sub001/internal/repositories/pdr"
	"github.com/2lambda123/nasa-cumulus-sub001/internal/repositories/provider"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/artifact"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/cache"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/database"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/dynamo"
	cumuluserrors "github.com/2lambda123/nasa-cumulus-sub001/pkg/errors"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/health"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/kafka"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/migration"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/models"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/redis"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/resolver"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/startup"
	"github.com/Gobusters/ectologger"
)

const (
	depPostgres = "postgres"
	depDynamo   = "dynamodb"
	depRedis    = "redis"
	depKafka    = "kafka"
)

// App owns the long lived connections. Each run builds its own coordinator
// on top of them.
type App struct {
	cfg     *config.Config
	logger  ectologger.Logger
	startup *startup.Startup
	health  *health.Checker

	db       database.DB
	legacy   *dynamo.Client
	redis    *redis.Client
	producer *kafka.Producer
}

func New(cfg *config.Config, logger ectologger.Logger) *App {
	a := &App{
		cfg:     cfg,
		logger:  logger,
		startup: startup.NewStartup(logger, cfg.StartupMaxAttempts),
		health:  health.NewChecker(cfg.AppName),
	}
	a.addDependencies()
	return a
}

func (a *App) addDependencies() {
	a.startup.AddDependency(&startup.Dependency{
		Name: depPostgres,
		StartFunc: func(ctx context.Context) error {
			db, err := database.Connect(ctx, a.cfg.DatabaseConfig(), a.logger)
			if err != nil {
				return err
			}
			if a.cfg.DatabaseMigrationsEnabled {
				schema := database.NewSchemaService(a.logger, &database.SchemaConfig{
					FolderPath: a.cfg.DatabaseMigrationFolderPath,
					Version:    a.cfg.DatabaseMigrationVersion,
					Force:      a.cfg.DatabaseMigrationForce,
				})
				if err := schema.Apply(db); err != nil {
					_ = db.Close()
					return err
				}
			}
			a.db = db
			a.health.AddCheck(depPostgres, db.PingContext)
			return nil
		},
		StopFunc: func(context.Context) error {
			if a.db == nil {
				return nil
			}
			return a.db.Close()
		},
	})

	a.startup.AddDependency(&startup.Dependency{
		Name: depDynamo,
		StartFunc: func(ctx context.Context) error {
			client, err := dynamo.Connect(ctx, a.dynamoConfig(a.cfg), a.logger)
			if err != nil {
				return err
			}
			tables := a.tables(a.cfg)
			if err := client.Ping(ctx, tables...); err != nil {
				return err
			}
			a.legacy = client
			a.health.AddCheck(depDynamo, func(ctx context.Context) error {
				return client.Ping(ctx, tables...)
			})
			return nil
		},
	})

	if a.cfg.RedisEnabled {
		a.startup.AddDependency(&startup.Dependency{
			Name: depRedis,
			StartFunc: func(ctx context.Context) error {
				client, err := redis.NewClient(ctx, redis.Config{
					Host:      a.cfg.RedisHost,
					Port:      a.cfg.RedisPort,
					Password:  a.cfg.RedisPassword,
					DB:        a.cfg.RedisDB,
					KeyPrefix: a.cfg.RedisKeyPrefix,
				}, a.logger)
				if err != nil {
					return err
				}
				a.redis = client
				a.health.AddCheck(depRedis, client.Ping)
				return nil
			},
			StopFunc: func(context.Context) error {
				if a.redis == nil {
					return nil
				}
				return a.redis.Close()
			},
		})
	}

	if a.cfg.KafkaEnabled {
		a.startup.AddDependency(&startup.Dependency{
			Name: depKafka,
			StartFunc: func(context.Context) error {
				a.producer = kafka.NewProducer(kafka.Config{
					Brokers: a.cfg.KafkaBrokers,
					Topic:   a.cfg.KafkaTopic,
				}, a.logger)
				return nil
			},
			StopFunc: func(context.Context) error {
				if a.producer == nil {
					return nil
				}
				return a.producer.Close()
			},
		})
	}
}

// Start connects every dependency, retrying with backoff.
func (a *App) Start(ctx context.Context) error {
	if err := a.startup.Start(ctx); err != nil {
		return err
	}
	a.health.SetReady(true)
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	a.health.SetReady(false)
	return a.startup.Stop(ctx)
}

// Run migrates once. Overrides apply to this run only; a different
// relational store or legacy endpoint gets its own short lived connection.
func (a *App) Run(ctx context.Context, overrides map[string]string) (*models.RunSummary, error) {
	cfg := a.cfg
	if len(overrides) > 0 {
		var err error
		if cfg, err = config.Load(overrides); err != nil {
			return nil, cumuluserrors.NewInvocationError("invalid environment overrides", err)
		}
	}

	entities, err := cfg.Entities()
	if err != nil {
		return nil, cumuluserrors.NewInvocationError("invalid entity selection", err)
	}

	db, sharedDB := a.db, true
	if cfg.DatabaseConfig().DSN() != a.cfg.DatabaseConfig().DSN() {
		if db, err = database.Connect(ctx, cfg.DatabaseConfig(), a.logger); err != nil {
			return nil, cumuluserrors.NewInvocationError("could not connect to relational store", err)
		}
		defer db.Close()
		sharedDB = false
	}

	legacy := a.legacy
	if a.dynamoConfig(cfg) != a.dynamoConfig(a.cfg) {
		if legacy, err = dynamo.Connect(ctx, a.dynamoConfig(cfg), a.logger); err != nil {
			return nil, cumuluserrors.NewInvocationError("could not configure legacy store", err)
		}
	}

	deps := migration.Dependencies{
		Legacy:            legacy,
		Transactor:        database.NewTransactor(db, a.logger),
		Executions:        execution.NewRepository(db, a.logger),
		Granules:          granule.NewRepository(db, a.logger),
		Files:             file.NewRepository(db, a.logger),
		GranuleExecutions: granuleexecution.NewRepository(db, a.logger),
		Pdrs:              pdr.NewRepository(db, a.logger),
	}
	deps.Resolver = resolver.New(resolver.Stores{
		Collections:     collection.NewRepository(db, a.logger),
		Providers:       provider.NewRepository(db, a.logger),
		AsyncOperations: asyncoperation.NewRepository(db, a.logger),
		Executions:      execution.NewRepository(db, a.logger),
		Pdrs:            pdr.NewRepository(db, a.logger),
	}, a.idCache(cfg, sharedDB), a.logger)

	if cfg.ErrorArtifactBucket != "" {
		writer, err := artifact.Connect(ctx, artifact.Config{
			Region:   cfg.AWSRegion,
			Endpoint: cfg.S3Endpoint,
			Bucket:   cfg.ErrorArtifactBucket,
			Prefix:   cfg.ErrorArtifactPrefix,
		}, a.logger)
		if err != nil {
			a.logger.WithContext(ctx).WithError(err).Warn("Error artifacts disabled for this run")
		} else {
			deps.Artifacts = writer
		}
	}
	if a.producer != nil {
		deps.Events = a.producer
	}

	coordinator := migration.NewCoordinator(deps, migration.Tables{
		Executions: cfg.ExecutionsTable,
		Granules:   cfg.GranulesTable,
		Pdrs:       cfg.PdrsTable,
	}, migration.Options{
		LogInterval:    cfg.MigrationLogInterval,
		MaxParentDepth: cfg.MigrationMaxParentDepth,
		Entities:       entities,
	}, a.logger)

	return coordinator.Run(ctx)
}

// idCache layers a per-run memory cache over the shared Redis cache. Redis is
// only consulted when the run writes to the store the cache was filled from.
func (a *App) idCache(cfg *config.Config, sharedDB bool) cache.IDCache {
	memory := cache.NewMemoryCache(cfg.CacheTTL, 2*cfg.CacheTTL)
	if a.redis == nil || !sharedDB {
		return memory
	}
	return cache.NewLayered(memory, cache.NewRedisCache(a.redis, cfg.CacheTTL))
}

func (a *App) dynamoConfig(cfg *config.Config) dynamo.Config {
	return dynamo.Config{
		Region:    cfg.AWSRegion,
		Endpoint:  cfg.DynamoEndpoint,
		PageLimit: cfg.DynamoScanPageLimit,
	}
}

func (a *App) tables(cfg *config.Config) []string {
	tables := []string{}
	for _, t := range []string{cfg.ExecutionsTable, cfg.GranulesTable, cfg.PdrsTable} {
		if t != "" {
			tables = append(tables, t)
		}
	}
	return tables
}

func shutdownContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
