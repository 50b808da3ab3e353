package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/pkg/errors"
)

// SchemaLogger adapts ectologger to the golang-migrate logger.
type SchemaLogger struct {
	ectologger.Logger
}

func (l SchemaLogger) Verbose() bool {
	return false
}

func (l SchemaLogger) Printf(format string, v ...any) {
	l.Infof(format, v...)
}

// SchemaConfig points at the DDL folder applied before a migration run.
type SchemaConfig struct {
	FolderPath string
	Version    uint
	Force      int
}

// SchemaService applies the relational schema. The engine itself never
// changes the schema; this only exists for local and test environments.
type SchemaService struct {
	config *SchemaConfig
	logger ectologger.Logger
}

func NewSchemaService(logger ectologger.Logger, config *SchemaConfig) *SchemaService {
	return &SchemaService{
		config: config,
		logger: logger,
	}
}

func (ss *SchemaService) resolveFolder() string {
	folder := ss.config.FolderPath
	if filepath.IsAbs(folder) {
		return folder
	}
	if _, err := os.Stat(folder); err == nil {
		abs, absErr := filepath.Abs(folder)
		if absErr == nil {
			return abs
		}
	}
	workingDirectory, _ := os.Getwd()
	return filepath.Join(workingDirectory, folder)
}

// Apply runs all pending up migrations against db.
func (ss *SchemaService) Apply(db DB) error {
	folder := ss.resolveFolder()
	if _, err := os.Stat(folder); err != nil {
		return errors.Wrap(err, fmt.Sprintf("schema folder %s does not exist", folder))
	}

	driver, err := postgres.WithInstance(db.SqlDB(), &postgres.Config{})
	if err != nil {
		ss.logger.WithError(err).Error("Failed to create schema driver")
		return errors.Wrap(err, "failed to create schema driver")
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+folder, "postgres", driver)
	if err != nil {
		ss.logger.WithError(err).Error("Failed to create migrate instance")
		return err
	}
	m.Log = SchemaLogger{Logger: ss.logger}

	if ss.config.Force != 0 {
		if err := m.Force(ss.config.Force); err != nil {
			ss.logger.WithError(err).Errorf("Failed to force schema to version %d", ss.config.Force)
			return err
		}
	}

	if ss.config.Version != 0 {
		err = m.Migrate(ss.config.Version)
	} else {
		err = m.Up()
	}

	if err == nil {
		ss.logger.Info("Successfully applied schema")
		return nil
	}
	if err == migrate.ErrNoChange {
		ss.logger.Info("Schema is up to date")
		return nil
	}

	version, dirty, versionErr := m.Version()
	if versionErr != nil && versionErr != migrate.ErrNilVersion {
		ss.logger.WithError(versionErr).Error("Failed to get current schema version")
	}
	ss.logger.WithError(err).Errorf("Failed to apply schema. dirty=%t version=%d", dirty, version)
	return err
}
