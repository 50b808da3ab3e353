// Package migration copies legacy executions, granules with their files, and
// PDRs into the relational store.
package migration

import (
	"context"

	"github.com/2lambda123/nasa-cumulus-sub001/pkg/dynamo"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/models"
)

// LegacyStore is the read-only legacy key-value store.
type LegacyStore interface {
	Scan(table string) *dynamo.Scanner
	GetRecord(ctx context.Context, table string, key map[string]any) (dynamo.Record, bool, error)
}

// ExecutionStore reads and writes migrated executions by ARN.
type ExecutionStore interface {
	GetByArn(ctx context.Context, arn string) (*models.Execution, error)
	Upsert(ctx context.Context, execution *models.Execution) (int64, error)
}

// GranuleStore writes granules keyed by granule id and collection. Upsert
// rejects stale or running overwrites with a write conflict.
type GranuleStore interface {
	Get(ctx context.Context, granuleID string, collectionCumulusID int64) (*models.Granule, error)
	Upsert(ctx context.Context, granule *models.Granule, executionCumulusID int64) (int64, error)
}

type FileStore interface {
	Upsert(ctx context.Context, file *models.File) (int64, error)
}

type GranuleExecutionStore interface {
	Link(ctx context.Context, granuleCumulusID, executionCumulusID int64) error
}

// PdrStore reads and writes migrated PDRs by name.
type PdrStore interface {
	GetByName(ctx context.Context, name string) (*models.Pdr, error)
	Upsert(ctx context.Context, pdr *models.Pdr) (int64, error)
}

// Transactor runs fn in one relational transaction.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Resolver maps business keys to surrogate ids.
type Resolver interface {
	Collection(ctx context.Context, collectionID string) (int64, error)
	Provider(ctx context.Context, name string) (int64, error)
	AsyncOperation(ctx context.Context, asyncOperationID string) (int64, error)
	Pdr(ctx context.Context, name string) (int64, bool, error)
	Execution(ctx context.Context, reference string) (int64, bool, error)
	ExecutionByArn(ctx context.Context, arn string) (int64, bool, error)
	RememberExecution(ctx context.Context, arn string, id int64)
}

// ArtifactWriter stores a run's failed records for an entity.
type ArtifactWriter interface {
	WriteErrors(ctx context.Context, runID string, entity models.Entity, failures []models.RecordError) (string, error)
}

// EventPublisher announces run results.
type EventPublisher interface {
	PublishRunCompleted(ctx context.Context, summary *models.RunSummary) error
	PublishRecordFailures(ctx context.Context, runID string, failures []models.RecordError) error
}

// Tables names the legacy table of each entity.
type Tables struct {
	Executions string
	Granules   string
	Pdrs       string
}

func (t Tables) For(entity models.Entity) string {
	switch entity {
	case models.EntityExecutions:
		return t.Executions
	case models.EntityGranules:
		return t.Granules
	case models.EntityPdrs:
		return t.Pdrs
	}
	return ""
}

// Options tunes a migration run. Zero values fall back to the defaults.
type Options struct {
	// LogInterval is the number of records between progress log lines.
	LogInterval int
	// MaxParentDepth bounds recursive parent execution migration.
	MaxParentDepth int
	// Entities restricts the run. Empty means all.
	Entities []models.Entity
}

const (
	DefaultLogInterval    = 100
	DefaultMaxParentDepth = 100
)

func (o Options) withDefaults() Options {
	if o.LogInterval <= 0 {
		o.LogInterval = DefaultLogInterval
	}
	if o.MaxParentDepth <= 0 {
		o.MaxParentDepth = DefaultMaxParentDepth
	}
	if len(o.Entities) == 0 {
		o.Entities = models.Entities
	}
	o.Entities = models.OrderEntities(o.Entities)
	return o
}
