package migration

import (
	"context"
	"slices"

	"github.com/2lambda123/nasa-cumulus-sub001/pkg/dynamo"
	cumuluserrors "github.com/2lambda123/nasa-cumulus-sub001/pkg/errors"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/metrics"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/models"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/translate"
	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
)

const dependencyParentExecution = "parent execution"

// ExecutionMigrator migrates executions, chasing unmigrated parents through
// the legacy store depth first.
type ExecutionMigrator struct {
	legacy         LegacyStore
	table          string
	executions     ExecutionStore
	resolver       Resolver
	maxParentDepth int
	logger         ectologger.Logger

	// migratedInRun holds arns written as parents during this run so the
	// scan counts them as migrated when it reaches them.
	migratedInRun map[string]struct{}
}

// NewExecutionMigrator creates an execution migrator. maxParentDepth caps how
// many unmigrated ancestors one record may pull in; zero uses the default.
func NewExecutionMigrator(legacy LegacyStore, table string, executions ExecutionStore, resolver Resolver, maxParentDepth int, logger ectologger.Logger) *ExecutionMigrator {
	if maxParentDepth <= 0 {
		maxParentDepth = DefaultMaxParentDepth
	}
	return &ExecutionMigrator{
		legacy:         legacy,
		table:          table,
		executions:     executions,
		resolver:       resolver,
		maxParentDepth: maxParentDepth,
		logger:         logger,
		migratedInRun:  map[string]struct{}{},
	}
}

func (m *ExecutionMigrator) Entity() models.Entity {
	return models.EntityExecutions
}

func (m *ExecutionMigrator) RecordKey(record dynamo.Record) string {
	return recordString(record, "arn")
}

func (m *ExecutionMigrator) MigrateRecord(ctx context.Context, record dynamo.Record) error {
	_, err := m.migrate(ctx, record, nil)
	if cumuluserrors.IsRecordAlreadyMigrated(err) {
		if _, ok := m.migratedInRun[m.RecordKey(record)]; ok {
			return nil
		}
	}
	return err
}

// migrate writes one execution. chain holds the arns of the children that
// led here, nearest last.
func (m *ExecutionMigrator) migrate(ctx context.Context, record dynamo.Record, chain []string) (int64, error) {
	translated, err := translate.Execution(record)
	if err != nil {
		return 0, err
	}
	execution := translated.Execution

	existing, err := m.executions.GetByArn(ctx, execution.Arn)
	if err != nil {
		return 0, err
	}
	if existing != nil && !existing.UpdatedAt.Before(execution.UpdatedAt) {
		return 0, cumuluserrors.NewRecordAlreadyMigrated(string(models.EntityExecutions), execution.Arn)
	}

	if translated.CollectionID != "" {
		id, err := m.resolver.Collection(ctx, translated.CollectionID)
		if err != nil {
			return 0, err
		}
		execution.CollectionCumulusID = &id
	}
	if translated.AsyncOperationID != "" {
		id, err := m.resolver.AsyncOperation(ctx, translated.AsyncOperationID)
		if err != nil {
			return 0, err
		}
		execution.AsyncOperationCumulusID = &id
	}
	if translated.ParentArn != "" {
		chain = append(slices.Clone(chain), execution.Arn)
		id, err := m.resolveParent(ctx, translated.ParentArn, chain)
		if err != nil {
			return 0, err
		}
		execution.ParentCumulusID = &id
	}

	id, err := m.executions.Upsert(ctx, &execution)
	if err != nil {
		return 0, err
	}
	m.resolver.RememberExecution(ctx, execution.Arn, id)
	return id, nil
}

func (m *ExecutionMigrator) resolveParent(ctx context.Context, parentArn string, chain []string) (int64, error) {
	if ectolinq.Contains(chain, parentArn) {
		return 0, cumuluserrors.NewCycleDetected(dependencyParentExecution, parentArn, chain)
	}

	id, ok, err := m.resolver.ExecutionByArn(ctx, parentArn)
	if err != nil {
		return 0, err
	}
	if ok {
		return id, nil
	}

	// len(chain) is the recursion level the parent would be migrated at.
	if len(chain) > m.maxParentDepth {
		return 0, cumuluserrors.NewCycleDetected(dependencyParentExecution, parentArn, chain)
	}

	record, found, err := m.legacy.GetRecord(ctx, m.table, map[string]any{"arn": parentArn})
	if err != nil {
		return 0, cumuluserrors.NewDependencyNotFound(dependencyParentExecution, parentArn).WithCause(err)
	}
	if !found {
		return 0, cumuluserrors.NewDependencyNotFound(dependencyParentExecution, parentArn)
	}

	m.logger.WithContext(ctx).WithFields(map[string]any{
		"arn":   parentArn,
		"depth": len(chain),
	}).Debug("Migrating parent execution")

	id, err = m.migrate(ctx, record, chain)
	switch {
	case cumuluserrors.IsRecordAlreadyMigrated(err):
		// written by a concurrent writer since the lookup above
		id, ok, err = m.resolver.ExecutionByArn(ctx, parentArn)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, cumuluserrors.NewDependencyNotFound(dependencyParentExecution, parentArn)
		}
		return id, nil
	case cumuluserrors.IsDependencyNotFound(err):
		return 0, err
	case err != nil:
		return 0, cumuluserrors.NewDependencyNotFound(dependencyParentExecution, parentArn).WithCause(err)
	}

	m.migratedInRun[parentArn] = struct{}{}
	metrics.ParentExecutionsTotal.Inc()
	return id, nil
}
