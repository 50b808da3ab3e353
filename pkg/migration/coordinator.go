package migration

import (
	"context"
	"fmt"
	"time"

	cumuluscontext "github.com/2lambda123/nasa-cumulus-sub001/pkg/context"
	cumuluserrors "github.com/2lambda123/nasa-cumulus-sub001/pkg/errors"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/metrics"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/models"
	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
)

// Dependencies are the collaborators of a run. Artifacts and Events may be
// nil.
type Dependencies struct {
	Legacy            LegacyStore
	Transactor        Transactor
	Resolver          Resolver
	Executions        ExecutionStore
	Granules          GranuleStore
	Files             FileStore
	GranuleExecutions GranuleExecutionStore
	Pdrs              PdrStore
	Artifacts         ArtifactWriter
	Events            EventPublisher
}

// Coordinator runs the entity drivers in foreign key order. A driver that
// fails is recorded in the summary and the next driver still runs.
type Coordinator struct {
	deps    Dependencies
	tables  Tables
	options Options
	logger  ectologger.Logger
}

func NewCoordinator(deps Dependencies, tables Tables, options Options, logger ectologger.Logger) *Coordinator {
	return &Coordinator{
		deps:    deps,
		tables:  tables,
		options: options.withDefaults(),
		logger:  logger,
	}
}

// Validate reports configuration that prevents any driver from running.
func (c *Coordinator) Validate() error {
	for _, entity := range c.options.Entities {
		if c.tables.For(entity) == "" {
			return cumuluserrors.NewInvocationError(fmt.Sprintf("no legacy table configured for %s", entity), nil)
		}
	}
	return nil
}

func (c *Coordinator) Run(ctx context.Context) (*models.RunSummary, error) {
	runID := cumuluscontext.GetRunID(ctx)
	if runID == "" {
		runID = uuid.NewString()
		ctx = cumuluscontext.SetRunID(ctx, runID)
	}
	log := c.logger.WithContext(ctx).WithFields(cumuluscontext.LogFields(ctx))

	if err := c.Validate(); err != nil {
		log.WithError(err).Error("Migration misconfigured")
		metrics.RecordRun("error")
		return nil, err
	}

	metrics.RunsInFlight.Inc()
	defer metrics.RunsInFlight.Dec()

	start := time.Now()
	log.WithField("entities", ectolinq.Map(c.options.Entities, func(e models.Entity) string { return string(e) })).Info("Starting migration run")

	summary := &models.RunSummary{RunID: runID}
	var failures []models.RecordError
	for _, entity := range c.options.Entities {
		result, err := c.runEntity(ctx, entity, summary)
		failures = append(failures, result.Errors...)
		if err != nil {
			if summary.Errors == nil {
				summary.Errors = map[models.Entity]string{}
			}
			summary.Errors[entity] = err.Error()
			log.WithError(err).WithField("entity", entity).Errorf("%s migration did not complete", entity)
		}
		c.writeArtifact(ctx, runID, entity, result.Errors)
	}

	c.publish(ctx, summary, failures)

	status := "success"
	if len(summary.Errors) > 0 {
		status = "partial"
	}
	metrics.RecordRun(status)
	log.WithFields(map[string]any{
		"duration_ms": time.Since(start).Milliseconds(),
		"status":      status,
	}).Info("Finished migration run")

	return summary, nil
}

func (c *Coordinator) runEntity(ctx context.Context, entity models.Entity, summary *models.RunSummary) (DriverResult, error) {
	reader := c.deps.Legacy.Scan(c.tables.For(entity))

	switch entity {
	case models.EntityExecutions:
		migrator := NewExecutionMigrator(c.deps.Legacy, c.tables.Executions, c.deps.Executions, c.deps.Resolver, c.options.MaxParentDepth, c.logger)
		result, err := NewDriver(migrator, c.options.LogInterval, c.logger).Run(ctx, reader)
		summary.Executions = &result.Summary
		return result, err
	case models.EntityGranules:
		migrator := NewGranuleMigrator(c.deps.Granules, c.deps.Files, c.deps.GranuleExecutions, c.deps.Transactor, c.deps.Resolver, c.logger)
		result, err := NewDriver(migrator, c.options.LogInterval, c.logger).Run(ctx, reader)
		summary.Granules = &models.GranulesAndFilesSummary{
			Granules: result.Summary,
			Files:    migrator.FilesSummary(),
		}
		return result, err
	case models.EntityPdrs:
		migrator := NewPdrMigrator(c.deps.Pdrs, c.deps.Resolver, c.logger)
		result, err := NewDriver(migrator, c.options.LogInterval, c.logger).Run(ctx, reader)
		summary.Pdrs = &result.Summary
		return result, err
	}
	return DriverResult{}, fmt.Errorf("unknown entity %q", entity)
}

func (c *Coordinator) writeArtifact(ctx context.Context, runID string, entity models.Entity, failures []models.RecordError) {
	if c.deps.Artifacts == nil || len(failures) == 0 {
		return
	}
	uri, err := c.deps.Artifacts.WriteErrors(ctx, runID, entity, failures)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).WithField("entity", entity).Warn("Failed to write error artifact")
		return
	}
	c.logger.WithContext(ctx).WithFields(map[string]any{"entity": entity, "uri": uri}).Infof("Wrote %d %s failures", len(failures), entity)
}

func (c *Coordinator) publish(ctx context.Context, summary *models.RunSummary, failures []models.RecordError) {
	if c.deps.Events == nil {
		return
	}
	if err := c.deps.Events.PublishRecordFailures(ctx, summary.RunID, failures); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Failed to publish record failures")
	}
	if err := c.deps.Events.PublishRunCompleted(ctx, summary); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Failed to publish run summary")
	}
}
