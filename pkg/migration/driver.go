package migration

import (
	"context"
	"time"

	cumuluscontext "github.com/2lambda123/nasa-cumulus-sub001/pkg/context"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/dynamo"
	cumuluserrors "github.com/2lambda123/nasa-cumulus-sub001/pkg/errors"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/metrics"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/models"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/tracing"
	"github.com/Gobusters/ectologger"
)

// RecordReader yields legacy records until ok is false. A non-nil error with
// ok set means the record was consumed but could not be decoded.
type RecordReader interface {
	Shift(ctx context.Context) (dynamo.Record, bool, error)
}

// RecordMigrator migrates a single legacy record of one entity type.
type RecordMigrator interface {
	Entity() models.Entity
	// RecordKey names the record in logs and error reports.
	RecordKey(record dynamo.Record) string
	MigrateRecord(ctx context.Context, record dynamo.Record) error
}

// Outcome classifies the error returned for a record.
func Outcome(err error) models.Outcome {
	switch {
	case err == nil:
		return models.OutcomeMigrated
	case cumuluserrors.IsRecordAlreadyMigrated(err):
		return models.OutcomeSkipped
	default:
		return models.OutcomeFailed
	}
}

// DriverResult is what one entity driver produced.
type DriverResult struct {
	Summary models.MigrationSummary
	Errors  []models.RecordError
}

// Driver drains a reader through a migrator. Record failures are counted and
// never stop the loop; only a failure of the reader itself ends it early.
type Driver struct {
	migrator    RecordMigrator
	logInterval int
	logger      ectologger.Logger
}

func NewDriver(migrator RecordMigrator, logInterval int, logger ectologger.Logger) *Driver {
	if logInterval <= 0 {
		logInterval = DefaultLogInterval
	}
	return &Driver{migrator: migrator, logInterval: logInterval, logger: logger}
}

func (d *Driver) Run(ctx context.Context, reader RecordReader) (DriverResult, error) {
	entity := d.migrator.Entity()
	ctx = cumuluscontext.SetEntity(ctx, string(entity))
	log := d.logger.WithContext(ctx).WithFields(cumuluscontext.LogFields(ctx))

	var result DriverResult
	start := time.Now()
	log.Infof("Starting %s migration", entity)

	for {
		record, ok, err := reader.Shift(ctx)
		if !ok {
			if err != nil {
				log.WithError(err).WithFields(summaryFields(result.Summary)).Errorf("Scan of %s aborted", entity)
				metrics.RecordDriver(string(entity), "error", time.Since(start).Seconds())
				return result, err
			}
			break
		}

		if err == nil {
			err = d.migrateOne(ctx, record)
		} else {
			metrics.RecordRecord(string(entity), string(models.OutcomeFailed), cumuluserrors.Reason(err), 0)
		}

		outcome := Outcome(err)
		result.Summary.Add(outcome)
		if outcome == models.OutcomeFailed {
			key := d.migrator.RecordKey(record)
			result.Errors = append(result.Errors, models.RecordError{
				Entity: entity,
				Key:    key,
				Reason: cumuluserrors.Reason(err),
				Error:  err.Error(),
			})
			log.WithError(err).WithFields(map[string]any{"key": key, "reason": cumuluserrors.Reason(err)}).Errorf("Could not migrate %s record", entity)
		}

		if result.Summary.TotalRecords%int64(d.logInterval) == 0 {
			log.WithFields(summaryFields(result.Summary)).Infof("Migrated %d %s records so far", result.Summary.TotalRecords, entity)
		}
	}

	metrics.RecordDriver(string(entity), "success", time.Since(start).Seconds())
	log.WithFields(summaryFields(result.Summary)).Infof("Finished %s migration", entity)
	return result, nil
}

func (d *Driver) migrateOne(ctx context.Context, record dynamo.Record) (err error) {
	entity := string(d.migrator.Entity())
	ctx, span := tracing.StartRecordSpan(ctx, entity, d.migrator.RecordKey(record))
	start := time.Now()
	defer func() {
		reason := ""
		if Outcome(err) != models.OutcomeMigrated {
			reason = cumuluserrors.Reason(err)
		}
		metrics.RecordRecord(entity, string(Outcome(err)), reason, time.Since(start).Seconds())
		if cumuluserrors.IsRecordAlreadyMigrated(err) {
			span.End()
			return
		}
		tracing.EndWithError(span, err)
	}()

	return d.migrator.MigrateRecord(ctx, record)
}

func summaryFields(s models.MigrationSummary) map[string]any {
	return map[string]any{
		"total":    s.TotalRecords,
		"migrated": s.Migrated,
		"skipped":  s.Skipped,
		"failed":   s.Failed,
	}
}

func recordString(record dynamo.Record, key string) string {
	if v, ok := record[key].(string); ok {
		return v
	}
	return ""
}
