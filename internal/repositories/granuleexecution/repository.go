package granuleexecution

import (
	"context"
	"fmt"

	"github.com/2lambda123/nasa-cumulus-sub001/pkg/conflict"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/database"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/tracing"
	"github.com/Gobusters/ectologger"
)

const tableName = "granules_executions"

var conflictColumns = []string{"granule_cumulus_id", "execution_cumulus_id"}

type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new granule execution link repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Link records the pair. An existing link is left as is.
func (r *Repository) Link(ctx context.Context, granuleCumulusID, executionCumulusID int64) error {
	ctx, span := tracing.StartSpan(ctx, "granuleexecution.Repository.Link")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto(tableName).Cols(conflictColumns...).Values(granuleCumulusID, executionCumulusID)
	conflict.ForGranuleExecution().Apply(ib, tableName, conflictColumns, conflictColumns, 0)
	query, args := ib.Build()

	if _, err := database.ExecutorFromContext(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"granule_cumulus_id":   granuleCumulusID,
			"execution_cumulus_id": executionCumulusID,
		}).Error("failed to link granule to execution")
		return fmt.Errorf("failed to link granule %d to execution %d: %w", granuleCumulusID, executionCumulusID, err)
	}
	return nil
}

func (r *Repository) Exists(ctx context.Context, granuleCumulusID, executionCumulusID int64) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "granuleexecution.Repository.Exists")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("granule_cumulus_id").From(tableName).Where(
		sb.Equal("granule_cumulus_id", granuleCumulusID),
		sb.Equal("execution_cumulus_id", executionCumulusID),
	)
	_, ok, err := database.FindCumulusID(ctx, database.ExecutorFromContext(ctx, r.db), sb)
	if err != nil {
		return false, fmt.Errorf("failed to check granule execution link: %w", err)
	}
	return ok, nil
}
