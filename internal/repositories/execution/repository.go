package execution

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/2lambda123/nasa-cumulus-sub001/pkg/conflict"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/database"
	cumuluserrors "github.com/2lambda123/nasa-cumulus-sub001/pkg/errors"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/models"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/tracing"
	"github.com/Gobusters/ectologger"
)

const tableName = "executions"

var (
	columns = []string{
		"cumulus_id", "arn", "url", "status", "workflow_name", "error", "tasks",
		"original_payload", "final_payload", "cumulus_version", "duration", "timestamp",
		"created_at", "updated_at", "async_operation_cumulus_id", "collection_cumulus_id",
		"parent_cumulus_id",
	}
	insertColumns   = columns[1:]
	conflictColumns = []string{"arn"}
)

type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new execution repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// GetByArn returns nil when no execution has the arn.
func (r *Repository) GetByArn(ctx context.Context, arn string) (*models.Execution, error) {
	ctx, span := tracing.StartSpan(ctx, "execution.Repository.GetByArn")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...).From(tableName).Where(sb.Equal("arn", arn))
	query, args := sb.Build()

	var execution models.Execution
	err := database.ExecutorFromContext(ctx, r.db).GetContext(ctx, &execution, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithField("arn", arn).Error("failed to get execution by arn")
		return nil, fmt.Errorf("failed to get execution %s: %w", arn, err)
	}
	return &execution, nil
}

func (r *Repository) GetCumulusIDByArn(ctx context.Context, arn string) (int64, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "execution.Repository.GetCumulusIDByArn")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("cumulus_id").From(tableName).Where(sb.Equal("arn", arn))
	id, ok, err := database.FindCumulusID(ctx, database.ExecutorFromContext(ctx, r.db), sb)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("arn", arn).Error("failed to get execution cumulus id")
		return 0, false, fmt.Errorf("failed to get execution %s: %w", arn, err)
	}
	return id, ok, nil
}

func (r *Repository) GetCumulusIDByURL(ctx context.Context, url string) (int64, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "execution.Repository.GetCumulusIDByURL")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("cumulus_id").From(tableName).Where(sb.Equal("url", url))
	id, ok, err := database.FindCumulusID(ctx, database.ExecutorFromContext(ctx, r.db), sb)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("url", url).Error("failed to get execution cumulus id by url")
		return 0, false, fmt.Errorf("failed to get execution by url %s: %w", url, err)
	}
	return id, ok, nil
}

// Upsert writes the execution on conflict of arn using the status-dependent
// merge policy and returns its surrogate id.
func (r *Repository) Upsert(ctx context.Context, execution *models.Execution) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "execution.Repository.Upsert")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto(tableName).
		Cols(insertColumns...).
		Values(
			execution.Arn, execution.URL, execution.Status, execution.WorkflowName, execution.Error,
			execution.Tasks, execution.OriginalPayload, execution.FinalPayload, execution.CumulusVersion,
			execution.Duration, execution.Timestamp, execution.CreatedAt, execution.UpdatedAt,
			execution.AsyncOperationCumulusID, execution.CollectionCumulusID, execution.ParentCumulusID,
		)
	conflict.ForExecution(execution.Status).Apply(ib, tableName, insertColumns, conflictColumns, 0)
	ib.Returning("cumulus_id")
	query, args := ib.Build()

	var id int64
	err := database.ExecutorFromContext(ctx, r.db).QueryRowxContext(ctx, query, args...).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, cumuluserrors.NewWriteConflict(string(models.EntityExecutions), execution.Arn)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("arn", execution.Arn).Error("failed to upsert execution")
		return 0, fmt.Errorf("failed to upsert execution %s: %w", execution.Arn, err)
	}
	return id, nil
}
