package asyncoperation

import (
	"context"
	"fmt"

	"github.com/2lambda123/nasa-cumulus-sub001/pkg/database"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/tracing"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
)

const tableName = "async_operations"

type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new async operation repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// GetCumulusIDByID looks up an async operation by its legacy uuid. A value
// that is not a uuid cannot match and reports not found.
func (r *Repository) GetCumulusIDByID(ctx context.Context, id string) (int64, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "asyncoperation.Repository.GetCumulusIDByID")
	defer span.End()

	parsed, err := uuid.Parse(id)
	if err != nil {
		return 0, false, nil
	}

	sb := database.NewSelectBuilder()
	sb.Select("cumulus_id").From(tableName).Where(sb.Equal("id", parsed.String()))
	cumulusID, ok, err := database.FindCumulusID(ctx, database.ExecutorFromContext(ctx, r.db), sb)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("async_operation_id", id).Error("failed to get async operation")
		return 0, false, fmt.Errorf("failed to get async operation %s: %w", id, err)
	}
	return cumulusID, ok, nil
}

func (r *Repository) Create(ctx context.Context, id uuid.UUID, operationType string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "asyncoperation.Repository.Create")
	defer span.End()

	query := fmt.Sprintf(`INSERT INTO %s (id, operation_type) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET operation_type = EXCLUDED.operation_type
		RETURNING cumulus_id`, tableName)

	var cumulusID int64
	if err := database.ExecutorFromContext(ctx, r.db).QueryRowxContext(ctx, query, id.String(), operationType).Scan(&cumulusID); err != nil {
		return 0, fmt.Errorf("failed to create async operation %s: %w", id, err)
	}
	return cumulusID, nil
}
