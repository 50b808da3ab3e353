package pdr

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

const tableName = "pdrs"

var (
	columns = []string{
		"cumulus_id", "name", "status", "collection_cumulus_id", "provider_cumulus_id",
		"execution_cumulus_id", "progress", "pan_sent", "pan_message", "stats", "address",
		"original_url", "duration", "timestamp", "created_at", "updated_at",
	}
	insertColumns   = columns[1:]
	conflictColumns = []string{"name"}
)

type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new PDR repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// GetByName returns nil when no PDR has the name.
func (r *Repository) GetByName(ctx context.Context, name string) (*models.Pdr, error) {
	ctx, span := tracing.StartSpan(ctx, "pdr.Repository.GetByName")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...).From(tableName).Where(sb.Equal("name", name))
	query, args := sb.Build()

	var pdr models.Pdr
	err := database.ExecutorFromContext(ctx, r.db).GetContext(ctx, &pdr, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithField("pdr_name", name).Error("failed to get pdr")
		return nil, fmt.Errorf("failed to get pdr %s: %w", name, err)
	}
	return &pdr, nil
}

func (r *Repository) GetCumulusIDByName(ctx context.Context, name string) (int64, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "pdr.Repository.GetCumulusIDByName")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("cumulus_id").From(tableName).Where(sb.Equal("name", name))
	id, ok, err := database.FindCumulusID(ctx, database.ExecutorFromContext(ctx, r.db), sb)
	if err != nil {
		return 0, false, fmt.Errorf("failed to get pdr %s: %w", name, err)
	}
	return id, ok, nil
}

// Upsert writes the PDR on conflict of name, overwriting every column.
func (r *Repository) Upsert(ctx context.Context, pdr *models.Pdr) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "pdr.Repository.Upsert")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto(tableName).
		Cols(insertColumns...).
		Values(
			pdr.Name, pdr.Status, pdr.CollectionCumulusID, pdr.ProviderCumulusID, pdr.ExecutionCumulusID,
			pdr.Progress, pdr.PanSent, pdr.PanMessage, pdr.Stats, pdr.Address, pdr.OriginalURL,
			pdr.Duration, pdr.Timestamp, pdr.CreatedAt, pdr.UpdatedAt,
		)
	conflict.ForPdr().Apply(ib, tableName, insertColumns, conflictColumns, 0)
	ib.Returning("cumulus_id")
	query, args := ib.Build()

	var id int64
	err := database.ExecutorFromContext(ctx, r.db).QueryRowxContext(ctx, query, args...).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, cumuluserrors.NewWriteConflict(string(models.EntityPdrs), pdr.Name)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("pdr_name", pdr.Name).Error("failed to upsert pdr")
		return 0, fmt.Errorf("failed to upsert pdr %s: %w", pdr.Name, err)
	}
	return id, nil
}
