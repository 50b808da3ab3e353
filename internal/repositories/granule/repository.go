package granule

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

const tableName = "granules"

var (
	columns = []string{
		"cumulus_id", "granule_id", "collection_cumulus_id", "status", "cmr_link", "published",
		"duration", "time_to_archive", "time_to_process", "product_volume", "error", "query_fields",
		"pdr_cumulus_id", "provider_cumulus_id", "beginning_date_time", "ending_date_time",
		"last_update_date_time", "processing_start_date_time", "processing_end_date_time",
		"production_date_time", "timestamp", "created_at", "updated_at",
	}
	insertColumns   = columns[1:]
	conflictColumns = []string{"granule_id", "collection_cumulus_id"}
)

type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new granule repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Get returns nil when the granule is not in the collection.
func (r *Repository) Get(ctx context.Context, granuleID string, collectionCumulusID int64) (*models.Granule, error) {
	ctx, span := tracing.StartSpan(ctx, "granule.Repository.Get")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...).From(tableName).Where(
		sb.Equal("granule_id", granuleID),
		sb.Equal("collection_cumulus_id", collectionCumulusID),
	)
	query, args := sb.Build()

	var granule models.Granule
	err := database.ExecutorFromContext(ctx, r.db).GetContext(ctx, &granule, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"granule_id":            granuleID,
			"collection_cumulus_id": collectionCumulusID,
		}).Error("failed to get granule")
		return nil, fmt.Errorf("failed to get granule %s: %w", granuleID, err)
	}
	return &granule, nil
}

// Upsert writes the granule on conflict of (granule_id, collection_cumulus_id).
// The write is guarded so an older record never replaces a newer one, and a
// running record never rewrites a granule already linked to the execution.
func (r *Repository) Upsert(ctx context.Context, granule *models.Granule, executionCumulusID int64) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "granule.Repository.Upsert")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto(tableName).
		Cols(insertColumns...).
		Values(
			granule.GranuleID, granule.CollectionCumulusID, granule.Status, granule.CmrLink, granule.Published,
			granule.Duration, granule.TimeToArchive, granule.TimeToProcess, granule.ProductVolume, granule.Error,
			granule.QueryFields, granule.PdrCumulusID, granule.ProviderCumulusID, granule.BeginningDateTime,
			granule.EndingDateTime, granule.LastUpdateDateTime, granule.ProcessingStartDateTime,
			granule.ProcessingEndDateTime, granule.ProductionDateTime, granule.Timestamp, granule.CreatedAt,
			granule.UpdatedAt,
		)
	conflict.ForGranule(granule.Status).Apply(ib, tableName, insertColumns, conflictColumns, executionCumulusID)
	ib.Returning("cumulus_id")
	query, args := ib.Build()

	var id int64
	err := database.ExecutorFromContext(ctx, r.db).QueryRowxContext(ctx, query, args...).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, cumuluserrors.NewWriteConflict(string(models.EntityGranules), granule.GranuleID)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("granule_id", granule.GranuleID).Error("failed to upsert granule")
		return 0, fmt.Errorf("failed to upsert granule %s: %w", granule.GranuleID, err)
	}
	return id, nil
}
