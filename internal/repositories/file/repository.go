package file

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

const tableName = "files"

var (
	columns = []string{
		"cumulus_id", "granule_cumulus_id", "bucket", "key", "file_name", "file_size",
		"checksum_type", "checksum_value", "source", "path", "type", "created_at", "updated_at",
	}
	insertColumns   = columns[1:]
	conflictColumns = []string{"bucket", "key"}
)

type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new file repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Upsert writes the file on conflict of (bucket, key), overwriting every column.
func (r *Repository) Upsert(ctx context.Context, file *models.File) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "file.Repository.Upsert")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto(tableName).
		Cols(insertColumns...).
		Values(
			file.GranuleCumulusID, file.Bucket, file.Key, file.FileName, file.FileSize, file.ChecksumType,
			file.ChecksumValue, file.Source, file.Path, file.Type, file.CreatedAt, file.UpdatedAt,
		)
	conflict.ForFile().Apply(ib, tableName, insertColumns, conflictColumns, 0)
	ib.Returning("cumulus_id")
	query, args := ib.Build()

	var id int64
	err := database.ExecutorFromContext(ctx, r.db).QueryRowxContext(ctx, query, args...).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, cumuluserrors.NewWriteConflict("files", file.Bucket+"/"+file.Key)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"bucket": file.Bucket, "key": file.Key}).Error("failed to upsert file")
		return 0, fmt.Errorf("failed to upsert file s3://%s/%s: %w", file.Bucket, file.Key, err)
	}
	return id, nil
}

// ListByGranule returns the granule's files ordered by key.
func (r *Repository) ListByGranule(ctx context.Context, granuleCumulusID int64) ([]models.File, error) {
	ctx, span := tracing.StartSpan(ctx, "file.Repository.ListByGranule")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...).From(tableName).Where(sb.Equal("granule_cumulus_id", granuleCumulusID)).OrderBy("key")
	query, args := sb.Build()

	files := []models.File{}
	if err := database.ExecutorFromContext(ctx, r.db).SelectContext(ctx, &files, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("granule_cumulus_id", granuleCumulusID).Error("failed to list files")
		return nil, fmt.Errorf("failed to list files for granule %d: %w", granuleCumulusID, err)
	}
	return files, nil
}
