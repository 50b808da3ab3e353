package collection

import (
	"context"
	"fmt"

	"github.com/2lambda123/nasa-cumulus-sub001/pkg/database"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/tracing"
	"github.com/Gobusters/ectologger"
)

const tableName = "collections"

type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new collection repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) GetCumulusID(ctx context.Context, name, version string) (int64, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "collection.Repository.GetCumulusID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("cumulus_id").From(tableName).Where(sb.Equal("name", name), sb.Equal("version", version))
	id, ok, err := database.FindCumulusID(ctx, database.ExecutorFromContext(ctx, r.db), sb)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"name": name, "version": version}).Error("failed to get collection")
		return 0, false, fmt.Errorf("failed to get collection %s %s: %w", name, version, err)
	}
	return id, ok, nil
}

// Create inserts a collection, returning the existing id when it is already
// present.
func (r *Repository) Create(ctx context.Context, name, version string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "collection.Repository.Create")
	defer span.End()

	query := fmt.Sprintf(`INSERT INTO %s (name, version) VALUES ($1, $2)
		ON CONFLICT (name, version) DO UPDATE SET updated_at = %s.updated_at
		RETURNING cumulus_id`, tableName, tableName)

	var id int64
	if err := database.ExecutorFromContext(ctx, r.db).QueryRowxContext(ctx, query, name, version).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create collection %s %s: %w", name, version, err)
	}
	return id, nil
}
