package provider

import (
	"context"
	"fmt"

	"github.com/2lambda123/nasa-cumulus-sub001/pkg/database"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/tracing"
	"github.com/Gobusters/ectologger"
)

const tableName = "providers"

type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new provider repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) GetCumulusIDByName(ctx context.Context, name string) (int64, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "provider.Repository.GetCumulusIDByName")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("cumulus_id").From(tableName).Where(sb.Equal("name", name))
	id, ok, err := database.FindCumulusID(ctx, database.ExecutorFromContext(ctx, r.db), sb)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("provider", name).Error("failed to get provider")
		return 0, false, fmt.Errorf("failed to get provider %s: %w", name, err)
	}
	return id, ok, nil
}

func (r *Repository) Create(ctx context.Context, name, protocol, host string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "provider.Repository.Create")
	defer span.End()

	query := fmt.Sprintf(`INSERT INTO %s (name, protocol, host) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET protocol = EXCLUDED.protocol, host = EXCLUDED.host
		RETURNING cumulus_id`, tableName)

	var id int64
	if err := database.ExecutorFromContext(ctx, r.db).QueryRowxContext(ctx, query, name, protocol, host).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create provider %s: %w", name, err)
	}
	return id, nil
}
