package migration

import (
	"context"

	"github.com/2lambda123/nasa-cumulus-sub001/pkg/dynamo"
	cumuluserrors "github.com/2lambda123/nasa-cumulus-sub001/pkg/errors"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/metrics"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/models"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/translate"
	"github.com/Gobusters/ectologger"
)

// GranuleMigrator writes a granule, its files and its execution link in one
// transaction. File outcomes follow the granule's and are tallied separately.
type GranuleMigrator struct {
	granules   GranuleStore
	files      FileStore
	links      GranuleExecutionStore
	transactor Transactor
	resolver   Resolver
	logger     ectologger.Logger

	filesSummary models.MigrationSummary
}

func NewGranuleMigrator(granules GranuleStore, files FileStore, links GranuleExecutionStore, transactor Transactor, resolver Resolver, logger ectologger.Logger) *GranuleMigrator {
	return &GranuleMigrator{
		granules:   granules,
		files:      files,
		links:      links,
		transactor: transactor,
		resolver:   resolver,
		logger:     logger,
	}
}

func (m *GranuleMigrator) Entity() models.Entity {
	return models.EntityGranules
}

func (m *GranuleMigrator) RecordKey(record dynamo.Record) string {
	return recordString(record, "collectionId") + "/" + recordString(record, "granuleId")
}

// FilesSummary is the file tally of every record migrated so far.
func (m *GranuleMigrator) FilesSummary() models.MigrationSummary {
	return m.filesSummary
}

func (m *GranuleMigrator) MigrateRecord(ctx context.Context, record dynamo.Record) error {
	err := m.migrate(ctx, record)

	count := int64(len(rawFiles(record)))
	outcome := Outcome(err)
	m.filesSummary.AddN(outcome, count)
	metrics.RecordFiles(string(outcome), count)
	return err
}

func (m *GranuleMigrator) migrate(ctx context.Context, record dynamo.Record) error {
	translated, err := translate.Granule(record)
	if err != nil {
		return err
	}
	granule := translated.Granule
	key := m.RecordKey(record)

	collectionCumulusID, err := m.resolver.Collection(ctx, translated.CollectionID)
	if err != nil {
		return err
	}
	granule.CollectionCumulusID = collectionCumulusID

	executionCumulusID, ok, err := m.resolver.Execution(ctx, translated.ExecutionRef)
	if err != nil {
		return err
	}
	if !ok {
		return cumuluserrors.NewDependencyNotFound("execution", translated.ExecutionRef)
	}

	existing, err := m.granules.Get(ctx, granule.GranuleID, collectionCumulusID)
	if err != nil {
		return err
	}
	if existing != nil && !existing.UpdatedAt.Before(granule.UpdatedAt) {
		return cumuluserrors.NewRecordAlreadyMigrated(string(models.EntityGranules), key)
	}

	if translated.ProviderName != "" {
		id, err := m.resolver.Provider(ctx, translated.ProviderName)
		if err != nil {
			return err
		}
		granule.ProviderCumulusID = &id
	}
	if translated.PdrName != "" {
		id, ok, err := m.resolver.Pdr(ctx, translated.PdrName)
		if err != nil {
			return err
		}
		if ok {
			granule.PdrCumulusID = &id
		} else {
			m.logger.WithContext(ctx).WithFields(map[string]any{
				"granule_id": granule.GranuleID,
				"pdr_name":   translated.PdrName,
			}).Debug("PDR not migrated yet, leaving granule reference empty")
		}
	}

	return m.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		granuleCumulusID, err := m.granules.Upsert(ctx, &granule, executionCumulusID)
		if err != nil {
			return err
		}
		granule.CumulusID = granuleCumulusID

		for _, raw := range translated.Files {
			file, err := translate.File(raw, granule)
			if err != nil {
				return err
			}
			if _, err := m.files.Upsert(ctx, file); err != nil {
				return err
			}
		}

		return m.links.Link(ctx, granuleCumulusID, executionCumulusID)
	})
}

func rawFiles(record dynamo.Record) []any {
	files, _ := record["files"].([]any)
	return files
}
