package migration

import (
	"context"

	"github.com/2lambda123/nasa-cumulus-sub001/pkg/dynamo"
	cumuluserrors "github.com/2lambda123/nasa-cumulus-sub001/pkg/errors"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/models"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/translate"
	"github.com/Gobusters/ectologger"
)

// PdrMigrator copies legacy PDR records once their references resolve to
// surrogate ids.
type PdrMigrator struct {
	pdrs     PdrStore
	resolver Resolver
	logger   ectologger.Logger
}

// NewPdrMigrator creates a PDR migrator.
func NewPdrMigrator(pdrs PdrStore, resolver Resolver, logger ectologger.Logger) *PdrMigrator {
	return &PdrMigrator{
		pdrs:     pdrs,
		resolver: resolver,
		logger:   logger,
	}
}

func (m *PdrMigrator) Entity() models.Entity {
	return models.EntityPdrs
}

func (m *PdrMigrator) RecordKey(record dynamo.Record) string {
	return recordString(record, "pdrName")
}

func (m *PdrMigrator) MigrateRecord(ctx context.Context, record dynamo.Record) error {
	translated, err := translate.Pdr(record)
	if err != nil {
		return err
	}
	pdr := translated.Pdr

	if pdr.CollectionCumulusID, err = m.resolver.Collection(ctx, translated.CollectionID); err != nil {
		return err
	}
	if pdr.ProviderCumulusID, err = m.resolver.Provider(ctx, translated.ProviderName); err != nil {
		return err
	}
	if translated.ExecutionRef != "" {
		id, ok, err := m.resolver.Execution(ctx, translated.ExecutionRef)
		if err != nil {
			return err
		}
		if !ok {
			return cumuluserrors.NewDependencyNotFound("execution", translated.ExecutionRef)
		}
		pdr.ExecutionCumulusID = &id
	}

	existing, err := m.pdrs.GetByName(ctx, pdr.Name)
	if err != nil {
		return err
	}
	if existing != nil && !existing.UpdatedAt.Before(pdr.UpdatedAt) {
		return cumuluserrors.NewRecordAlreadyMigrated(string(models.EntityPdrs), pdr.Name)
	}

	_, err = m.pdrs.Upsert(ctx, &pdr)
	return err
}
