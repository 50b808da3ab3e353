package translate

import (
	cumuluserrors "github.com/2lambda123/nasa-cumulus-sub001/pkg/errors"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/models"
)

type PdrRecord struct {
	Pdr          models.Pdr
	CollectionID string
	ProviderName string
	ExecutionRef string
}

type pdrKeys struct {
	Name         string `source:"pdrName" validate:"required"`
	CollectionID string `source:"collectionId" validate:"required"`
	Provider     string `source:"provider" validate:"required"`
	Status       string `source:"status" validate:"required,oneof=running completed failed"`
}

// Pdr translates a legacy PDR record.
func Pdr(record map[string]any) (*PdrRecord, error) {
	r := newFieldReader(models.EntityPdrs, record)

	keys := pdrKeys{
		Name:         r.StringValue("pdrName"),
		CollectionID: r.StringValue("collectionId"),
		Provider:     r.StringValue("provider"),
		Status:       r.StringValue("status"),
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	if err := validateRecord(models.EntityPdrs, keys); err != nil {
		return nil, err
	}
	if _, _, err := models.ParseCollectionID(keys.CollectionID); err != nil {
		return nil, cumuluserrors.NewSchemaValidationError(string(models.EntityPdrs), "collectionId", err.Error())
	}

	pdr := models.Pdr{
		Name:        keys.Name,
		Status:      keys.Status,
		Progress:    r.Float("progress"),
		PanSent:     r.Bool("PANSent"),
		PanMessage:  r.String("PANmessage"),
		Address:     r.String("address"),
		OriginalURL: r.String("originalUrl"),
		Duration:    r.Float("duration"),
		Timestamp:   r.Time("timestamp"),
	}
	if stats := r.Object("stats"); stats != nil {
		pdr.Stats = r.JSON("stats")
	}
	created, updated := r.Time("createdAt"), r.Time("updatedAt")
	out := &PdrRecord{
		CollectionID: keys.CollectionID,
		ProviderName: keys.Provider,
		ExecutionRef: r.StringValue("execution"),
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	var err error
	pdr.CreatedAt, pdr.UpdatedAt, err = timestamps(models.EntityPdrs, created, updated, pdr.Timestamp)
	if err != nil {
		return nil, err
	}

	out.Pdr = pdr
	return out, nil
}
