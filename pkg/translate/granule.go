package translate

import (
	"fmt"
	"net/url"
	"strings"

	cumuluserrors "github.com/2lambda123/nasa-cumulus-sub001/pkg/errors"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/models"
)

// GranuleRecord is a translated granule. Files stay raw so they are
// translated inside the granule's transaction.
type GranuleRecord struct {
	Granule      models.Granule
	CollectionID string
	ExecutionRef string
	PdrName      string
	ProviderName string
	Files        []any
}

type granuleKeys struct {
	GranuleID    string `source:"granuleId" validate:"required"`
	CollectionID string `source:"collectionId" validate:"required"`
	Status       string `source:"status" validate:"required,oneof=running completed failed queued"`
	Execution    string `source:"execution" validate:"required"`
}

// Granule translates a legacy granule record. The collection surrogate id is
// left zero for the migrator to fill in.
func Granule(record map[string]any) (*GranuleRecord, error) {
	r := newFieldReader(models.EntityGranules, record)

	keys := granuleKeys{
		GranuleID:    r.StringValue("granuleId"),
		CollectionID: r.StringValue("collectionId"),
		Status:       r.StringValue("status"),
		Execution:    r.StringValue("execution"),
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	if err := validateRecord(models.EntityGranules, keys); err != nil {
		return nil, err
	}
	if _, _, err := models.ParseCollectionID(keys.CollectionID); err != nil {
		return nil, cumuluserrors.NewSchemaValidationError(string(models.EntityGranules), "collectionId", err.Error())
	}

	granule := models.Granule{
		GranuleID:               keys.GranuleID,
		Status:                  keys.Status,
		CmrLink:                 r.String("cmrLink"),
		Published:               r.Bool("published"),
		Duration:                r.Float("duration"),
		TimeToArchive:           r.Float("timeToArchive"),
		TimeToProcess:           r.Float("timeToPreprocess"),
		ProductVolume:           r.Volume("productVolume"),
		Error:                   r.JSON("error"),
		QueryFields:             r.JSON("queryFields"),
		BeginningDateTime:       r.Time("beginningDateTime"),
		EndingDateTime:          r.Time("endingDateTime"),
		LastUpdateDateTime:      r.Time("lastUpdateDateTime"),
		ProcessingStartDateTime: r.Time("processingStartDateTime"),
		ProcessingEndDateTime:   r.Time("processingEndDateTime"),
		ProductionDateTime:      r.Time("productionDateTime"),
		Timestamp:               r.Time("timestamp"),
	}
	created, updated := r.Time("createdAt"), r.Time("updatedAt")
	out := &GranuleRecord{
		CollectionID: keys.CollectionID,
		ExecutionRef: keys.Execution,
		PdrName:      r.StringValue("pdrName"),
		ProviderName: r.StringValue("provider"),
		Files:        r.List("files"),
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	var err error
	granule.CreatedAt, granule.UpdatedAt, err = timestamps(models.EntityGranules, created, updated, granule.Timestamp)
	if err != nil {
		return nil, err
	}

	out.Granule = granule
	return out, nil
}

type fileKeys struct {
	Bucket string `source:"bucket" validate:"required"`
	Key    string `source:"key" validate:"required"`
}

// File translates one entry of a legacy granule's files list. Timestamps are
// inherited from the owning granule.
func File(raw any, granule models.Granule) (*models.File, error) {
	record, ok := raw.(map[string]any)
	if !ok {
		return nil, cumuluserrors.NewSchemaValidationErrorf(string(models.EntityGranules), "files", "expected file object, got %T", raw)
	}
	r := newFieldReader(models.EntityGranules, record)

	keys := fileKeys{
		Bucket: r.StringValue("bucket"),
		Key:    r.StringValue("key"),
	}
	if keys.Bucket == "" || keys.Key == "" {
		if filename := r.StringValue("filename"); filename != "" {
			bucket, key, err := parseS3URI(filename)
			if err != nil {
				return nil, cumuluserrors.NewSchemaValidationError(string(models.EntityGranules), "filename", err.Error())
			}
			keys = fileKeys{Bucket: bucket, Key: key}
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	if err := validateRecord(models.EntityGranules, keys); err != nil {
		return nil, err
	}

	file := &models.File{
		GranuleCumulusID: granule.CumulusID,
		Bucket:           keys.Bucket,
		Key:              keys.Key,
		FileName:         r.String(r.First("fileName", "name")),
		FileSize:         r.Int(r.First("size", "fileSize")),
		ChecksumType:     r.String("checksumType"),
		ChecksumValue:    r.String("checksum"),
		Source:           r.String("source"),
		Path:             r.String("path"),
		Type:             r.String("type"),
		CreatedAt:        granule.CreatedAt,
		UpdatedAt:        granule.UpdatedAt,
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return file, nil
}

func parseS3URI(uri string) (string, string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", err
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Scheme != "s3" || u.Host == "" || key == "" {
		return "", "", fmt.Errorf("expected s3://bucket/key, got %q", uri)
	}
	return u.Host, key, nil
}
