package models

import (
	"time"

	"github.com/2lambda123/nasa-cumulus-sub001/pkg/database"
)

// Granule is keyed by (granule_id, collection_cumulus_id).
type Granule struct {
	CumulusID               int64         `db:"cumulus_id" json:"cumulus_id"`
	GranuleID               string        `db:"granule_id" json:"granule_id"`
	CollectionCumulusID     int64         `db:"collection_cumulus_id" json:"collection_cumulus_id"`
	Status                  string        `db:"status" json:"status"`
	CmrLink                 *string       `db:"cmr_link" json:"cmr_link"`
	Published               *bool         `db:"published" json:"published"`
	Duration                *float64      `db:"duration" json:"duration"`
	TimeToArchive           *float64      `db:"time_to_archive" json:"time_to_archive"`
	TimeToProcess           *float64      `db:"time_to_process" json:"time_to_process"`
	ProductVolume           *string       `db:"product_volume" json:"product_volume"`
	Error                   database.JSON `db:"error" json:"error"`
	QueryFields             database.JSON `db:"query_fields" json:"query_fields"`
	PdrCumulusID            *int64        `db:"pdr_cumulus_id" json:"pdr_cumulus_id"`
	ProviderCumulusID       *int64        `db:"provider_cumulus_id" json:"provider_cumulus_id"`
	BeginningDateTime       *time.Time    `db:"beginning_date_time" json:"beginning_date_time"`
	EndingDateTime          *time.Time    `db:"ending_date_time" json:"ending_date_time"`
	LastUpdateDateTime      *time.Time    `db:"last_update_date_time" json:"last_update_date_time"`
	ProcessingStartDateTime *time.Time    `db:"processing_start_date_time" json:"processing_start_date_time"`
	ProcessingEndDateTime   *time.Time    `db:"processing_end_date_time" json:"processing_end_date_time"`
	ProductionDateTime      *time.Time    `db:"production_date_time" json:"production_date_time"`
	Timestamp               *time.Time    `db:"timestamp" json:"timestamp"`
	CreatedAt               time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time     `db:"updated_at" json:"updated_at"`
}

func (Granule) TableName() string {
	return "granules"
}

// File belongs to one granule and is unique on (bucket, key).
type File struct {
	CumulusID        int64     `db:"cumulus_id" json:"cumulus_id"`
	GranuleCumulusID int64     `db:"granule_cumulus_id" json:"granule_cumulus_id"`
	Bucket           string    `db:"bucket" json:"bucket"`
	Key              string    `db:"key" json:"key"`
	FileName         *string   `db:"file_name" json:"file_name"`
	FileSize         *int64    `db:"file_size" json:"file_size"`
	ChecksumType     *string   `db:"checksum_type" json:"checksum_type"`
	ChecksumValue    *string   `db:"checksum_value" json:"checksum_value"`
	Source           *string   `db:"source" json:"source"`
	Path             *string   `db:"path" json:"path"`
	Type             *string   `db:"type" json:"type"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

func (File) TableName() string {
	return "files"
}

// GranuleExecution links a granule to an execution that produced or touched it.
type GranuleExecution struct {
	GranuleCumulusID   int64 `db:"granule_cumulus_id" json:"granule_cumulus_id"`
	ExecutionCumulusID int64 `db:"execution_cumulus_id" json:"execution_cumulus_id"`
}

func (GranuleExecution) TableName() string {
	return "granules_executions"
}
