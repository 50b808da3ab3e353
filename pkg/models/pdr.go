package models

import (
	"time"

	"github.com/2lambda123/nasa-cumulus-sub001/pkg/database"
)

// Pdr is a product delivery record, keyed by name.
type Pdr struct {
	CumulusID           int64         `db:"cumulus_id" json:"cumulus_id"`
	Name                string        `db:"name" json:"name"`
	Status              string        `db:"status" json:"status"`
	CollectionCumulusID int64         `db:"collection_cumulus_id" json:"collection_cumulus_id"`
	ProviderCumulusID   int64         `db:"provider_cumulus_id" json:"provider_cumulus_id"`
	ExecutionCumulusID  *int64        `db:"execution_cumulus_id" json:"execution_cumulus_id"`
	Progress            *float64      `db:"progress" json:"progress"`
	PanSent             *bool         `db:"pan_sent" json:"pan_sent"`
	PanMessage          *string       `db:"pan_message" json:"pan_message"`
	Stats               database.JSON `db:"stats" json:"stats"`
	Address             *string       `db:"address" json:"address"`
	OriginalURL         *string       `db:"original_url" json:"original_url"`
	Duration            *float64      `db:"duration" json:"duration"`
	Timestamp           *time.Time    `db:"timestamp" json:"timestamp"`
	CreatedAt           time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time     `db:"updated_at" json:"updated_at"`
}

func (Pdr) TableName() string {
	return "pdrs"
}
