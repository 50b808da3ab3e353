package models

import (
	"time"

	"github.com/2lambda123/nasa-cumulus-sub001/pkg/database"
)

const StatusRunning = "running"

// Execution is a workflow run, keyed by arn.
type Execution struct {
	CumulusID               int64         `db:"cumulus_id" json:"cumulus_id"`
	Arn                     string        `db:"arn" json:"arn"`
	URL                     *string       `db:"url" json:"url"`
	Status                  string        `db:"status" json:"status"`
	WorkflowName            *string       `db:"workflow_name" json:"workflow_name"`
	Error                   database.JSON `db:"error" json:"error"`
	Tasks                   database.JSON `db:"tasks" json:"tasks"`
	OriginalPayload         database.JSON `db:"original_payload" json:"original_payload"`
	FinalPayload            database.JSON `db:"final_payload" json:"final_payload"`
	CumulusVersion          *string       `db:"cumulus_version" json:"cumulus_version"`
	Duration                *float64      `db:"duration" json:"duration"`
	Timestamp               *time.Time    `db:"timestamp" json:"timestamp"`
	CreatedAt               time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time     `db:"updated_at" json:"updated_at"`
	AsyncOperationCumulusID *int64        `db:"async_operation_cumulus_id" json:"async_operation_cumulus_id"`
	CollectionCumulusID     *int64        `db:"collection_cumulus_id" json:"collection_cumulus_id"`
	ParentCumulusID         *int64        `db:"parent_cumulus_id" json:"parent_cumulus_id"`
}

func (Execution) TableName() string {
	return "executions"
}
