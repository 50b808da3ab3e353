package translate

import (
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/models"
)

// ExecutionRecord is a translated execution plus the business keys of the
// rows it references. The references are resolved by the migrator.
type ExecutionRecord struct {
	Execution        models.Execution
	ParentArn        string
	CollectionID     string
	AsyncOperationID string
}

type executionKeys struct {
	Arn    string `source:"arn" validate:"required"`
	Status string `source:"status" validate:"required,oneof=running completed failed unknown"`
}

// Execution translates a legacy execution record.
func Execution(record map[string]any) (*ExecutionRecord, error) {
	r := newFieldReader(models.EntityExecutions, record)

	keys := executionKeys{
		Arn:    r.StringValue("arn"),
		Status: r.StringValue("status"),
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	if err := validateRecord(models.EntityExecutions, keys); err != nil {
		return nil, err
	}

	execution := models.Execution{
		Arn:             keys.Arn,
		Status:          keys.Status,
		URL:             r.String("execution"),
		WorkflowName:    r.String("type"),
		Error:           r.JSON("error"),
		Tasks:           r.JSON("tasks"),
		OriginalPayload: r.JSON("originalPayload"),
		FinalPayload:    r.JSON("finalPayload"),
		CumulusVersion:  r.String("cumulusVersion"),
		Duration:        r.Float("duration"),
		Timestamp:       r.Time("timestamp"),
	}
	created, updated := r.Time("createdAt"), r.Time("updatedAt")
	out := &ExecutionRecord{
		ParentArn:        r.StringValue("parentArn"),
		CollectionID:     r.StringValue("collectionId"),
		AsyncOperationID: r.StringValue("asyncOperationId"),
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	var err error
	execution.CreatedAt, execution.UpdatedAt, err = timestamps(models.EntityExecutions, created, updated, execution.Timestamp)
	if err != nil {
		return nil, err
	}

	out.Execution = execution
	return out, nil
}
