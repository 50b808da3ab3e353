package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/2lambda123/nasa-cumulus-sub001/pkg/models"
	"github.com/Gobusters/ectologger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(params.Body)
	f.inputs = append(f.inputs, params)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func silentLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestWriteErrors(t *testing.T) {
	api := &fakeS3{}
	w := NewS3Writer(api, "internal", "migrations/errors", silentLogger())
	failures := []models.RecordError{{Entity: models.EntityExecutions, Key: "arn:1", Reason: "schema_validation", Error: "bad"}}

	uri, err := w.WriteErrors(context.Background(), "run-1", models.EntityExecutions, failures)
	require.NoError(t, err)
	assert.Equal(t, "s3://internal/migrations/errors/run-1/executions-errors.json", uri)

	require.Len(t, api.inputs, 1)
	assert.Equal(t, "internal", aws.ToString(api.inputs[0].Bucket))
	assert.Equal(t, "migrations/errors/run-1/executions-errors.json", aws.ToString(api.inputs[0].Key))

	var report Report
	require.NoError(t, json.Unmarshal(api.bodies[0], &report))
	assert.Equal(t, 1, report.Count)
	assert.Equal(t, "arn:1", report.Errors[0].Key)
}

func TestWriteErrors_NothingToWrite(t *testing.T) {
	api := &fakeS3{}
	uri, err := NewS3Writer(api, "internal", "", silentLogger()).WriteErrors(context.Background(), "run-1", models.EntityPdrs, nil)
	require.NoError(t, err)
	assert.Empty(t, uri)
	assert.Empty(t, api.inputs)
}

func TestWriteErrors_PutFails(t *testing.T) {
	api := &fakeS3{err: errors.New("access denied")}
	_, err := NewS3Writer(api, "internal", "", silentLogger()).WriteErrors(context.Background(), "run-1", models.EntityPdrs,
		[]models.RecordError{{Entity: models.EntityPdrs, Key: "a.PDR"}})
	assert.ErrorContains(t, err, "access denied")
}

func TestKey(t *testing.T) {
	w := NewS3Writer(nil, "b", "", silentLogger())
	assert.Equal(t, "run-2/granules-errors.json", w.Key("run-2", models.EntityGranules))
}
