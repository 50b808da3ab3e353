// Package artifact persists per-entity error reports for operator follow-up.
package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"path"
	"time"

	"github.com/2lambda123/nasa-cumulus-sub001/pkg/metrics"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/models"
	"github.com/Gobusters/ectologger"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
)

// PutObjectAPI is the part of the S3 client the writer uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Config struct {
	Region   string
	Endpoint string
	Bucket   string
	Prefix   string
}

// Report is the body of an error artifact.
type Report struct {
	RunID     string               `json:"run_id"`
	Entity    models.Entity        `json:"entity"`
	CreatedAt time.Time            `json:"created_at"`
	Count     int                  `json:"count"`
	Errors    []models.RecordError `json:"errors"`
}

type S3Writer struct {
	api    PutObjectAPI
	bucket string
	prefix string
	logger ectologger.Logger
}

func NewS3Writer(api PutObjectAPI, bucket, prefix string, logger ectologger.Logger) *S3Writer {
	return &S3Writer{api: api, bucket: bucket, prefix: prefix, logger: logger}
}

// Connect builds a writer from the default AWS credential chain.
func Connect(ctx context.Context, cfg Config, logger ectologger.Logger) (*S3Writer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS config")
	}
	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3Writer(api, cfg.Bucket, cfg.Prefix, logger), nil
}

// Key returns the object key for a run's entity report.
func (w *S3Writer) Key(runID string, entity models.Entity) string {
	return path.Join(w.prefix, runID, string(entity)+"-errors.json")
}

// WriteErrors uploads the entity's failures for the run. Nothing is written
// when there are none.
func (w *S3Writer) WriteErrors(ctx context.Context, runID string, entity models.Entity, failures []models.RecordError) (string, error) {
	if len(failures) == 0 {
		return "", nil
	}

	body, err := json.Marshal(Report{
		RunID:     runID,
		Entity:    entity,
		CreatedAt: time.Now().UTC(),
		Count:     len(failures),
		Errors:    failures,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal error report")
	}

	key := w.Key(runID, entity)
	_, err = w.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		metrics.RecordArtifactWrite("error")
		w.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"bucket": w.bucket, "key": key}).Error("Failed to write error artifact")
		return "", errors.Wrapf(err, "failed to write s3://%s/%s", w.bucket, key)
	}

	metrics.RecordArtifactWrite("success")
	uri := "s3://" + w.bucket + "/" + key
	w.logger.WithContext(ctx).WithFields(map[string]any{"uri": uri, "count": len(failures)}).Info("Wrote error artifact")
	return uri, nil
}
