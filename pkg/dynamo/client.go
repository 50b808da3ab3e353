// Package dynamo reads legacy records out of DynamoDB tables.
package dynamo

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkg/errors"
)

// Record is one legacy item. Numbers decode as attributevalue.Number.
type Record map[string]any

// API is the subset of the DynamoDB client used here.
type API interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

type Config struct {
	Region    string
	Endpoint  string
	PageLimit int32
}

type Client struct {
	api       API
	pageLimit int32
	logger    ectologger.Logger
}

func NewClient(api API, pageLimit int32, logger ectologger.Logger) *Client {
	return &Client{api: api, pageLimit: pageLimit, logger: logger}
}

// Connect builds a client from the default AWS credential chain. Endpoint
// overrides the service URL for local DynamoDB.
func Connect(ctx context.Context, cfg Config, logger ectologger.Logger) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		logger.WithContext(ctx).WithError(err).Error("Failed to load AWS config")
		return nil, errors.Wrap(err, "failed to load AWS config")
	}

	api := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewClient(api, cfg.PageLimit, logger), nil
}

// Ping checks that each table exists and is readable.
func (c *Client) Ping(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := c.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)}); err != nil {
			return errors.Wrapf(err, "failed to describe table %s", table)
		}
	}
	return nil
}

// Scan returns a reader over every item of table.
func (c *Client) Scan(table string) *Scanner {
	return NewScanner(c.api, table, c.pageLimit, c.logger)
}

// GetRecord fetches one item by key with a strongly consistent read.
func (c *Client) GetRecord(ctx context.Context, table string, key map[string]any) (Record, bool, error) {
	av, err := attributevalue.MarshalMap(key)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to marshal key")
	}

	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            av,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"table": table, "key": key}).Error("Failed to get legacy record")
		return nil, false, errors.Wrapf(err, "failed to get item from %s", table)
	}
	if len(out.Item) == 0 {
		return nil, false, nil
	}

	record, err := unmarshalRecord(out.Item)
	if err != nil {
		return nil, false, err
	}
	return record, true, nil
}

func unmarshalRecord(item map[string]types.AttributeValue) (Record, error) {
	record := Record{}
	err := attributevalue.UnmarshalMapWithOptions(item, &record, func(o *attributevalue.DecoderOptions) {
		o.UseNumber = true
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal legacy record")
	}
	return record, nil
}
