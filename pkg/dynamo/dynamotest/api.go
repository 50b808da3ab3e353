// Package dynamotest provides an in-memory stand-in for the DynamoDB API.
package dynamotest

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type table struct {
	keys  []string
	items []map[string]types.AttributeValue
}

// API serves Scan, GetItem and DescribeTable from memory. Scan pages are cut
// by the request Limit, or PageSize when no limit is given.
type API struct {
	mu     sync.Mutex
	tables map[string]*table

	PageSize int
	// EmptyPagesBetween inserts this many empty pages, each with a
	// continuation key, between consecutive non-empty pages.
	EmptyPagesBetween int
	// TrailingEmptyPage ends every scan with an empty page.
	TrailingEmptyPage bool
	// ScanErr fails every scan request once set.
	ScanErr error

	ScanCalls    int
	GetItemCalls int
}

func New() *API {
	return &API{tables: map[string]*table{}, PageSize: 100}
}

// CreateTable registers a table keyed by the given string attributes.
func (a *API) CreateTable(name string, keys ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tables[name] = &table{keys: keys}
}

// Put appends or replaces an item, matching on the table keys.
func (a *API) Put(name string, record map[string]any) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := a.tables[name]
	if !ok {
		return fmt.Errorf("table %s does not exist", name)
	}
	for i, existing := range t.items {
		if t.matches(existing, item) {
			t.items[i] = item
			return nil
		}
	}
	t.items = append(t.items, item)
	return nil
}

func (t *table) matches(item, key map[string]types.AttributeValue) bool {
	if len(t.keys) == 0 {
		return false
	}
	for _, k := range t.keys {
		a, aok := item[k].(*types.AttributeValueMemberS)
		b, bok := key[k].(*types.AttributeValueMemberS)
		if !aok || !bok || a.Value != b.Value {
			return false
		}
	}
	return true
}

func cursorValue(key map[string]types.AttributeValue, name string) int {
	n, ok := key[name].(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	v, _ := strconv.Atoi(n.Value)
	return v
}

func cursor(offset, empties int) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"offset":  &types.AttributeValueMemberN{Value: strconv.Itoa(offset)},
		"empties": &types.AttributeValueMemberN{Value: strconv.Itoa(empties)},
	}
}

func (a *API) Scan(_ context.Context, params *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ScanCalls++

	if a.ScanErr != nil {
		return nil, a.ScanErr
	}
	t, ok := a.tables[aws.ToString(params.TableName)]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("table not found")}
	}

	offset := cursorValue(params.ExclusiveStartKey, "offset")
	empties := cursorValue(params.ExclusiveStartKey, "empties")
	total := len(t.items)

	if offset >= total {
		return &dynamodb.ScanOutput{}, nil
	}
	if offset > 0 && empties < a.EmptyPagesBetween {
		return &dynamodb.ScanOutput{LastEvaluatedKey: cursor(offset, empties+1)}, nil
	}

	limit := a.PageSize
	if params.Limit != nil {
		limit = int(*params.Limit)
	}
	if limit <= 0 {
		limit = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	out := &dynamodb.ScanOutput{
		Items: append([]map[string]types.AttributeValue(nil), t.items[offset:end]...),
		Count: int32(end - offset),
	}
	if end < total || a.TrailingEmptyPage {
		out.LastEvaluatedKey = cursor(end, 0)
	}
	return out, nil
}

func (a *API) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.GetItemCalls++

	t, ok := a.tables[aws.ToString(params.TableName)]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("table not found")}
	}
	for _, item := range t.items {
		if t.matches(item, params.Key) {
			return &dynamodb.GetItemOutput{Item: item}, nil
		}
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (a *API) DescribeTable(_ context.Context, params *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	name := aws.ToString(params.TableName)
	t, ok := a.tables[name]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("table not found")}
	}
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{
			TableName: aws.String(name),
			ItemCount: aws.Int64(int64(len(t.items))),
		},
	}, nil
}
