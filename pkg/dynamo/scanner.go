package dynamo

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkg/errors"
)

// Scanner is a lazy, finite, non-restartable reader over a table scan. It
// holds one page in memory and fetches the next when the buffer runs dry.
// Pages with no items but a continuation key are skipped over.
type Scanner struct {
	api       API
	table     string
	pageLimit int32
	logger    ectologger.Logger

	buffer  []map[string]types.AttributeValue
	lastKey map[string]types.AttributeValue
	started bool
	done    bool
	pages   int
}

func NewScanner(api API, table string, pageLimit int32, logger ectologger.Logger) *Scanner {
	return &Scanner{
		api:       api,
		table:     table,
		pageLimit: pageLimit,
		logger:    logger,
	}
}

// Pages reports how many scan requests were made so far.
func (s *Scanner) Pages() int {
	return s.pages
}

func (s *Scanner) fill(ctx context.Context) error {
	for len(s.buffer) == 0 && !s.done {
		if s.started && len(s.lastKey) == 0 {
			s.done = true
			return nil
		}

		input := &dynamodb.ScanInput{
			TableName:         aws.String(s.table),
			ExclusiveStartKey: s.lastKey,
		}
		if s.pageLimit > 0 {
			input.Limit = aws.Int32(s.pageLimit)
		}

		out, err := s.api.Scan(ctx, input)
		if err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"table": s.table, "page": s.pages + 1}).Error("Failed to scan legacy table")
			return errors.Wrapf(err, "failed to scan %s", s.table)
		}

		s.started = true
		s.pages++
		s.buffer = out.Items
		s.lastKey = out.LastEvaluatedKey
		if len(s.lastKey) == 0 && len(s.buffer) == 0 {
			s.done = true
		}
	}
	return nil
}

// Peek returns the next record without consuming it. ok is false once the
// table is exhausted.
func (s *Scanner) Peek(ctx context.Context) (Record, bool, error) {
	if err := s.fill(ctx); err != nil {
		return nil, false, err
	}
	if len(s.buffer) == 0 {
		return nil, false, nil
	}
	record, err := unmarshalRecord(s.buffer[0])
	if err != nil {
		return nil, false, err
	}
	return record, true, nil
}

// Shift consumes and returns the next record. A record that fails to decode is
// still consumed so the scan can move past it.
func (s *Scanner) Shift(ctx context.Context) (Record, bool, error) {
	if err := s.fill(ctx); err != nil {
		return nil, false, err
	}
	if len(s.buffer) == 0 {
		return nil, false, nil
	}
	item := s.buffer[0]
	s.buffer = s.buffer[1:]

	record, err := unmarshalRecord(item)
	if err != nil {
		return nil, true, err
	}
	return record, true, nil
}
