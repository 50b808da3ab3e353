package translate

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/2lambda123/nasa-cumulus-sub001/pkg/database"
	cumuluserrors "github.com/2lambda123/nasa-cumulus-sub001/pkg/errors"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/models"
)

// number is satisfied by json.Number and attributevalue.Number, the types
// legacy numbers decode to.
type number interface {
	Float64() (float64, error)
	Int64() (int64, error)
	String() string
}

// fieldReader reads typed values out of a raw legacy record. The first
// conversion failure is kept and every later read is a no-op.
type fieldReader struct {
	entity models.Entity
	record map[string]any
	err    error
}

func newFieldReader(entity models.Entity, record map[string]any) *fieldReader {
	return &fieldReader{entity: entity, record: record}
}

func (r *fieldReader) Err() error {
	return r.err
}

func (r *fieldReader) fail(key string, value any, want string) {
	if r.err == nil {
		r.err = cumuluserrors.NewSchemaValidationErrorf(string(r.entity), key, "expected %s, got %T", want, value)
	}
}

func (r *fieldReader) value(key string) (any, bool) {
	if r.err != nil {
		return nil, false
	}
	v, ok := r.record[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// First returns the first key present in the record, or the first key.
func (r *fieldReader) First(keys ...string) string {
	for _, key := range keys {
		if v, ok := r.record[key]; ok && v != nil {
			return key
		}
	}
	return keys[0]
}

func (r *fieldReader) String(key string) *string {
	v, ok := r.value(key)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case string:
		return &t
	case number:
		s := t.String()
		return &s
	case float64:
		s := strconv.FormatFloat(t, 'f', -1, 64)
		return &s
	case int64:
		s := strconv.FormatInt(t, 10)
		return &s
	case int:
		s := strconv.Itoa(t)
		return &s
	}
	r.fail(key, v, "string")
	return nil
}

func (r *fieldReader) StringValue(key string) string {
	if s := r.String(key); s != nil {
		return *s
	}
	return ""
}

func (r *fieldReader) Float(key string) *float64 {
	v, ok := r.value(key)
	if !ok {
		return nil
	}
	f, ok := toFloat(v)
	if !ok {
		r.fail(key, v, "number")
		return nil
	}
	return &f
}

func (r *fieldReader) Int(key string) *int64 {
	v, ok := r.value(key)
	if !ok {
		return nil
	}
	if n, isNumber := v.(number); isNumber {
		if i, err := n.Int64(); err == nil {
			return &i
		}
	}
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) {
		r.fail(key, v, "integer")
		return nil
	}
	i := int64(f)
	return &i
}

func (r *fieldReader) Bool(key string) *bool {
	v, ok := r.value(key)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case bool:
		return &t
	case string:
		b, err := strconv.ParseBool(t)
		if err == nil {
			return &b
		}
	}
	r.fail(key, v, "boolean")
	return nil
}

// timeLayouts are tried in order. Zoneless timestamps are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
}

// Time accepts epoch milliseconds or an ISO 8601 string.
func (r *fieldReader) Time(key string) *time.Time {
	v, ok := r.value(key)
	if !ok {
		return nil
	}
	if t, ok := v.(time.Time); ok {
		t = t.UTC()
		return &t
	}
	if s, ok := v.(string); ok {
		for _, layout := range timeLayouts {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				t = t.UTC()
				return &t
			}
		}
	}
	f, ok := toFloat(v)
	if !ok {
		r.fail(key, v, "epoch milliseconds or ISO 8601 timestamp")
		return nil
	}
	t := time.UnixMilli(int64(f)).UTC()
	return &t
}

// Volume keeps large sizes exact by storing them as base-10 strings.
func (r *fieldReader) Volume(key string) *string {
	v, ok := r.value(key)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case number:
		s := t.String()
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			break
		}
		return &s
	case float64:
		s := strconv.FormatFloat(t, 'f', -1, 64)
		return &s
	case int64:
		s := strconv.FormatInt(t, 10)
		return &s
	case string:
		if _, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			s := strings.TrimSpace(t)
			return &s
		}
	}
	r.fail(key, v, "numeric volume")
	return nil
}

// JSON re-encodes a nested document. Absent or null values map to NULL.
func (r *fieldReader) JSON(key string) database.JSON {
	v, ok := r.value(key)
	if !ok {
		return nil
	}
	j, err := database.NewJSON(normalize(v))
	if err != nil {
		r.fail(key, v, "JSON document")
		return nil
	}
	return j
}

// Object returns a nested map, or nil when absent.
func (r *fieldReader) Object(key string) map[string]any {
	v, ok := r.value(key)
	if !ok {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		r.fail(key, v, "object")
		return nil
	}
	return m
}

// List returns a nested list, or nil when absent.
func (r *fieldReader) List(key string) []any {
	v, ok := r.value(key)
	if !ok {
		return nil
	}
	l, ok := v.([]any)
	if !ok {
		r.fail(key, v, "list")
		return nil
	}
	return l
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

// normalize rewrites decoded legacy numbers as json.Number so they encode as
// JSON numbers rather than strings.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case json.Number:
		return t
	case number:
		return json.Number(t.String())
	}
	return v
}

// timestamps resolves created/updated with the legacy fallbacks: created
// defaults to updatedAt then timestamp, updated defaults to created.
func timestamps(entity models.Entity, created, updated, timestamp *time.Time) (time.Time, time.Time, error) {
	switch {
	case created != nil:
	case updated != nil:
		created = updated
	case timestamp != nil:
		created = timestamp
	default:
		return time.Time{}, time.Time{}, cumuluserrors.NewSchemaValidationError(string(entity), "createdAt", "no createdAt, updatedAt or timestamp")
	}
	if updated == nil {
		updated = created
	}
	return *created, *updated, nil
}
