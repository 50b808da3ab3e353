package errors

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// RecordAlreadyMigratedError means the target already holds an equal or newer
// version of the record. Drivers count it as skipped.
type RecordAlreadyMigratedError struct {
	Entity string
	Key    string
}

func NewRecordAlreadyMigrated(entity, key string) *RecordAlreadyMigratedError {
	return &RecordAlreadyMigratedError{Entity: entity, Key: key}
}

func (e *RecordAlreadyMigratedError) Error() string {
	return fmt.Sprintf("%s %s was already migrated", e.Entity, e.Key)
}

func IsRecordAlreadyMigrated(err error) bool {
	var target *RecordAlreadyMigratedError
	return pkgerrors.As(err, &target)
}

// SchemaValidationError means a legacy record lacks a field the target schema
// requires, or carries a value that cannot be converted.
type SchemaValidationError struct {
	Entity  string
	Field   string
	Message string
}

func NewSchemaValidationError(entity, field, message string) *SchemaValidationError {
	return &SchemaValidationError{Entity: entity, Field: field, Message: message}
}

func NewSchemaValidationErrorf(entity, field, format string, args ...any) *SchemaValidationError {
	return NewSchemaValidationError(entity, field, fmt.Sprintf(format, args...))
}

func (e *SchemaValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid %s record: %s", e.Entity, e.Message)
	}
	return fmt.Sprintf("invalid %s record: field '%s': %s", e.Entity, e.Field, e.Message)
}

func IsSchemaValidationError(err error) bool {
	var target *SchemaValidationError
	return pkgerrors.As(err, &target)
}

// DependencyNotFoundError means a referenced row could not be resolved in the
// target store and could not be migrated on demand.
type DependencyNotFoundError struct {
	Dependency string
	Key        string
	Cycle      bool
	Cause      error
}

func NewDependencyNotFound(dependency, key string) *DependencyNotFoundError {
	return &DependencyNotFoundError{Dependency: dependency, Key: key}
}

// NewCycleDetected reports a parent chain that revisits a record or exceeds
// the allowed depth.
func NewCycleDetected(dependency, key string, chain []string) *DependencyNotFoundError {
	return &DependencyNotFoundError{
		Dependency: dependency,
		Key:        key,
		Cycle:      true,
		Cause:      fmt.Errorf("parent chain %v", chain),
	}
}

func (e *DependencyNotFoundError) WithCause(cause error) *DependencyNotFoundError {
	e.Cause = cause
	return e
}

func (e *DependencyNotFoundError) Error() string {
	msg := fmt.Sprintf("%s %s not found", e.Dependency, e.Key)
	if e.Cycle {
		msg = fmt.Sprintf("cycle detected resolving %s %s", e.Dependency, e.Key)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *DependencyNotFoundError) Unwrap() error {
	return e.Cause
}

func IsDependencyNotFound(err error) bool {
	var target *DependencyNotFoundError
	return pkgerrors.As(err, &target)
}

func IsCycleDetected(err error) bool {
	var target *DependencyNotFoundError
	return pkgerrors.As(err, &target) && target.Cycle
}

// WriteConflictError means a guarded upsert affected zero rows.
type WriteConflictError struct {
	Entity string
	Key    string
}

func NewWriteConflict(entity, key string) *WriteConflictError {
	return &WriteConflictError{Entity: entity, Key: key}
}

func (e *WriteConflictError) Error() string {
	return fmt.Sprintf("upsert of %s %s affected no rows", e.Entity, e.Key)
}

func IsWriteConflict(err error) bool {
	var target *WriteConflictError
	return pkgerrors.As(err, &target)
}

// Reason labels err for metrics and error artifacts.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case IsRecordAlreadyMigrated(err):
		return "already_migrated"
	case IsSchemaValidationError(err):
		return "schema_validation"
	case IsCycleDetected(err):
		return "cycle_detected"
	case IsDependencyNotFound(err):
		return "dependency_not_found"
	case IsWriteConflict(err):
		return "write_conflict"
	default:
		return "unclassified"
	}
}

// InvocationError means a run could not start because its input or
// configuration is unusable. No record was touched.
type InvocationError struct {
	Message string
	Cause   error
}

func NewInvocationError(message string, cause error) *InvocationError {
	return &InvocationError{Message: message, Cause: cause}
}

func (e *InvocationError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *InvocationError) Unwrap() error {
	return e.Cause
}

func IsInvocationError(err error) bool {
	var target *InvocationError
	return pkgerrors.As(err, &target)
}
