// Package errors defines the SimDB error taxonomy: a closed set of tagged
// error types instead of sentinel values, so callers can recover the
// offending table/column with errors.As instead of string matching.
package errors

import (
	"errors"
	"fmt"
)

// DBError is the base interface every SimDB error implements.
type DBError interface {
	error
	Code() string
}

// DBAccessConflict signals a transient lock/contention condition. It is the
// only error kind safeTransaction recovers from locally (see ObjectManager).
type DBAccessConflict struct {
	Table string
	Cause error
}

func (e *DBAccessConflict) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("access conflict on table %q: %v", e.Table, e.Cause)
	}
	return fmt.Sprintf("access conflict: %v", e.Cause)
}
func (e *DBAccessConflict) Code() string  { return "DB_ACCESS_CONFLICT" }
func (e *DBAccessConflict) Unwrap() error { return e.Cause }

func NewDBAccessConflict(table string, cause error) *DBAccessConflict {
	return &DBAccessConflict{Table: table, Cause: cause}
}

// SchemaError covers table/column name conflicts, unknown data types, and
// back-end rejection during validateSchema.
type SchemaError struct {
	Table   string
	Column  string
	Message string
}

func (e *SchemaError) Error() string {
	switch {
	case e.Table != "" && e.Column != "":
		return fmt.Sprintf("schema error on %s.%s: %s", e.Table, e.Column, e.Message)
	case e.Table != "":
		return fmt.Sprintf("schema error on table %s: %s", e.Table, e.Message)
	default:
		return fmt.Sprintf("schema error: %s", e.Message)
	}
}
func (e *SchemaError) Code() string { return "SCHEMA_ERROR" }

func NewSchemaError(table, column, message string) *SchemaError {
	return &SchemaError{Table: table, Column: column, Message: message}
}

// NotConnected is returned for any mutating call issued before
// createDatabaseFromSchema/connectToExistingDatabase, or after Close.
type NotConnected struct {
	Op string
}

func (e *NotConnected) Error() string { return fmt.Sprintf("not connected: %s", e.Op) }
func (e *NotConnected) Code() string  { return "NOT_CONNECTED" }

func NewNotConnected(op string) *NotConnected { return &NotConnected{Op: op} }

// NotImplemented is returned when a requested capability (update, delete,
// raw-bytes read, object-query) is not supported by the chosen back-end.
type NotImplemented struct {
	Capability string
	Backend    string
}

func (e *NotImplemented) Error() string {
	return fmt.Sprintf("%s does not implement %s", e.Backend, e.Capability)
}
func (e *NotImplemented) Code() string { return "NOT_IMPLEMENTED" }

func NewNotImplemented(backend, capability string) *NotImplemented {
	return &NotImplemented{Backend: backend, Capability: capability}
}

// IndexOutOfRange is returned when a ResultIter/query range exceeds the
// available records.
type IndexOutOfRange struct {
	Index, Len int
}

func (e *IndexOutOfRange) Error() string {
	return fmt.Sprintf("index %d out of range (len %d)", e.Index, e.Len)
}
func (e *IndexOutOfRange) Code() string { return "INDEX_OUT_OF_RANGE" }

func NewIndexOutOfRange(index, length int) *IndexOutOfRange {
	return &IndexOutOfRange{Index: index, Len: length}
}

// InterruptException is the internal signal a worker task throws to unwind
// its consumer loop. It must never propagate past AsyncTaskQueue/TaskController.
type InterruptException struct{}

func (e *InterruptException) Error() string { return "worker interrupt" }
func (e *InterruptException) Code() string  { return "INTERRUPT" }

var errInterrupt = &InterruptException{}

// ErrInterrupt is the singleton interrupt sentinel.
func ErrInterrupt() *InterruptException { return errInterrupt }

// ThreadQuotaExceeded is returned when starting another worker thread would
// exceed the process-wide cap.
type ThreadQuotaExceeded struct {
	Max int
}

func (e *ThreadQuotaExceeded) Error() string {
	return fmt.Sprintf("worker thread quota exceeded (max %d)", e.Max)
}
func (e *ThreadQuotaExceeded) Code() string { return "THREAD_QUOTA_EXCEEDED" }

func NewThreadQuotaExceeded(max int) *ThreadQuotaExceeded { return &ThreadQuotaExceeded{Max: max} }

// PlaceholderNotRealized is returned by any public getter called on a
// placeholder value before it has been paired with its realization.
type PlaceholderNotRealized struct {
	Kind string
}

func (e *PlaceholderNotRealized) Error() string {
	return fmt.Sprintf("%s placeholder has not been realized", e.Kind)
}
func (e *PlaceholderNotRealized) Code() string { return "PLACEHOLDER_NOT_REALIZED" }

func NewPlaceholderNotRealized(kind string) *PlaceholderNotRealized {
	return &PlaceholderNotRealized{Kind: kind}
}

// BrokenUpdateChain is returned when TableRef.UpdateRowValues is not
// immediately followed by its terminating ForRecordsWhere call.
type BrokenUpdateChain struct {
	Table string
}

func (e *BrokenUpdateChain) Error() string {
	return fmt.Sprintf("broken update chain on table %s: ForRecordsWhere must immediately follow UpdateRowValues", e.Table)
}
func (e *BrokenUpdateChain) Code() string { return "BROKEN_UPDATE_CHAIN" }

func NewBrokenUpdateChain(table string) *BrokenUpdateChain { return &BrokenUpdateChain{Table: table} }

// Is* helpers, following the errors.As convention the teacher's pkg/errors uses.

func IsAccessConflict(err error) bool {
	var e *DBAccessConflict
	return errors.As(err, &e)
}

func IsSchemaError(err error) bool {
	var e *SchemaError
	return errors.As(err, &e)
}

func IsNotConnected(err error) bool {
	var e *NotConnected
	return errors.As(err, &e)
}

func IsNotImplemented(err error) bool {
	var e *NotImplemented
	return errors.As(err, &e)
}

func IsIndexOutOfRange(err error) bool {
	var e *IndexOutOfRange
	return errors.As(err, &e)
}

func IsInterrupt(err error) bool {
	var e *InterruptException
	return errors.As(err, &e)
}

func IsThreadQuotaExceeded(err error) bool {
	var e *ThreadQuotaExceeded
	return errors.As(err, &e)
}

func IsPlaceholderNotRealized(err error) bool {
	var e *PlaceholderNotRealized
	return errors.As(err, &e)
}

func IsBrokenUpdateChain(err error) bool {
	var e *BrokenUpdateChain
	return errors.As(err, &e)
}

// Code returns the stable error code for any DBError, or "UNKNOWN_ERROR"
// otherwise.
func Code(err error) string {
	var dbErr DBError
	if errors.As(err, &dbErr) {
		return dbErr.Code()
	}
	return "UNKNOWN_ERROR"
}
