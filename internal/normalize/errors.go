package normalize

import "fmt"

// SchemaViolation reports a required field missing from a record, or from the whole
// batch when Row is negative.
type SchemaViolation struct {
	Feed  string
	Field string
	Row   int
}

func (e *SchemaViolation) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("%s: required field %q missing from every record", e.Feed, e.Field)
	}
	return fmt.Sprintf("%s: row %d: required field %q missing", e.Feed, e.Row, e.Field)
}

// CoercionError reports a field value that could not be converted.
type CoercionError struct {
	Feed  string
	Field string
	Row   int
	Value any
	Err   error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("%s: row %d: field %q: cannot coerce %v: %v", e.Feed, e.Row, e.Field, e.Value, e.Err)
}

func (e *CoercionError) Unwrap() error { return e.Err }
