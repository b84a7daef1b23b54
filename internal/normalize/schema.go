package normalize

import (
	"time"

	"github.com/paulmach/orb"

	"github.com/02loveslollipop/lyon-transit-viewer/internal/feed"
)

// Field maps one source key of a raw record onto a normalized column.
type Field struct {
	Source   string
	Target   string
	Required bool
	Coerce   Coercer
}

// Schema is the fixed column set of one feed.
type Schema struct {
	Feed   string
	Fields []Field
}

// Columns returns the output column names in schema order.
func (s Schema) Columns() []string {
	cols := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = f.Target
	}
	return cols
}

// Row is one normalized record. Optional fields absent from the source hold nil.
type Row map[string]any

func (r Row) String(col string) string {
	s, _ := r[col].(string)
	return s
}

func (r Row) Float(col string) float64 {
	f, _ := r[col].(float64)
	return f
}

func (r Row) Int(col string) int64 {
	i, _ := r[col].(int64)
	return i
}

// IntPtr returns nil when the column is null.
func (r Row) IntPtr(col string) *int64 {
	i, ok := r[col].(int64)
	if !ok {
		return nil
	}
	return &i
}

func (r Row) Bool(col string) bool {
	b, _ := r[col].(bool)
	return b
}

func (r Row) Time(col string) time.Time {
	t, _ := r[col].(time.Time)
	return t
}

func (r Row) Point(col string) orb.Point {
	p, _ := r[col].(orb.Point)
	return p
}

func (r Row) Geometry(col string) orb.Geometry {
	g, _ := r[col].(orb.Geometry)
	return g
}

// Report counts what a normalization pass kept and dropped.
type Report struct {
	Feed    string
	Total   int
	Kept    int
	Dropped int
	Issues  []error
}

// Batch is the normalized output of one feed.
type Batch struct {
	Columns []string
	Rows    []Row
	Report  Report
}

// Apply normalizes records against schema. Rows with a missing required field or a
// value that cannot be coerced are dropped and reported. A required field absent from
// every record of a non-empty input fails the whole batch.
func Apply(records []feed.Record, schema Schema) (Batch, error) {
	batch := Batch{
		Columns: schema.Columns(),
		Report:  Report{Feed: schema.Feed, Total: len(records)},
	}
	if err := schema.checkPresence(records); err != nil {
		return batch, err
	}

	for i, rec := range records {
		row, err := schema.row(i, rec)
		if err != nil {
			batch.Report.Dropped++
			batch.Report.Issues = append(batch.Report.Issues, err)
			continue
		}
		batch.Rows = append(batch.Rows, row)
	}
	batch.Report.Kept = len(batch.Rows)
	return batch, nil
}

func (s Schema) checkPresence(records []feed.Record) error {
	if len(records) == 0 {
		return nil
	}
	for _, f := range s.Fields {
		if !f.Required {
			continue
		}
		found := false
		for _, rec := range records {
			if rec.Has(f.Source) {
				found = true
				break
			}
		}
		if !found {
			return &SchemaViolation{Feed: s.Feed, Field: f.Source, Row: -1}
		}
	}
	return nil
}

func (s Schema) row(i int, rec feed.Record) (Row, error) {
	row := make(Row, len(s.Fields))
	for _, f := range s.Fields {
		v, ok := rec[f.Source]
		if !ok || v == nil {
			if f.Required {
				return nil, &SchemaViolation{Feed: s.Feed, Field: f.Source, Row: i}
			}
			row[f.Target] = nil
			if f.Coerce != nil {
				if out, err := f.Coerce(nil); err == nil {
					row[f.Target] = out
				}
			}
			continue
		}
		if f.Coerce == nil {
			row[f.Target] = v
			continue
		}
		out, err := f.Coerce(v)
		if err != nil {
			return nil, &CoercionError{Feed: s.Feed, Field: f.Source, Row: i, Value: v, Err: err}
		}
		row[f.Target] = out
	}
	return row, nil
}
