// Package table implements the materialized tabular form of an uploaded
// dataset: CSV parsing with per-column type inference, a binary codec for
// the stored representation, descriptive statistics, and row previews.
package table

// Column dtype names, mirroring the labels clients expect in the
// column_types response map.
const (
	TypeInt    = "int64"
	TypeFloat  = "float64"
	TypeBool   = "bool"
	TypeObject = "object"
)

// Kind discriminates the value held in a cell.
type Kind int

const (
	KindMissing Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
)

// Value is a single cell. Exactly one payload field is meaningful,
// selected by Kind. Fields are exported for the gob codec.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Bool  bool
	Str   string
}

// Native returns the cell as a plain Go value suitable for JSON encoding,
// with missing cells as nil. Non-finite floats are passed through; JSON
// safety is the sanitizer's concern.
func (v Value) Native() any {
	switch v.Kind {
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindBool:
		return v.Bool
	case KindString:
		return v.Str
	default:
		return nil
	}
}

// Table is a rectangular, read-only structure with named ordered columns.
// It is produced once at upload time and never mutated.
type Table struct {
	Columns []string
	Types   []string // dtype per column, same order as Columns
	Rows    [][]Value
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// TypeOf returns the dtype of the named column, or "" if absent. When the
// header contains duplicate names the first occurrence wins.
func (t *Table) TypeOf(column string) string {
	for i, c := range t.Columns {
		if c == column {
			return t.Types[i]
		}
	}
	return ""
}
