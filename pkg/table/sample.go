package table

import "github.com/tabserve/tabserve/pkg/jsonsafe"

// DefaultPreviewRows is the number of rows Head returns when the caller
// does not specify a count.
const DefaultPreviewRows = 10

// Head returns the first n rows as JSON-safe records in original row
// order. This is a fixed-prefix preview, not a statistical sample. When
// n <= 0 the default of 10 is used; when the table has fewer rows, all
// rows are returned. Missing cells and non-finite floats become nil.
// When the header contains duplicate column names, later occurrences
// overwrite earlier ones in each record.
func Head(t *Table, n int) []map[string]any {
	if n <= 0 {
		n = DefaultPreviewRows
	}
	if n > len(t.Rows) {
		n = len(t.Rows)
	}

	records := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		rec := make(map[string]any, len(t.Columns))
		for col, name := range t.Columns {
			rec[name] = jsonsafe.Sanitize(t.Rows[i][col].Native())
		}
		records[i] = rec
	}
	return records
}
