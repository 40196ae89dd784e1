package table

import (
	"math"
	"sort"
)

// Stat keys used in the per-column describe map.
const (
	StatCount = "count"
	StatMean  = "mean"
	StatStd   = "std"
	StatMin   = "min"
	StatQ25   = "25%"
	StatQ50   = "50%"
	StatQ75   = "75%"
	StatMax   = "max"
)

// Summary is the derived, non-persisted view of a table. It is computed
// fresh on every request and never cached.
type Summary struct {
	Columns       []string
	NumRows       int
	MissingValues map[string]int
	ColumnTypes   map[string]string
	Stats         map[string]map[string]float64
}

// Summarize computes the structural and statistical summary of a table.
// It is a pure function: the same table always yields the same summary.
// Descriptive statistics cover numeric (int64/float64) columns only;
// other columns still appear in the column list, type map, and missing
// map. Stats over empty or single-value columns contain NaN entries,
// which consumers normalize to null.
func Summarize(t *Table) *Summary {
	s := &Summary{
		Columns:       append([]string(nil), t.Columns...),
		NumRows:       t.NumRows(),
		MissingValues: make(map[string]int, len(t.Columns)),
		ColumnTypes:   make(map[string]string, len(t.Columns)),
		Stats:         make(map[string]map[string]float64),
	}

	for col, name := range t.Columns {
		dtype := t.Types[col]
		s.ColumnTypes[name] = dtype

		missing := 0
		var numeric []float64
		for _, row := range t.Rows {
			v := row[col]
			if v.Kind == KindMissing {
				missing++
				continue
			}
			switch v.Kind {
			case KindInt:
				numeric = append(numeric, float64(v.Int))
			case KindFloat:
				numeric = append(numeric, v.Float)
			}
		}
		s.MissingValues[name] = missing

		if dtype == TypeInt || dtype == TypeFloat {
			s.Stats[name] = describe(numeric)
		}
	}

	return s
}

// describe computes pandas-style descriptive statistics over the
// non-missing values of one numeric column.
func describe(values []float64) map[string]float64 {
	n := len(values)
	stats := map[string]float64{
		StatCount: float64(n),
		StatMean:  math.NaN(),
		StatStd:   math.NaN(),
		StatMin:   math.NaN(),
		StatQ25:   math.NaN(),
		StatQ50:   math.NaN(),
		StatQ75:   math.NaN(),
		StatMax:   math.NaN(),
	}
	if n == 0 {
		return stats
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)

	stats[StatMean] = mean
	stats[StatMin] = sorted[0]
	stats[StatMax] = sorted[n-1]
	stats[StatQ25] = quantile(sorted, 0.25)
	stats[StatQ50] = quantile(sorted, 0.50)
	stats[StatQ75] = quantile(sorted, 0.75)

	// Sample standard deviation (ddof=1); NaN for a single value.
	if n > 1 {
		var ss float64
		for _, v := range values {
			d := v - mean
			ss += d * d
		}
		stats[StatStd] = math.Sqrt(ss / float64(n-1))
	}

	return stats
}

// quantile computes the q-th quantile of sorted values using linear
// interpolation between closest ranks.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	frac := pos - float64(lo)
	if lo+1 >= n {
		return sorted[n-1]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
