package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
)

// ErrParse is returned when the raw bytes are not valid delimited text
// with a header row.
var ErrParse = errors.New("invalid tabular data")

// missingTokens are cell values treated as missing, matching the common
// CSV conventions for nulls.
var missingTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"NaN":  {},
	"nan":  {},
	"null": {},
	"NULL": {},
}

// Parse materializes raw CSV bytes into a Table. The first record is the
// header; duplicate header names are kept verbatim. Column dtypes are
// inferred from all non-missing values: int64 when everything parses as an
// integer (promoted to float64 when the column has missing cells), float64
// when everything parses as a number, bool when everything is true/false,
// object otherwise. Parse is a pure transform; persistence is the caller's
// concern.
func Parse(raw []byte) (*Table, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no header row", ErrParse)
	}

	header := records[0]
	dataRows := records[1:]

	types := make([]string, len(header))
	for col := range header {
		types[col] = inferType(dataRows, col)
	}

	rows := make([][]Value, len(dataRows))
	for i, record := range dataRows {
		row := make([]Value, len(header))
		for col := range header {
			row[col] = typedValue(record[col], types[col])
		}
		rows[i] = row
	}

	return &Table{
		Columns: append([]string(nil), header...),
		Types:   types,
		Rows:    rows,
	}, nil
}

func isMissing(s string) bool {
	_, ok := missingTokens[s]
	return ok
}

// inferType scans one column of raw strings and picks its dtype.
func inferType(rows [][]string, col int) string {
	var (
		seen       int
		hasMissing bool
		allInt     = true
		allFloat   = true
		allBool    = true
	)

	for _, row := range rows {
		cell := row[col]
		if isMissing(cell) {
			hasMissing = true
			continue
		}
		seen++
		if allInt {
			if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
				allInt = false
			}
		}
		if allFloat {
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				allFloat = false
			}
		}
		if allBool && !isBoolToken(cell) {
			allBool = false
		}
	}

	switch {
	case seen == 0:
		// A fully-missing column reads as all-NaN numeric.
		return TypeFloat
	case allInt && !hasMissing:
		return TypeInt
	case allFloat:
		// Integer columns with missing cells promote to float.
		return TypeFloat
	case allBool && !hasMissing:
		return TypeBool
	default:
		return TypeObject
	}
}

func isBoolToken(s string) bool {
	switch s {
	case "true", "false", "True", "False", "TRUE", "FALSE":
		return true
	}
	return false
}

// typedValue converts one raw cell according to the column dtype.
func typedValue(cell, dtype string) Value {
	if isMissing(cell) {
		return Value{Kind: KindMissing}
	}
	switch dtype {
	case TypeInt:
		n, _ := strconv.ParseInt(cell, 10, 64)
		return Value{Kind: KindInt, Int: n}
	case TypeFloat:
		f, _ := strconv.ParseFloat(cell, 64)
		return Value{Kind: KindFloat, Float: f}
	case TypeBool:
		b, _ := strconv.ParseBool(cell)
		return Value{Kind: KindBool, Bool: b}
	default:
		return Value{Kind: KindString, Str: cell}
	}
}
