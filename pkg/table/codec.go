package table

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// Encode serializes a table into its materialized binary form. The same
// table always encodes to the same bytes, so the materialized blob is
// reproducible from the raw upload.
func Encode(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(t); err != nil {
		return nil, fmt.Errorf("encoding table: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode loads a table from its materialized binary form.
func Decode(data []byte) (*Table, error) {
	var t Table
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&t); err != nil {
		return nil, fmt.Errorf("decoding table: %w", err)
	}
	return &t, nil
}
