package dataset

import "errors"

// Error kinds surfaced by dataset operations. The API layer maps each to
// a distinct HTTP status.
var (
	// ErrBadInput is returned for malformed requests, such as an upload
	// that is not a .csv file.
	ErrBadInput = errors.New("bad input")

	// ErrForbidden is returned when a key is not namespaced under the
	// caller's identity. It never reveals whether the resource exists
	// under a different owner.
	ErrForbidden = errors.New("not your dataset")

	// ErrNotFound is returned when a dataset key is absent from the store.
	ErrNotFound = errors.New("dataset not found")
)
