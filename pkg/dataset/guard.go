package dataset

import (
	"fmt"
	"strings"
)

// Authorize enforces the ownership namespace rule: a caller may only
// touch keys whose first path segment equals their identity. Every
// dataset-scoped operation runs this before reaching storage; List is
// the exception, scoping its storage prefix to the caller instead.
func Authorize(callerID, key string) error {
	if callerID == "" || !strings.HasPrefix(key, callerID+"/") {
		return fmt.Errorf("key %q: %w", key, ErrForbidden)
	}
	return nil
}
