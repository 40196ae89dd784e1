package dataset

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// MaterializedExt is the key suffix of the materialized (binary) form of
// a dataset. The raw upload keeps its original extension (.csv).
const MaterializedExt = ".pkl"

// keyPrefix returns the storage namespace for a user's datasets.
func keyPrefix(userID string) string {
	return userID + "/datasets/"
}

// MakeKey maps (userID, originalFilename) to a fresh raw storage key of
// the form {userID}/datasets/{token}{ext}. The token is random, never
// derived from content or filename, so repeated uploads of the same file
// never collide. The extension is taken from the filename, lower-cased;
// a filename without an extension yields an empty one.
func MakeKey(userID, originalFilename string) string {
	ext := strings.ToLower(path.Ext(originalFilename))
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s%s%s", keyPrefix(userID), token, ext)
}

// MaterializedKeyFor derives the companion materialized key from a raw
// key by replacing the trailing extension.
func MaterializedKeyFor(rawKey string) string {
	return strings.TrimSuffix(rawKey, path.Ext(rawKey)) + MaterializedExt
}

// RawKeyFor derives the companion raw (.csv) key from a materialized key.
func RawKeyFor(materializedKey string) string {
	return strings.TrimSuffix(materializedKey, MaterializedExt) + ".csv"
}

// CanonicalKey normalizes a client-supplied dataset ID to the canonical
// materialized key. Clients sometimes send the key with and sometimes
// without the materialized extension; it is resolved here once rather
// than ad hoc per endpoint.
func CanonicalKey(datasetID string) string {
	if strings.HasSuffix(datasetID, MaterializedExt) {
		return datasetID
	}
	return datasetID + MaterializedExt
}
