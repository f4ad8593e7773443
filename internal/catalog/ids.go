package catalog

import (
	"strings"

	"github.com/google/uuid"
)

// idNamespace scopes every derived identifier to this service.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:campus-advisor"))

// StableID derives a name-based UUID from its parts. Identical parts always
// yield the same ID, so re-running ingestion reproduces the same identifiers.
func StableID(kind string, parts ...string) string {
	name := kind + ":" + strings.Join(parts, "#")
	return uuid.NewSHA1(idNamespace, []byte(name)).String()
}
