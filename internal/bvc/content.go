package bvc

import (
	"context"
	"strings"
)

// SimulatedIDPrefix marks content identifiers that were derived locally
// because no content store was reachable. Such identifiers are not
// retrievable and must never be treated as real references.
const SimulatedIDPrefix = "sim-"

// UploadResult is the outcome of a content-store upload. Simulated is true
// when the identifier is a locally derived stand-in rather than a real
// content reference; callers must check it before relying on the ID.
type UploadResult struct {
	ID        string
	Simulated bool
}

// ContentStore uploads and downloads opaque byte buffers by content
// identifier. Implementations may fall back to a simulated identifier on
// upload when the store is unreachable (development only); they must refuse
// to download a simulated identifier.
type ContentStore interface {
	Upload(ctx context.Context, data []byte) (*UploadResult, error)
	Download(ctx context.Context, id string) ([]byte, error)
}

// IsSimulatedID reports whether id is a simulated stand-in identifier.
func IsSimulatedID(id string) bool {
	return strings.HasPrefix(id, SimulatedIDPrefix)
}
