//go:build !gcp

package export

import (
	"context"
	"fmt"
)

// newGCSSink is a stub in the default build: GCS pulls in a large
// dependency tree that most deployments of this tool never need, so
// it is opt-in via the "gcp" build tag, same as the teacher's
// factory_nogcp.go.
func newGCSSink(ctx context.Context, cfg Config) (Sink, error) {
	return nil, fmt.Errorf("export: gcs backend requires building with -tags gcp")
}
