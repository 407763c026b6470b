// Package export archives period-close snapshots to an optional
// object-storage backend. Grounded on the teacher's
// pkg/artifacts factory-per-backend pattern (factory.go +
// factory_gcp.go/factory_nogcp.go build-tag split) — this package
// keeps that same shape, swapping the teacher's content-addressed
// artifact store for a (period_key, entity_id)-keyed archive of the
// close_period response.
package export

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Sink archives a period-close snapshot and returns its storage key.
// A nil Sink is a valid, fully-supported value: callers treat it as
// "archiving disabled" rather than an error, since object storage is
// optional infrastructure the period engine does not depend on.
type Sink interface {
	Archive(ctx context.Context, periodKey, entityID string, data []byte) (string, error)
}

// Backend selects which Sink implementation Config builds.
type Backend string

const (
	BackendNone Backend = ""
	BackendS3   Backend = "s3"
	BackendGCS  Backend = "gcs"
)

// Config selects and configures a Sink backend.
type Config struct {
	Backend Backend
	Bucket  string
	Region  string // S3 only; ignored for GCS
	Prefix  string
}

// NewSink builds the configured Sink, or (nil, nil) when archiving is
// disabled (Backend == BackendNone).
func NewSink(ctx context.Context, cfg Config) (Sink, error) {
	switch cfg.Backend {
	case BackendNone:
		return nil, nil
	case BackendS3:
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("export: bucket is required for the s3 backend")
		}
		return newS3Sink(ctx, cfg)
	case BackendGCS:
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("export: bucket is required for the gcs backend")
		}
		return newGCSSink(ctx, cfg)
	default:
		return nil, fmt.Errorf("export: unknown backend %q", cfg.Backend)
	}
}

// objectKey derives a deterministic, content-addressed object key so
// re-archiving an unchanged period-close snapshot overwrites the same
// object rather than accumulating duplicates.
func objectKey(prefix, periodKey, entityID string, data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%speriod-close/%s/%s-%s.json", prefix, entityID, periodKey, hex.EncodeToString(sum[:8]))
}
