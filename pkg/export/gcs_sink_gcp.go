//go:build gcp

package export

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
)

// gcsSink archives snapshots to Google Cloud Storage. Grounded on
// pkg/artifacts/gcs_store.go's NewClient + Object writer shape. Built
// only under the "gcp" tag, same split as the teacher's
// factory_gcp.go/factory_nogcp.go, since the GCS client pulls in a
// large dependency tree the default build doesn't need.
type gcsSink struct {
	client *storage.Client
	bucket string
	prefix string
}

func newGCSSink(ctx context.Context, cfg Config) (*gcsSink, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: gcs client: %w", err)
	}
	return &gcsSink{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *gcsSink) Archive(ctx context.Context, periodKey, entityID string, data []byte) (string, error) {
	key := objectKey(s.prefix, periodKey, entityID, data)
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("export: gcs write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("export: gcs close failed: %w", err)
	}
	return key, nil
}
