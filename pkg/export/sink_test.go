package export

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSink_BackendNoneReturnsNilNil(t *testing.T) {
	sink, err := NewSink(context.Background(), Config{Backend: BackendNone})
	require.NoError(t, err)
	assert.Nil(t, sink)
}

func TestNewSink_BackendS3RequiresBucket(t *testing.T) {
	_, err := NewSink(context.Background(), Config{Backend: BackendS3})
	require.Error(t, err)
}

func TestNewSink_BackendGCSRequiresBucket(t *testing.T) {
	_, err := NewSink(context.Background(), Config{Backend: BackendGCS})
	require.Error(t, err)
}

func TestNewSink_UnknownBackendIsError(t *testing.T) {
	_, err := NewSink(context.Background(), Config{Backend: Backend("azure")})
	require.Error(t, err)
}

func TestObjectKey_DeterministicForSameInputs(t *testing.T) {
	key1 := objectKey("prefix/", "2026-06", "entity-1", []byte(`{"a":1}`))
	key2 := objectKey("prefix/", "2026-06", "entity-1", []byte(`{"a":1}`))
	assert.Equal(t, key1, key2)
}

func TestObjectKey_DiffersWhenDataChanges(t *testing.T) {
	key1 := objectKey("prefix/", "2026-06", "entity-1", []byte(`{"a":1}`))
	key2 := objectKey("prefix/", "2026-06", "entity-1", []byte(`{"a":2}`))
	assert.NotEqual(t, key1, key2)
}

func TestObjectKey_IncludesPeriodAndEntity(t *testing.T) {
	key := objectKey("", "2026-06", "entity-1", []byte(`{}`))
	assert.Contains(t, key, "entity-1")
	assert.Contains(t, key, "2026-06")
}
