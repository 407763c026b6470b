package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisPatten/capital-os/pkg/config"
)

func TestGetConfig_ReturnsRedactedConfigAndCorrelationID(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	deps := Deps{Config: cfg}

	result, err := deps.GetConfig(context.Background(), nil, map[string]any{"correlation_id": "corr-1"})
	require.NoError(t, err)

	resp, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "corr-1", resp["correlation_id"])
	assert.Equal(t, cfg.AppEnv, resp["app_env"])
	_, hasDBURL := resp["database_url"]
	assert.False(t, hasDBURL)
	assert.NotEmpty(t, resp["output_hash"])
}

func TestGetConfig_MissingCorrelationIDIsValidationError(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	deps := Deps{Config: cfg}

	_, err = deps.GetConfig(context.Background(), nil, map[string]any{})
	require.Error(t, err)
}
