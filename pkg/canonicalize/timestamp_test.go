package canonicalize

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_MarshalsMicrosecondUTCZ(t *testing.T) {
	loc := time.FixedZone("-0500", -5*60*60)
	ts := NewTimestamp(time.Date(2026, 1, 2, 3, 4, 5, 123456000, loc))

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2026-01-02T08:04:05.123456Z"`, string(data))
}

func TestTimestamp_RoundTrip(t *testing.T) {
	original := NewTimestamp(time.Date(2026, 6, 15, 12, 0, 0, 999000000, time.UTC))
	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Timestamp
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, original.Time.Equal(decoded.Time))
}

func TestPayloadHash_StableAcrossEquivalentConstruction(t *testing.T) {
	type doc struct {
		B int    `json:"b"`
		A string `json:"a"`
	}
	h1, err := PayloadHash(doc{B: 2, A: "x"})
	require.NoError(t, err)
	h2, err := PayloadHash(map[string]any{"a": "x", "b": 2})
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestVerifyRFC8785_MatchesOwnEncoder(t *testing.T) {
	ok, err := VerifyRFC8785(map[string]any{"z": 1, "a": []any{1, 2, 3}, "nested": map[string]any{"b": true}})
	require.NoError(t, err)
	assert.True(t, ok)
}
