package status

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelEventKeepsIndexZero(t *testing.T) {
	data, err := json.Marshal(&Event{
		Type:    LEVEL,
		AssetId: "20240517T103045-123-teapot",
		Level:   0,
		State:   "producing",
	})
	require.NoError(t, err)

	// the lowest level is index 0; consumers must be able to tell it
	// apart from an event that carries no level at all
	assert.Contains(t, string(data), `"level":0`)
}

func TestEventRoundtrip(t *testing.T) {
	e := Event{Type: LEVEL, AssetId: "x", Level: 3, State: "packed", Progress: 1}
	data, err := json.Marshal(&e)
	require.NoError(t, err)

	var got Event
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 3, got.Level)
	assert.Equal(t, "packed", got.State)
}
