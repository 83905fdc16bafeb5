package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentAccessible(t *testing.T) {
	private := Document{UserID: 5, IsPublic: false}
	assert.True(t, private.Accessible(5))
	assert.False(t, private.Accessible(999))

	public := Document{UserID: 5, IsPublic: true}
	assert.True(t, public.Accessible(999))
}

func TestPositionRoundTrip(t *testing.T) {
	p := Position{X: 10.5, Y: 20, Width: 100, Height: 14.25}
	v, err := p.Value()
	require.NoError(t, err)

	var got Position
	require.NoError(t, got.Scan(v))
	assert.Equal(t, p, got)
}

func TestPositionScanNil(t *testing.T) {
	got := Position{X: 1}
	require.NoError(t, got.Scan(nil))
	assert.Equal(t, Position{}, got)
}

func TestNoteMarshalJSON_HighlightID(t *testing.T) {
	n := Note{ID: 1, Content: "margin note"}
	payload, err := json.Marshal(n)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Nil(t, decoded["highlight_id"])
}
