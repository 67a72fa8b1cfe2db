package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAxis(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"ptz_axis","payload":{"axis":"left_x","value":-0.5}}`))
	require.NoError(t, err)
	assert.Equal(t, TypePTZAxis, msg.Type)

	var p PTZAxisPayload
	require.NoError(t, msg.ParsePayload(&p))
	assert.Equal(t, PTZAxisPayload{Axis: "left_x", Value: -0.5}, p)
}

func TestDecodeAxes(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"ptz_axes","payload":{"axes":{"left_x":1,"left_y":-0.25}}}`))
	require.NoError(t, err)
	assert.Equal(t, TypePTZAxes, msg.Type)

	var p PTZAxesPayload
	require.NoError(t, msg.ParsePayload(&p))
	assert.Equal(t, map[string]float64{"left_x": 1, "left_y": -0.25}, p.Axes)
}

func TestDecodeRejects(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"payload":{}}`))
	assert.ErrorIs(t, err, ErrNoType)
}

func TestEncodePosition(t *testing.T) {
	data, err := Encode(TypePTZPosition, PTZPositionPayload{Pan: 90, Tilt: 1.5, Zoom: 4660, Magnification: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ptz_position","payload":{"pan":90,"tilt":1.5,"zoom":4660,"magnification":2}}`, string(data))
}
