package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pelco-remote/internal/metrics"
	"pelco-remote/internal/protocol"
	"pelco-remote/internal/ptz"
)

type fakeCamera struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeCamera) record(format string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	return f.err
}

func (f *fakeCamera) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeCamera) PanTilt(pan, tilt float64) error {
	return f.record("pantilt %.1f %.1f", pan, tilt)
}

func (f *fakeCamera) Zoom(zoom float64) error      { return f.record("zoom %.1f", zoom) }
func (f *fakeCamera) Stop() error                  { return f.record("stop") }
func (f *fakeCamera) RecallPreset(p int) error     { return f.record("recall %d", p) }
func (f *fakeCamera) SavePreset(p int) error       { return f.record("save %d", p) }
func (f *fakeCamera) ClearPreset(p int) error      { return f.record("clear %d", p) }
func (f *fakeCamera) SetAux(id int, on bool) error { return f.record("aux %d %t", id, on) }
func (f *fakeCamera) Close() error                 { return f.record("close") }

func (f *fakeCamera) Command(pan, tilt, zoom float64) error {
	return f.record("command %.1f %.1f %.1f", pan, tilt, zoom)
}

func (f *fakeCamera) Axis(name string, value float64) error {
	return f.record("axis %s %.1f", name, value)
}

func (f *fakeCamera) Axes(values map[string]float64) error {
	return f.record("axes %.1f %.1f", values[ptz.AxisLeftX], values[ptz.AxisLeftY])
}

func (f *fakeCamera) Button(name string, pressed bool) error {
	return f.record("button %s %t", name, pressed)
}

func (f *fakeCamera) Position() (ptz.Position, error) {
	if err := f.record("position"); err != nil {
		return ptz.Position{}, err
	}
	return ptz.Position{Pan: 123.45, Tilt: 10, Zoom: 400, Magnification: 2.5}, nil
}

var testFS = fstest.MapFS{
	"web/index.html": &fstest.MapFile{Data: []byte("<html>pelco</html>")},
}

func newTestServer(t *testing.T, cfg Config, cam Camera, opts ...Option) *httptest.Server {
	t.Helper()
	s, err := New(cfg, testFS, cam, opts...)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	data, err := protocol.Encode(msgType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

// next reads the next message whose type is msgType, skipping others.
func next(t *testing.T, conn *websocket.Conn, msgType string) *protocol.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		msg, err := protocol.Decode(data)
		require.NoError(t, err)
		if msg.Type == msgType {
			return msg
		}
	}
}

func TestStatusOnConnect(t *testing.T) {
	ts := newTestServer(t, Config{CameraAddress: 7}, &fakeCamera{})
	conn := dial(t, ts)

	var status protocol.StatusPayload
	require.NoError(t, next(t, conn, protocol.TypeStatus).ParsePayload(&status))
	assert.NotEmpty(t, status.ClientID)
	assert.True(t, status.ControlReady)
	assert.False(t, status.CameraConnected)
	assert.Equal(t, "pelco-d", status.ControlProtocol)
	assert.Equal(t, 7, status.CameraAddress)
}

func TestControlMessages(t *testing.T) {
	cam := &fakeCamera{}
	ts := newTestServer(t, Config{}, cam)
	conn := dial(t, ts)
	next(t, conn, protocol.TypeStatus)

	send(t, conn, protocol.TypePTZCommand, protocol.PTZCommandPayload{Pan: 0.5, Tilt: -0.5, Zoom: 1})
	send(t, conn, protocol.TypePTZAxis, protocol.PTZAxisPayload{Axis: ptz.AxisLeftX, Value: 0.8})
	send(t, conn, protocol.TypePTZAxes, protocol.PTZAxesPayload{Axes: map[string]float64{ptz.AxisLeftX: 1, ptz.AxisLeftY: -1}})
	send(t, conn, protocol.TypePTZButton, protocol.PTZButtonPayload{Button: ptz.ButtonMenu, Pressed: true})
	send(t, conn, protocol.TypePTZPreset, protocol.PTZPresetPayload{Action: protocol.PresetRecall, PresetNumber: 3})
	send(t, conn, protocol.TypePTZPreset, protocol.PTZPresetPayload{Action: protocol.PresetSave, PresetNumber: 4})
	send(t, conn, protocol.TypePTZPreset, protocol.PTZPresetPayload{Action: protocol.PresetClear, PresetNumber: 5})
	send(t, conn, protocol.TypePTZAux, protocol.PTZAuxPayload{AuxID: 2, On: true})
	send(t, conn, protocol.TypePTZStop, struct{}{})
	send(t, conn, protocol.TypePTZQuery, struct{}{})

	var pos protocol.PTZPositionPayload
	require.NoError(t, next(t, conn, protocol.TypePTZPosition).ParsePayload(&pos))
	assert.Equal(t, protocol.PTZPositionPayload{Pan: 123.45, Tilt: 10, Zoom: 400, Magnification: 2.5}, pos)

	assert.Equal(t, []string{
		"command 0.5 -0.5 1.0",
		"axis left_x 0.8",
		"axes 1.0 -1.0",
		"button menu true",
		"recall 3",
		"save 4",
		"clear 5",
		"aux 2 true",
		"stop",
		"position",
	}, cam.Calls())
}

func TestPing(t *testing.T) {
	ts := newTestServer(t, Config{}, &fakeCamera{})
	conn := dial(t, ts)

	send(t, conn, protocol.TypePing, protocol.PingPayload{Timestamp: 42})
	var pong protocol.PongPayload
	require.NoError(t, next(t, conn, protocol.TypePong).ParsePayload(&pong))
	assert.Equal(t, int64(42), pong.ClientTimestamp)
	assert.NotZero(t, pong.ServerTimestamp)
}

func TestErrors(t *testing.T) {
	cam := &fakeCamera{}
	ts := newTestServer(t, Config{}, cam)
	conn := dial(t, ts)

	readError := func() protocol.ErrorPayload {
		var p protocol.ErrorPayload
		require.NoError(t, next(t, conn, protocol.TypeError).ParsePayload(&p))
		return p
	}

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	assert.Equal(t, protocol.ErrInvalidMessage, readError().Code)

	send(t, conn, "bogus", struct{}{})
	assert.Equal(t, protocol.ErrInvalidMessage, readError().Code)

	send(t, conn, protocol.TypePTZPreset, protocol.PTZPresetPayload{Action: "rename", PresetNumber: 1})
	assert.Equal(t, protocol.ErrInvalidMessage, readError().Code)

	cam.mu.Lock()
	cam.err = errors.New("pelco: read timeout")
	cam.mu.Unlock()
	send(t, conn, protocol.TypePTZStop, struct{}{})
	p := readError()
	assert.Equal(t, protocol.ErrPelco, p.Code)
	assert.Contains(t, p.Message, "read timeout")
}

func TestNoCamera(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)
	conn := dial(t, ts)

	var status protocol.StatusPayload
	require.NoError(t, next(t, conn, protocol.TypeStatus).ParsePayload(&status))
	assert.False(t, status.ControlReady)

	send(t, conn, protocol.TypePTZStop, struct{}{})
	var p protocol.ErrorPayload
	require.NoError(t, next(t, conn, protocol.TypeError).ParsePayload(&p))
	assert.Equal(t, protocol.ErrCameraDisconnected, p.Code)
}

func TestRateLimit(t *testing.T) {
	cam := &fakeCamera{}
	ts := newTestServer(t, Config{MessageRate: 0.001, MessageBurst: 1}, cam)
	conn := dial(t, ts)

	send(t, conn, protocol.TypePTZPreset, protocol.PTZPresetPayload{Action: protocol.PresetRecall, PresetNumber: 1})
	send(t, conn, protocol.TypePTZPreset, protocol.PTZPresetPayload{Action: protocol.PresetRecall, PresetNumber: 2})

	var p protocol.ErrorPayload
	require.NoError(t, next(t, conn, protocol.TypeError).ParsePayload(&p))
	assert.Equal(t, protocol.ErrRateLimited, p.Code)

	// Stop bypasses the limiter.
	send(t, conn, protocol.TypePTZStop, struct{}{})
	send(t, conn, protocol.TypePing, protocol.PingPayload{})
	next(t, conn, protocol.TypePong)

	assert.Equal(t, []string{"recall 1", "stop"}, cam.Calls())
}

func TestMotionIsNotRateLimited(t *testing.T) {
	cam := &fakeCamera{}
	ts := newTestServer(t, Config{MessageRate: 0.001, MessageBurst: 1}, cam)
	conn := dial(t, ts)

	var want []string
	for i := 10; i >= 0; i-- {
		v := float64(i) / 10
		send(t, conn, protocol.TypePTZAxis, protocol.PTZAxisPayload{Axis: ptz.AxisLeftX, Value: v})
		want = append(want, fmt.Sprintf("axis left_x %.1f", v))
	}
	send(t, conn, protocol.TypePTZCommand, protocol.PTZCommandPayload{Pan: 1})
	send(t, conn, protocol.TypePTZCommand, protocol.PTZCommandPayload{})
	send(t, conn, protocol.TypePing, protocol.PingPayload{})

	// Nothing but the status and the pong comes back.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		msg, err := protocol.Decode(data)
		require.NoError(t, err)
		require.NotEqual(t, protocol.TypeError, msg.Type)
		if msg.Type == protocol.TypePong {
			break
		}
	}

	want = append(want, "command 1.0 0.0 0.0", "command 0.0 0.0 0.0")
	assert.Equal(t, want, cam.Calls())
	assert.Equal(t, "axis left_x 0.0", cam.Calls()[10])
}

func TestStaticAndMetrics(t *testing.T) {
	reg := metrics.NewRegistry()
	m := metrics.New(reg)
	ts := newTestServer(t, Config{MetricsPath: "/metrics"}, &fakeCamera{}, WithMetrics(m, metrics.Handler(reg)))

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "<html>pelco</html>", string(body))

	conn := dial(t, ts)
	next(t, conn, protocol.TypeStatus)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "ws_clients 1")
}
