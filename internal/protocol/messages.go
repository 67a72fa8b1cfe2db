package protocol

import (
	"encoding/json"
	"errors"
)

// Message types
const (
	TypePing         = "ping"
	TypePong         = "pong"
	TypeStatus       = "status"
	TypeOffer        = "offer"
	TypeAnswer       = "answer"
	TypeICECandidate = "ice_candidate"
	TypePTZCommand   = "ptz_command"
	TypePTZAxis      = "ptz_axis"
	TypePTZAxes      = "ptz_axes"
	TypePTZButton    = "ptz_button"
	TypePTZStop      = "ptz_stop"
	TypePTZPreset    = "ptz_preset"
	TypePTZAux       = "ptz_aux"
	TypePTZQuery     = "ptz_query"
	TypePTZPosition  = "ptz_position"
	TypeError        = "error"
)

// Error codes
const (
	ErrCameraDisconnected = "CAMERA_DISCONNECTED"
	ErrRTSP               = "RTSP_ERROR"
	ErrPelco              = "PELCO_ERROR"
	ErrInvalidMessage     = "INVALID_MESSAGE"
	ErrRateLimited        = "RATE_LIMITED"
)

// Message is the base envelope for all WebSocket messages
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// PingPayload for ping messages
type PingPayload struct {
	Timestamp int64 `json:"timestamp"`
}

// PongPayload for pong messages
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"`
	ServerTimestamp int64 `json:"server_timestamp"`
}

// StatusPayload for status messages
type StatusPayload struct {
	ClientID        string `json:"client_id"`
	CameraConnected bool   `json:"camera_connected"`
	ControlReady    bool   `json:"control_ready"`
	RTSPURL         string `json:"rtsp_url,omitempty"`
	ControlProtocol string `json:"control_protocol"`
	VideoProtocol   string `json:"video_protocol"`
	CameraAddress   int    `json:"camera_address"`
}

// SDPPayload for offer/answer messages
type SDPPayload struct {
	SDP string `json:"sdp"`
}

// ICECandidatePayload for ICE candidate messages
type ICECandidatePayload struct {
	Candidate     string `json:"candidate"`
	SDPMid        string `json:"sdp_mid"`
	SDPMLineIndex uint16 `json:"sdp_mline_index"`
}

// PTZCommandPayload for PTZ control messages
type PTZCommandPayload struct {
	Pan  float64 `json:"pan"`
	Tilt float64 `json:"tilt"`
	Zoom float64 `json:"zoom"`
}

// PTZAxisPayload carries one raw gamepad axis reading
type PTZAxisPayload struct {
	Axis  string  `json:"axis"`
	Value float64 `json:"value"`
}

// PTZAxesPayload carries every gamepad axis read in one poll
type PTZAxesPayload struct {
	Axes map[string]float64 `json:"axes"`
}

// PTZButtonPayload carries a gamepad button edge
type PTZButtonPayload struct {
	Button  string `json:"button"`
	Pressed bool   `json:"pressed"`
}

// PTZPresetPayload for preset recall/save/clear
type PTZPresetPayload struct {
	Action       string `json:"action"`
	PresetNumber int    `json:"preset_number"`
}

// Preset actions
const (
	PresetRecall = "recall"
	PresetSave   = "save"
	PresetClear  = "clear"
)

// PTZAuxPayload switches an auxiliary relay
type PTZAuxPayload struct {
	AuxID int  `json:"aux_id"`
	On    bool `json:"on"`
}

// PTZPositionPayload answers ptz_query
type PTZPositionPayload struct {
	Pan           float64 `json:"pan"`
	Tilt          float64 `json:"tilt"`
	Zoom          uint16  `json:"zoom"`
	Magnification float64 `json:"magnification"`
}

// ErrorPayload for error messages
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewMessage creates a new message with the given type and payload
func NewMessage(msgType string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:    msgType,
		Payload: data,
	}, nil
}

// ParsePayload unmarshals the payload into the given struct
func (m *Message) ParsePayload(v any) error {
	return json.Unmarshal(m.Payload, v)
}

// ErrNoType is returned for an envelope without a type.
var ErrNoType = errors.New("protocol: message has no type")

// Decode parses a raw WebSocket frame into its envelope.
func Decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" {
		return nil, ErrNoType
	}
	return &msg, nil
}

// Encode builds a message and marshals it for the wire.
func Encode(msgType string, payload any) ([]byte, error) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}
