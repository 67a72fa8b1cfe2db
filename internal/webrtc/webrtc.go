package webrtc

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3"
	"go.uber.org/zap"
)

// ErrNoTrack is returned when RTP is written before a video track exists.
var ErrNoTrack = errors.New("webrtc: no video track")

// Session is one browser's peer connection carrying the camera video.
type Session struct {
	pc         *webrtc.PeerConnection
	videoTrack *webrtc.TrackLocalStaticRTP
	onICE      func(candidate *webrtc.ICECandidate)
	logger     *zap.Logger
	mu         sync.Mutex
	closed     bool
}

// Config for WebRTC session
type Config struct {
	ICEServers []string // STUN/TURN server URLs
	// ICEIPs are the server's public addresses. When set the session runs
	// ICE-lite and advertises them as host candidates.
	ICEIPs []string
	Logger *zap.Logger
}

// DefaultConfig uses the public Google STUN server.
func DefaultConfig() Config {
	return Config{
		ICEServers: []string{
			"stun:stun.l.google.com:19302",
		},
	}
}

// iceServers converts URLs into pion's ICE server list.
func iceServers(urls []string) []webrtc.ICEServer {
	servers := make([]webrtc.ICEServer, 0, len(urls))
	for _, url := range urls {
		servers = append(servers, webrtc.ICEServer{URLs: []string{url}})
	}
	return servers
}

func newAPI(cfg Config) *webrtc.API {
	var se webrtc.SettingEngine
	if len(cfg.ICEIPs) > 0 {
		se.SetLite(true)
		se.SetNAT1To1IPs(cfg.ICEIPs, webrtc.ICECandidateTypeHost)
	}
	return webrtc.NewAPI(webrtc.WithSettingEngine(se))
}

// NewSession creates a peer connection; onICE receives local candidates.
func NewSession(cfg Config, onICE func(*webrtc.ICECandidate)) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	pc, err := newAPI(cfg).NewPeerConnection(webrtc.Configuration{ICEServers: iceServers(cfg.ICEServers)})
	if err != nil {
		return nil, fmt.Errorf("failed to create peer connection: %w", err)
	}

	session := &Session{
		pc:     pc,
		onICE:  onICE,
		logger: logger.Named("webrtc"),
	}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c != nil && session.onICE != nil {
			session.onICE(c)
		}
	})
	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		session.logger.Info("connection state", zap.Stringer("state", s))
	})

	return session, nil
}

// AddH264Track adds the camera video track.
func (s *Session) AddH264Track() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	videoTrack, err := webrtc.NewTrackLocalStaticRTP(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeH264},
		"video",
		"pelco-camera",
	)
	if err != nil {
		return fmt.Errorf("failed to create video track: %w", err)
	}
	if _, err = s.pc.AddTrack(videoTrack); err != nil {
		return fmt.Errorf("failed to add video track: %w", err)
	}

	s.videoTrack = videoTrack
	return nil
}

// CreateOffer creates the SDP offer once ICE gathering completes.
func (s *Session) CreateOffer() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	offer, err := s.pc.CreateOffer(nil)
	if err != nil {
		return "", fmt.Errorf("failed to create offer: %w", err)
	}
	if err = s.pc.SetLocalDescription(offer); err != nil {
		return "", fmt.Errorf("failed to set local description: %w", err)
	}

	<-webrtc.GatheringCompletePromise(s.pc)
	return s.pc.LocalDescription().SDP, nil
}

// SetAnswer sets the remote SDP answer
func (s *Session) SetAnswer(sdp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	answer := webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  sdp,
	}
	if err := s.pc.SetRemoteDescription(answer); err != nil {
		return fmt.Errorf("failed to set remote description: %w", err)
	}
	return nil
}

// AddICECandidate adds a remote ICE candidate
func (s *Session) AddICECandidate(candidate string, sdpMid string, sdpMLineIndex uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ice := webrtc.ICECandidateInit{
		Candidate:     candidate,
		SDPMid:        &sdpMid,
		SDPMLineIndex: &sdpMLineIndex,
	}
	if err := s.pc.AddICECandidate(ice); err != nil {
		return fmt.Errorf("failed to add ICE candidate: %w", err)
	}
	return nil
}

// WriteRTP parses a marshalled RTP packet and writes it to the video track.
func (s *Session) WriteRTP(packet []byte) error {
	s.mu.Lock()
	track := s.videoTrack
	s.mu.Unlock()

	if track == nil {
		return ErrNoTrack
	}

	var pkt rtp.Packet
	if err := pkt.Unmarshal(packet); err != nil {
		return fmt.Errorf("parse rtp: %w", err)
	}
	return track.WriteRTP(&pkt)
}

// Close closes the WebRTC session
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.pc != nil {
		return s.pc.Close()
	}
	return nil
}
