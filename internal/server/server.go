package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	pwebrtc "github.com/pion/webrtc/v3"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"pelco-remote/internal/metrics"
	"pelco-remote/internal/protocol"
	"pelco-remote/internal/ptz"
	"pelco-remote/internal/rtsp"
	"pelco-remote/internal/webrtc"
)

// Config for the server
type Config struct {
	ListenAddr    string
	RTSPURL       string
	ICEServers    []string
	ICEIPs        []string // enables ICE-lite
	CameraAddress int
	// MessageRate limits control messages per client and second. Zero or
	// less disables the limit.
	MessageRate  float64
	MessageBurst int
	MetricsPath  string
}

// Camera is the control surface driven by browser clients.
type Camera interface {
	ptz.Controller
	ClearPreset(preset int) error
	SetAux(id int, on bool) error
	Position() (ptz.Position, error)
	Command(pan, tilt, zoom float64) error
	Axis(name string, value float64) error
	Axes(values map[string]float64) error
	Button(name string, pressed bool) error
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics records client gauges in m and serves h on Config.MetricsPath.
func WithMetrics(m *metrics.Metrics, h http.Handler) Option {
	return func(s *Server) {
		s.metrics = m
		s.metricsHandler = h
	}
}

// Server is the main PTZ remote server
type Server struct {
	cfg            Config
	clients        map[*Client]bool
	clientsMu      sync.RWMutex
	rtspClient     *rtsp.Client
	camera         Camera
	upgrader       websocket.Upgrader
	staticFS       fs.FS
	logger         *zap.Logger
	metrics        *metrics.Metrics
	metricsHandler http.Handler
	httpServer     *http.Server
}

// Client represents a connected WebSocket client
type Client struct {
	id      string
	conn    *websocket.Conn
	server  *Server
	logger  *zap.Logger
	limiter *rate.Limiter
	send    chan []byte
	rtpChan chan []byte // Per-client RTP channel
	stopRTP chan struct{}

	mu     sync.Mutex
	webrtc *webrtc.Session
	closed bool
}

// New creates a server serving the web/ subtree of staticFS. camera may be
// nil when the serial line is unavailable; control messages are then
// answered with CAMERA_DISCONNECTED.
func New(cfg Config, staticFS fs.FS, camera Camera, opts ...Option) (*Server, error) {
	webFS, err := fs.Sub(staticFS, "web")
	if err != nil {
		return nil, fmt.Errorf("failed to access embedded web files: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		clients:  make(map[*Client]bool),
		camera:   camera,
		staticFS: webFS,
		logger:   zap.NewNop(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for local use
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("server")
	return s, nil
}

// Handler returns the HTTP routes: the WebSocket endpoint, metrics when
// configured, and the static files.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	if s.metricsHandler != nil && s.cfg.MetricsPath != "" {
		mux.Handle(s.cfg.MetricsPath, s.metricsHandler)
	}
	mux.Handle("/", http.FileServer(http.FS(s.staticFS)))
	return mux
}

// Start connects the video source and serves HTTP until Stop.
func (s *Server) Start() error {
	if s.cfg.RTSPURL != "" {
		client, err := rtsp.NewClient(s.cfg.RTSPURL, s.logger)
		if err != nil {
			s.logger.Warn("create rtsp client", zap.Error(err))
		} else if err := client.Connect(); err != nil {
			s.logger.Warn("connect rtsp", zap.String("url", s.cfg.RTSPURL), zap.Error(err))
		} else {
			s.rtspClient = client
			s.logger.Info("rtsp connected", zap.String("url", s.cfg.RTSPURL))
			go s.broadcastRTP()
		}
	}

	s.httpServer = &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("listening", zap.String("addr", s.cfg.ListenAddr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// broadcastRTP reads from RTSP and sends to all connected clients
func (s *Server) broadcastRTP() {
	for packet := range s.rtspClient.RTPChannel() {
		s.clientsMu.RLock()
		for client := range s.clients {
			select {
			case client.rtpChan <- packet:
			default:
				// Client's buffer full, drop packet for this client
			}
		}
		s.clientsMu.RUnlock()
	}
}

// Stop closes clients, the video source and the camera, then shuts the HTTP
// server down.
func (s *Server) Stop(ctx context.Context) error {
	s.clientsMu.Lock()
	for client := range s.clients {
		client.Close()
	}
	s.clientsMu.Unlock()

	var errs []error
	if s.rtspClient != nil {
		errs = append(errs, s.rtspClient.Close())
	}
	if s.camera != nil {
		errs = append(errs, s.camera.Close())
	}
	if s.httpServer != nil {
		errs = append(errs, s.httpServer.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", zap.Error(err))
		return
	}

	id := uuid.NewString()
	client := &Client{
		id:      id,
		conn:    conn,
		server:  s,
		logger:  s.logger.With(zap.String("client", id)),
		limiter: newLimiter(s.cfg.MessageRate, s.cfg.MessageBurst),
		send:    make(chan []byte, 256),
		rtpChan: make(chan []byte, 500),
		stopRTP: make(chan struct{}),
	}

	s.clientsMu.Lock()
	s.clients[client] = true
	s.clientsMu.Unlock()
	s.metrics.ClientConnected()
	client.logger.Info("client connected", zap.String("remote", r.RemoteAddr))

	go client.writePump()
	go client.readPump()

	client.sendStatus()

	if s.rtspClient != nil {
		if err := client.initWebRTC(); err != nil {
			client.logger.Error("init webrtc", zap.Error(err))
		}
	}
}

func newLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

func (c *Client) initWebRTC() error {
	session, err := webrtc.NewSession(webrtc.Config{
		ICEServers: c.server.cfg.ICEServers,
		ICEIPs:     c.server.cfg.ICEIPs,
		Logger:     c.logger,
	}, func(candidate *pwebrtc.ICECandidate) {
		init := candidate.ToJSON()
		payload := protocol.ICECandidatePayload{Candidate: init.Candidate}
		if init.SDPMid != nil {
			payload.SDPMid = *init.SDPMid
		}
		if init.SDPMLineIndex != nil {
			payload.SDPMLineIndex = *init.SDPMLineIndex
		}
		c.sendMessage(protocol.TypeICECandidate, payload)
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return session.Close()
	}
	c.webrtc = session
	c.mu.Unlock()

	if err := session.AddH264Track(); err != nil {
		return err
	}

	offer, err := session.CreateOffer()
	if err != nil {
		return err
	}
	c.sendMessage(protocol.TypeOffer, protocol.SDPPayload{SDP: offer})

	go c.forwardRTP(session)
	return nil
}

func (c *Client) forwardRTP(session *webrtc.Session) {
	for {
		select {
		case <-c.stopRTP:
			return
		case packet, ok := <-c.rtpChan:
			if !ok {
				return
			}
			if err := session.WriteRTP(packet); err != nil {
				c.logger.Debug("forward rtp", zap.Error(err))
				return
			}
		}
	}
}

func (c *Client) session() *webrtc.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.webrtc
}

func (c *Client) sendStatus() {
	c.sendMessage(protocol.TypeStatus, protocol.StatusPayload{
		ClientID:        c.id,
		CameraConnected: c.server.rtspClient != nil,
		ControlReady:    c.server.camera != nil,
		RTSPURL:         c.server.cfg.RTSPURL,
		ControlProtocol: "pelco-d",
		VideoProtocol:   "rtsp",
		CameraAddress:   c.server.cfg.CameraAddress,
	})
}

func (c *Client) sendError(code string, err error) {
	c.sendMessage(protocol.TypeError, protocol.ErrorPayload{Code: code, Message: err.Error()})
}

func (c *Client) sendMessage(msgType string, payload any) {
	data, err := protocol.Encode(msgType, payload)
	if err != nil {
		c.logger.Error("encode message", zap.String("type", msgType), zap.Error(err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn("send buffer full, dropping message", zap.String("type", msgType))
	}
}

func (c *Client) readPump() {
	defer func() {
		c.server.clientsMu.Lock()
		delete(c.server.clients, c)
		c.server.clientsMu.Unlock()
		c.Close()
	}()

	c.conn.SetReadLimit(65536)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read", zap.Error(err))
			}
			return
		}

		c.handleMessage(data)
	}
}

// controlMessage reports whether msgType counts against the client's rate
// limit. Stop and continuous motion are never limited: the translator already
// coalesces motion, and a dropped release would leave the camera moving.
func controlMessage(msgType string) bool {
	switch msgType {
	case protocol.TypePTZButton, protocol.TypePTZPreset, protocol.TypePTZAux, protocol.TypePTZQuery:
		return true
	}
	return false
}

var errCameraUnavailable = errors.New("camera control is not available")

func (c *Client) handleMessage(data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		c.sendError(protocol.ErrInvalidMessage, fmt.Errorf("failed to parse message: %w", err))
		return
	}

	if controlMessage(msg.Type) && !c.limiter.Allow() {
		c.sendError(protocol.ErrRateLimited, fmt.Errorf("%s: too many messages", msg.Type))
		return
	}

	switch msg.Type {
	case protocol.TypePing:
		var payload protocol.PingPayload
		if err := msg.ParsePayload(&payload); err != nil {
			c.sendError(protocol.ErrInvalidMessage, err)
			return
		}
		c.sendMessage(protocol.TypePong, protocol.PongPayload{
			ClientTimestamp: payload.Timestamp,
			ServerTimestamp: time.Now().UnixMilli(),
		})

	case protocol.TypeAnswer:
		var payload protocol.SDPPayload
		if err := msg.ParsePayload(&payload); err != nil {
			c.sendError(protocol.ErrInvalidMessage, err)
			return
		}
		if s := c.session(); s != nil {
			if err := s.SetAnswer(payload.SDP); err != nil {
				c.logger.Warn("set answer", zap.Error(err))
			}
		}

	case protocol.TypeICECandidate:
		var payload protocol.ICECandidatePayload
		if err := msg.ParsePayload(&payload); err != nil {
			c.sendError(protocol.ErrInvalidMessage, err)
			return
		}
		if s := c.session(); s != nil {
			if err := s.AddICECandidate(payload.Candidate, payload.SDPMid, payload.SDPMLineIndex); err != nil {
				c.logger.Warn("add ice candidate", zap.Error(err))
			}
		}

	case protocol.TypePTZCommand, protocol.TypePTZAxis, protocol.TypePTZAxes, protocol.TypePTZButton,
		protocol.TypePTZStop, protocol.TypePTZPreset, protocol.TypePTZAux, protocol.TypePTZQuery:
		if c.server.camera == nil {
			c.sendError(protocol.ErrCameraDisconnected, errCameraUnavailable)
			return
		}
		if err := c.handlePTZ(msg); err != nil {
			c.logger.Warn("ptz", zap.String("type", msg.Type), zap.Error(err))
			c.sendError(ptzErrorCode(err), err)
		}

	default:
		c.logger.Debug("unknown message type", zap.String("type", msg.Type))
		c.sendError(protocol.ErrInvalidMessage, fmt.Errorf("unknown message type %q", msg.Type))
	}
}

// errBadPayload marks payloads that failed to parse, so they are reported
// as INVALID_MESSAGE rather than a camera fault.
type errBadPayload struct{ err error }

func (e errBadPayload) Error() string { return "invalid payload: " + e.err.Error() }
func (e errBadPayload) Unwrap() error { return e.err }

func ptzErrorCode(err error) string {
	var bad errBadPayload
	if errors.As(err, &bad) {
		return protocol.ErrInvalidMessage
	}
	return protocol.ErrPelco
}

func (c *Client) handlePTZ(msg *protocol.Message) error {
	cam := c.server.camera
	parse := func(v any) error {
		if err := msg.ParsePayload(v); err != nil {
			return errBadPayload{err}
		}
		return nil
	}

	switch msg.Type {
	case protocol.TypePTZCommand:
		var cmd protocol.PTZCommandPayload
		if err := parse(&cmd); err != nil {
			return err
		}
		return cam.Command(cmd.Pan, cmd.Tilt, cmd.Zoom)

	case protocol.TypePTZAxis:
		var p protocol.PTZAxisPayload
		if err := parse(&p); err != nil {
			return err
		}
		return cam.Axis(p.Axis, p.Value)

	case protocol.TypePTZAxes:
		var p protocol.PTZAxesPayload
		if err := parse(&p); err != nil {
			return err
		}
		return cam.Axes(p.Axes)

	case protocol.TypePTZButton:
		var p protocol.PTZButtonPayload
		if err := parse(&p); err != nil {
			return err
		}
		return cam.Button(p.Button, p.Pressed)

	case protocol.TypePTZStop:
		return cam.Stop()

	case protocol.TypePTZPreset:
		var p protocol.PTZPresetPayload
		if err := parse(&p); err != nil {
			return err
		}
		switch p.Action {
		case protocol.PresetRecall:
			return cam.RecallPreset(p.PresetNumber)
		case protocol.PresetSave:
			return cam.SavePreset(p.PresetNumber)
		case protocol.PresetClear:
			return cam.ClearPreset(p.PresetNumber)
		}
		return errBadPayload{fmt.Errorf("unknown preset action %q", p.Action)}

	case protocol.TypePTZAux:
		var p protocol.PTZAuxPayload
		if err := parse(&p); err != nil {
			return err
		}
		return cam.SetAux(p.AuxID, p.On)

	case protocol.TypePTZQuery:
		pos, err := cam.Position()
		if err != nil {
			return err
		}
		c.sendMessage(protocol.TypePTZPosition, protocol.PTZPositionPayload{
			Pan:           pos.Pan,
			Tilt:          pos.Tilt,
			Zoom:          pos.Zoom,
			Magnification: pos.Magnification,
		})
	}
	return nil
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close closes the client connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true

	close(c.stopRTP)

	if c.webrtc != nil {
		c.webrtc.Close()
		c.webrtc = nil
	}

	close(c.send)
	c.server.metrics.ClientDisconnected()
	c.logger.Info("client disconnected")
}
