package pelco

import (
	"errors"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"pelco-remote/internal/metrics"
)

// Port is the byte channel a Session owns. go.bug.st/serial ports satisfy it.
// A read that times out returns 0 bytes and a nil error.
type Port interface {
	io.ReadWriter
	SetReadTimeout(t time.Duration) error
}

// inputFlusher is implemented by ports that can discard unread input.
type inputFlusher interface {
	ResetInputBuffer() error
}

// SessionConfig configures a Session.
type SessionConfig struct {
	// ReadTimeout bounds the wait for a complete reply. It must be set.
	ReadTimeout time.Duration
	// VerifyReplyChecksum enables checksum verification of replies.
	VerifyReplyChecksum bool

	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Session runs the half-duplex request/reply discipline over one Port. Calls
// are serialized: at most one command is in flight at a time.
type Session struct {
	mu      sync.Mutex
	port    Port
	timeout time.Duration
	verify  bool
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewSession takes ownership of port.
func NewSession(port Port, cfg SessionConfig) (*Session, error) {
	if port == nil {
		return nil, errors.New("pelco: nil port")
	}
	if cfg.ReadTimeout <= 0 {
		return nil, errors.New("pelco: read timeout must be configured")
	}
	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		return nil, &TransportError{Op: "set read timeout", Err: err}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		port:    port,
		timeout: cfg.ReadTimeout,
		verify:  cfg.VerifyReplyChecksum,
		logger:  logger.Named("session"),
		metrics: cfg.Metrics,
		now:     time.Now,
	}, nil
}

// Send writes f without waiting for a reply.
func (s *Session) Send(f Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(f, frameKind(f))
}

// TransactGeneral writes f and reads the 4-byte general reply.
func (s *Session) TransactGeneral(f Frame) (GeneralReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()
	if err := s.write(f, frameKind(f)); err != nil {
		return GeneralReply{}, err
	}
	b, err := s.read(GeneralReplyLength)
	if err != nil {
		s.metrics.Reply("general", resultOf(err), 0)
		return GeneralReply{}, err
	}
	r, err := DecodeGeneralReply(b, s.verify)
	s.metrics.Reply("general", resultOf(err), s.now().Sub(start))
	if err != nil {
		s.logger.Warn("bad general reply", zap.Binary("reply", b), zap.Error(err))
		return GeneralReply{}, err
	}
	s.logger.Debug("general reply", zap.Uint8("address", r.Address), zap.Uint8("alarms", r.Alarms))
	return r, nil
}

// TransactExtended writes f and reads the 7-byte extended reply, which must
// echo expected.
func (s *Session) TransactExtended(f Frame, expected Opcode) (ExtendedReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()
	if err := s.write(f, frameKind(f)); err != nil {
		return ExtendedReply{}, err
	}
	b, err := s.read(ExtendedReplyLength)
	if err != nil {
		s.metrics.Reply("extended", resultOf(err), 0)
		return ExtendedReply{}, err
	}
	r, err := DecodeExtendedReply(b, expected, s.verify)
	s.metrics.Reply("extended", resultOf(err), s.now().Sub(start))
	if err != nil {
		s.logger.Warn("bad extended reply", zap.Binary("reply", b), zap.Error(err))
		return ExtendedReply{}, err
	}
	s.logger.Debug("extended reply", zap.Stringer("reply", r))
	return r, nil
}

// Query broadcasts an address-discovery query. Replies to it cannot be
// decoded reliably, so none is read.
func (s *Session) Query(f Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(f, "query")
}

func (s *Session) write(f Frame, kind string) error {
	if fl, ok := s.port.(inputFlusher); ok {
		if err := fl.ResetInputBuffer(); err != nil {
			return &TransportError{Op: "flush", Err: err}
		}
	}
	b := f.Encode()
	n, err := s.port.Write(b)
	if err == nil && n < len(b) {
		err = io.ErrShortWrite
	}
	if err != nil {
		s.logger.Warn("write failed", zap.Stringer("frame", f), zap.Error(err))
		return &TransportError{Op: "write", Err: err}
	}
	s.metrics.FrameSent(kind)
	s.logger.Debug("frame sent", zap.Stringer("frame", f))
	return nil
}

// read collects up to n bytes before the read timeout elapses. A short buffer
// is returned as is so the decoder reports its length.
func (s *Session) read(n int) ([]byte, error) {
	buf := make([]byte, n)
	got := 0
	deadline := s.now().Add(s.timeout)
	for got < n {
		k, err := s.port.Read(buf[got:])
		got += k
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, &TransportError{Op: "read", Err: err}
		}
		if k == 0 && (err != nil || !s.now().Before(deadline)) {
			break
		}
	}
	if got == 0 {
		return nil, ErrTimeout
	}
	return buf[:got], nil
}

func frameKind(f Frame) string {
	if f.Extended() {
		return "extended"
	}
	return "standard"
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrChecksumMismatch):
		return "checksum"
	case errors.Is(err, ErrUnexpectedOpcode):
		return "opcode"
	}
	return "error"
}
