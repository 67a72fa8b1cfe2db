package rtsp

import (
	"errors"
	"sync"
	"time"

	"github.com/bluenviron/gortsplib/v4"
	"github.com/bluenviron/gortsplib/v4/pkg/base"
	"github.com/bluenviron/gortsplib/v4/pkg/description"
	"github.com/bluenviron/gortsplib/v4/pkg/format"
	"github.com/pion/rtp"
	"go.uber.org/zap"
)

// ErrNoVideo is returned when the stream carries no video media.
var ErrNoVideo = errors.New("rtsp: no video media in stream")

const maxBackoff = 30 * time.Second

// Client pulls the camera's video over RTSP and republishes the RTP packets
// on a channel. It reconnects with exponential backoff when the stream drops.
type Client struct {
	url     string
	rtpChan chan []byte
	stopCh  chan struct{}
	logger  *zap.Logger

	mu      sync.Mutex
	client  *gortsplib.Client
	stopped bool
}

// NewClient validates rtspURL; no connection is made until Connect.
func NewClient(rtspURL string, logger *zap.Logger) (*Client, error) {
	if _, err := base.ParseURL(rtspURL); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		url:     rtspURL,
		rtpChan: make(chan []byte, 500),
		stopCh:  make(chan struct{}),
		logger:  logger.Named("rtsp"),
	}, nil
}

// Connect establishes the RTSP session and starts streaming.
func (c *Client) Connect() error {
	return c.connect()
}

func (c *Client) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	client := &gortsplib.Client{
		// Interleaved TCP survives the NAT between camera VLAN and server.
		Transport: func() *gortsplib.Transport {
			t := gortsplib.TransportTCP
			return &t
		}(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		OnDecodeError: func(err error) {
			c.logger.Debug("decode error", zap.Error(err))
		},
	}

	u, err := base.ParseURL(c.url)
	if err != nil {
		return err
	}
	if err := client.Start(u.Scheme, u.Host); err != nil {
		return err
	}

	desc, _, err := client.Describe(u)
	if err != nil {
		client.Close()
		return err
	}

	media, forma := videoMedia(desc)
	if media == nil {
		client.Close()
		return ErrNoVideo
	}

	if _, err := client.Setup(desc.BaseURL, media, 0, 0); err != nil {
		client.Close()
		return err
	}

	client.OnPacketRTPAny(func(_ *description.Media, _ format.Format, pkt *rtp.Packet) {
		buf, err := pkt.Marshal()
		if err != nil {
			return
		}
		select {
		case c.rtpChan <- buf:
		case <-c.stopCh:
		default:
			// Drop when the consumers fall behind.
		}
	})

	if _, err := client.Play(nil); err != nil {
		client.Close()
		return err
	}

	c.client = client
	c.logger.Info("playing", zap.String("codec", forma.Codec()))

	go c.monitorConnection()
	return nil
}

// videoMedia prefers H264/H265, then any video media.
func videoMedia(desc *description.Session) (*description.Media, format.Format) {
	for _, media := range desc.Medias {
		for _, f := range media.Formats {
			switch f.(type) {
			case *format.H264, *format.H265:
				return media, f
			}
		}
	}
	for _, media := range desc.Medias {
		if media.Type == description.MediaTypeVideo && len(media.Formats) > 0 {
			return media, media.Formats[0]
		}
	}
	return nil, nil
}

// backoff returns the delay before reconnect attempt n (1-based).
func backoff(attempt int) time.Duration {
	if attempt > 6 {
		return maxBackoff
	}
	return min(time.Duration(1<<uint(attempt-1))*time.Second, maxBackoff)
}

func (c *Client) monitorConnection() {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	if client == nil {
		return
	}

	err := client.Wait()
	if c.isStopped() {
		return
	}
	c.logger.Warn("connection lost", zap.Error(err))

	for attempt := 1; ; attempt++ {
		delay := backoff(attempt)
		c.logger.Info("reconnecting", zap.Int("attempt", attempt), zap.Duration("delay", delay))
		select {
		case <-c.stopCh:
			return
		case <-time.After(delay):
		}

		if err := c.connect(); err != nil {
			c.logger.Warn("reconnect failed", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		c.logger.Info("reconnected", zap.Int("attempt", attempt))
		return
	}
}

func (c *Client) isStopped() bool {
	select {
	case <-c.stopCh:
		return true
	default:
		return false
	}
}

// RTPChannel returns the marshalled RTP packets of the video track.
func (c *Client) RTPChannel() <-chan []byte {
	return c.rtpChan
}

// Close stops streaming and reconnection. The RTP channel is closed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	client := c.client
	c.mu.Unlock()

	close(c.stopCh)
	if client != nil {
		client.Close()
	}
	close(c.rtpChan)
	return nil
}
