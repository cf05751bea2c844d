package beer

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// Subscription is an open push channel. It never reconnects: once the
// connection closes, for any reason, the subscription is finished.
type Subscription struct {
	mu      sync.Mutex
	stopped bool
	conn    *websocket.Conn

	cancel   context.CancelFunc
	stopOnce sync.Once
	done     chan struct{}
}

// Subscribe connects to the push channel in the background, sends the
// authorization handshake and hands every decoded notification to deliver.
// Connect failures and abrupt closes are logged and end the subscription.
//
// deliver runs on the subscription goroutine and must not call Stop.
func (c *Client) Subscribe(ctx context.Context, token string, deliver func(Notification)) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.run(ctx, c.dialer, c.pushURL(), token, deliver, c.logger)
	return s
}

// Stop closes the channel and waits for the reader to exit. No notification
// is delivered after Stop returns. Stop is safe to call more than once.
func (s *Subscription) Stop() {
	if s == nil {
		return
	}
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		conn := s.conn
		s.mu.Unlock()

		s.cancel()
		if conn != nil {
			_ = conn.Close()
		}
	})
	<-s.done
}

// Done is closed once the subscription has finished.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) run(ctx context.Context, dialer *websocket.Dialer, endpoint, token string, deliver func(Notification), logger *slog.Logger) {
	defer close(s.done)

	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if !s.isStopped() {
			logger.Warn("push connect failed", "url", endpoint, "error", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.conn = conn
	s.mu.Unlock()
	logger.Info("push channel open", "url", endpoint)

	var auth authorizationFrame
	auth.Type = "authorization"
	auth.Payload.Token = token
	if err := conn.WriteJSON(auth); err != nil {
		logger.Warn("push authorization failed", "error", err)
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !s.isStopped() {
				logger.Info("push channel closed", "error", err)
			}
			return
		}
		var n Notification
		if err := json.Unmarshal(data, &n); err != nil {
			logger.Warn("push frame dropped", "error", &DecodeError{Frame: data, Err: err})
			continue
		}
		logger.Debug("push message", "type", n.Type, "id", n.Item.ID)
		s.deliver(n, deliver)
	}
}

func (s *Subscription) deliver(n Notification, fn func(Notification)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || fn == nil {
		return
	}
	fn(n)
}

func (s *Subscription) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}
