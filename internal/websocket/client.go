package websocket

import (
	"fmt"
	"net/http"
	"sync"

	socket "github.com/zishang520/socket.io/clients/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"

	"github.com/dsimona/estimo/internal/logger"
)

// Conn is the subset of the Socket.IO socket the channel uses. It is an
// interface so tests can substitute an in-process fake for the real
// transport via SetDialer.
type Conn interface {
	Emit(event string, args ...any)
	On(event string, listener func(args ...any))
	Once(event string, listener func(args ...any))
	Off(event string, listener func(args ...any))
	Connected() bool
	Disconnect()
}

// sioConn adapts the real Socket.IO client socket to the Conn interface.
type sioConn struct {
	sock *socket.Socket
}

func (s sioConn) Emit(event string, args ...any) {
	s.sock.Emit(event, args...)
}

func (s sioConn) On(event string, listener func(args ...any)) {
	s.sock.On(types.EventName(event), listener)
}

func (s sioConn) Once(event string, listener func(args ...any)) {
	s.sock.Once(types.EventName(event), listener)
}

func (s sioConn) Off(event string, listener func(args ...any)) {
	s.sock.RemoveListener(types.EventName(event), listener)
}

func (s sioConn) Connected() bool {
	return s.sock.Connected()
}

func (s sioConn) Disconnect() {
	s.sock.Disconnect()
}

// Channel owns the single duplex Socket.IO connection to the server.
//
// A Channel is created once per client and dialed lazily on first use. It
// persists for the life of the client; Reconnect tears the socket down and
// dials a fresh one so the server re-derives per-connection session state
// (used after login/logout).
type Channel struct {
	serverURL string
	path      string
	debug     bool

	mu        sync.RWMutex
	conn      Conn
	connected bool
	statusFn  func(connected bool)
	cookieFn  func() []*http.Cookie
	dialFn    func() (Conn, error)
}

// SetDialer overrides how the channel obtains its connection. Tests use it
// to run against a scripted in-process connection.
func (c *Channel) SetDialer(dial func() (Conn, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dialFn = dial
}

// NewChannel creates a channel for the given server. The connection is not
// dialed until the first call that needs it.
func NewChannel(serverURL, path string, debug bool) *Channel {
	c := &Channel{
		serverURL: serverURL,
		path:      path,
		debug:     debug,
	}
	c.dialFn = c.dial
	return c
}

// SetStatusFunc registers the callback invoked on connect/disconnect events.
// The channel only reports status; translating it into state dispatches is
// the owner's job.
func (c *Channel) SetStatusFunc(fn func(connected bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statusFn = fn
}

// SetCookieSource registers a provider for the session cookies attached to
// the Socket.IO handshake, so the channel authenticates as the same session
// as the HTTP client.
func (c *Channel) SetCookieSource(fn func() []*http.Cookie) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cookieFn = fn
}

// socket returns the live connection, dialing it on first use.
func (c *Channel) socket() (Conn, error) {
	c.mu.Lock()
	if c.conn != nil {
		cn := c.conn
		c.mu.Unlock()
		return cn, nil
	}
	dial := c.dialFn
	c.mu.Unlock()

	cn, err := dial()
	if err != nil {
		return nil, fmt.Errorf("connect channel: %w", err)
	}

	c.mu.Lock()
	if c.conn != nil {
		// Lost the dial race; keep the first connection.
		winner := c.conn
		c.mu.Unlock()
		cn.Disconnect()
		return winner, nil
	}
	c.conn = cn
	c.mu.Unlock()

	c.watchStatus(cn)
	return cn, nil
}

// dial opens a real Socket.IO connection.
func (c *Channel) dial() (Conn, error) {
	if c.debug {
		logger.Debugf("dialing socket.io: %s (path: %s)", c.serverURL, c.path)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(c.path)
	opts.SetTransports(types.NewSet(socket.Polling, socket.WebSocket))

	c.mu.RLock()
	cookieFn := c.cookieFn
	c.mu.RUnlock()
	if cookieFn != nil {
		if cookies := cookieFn(); len(cookies) > 0 {
			header := http.Header{}
			for _, cookie := range cookies {
				header.Add("Cookie", cookie.String())
			}
			opts.SetExtraHeaders(header)
		}
	}

	sock, err := socket.Connect(c.serverURL, opts)
	if err != nil {
		return nil, err
	}
	return sioConn{sock: sock}, nil
}

// watchStatus wires connect/disconnect events into the status callback.
func (c *Channel) watchStatus(cn Conn) {
	cn.On("connect", func(args ...any) {
		if c.debug {
			logger.Debugf("channel connected")
		}
		c.setConnected(true)
	})
	cn.On("disconnect", func(args ...any) {
		reason := ""
		if len(args) > 0 {
			if r, ok := args[0].(string); ok {
				reason = r
			}
		}
		if c.debug {
			logger.Debugf("channel disconnected: %s", reason)
		}
		c.setConnected(false)
	})
	cn.On("connect_error", func(args ...any) {
		if len(args) > 0 {
			logger.Warnf("channel connection error: %v", args[0])
		}
	})
}

func (c *Channel) setConnected(connected bool) {
	c.mu.Lock()
	c.connected = connected
	statusFn := c.statusFn
	c.mu.Unlock()

	if statusFn != nil {
		statusFn(connected)
	}
}

// IsConnected reports whether the channel is currently connected. The live
// socket is the source of truth; any cached flag elsewhere is a follower.
func (c *Channel) IsConnected() bool {
	c.mu.RLock()
	cn := c.conn
	connected := c.connected
	c.mu.RUnlock()

	if cn == nil {
		return false
	}
	if connected {
		return true
	}
	return cn.Connected()
}

// Reconnect closes the connection and dials a fresh one. Used after
// identity-changing operations so the server rebuilds its per-connection
// session context under the new identity.
func (c *Channel) Reconnect() error {
	c.mu.Lock()
	cn := c.conn
	c.conn = nil
	c.connected = false
	c.mu.Unlock()

	if cn != nil {
		cn.Disconnect()
	}

	_, err := c.socket()
	return err
}

// Close tears the connection down for good.
func (c *Channel) Close() {
	c.mu.Lock()
	cn := c.conn
	c.conn = nil
	c.connected = false
	c.mu.Unlock()

	if cn != nil {
		cn.Disconnect()
	}
}
