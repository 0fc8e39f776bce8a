// Package sdk is the Estimo client: correlated calls over the duplex
// channel, CSRF-protected one-shot requests, and the shared reactive state
// the results feed.
package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/dsimona/estimo/internal/config"
	"github.com/dsimona/estimo/internal/websocket"
	"github.com/dsimona/estimo/wire"
)

// Client talks to the Estimo server over a duplex Socket.IO channel and a
// one-shot HTTP API sharing one cookie session, and keeps the shared
// application state in sync with connection and authentication status.
//
// Create one Client per process and keep it for the process lifetime.
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	channel    *websocket.Channel
	store      *Store
}

// NewClient creates a client for the configured server. The channel is not
// dialed until the first operation that needs it.
func NewClient(cfg *config.Config) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	channel := websocket.NewChannel(cfg.ServerURL, cfg.SocketIOPath, cfg.Debug)
	channel.SetCookieSource(func() []*http.Cookie {
		base, err := url.Parse(cfg.ServerURL)
		if err != nil {
			return nil
		}
		return jar.Cookies(base)
	})

	c := &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: cfg.HTTPTimeout,
		},
		channel: channel,
	}
	c.store = NewStore(AppState{
		Connected: channel.IsConnected(),
		UserInfo:  wire.Anonymous(),
	})
	channel.SetStatusFunc(func(connected bool) {
		c.store.Dispatch(ConnectedAction{Connected: connected})
	})
	return c, nil
}

// Store returns the shared state container.
func (c *Client) Store() *Store {
	return c.store
}

// Channel returns the duplex channel handle.
func (c *Client) Channel() *websocket.Channel {
	return c.channel
}

// IsConnected reports the channel's live connectivity.
func (c *Client) IsConnected() bool {
	return c.channel.IsConnected()
}

// Close tears down the channel connection.
func (c *Client) Close() {
	c.channel.Close()
}

// GetVersion greets the server over the channel and returns its version
// info. The payload echoes the client clock, mirroring what the server
// includes in its greeting.
func (c *Client) GetVersion() (wire.VersionInfo, error) {
	rep, err := c.channel.Call("hello", websocket.CallOptions{}, map[string]any{
		"data": fmt.Sprintf("now is: %s", time.Now().Format("2006-01-02 15:04:05")),
	})
	if err != nil {
		return wire.VersionInfo{}, err
	}
	if !rep.OK() {
		return wire.VersionInfo{}, errors.New(rep.Message)
	}
	var info wire.VersionInfo
	if err := decodeValue(rep.Value, &info); err != nil {
		return wire.VersionInfo{}, err
	}
	return info, nil
}

// GetUserInfo fetches the identity the server associates with the channel's
// session. Anonymous sessions get the ID-0 record.
func (c *Client) GetUserInfo() (wire.UserInfo, error) {
	rep, err := c.channel.Call("userinfo", websocket.CallOptions{})
	if err != nil {
		return wire.UserInfo{}, err
	}
	if !rep.OK() {
		return wire.UserInfo{}, errors.New(rep.Message)
	}
	var payload struct {
		User wire.UserInfo `json:"user"`
	}
	if err := decodeValue(rep.Value, &payload); err != nil {
		return wire.UserInfo{}, err
	}
	return payload.User, nil
}

// SyncUserInfo fetches the current identity and publishes it to the state
// container. Used after any identity-changing operation.
func (c *Client) SyncUserInfo() (wire.UserInfo, error) {
	info, err := c.GetUserInfo()
	if err != nil {
		return wire.UserInfo{}, err
	}
	c.store.Dispatch(UserInfoAction{UserInfo: info})
	return info, nil
}

// Ping measures transport round-trip latency. It resolves on the transport
// ack without waiting for any application reply; a zero timeout waits
// indefinitely.
func (c *Client) Ping(timeout time.Duration) (time.Duration, error) {
	return c.channel.CallAck("ping", websocket.CallOptions{Timeout: timeout})
}

// decodeValue re-decodes a dynamically shaped reply value into a typed
// struct.
func decodeValue(value any, out any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("unexpected reply payload: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unexpected reply payload: %w", err)
	}
	return nil
}
