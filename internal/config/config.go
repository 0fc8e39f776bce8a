package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	// ServerURL is the base URL of the Estimo server API.
	ServerURL string
	// SocketIOPath is the Socket.IO handshake path on the server.
	SocketIOPath string
	// HTTPTimeout is the per-request timeout for one-shot API calls.
	HTTPTimeout time.Duration
	// LogLevel is the logger level name (error|warn|info|debug|trace).
	LogLevel string
	// Debug enables verbose transport logging.
	Debug bool
}

const (
	defaultServerURL    = "http://localhost:5000"
	defaultSocketIOPath = "/socket.io"
	defaultHTTPTimeout  = 15 * time.Second
)

// Load loads configuration from environment and defaults
func Load() (*Config, error) {
	serverURL := os.Getenv("ESTIMO_SERVER_URL")
	if serverURL == "" {
		serverURL = defaultServerURL
	}
	serverURL = strings.TrimRight(serverURL, "/")

	path := os.Getenv("ESTIMO_SOCKETIO_PATH")
	if path == "" {
		path = defaultSocketIOPath
	}

	timeout := defaultHTTPTimeout
	if raw := os.Getenv("ESTIMO_HTTP_TIMEOUT"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid ESTIMO_HTTP_TIMEOUT %q: %w", raw, err)
		}
		timeout = parsed
	}

	debug := os.Getenv("ESTIMO_DEBUG") == "true" || os.Getenv("ESTIMO_DEBUG") == "1"

	return &Config{
		ServerURL:    serverURL,
		SocketIOPath: path,
		HTTPTimeout:  timeout,
		LogLevel:     os.Getenv("ESTIMO_LOG_LEVEL"),
		Debug:        debug,
	}, nil
}
