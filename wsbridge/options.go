package wsbridge

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

// Defaults for the reconnect policy.
const (
	DefaultRetryDelay  = 3 * time.Second
	DefaultMaxAttempts = 5
)

// Config holds transport configuration.
type Config struct {
	Dialer      *websocket.Dialer
	RetryDelay  time.Duration
	MaxAttempts int
	Observer    Observer
	Logger      *slog.Logger
}

func defaultConfig() Config {
	return Config{
		Dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		RetryDelay:  DefaultRetryDelay,
		MaxAttempts: DefaultMaxAttempts,
		Logger:      slog.Default(),
	}
}

// Option is a functional option for configuring a Transport or Mux.
type Option func(*Config)

// WithDialer sets the WebSocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Config) { c.Dialer = d }
}

// WithRetryDelay sets the fixed delay between connection attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Config) { c.RetryDelay = d }
}

// WithMaxAttempts sets the maximum number of attempts per connect cycle.
func WithMaxAttempts(n int) Option {
	return func(c *Config) { c.MaxAttempts = n }
}

// WithObserver sets the state transition observer.
func WithObserver(o Observer) Option {
	return func(c *Config) { c.Observer = o }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}
