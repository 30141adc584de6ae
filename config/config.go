// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package config

import "time"

// Config is the root configuration of a client.
type Config struct {
	// Pool limits the connection pool.
	Pool PoolConfig `yaml:"pool"`
	// Socket holds the options applied to every new socket.
	Socket SocketConfig `yaml:"socket"`
	// Request holds the default per-request settings.
	Request RequestConfig `yaml:"request"`
	// Retry configures retries of failed attempts.
	Retry RetryConfig `yaml:"retry"`
	// Evictor configures the background sweep of idle connections.
	Evictor EvictorConfig `yaml:"evictor"`
	// Client selects the standard protocol behaviour.
	Client ClientConfig `yaml:"client"`
	// Cookies configures cookie persistence.
	Cookies CookiesConfig `yaml:"cookies"`
	// Logging configures the client logger.
	Logging LoggingConfig `yaml:"logging"`
	// DNS configures host name resolution.
	DNS DNSConfig `yaml:"dns"`
}

// PoolConfig limits the connection pool.
type PoolConfig struct {
	// MaxTotal is the maximum number of connections across all routes.
	// Default: 20
	MaxTotal int `yaml:"max_total" validate:"gte=1"`
	// MaxPerRoute is the maximum number of connections to one route.
	// Default: 2
	MaxPerRoute int `yaml:"max_per_route" validate:"gte=1"`
}

// SocketConfig holds socket options.
type SocketConfig struct {
	// Timeout is the initial read/write timeout of new sockets. Zero
	// means no timeout.
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
	// ReuseAddress sets SO_REUSEADDR.
	ReuseAddress bool `yaml:"reuse_address"`
	// NoDelay disables Nagle's algorithm.
	// Default: true
	NoDelay *bool `yaml:"no_delay"`
	// KeepAlive enables TCP keep-alive probes.
	KeepAlive bool `yaml:"keep_alive"`
	// Linger is SO_LINGER in seconds. Negative leaves the OS default.
	// Default: -1
	Linger *int `yaml:"linger" validate:"omitempty,gte=-1"`
}

// RequestConfig holds the default per-request settings.
type RequestConfig struct {
	// ConnectTimeout bounds each connect attempt. Zero means no limit.
	ConnectTimeout time.Duration `yaml:"connect_timeout" validate:"gte=0"`
	// ConnectionRequestTimeout bounds the wait for a pooled
	// connection. Zero means no limit.
	ConnectionRequestTimeout time.Duration `yaml:"connection_request_timeout" validate:"gte=0"`
	// SocketTimeout is the read/write timeout of each attempt. Zero
	// means no timeout.
	// Default: 30s
	SocketTimeout *time.Duration `yaml:"socket_timeout" validate:"omitempty,gte=0"`
	// StaleConnectionCheck probes pooled connections before reuse.
	// Default: true
	StaleConnectionCheck *bool `yaml:"stale_connection_check"`
	// ExpectContinue sends "Expect: 100-continue" with bodies.
	ExpectContinue bool `yaml:"expect_continue"`
	// RedirectsEnabled enables following redirects.
	// Default: true
	RedirectsEnabled *bool `yaml:"redirects_enabled"`
	// MaxRedirects limits the redirects followed per execution.
	// Default: 50
	MaxRedirects int `yaml:"max_redirects" validate:"gte=0"`
	// CircularRedirectsAllowed permits revisiting a location.
	CircularRedirectsAllowed bool `yaml:"circular_redirects_allowed"`
	// CookieSpec names the cookie spec.
	// Default: "default"
	CookieSpec string `yaml:"cookie_spec" validate:"omitempty,oneof=default standard rfc2965 ignore"`
	// LocalAddress is the local IP address to bind sockets to.
	LocalAddress string `yaml:"local_address" validate:"omitempty,ip"`
}

// RetryConfig configures retries.
type RetryConfig struct {
	// Times is the maximum number of retries of one request.
	// Default: 3
	Times *int `yaml:"times" validate:"omitempty,gte=0"`
	// WaitBase is the base of the exponential backoff.
	// Default: 50ms
	WaitBase time.Duration `yaml:"wait_base" validate:"gte=0"`
	// WaitMax caps the backoff.
	// Default: 1s
	WaitMax time.Duration `yaml:"wait_max" validate:"gte=0"`
	// RequestSentRetry retries non-idempotent requests even when
	// they were completely sent.
	RequestSentRetry bool `yaml:"request_sent_retry"`
}

// EvictorConfig configures the idle connection evictor.
type EvictorConfig struct {
	// Enabled starts the evictor with the client.
	Enabled bool `yaml:"enabled"`
	// Interval is the time between sweeps.
	// Default: 5s
	Interval time.Duration `yaml:"interval" validate:"gte=0"`
	// MaxIdle closes connections idle for longer. Zero closes only
	// expired connections.
	MaxIdle time.Duration `yaml:"max_idle" validate:"gte=0"`
}

// ClientConfig selects standard protocol behaviour.
type ClientConfig struct {
	// UserAgent is sent with requests that carry none.
	// Default: "httpexec/1.0"
	UserAgent string `yaml:"user_agent"`
	// DefaultHeaders are added to requests that do not carry them.
	DefaultHeaders map[string]string `yaml:"default_headers"`
	// DisableCookies turns cookie management off.
	DisableCookies bool `yaml:"disable_cookies"`
	// DisableCompression turns off Accept-Encoding and response
	// decoding.
	DisableCompression bool `yaml:"disable_compression"`
	// DisableRedirects turns redirect following off.
	DisableRedirects bool `yaml:"disable_redirects"`
	// DisableRetries turns retries off.
	DisableRetries bool `yaml:"disable_retries"`
	// LaxRedirects also follows redirects of POST, PUT and DELETE.
	LaxRedirects bool `yaml:"lax_redirects"`
	// KeepAliveFallback is how long connections without a Keep-Alive
	// timeout stay valid. Zero means indefinitely.
	KeepAliveFallback time.Duration `yaml:"keep_alive_fallback" validate:"gte=0"`
}

// CookiesConfig configures cookie persistence.
type CookiesConfig struct {
	// PersistPath is the SQLite database cookies are kept in. Empty
	// keeps cookies in memory.
	PersistPath string `yaml:"persist_path"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn and error.
	// Default: "info"
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	// Format is text or json.
	// Default: "text"
	Format string `yaml:"format" validate:"oneof=text json"`
}

// DNSConfig configures host name resolution.
type DNSConfig struct {
	// Network is ip, ip4 or ip6.
	// Default: "ip"
	Network string `yaml:"network" validate:"oneof=ip ip4 ip6"`
	// Server is the "host:port" of a DNS server to query instead of
	// the system servers.
	Server string `yaml:"server" validate:"omitempty,hostname_port"`
	// StaticHosts maps host names to comma-separated IP addresses,
	// consulted before DNS.
	StaticHosts map[string]string `yaml:"static_hosts"`
}
