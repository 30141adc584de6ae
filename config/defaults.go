// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"time"

	"github.com/gogama/httpexec/conn"
	"github.com/gogama/httpexec/request"
	"github.com/gogama/httpexec/retry"
)

// Default values for configuration fields.
const (
	DefaultMaxTotal             = conn.DefaultMaxTotal
	DefaultMaxPerRoute          = conn.DefaultMaxPerRoute
	DefaultNoDelay              = true
	DefaultLinger               = -1
	DefaultSocketTimeout        = 30 * time.Second
	DefaultStaleConnectionCheck = true
	DefaultRedirectsEnabled     = true
	DefaultMaxRedirects         = request.DefaultMaxRedirects
	DefaultCookieSpec           = "default"
	DefaultRetryTimes           = retry.DefaultTimes
	DefaultRetryWaitBase        = 50 * time.Millisecond
	DefaultRetryWaitMax         = time.Second
	DefaultEvictorInterval      = 5 * time.Second
	DefaultUserAgent            = "httpexec/1.0"
	DefaultLoggingLevel         = "info"
	DefaultLoggingFormat        = "text"
	DefaultDNSNetwork           = "ip"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// ApplyDefaults sets defaults for the fields of cfg left unset. It is
// idempotent.
func ApplyDefaults(cfg *Config) {
	if cfg.Pool.MaxTotal == 0 {
		cfg.Pool.MaxTotal = DefaultMaxTotal
	}
	if cfg.Pool.MaxPerRoute == 0 {
		cfg.Pool.MaxPerRoute = DefaultMaxPerRoute
	}

	if cfg.Socket.NoDelay == nil {
		cfg.Socket.NoDelay = ptr(DefaultNoDelay)
	}
	if cfg.Socket.Linger == nil {
		cfg.Socket.Linger = ptr(DefaultLinger)
	}

	if cfg.Request.SocketTimeout == nil {
		cfg.Request.SocketTimeout = ptr(DefaultSocketTimeout)
	}
	if cfg.Request.StaleConnectionCheck == nil {
		cfg.Request.StaleConnectionCheck = ptr(DefaultStaleConnectionCheck)
	}
	if cfg.Request.RedirectsEnabled == nil {
		cfg.Request.RedirectsEnabled = ptr(DefaultRedirectsEnabled)
	}
	if cfg.Request.MaxRedirects == 0 {
		cfg.Request.MaxRedirects = DefaultMaxRedirects
	}
	if cfg.Request.CookieSpec == "" {
		cfg.Request.CookieSpec = DefaultCookieSpec
	}

	if cfg.Retry.Times == nil {
		cfg.Retry.Times = ptr(DefaultRetryTimes)
	}
	if cfg.Retry.WaitBase == 0 {
		cfg.Retry.WaitBase = DefaultRetryWaitBase
	}
	if cfg.Retry.WaitMax == 0 {
		cfg.Retry.WaitMax = DefaultRetryWaitMax
	}

	if cfg.Evictor.Interval == 0 {
		cfg.Evictor.Interval = DefaultEvictorInterval
	}

	if cfg.Client.UserAgent == "" {
		cfg.Client.UserAgent = DefaultUserAgent
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}

	if cfg.DNS.Network == "" {
		cfg.DNS.Network = DefaultDNSNetwork
	}
}

func ptr[T any](v T) *T {
	return &v
}
