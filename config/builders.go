// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"io"
	"log/slog"
	"net/netip"

	"github.com/gogama/httpexec/conn"
	"github.com/gogama/httpexec/request"
	"github.com/gogama/httpexec/retry"
	"github.com/gogama/httpexec/timeout"
)

// RequestConfig returns the default per-request settings. The
// configuration must have been validated.
func (cfg *Config) RequestConfig() request.Config {
	rc := cfg.Request
	out := request.Config{
		ConnectTimeout:           rc.ConnectTimeout,
		ConnectionRequestTimeout: rc.ConnectionRequestTimeout,
		StaleConnectionCheck:     deref(rc.StaleConnectionCheck, DefaultStaleConnectionCheck),
		ExpectContinue:           rc.ExpectContinue,
		RedirectsEnabled:         deref(rc.RedirectsEnabled, DefaultRedirectsEnabled) && !cfg.Client.DisableRedirects,
		MaxRedirects:             rc.MaxRedirects,
		CircularRedirectsAllowed: rc.CircularRedirectsAllowed,
		CookieSpec:               rc.CookieSpec,
	}
	if rc.LocalAddress != "" {
		out.LocalAddress, _ = netip.ParseAddr(rc.LocalAddress)
	}
	return out
}

// SocketConfig returns the options for new sockets.
func (cfg *Config) SocketConfig() conn.SocketConfig {
	return conn.SocketConfig{
		Timeout:      cfg.Socket.Timeout,
		ReuseAddress: cfg.Socket.ReuseAddress,
		NoDelay:      deref(cfg.Socket.NoDelay, DefaultNoDelay),
		KeepAlive:    cfg.Socket.KeepAlive,
		Linger:       deref(cfg.Socket.Linger, DefaultLinger),
	}
}

// RetryPolicy returns the configured retry policy. Transient errors are
// retried up to retry.times times with exponential backoff. Unless
// retry.request_sent_retry is set, only idempotent requests and
// requests not completely sent are retried.
func (cfg *Config) RetryPolicy() retry.Policy {
	if cfg.Client.DisableRetries {
		return retry.Never
	}
	w := &retry.Backoff{Base: cfg.Retry.WaitBase, Max: cfg.Retry.WaitMax, Jitter: true}
	return retry.Standard(deref(cfg.Retry.Times, DefaultRetryTimes), cfg.Retry.RequestSentRetry, w)
}

// TimeoutPolicy returns the socket timeout policy for attempts.
func (cfg *Config) TimeoutPolicy() timeout.Policy {
	d := deref(cfg.Request.SocketTimeout, DefaultSocketTimeout)
	if d == 0 {
		return timeout.Infinite
	}
	return timeout.Fixed(d)
}

// Resolver returns the host name resolver described by the dns section.
func (cfg *Config) Resolver() conn.Resolver {
	return &conn.SystemResolver{
		CustomDNSServer: cfg.DNS.Server,
		Network:         cfg.DNS.Network,
		StaticHosts:     cfg.DNS.StaticHosts,
	}
}

// Logger returns a logger writing to w at the configured level and in
// the configured format.
func (cfg *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Logging.Level)}
	if cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps a level name to a slog.Level. Unknown names map to
// slog.LevelInfo.
func ParseLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
