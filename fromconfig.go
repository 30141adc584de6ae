// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpexec

import (
	"net/http"

	"github.com/gogama/httpexec/config"
	"github.com/gogama/httpexec/cookie/sqlstore"
	"github.com/gogama/httpexec/execchain"
	"github.com/gogama/httpexec/redirect"
)

// NewFromConfig builds a client from a validated configuration. Options
// given in opts are applied after the configuration and take precedence
// over it.
//
// If cookies.persist_path is set, cookies are stored in a SQLite
// database at that path, which the client closes when it is closed.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		panic("httpexec: nil config")
	}

	base := []Option{
		WithMaxConnections(cfg.Pool.MaxTotal, cfg.Pool.MaxPerRoute),
		WithSocketConfig(cfg.SocketConfig()),
		WithResolver(cfg.Resolver()),
		WithRequestConfig(cfg.RequestConfig()),
		WithRetryPolicy(cfg.RetryPolicy()),
		WithTimeoutPolicy(cfg.TimeoutPolicy()),
		WithKeepAliveStrategy(execchain.DefaultKeepAlive{Fallback: cfg.Client.KeepAliveFallback}),
		WithUserAgent(cfg.Client.UserAgent),
	}
	if len(cfg.Client.DefaultHeaders) > 0 {
		h := make(http.Header, len(cfg.Client.DefaultHeaders))
		for k, v := range cfg.Client.DefaultHeaders {
			h.Set(k, v)
		}
		base = append(base, WithDefaultHeaders(h))
	}
	if cfg.Client.DisableCookies {
		base = append(base, DisableCookies())
	}
	if cfg.Client.DisableCompression {
		base = append(base, DisableCompression())
	}
	if cfg.Client.DisableRedirects {
		base = append(base, DisableRedirects())
	}
	if cfg.Client.DisableRetries {
		base = append(base, DisableRetries())
	}
	if cfg.Client.LaxRedirects {
		base = append(base, WithRedirectStrategy(redirect.Lax))
	}
	if cfg.Evictor.Enabled {
		base = append(base, WithEvictor(cfg.Evictor.Interval, cfg.Evictor.MaxIdle))
	}
	var store *sqlstore.Store
	if cfg.Cookies.PersistPath != "" && !cfg.Client.DisableCookies {
		var err error
		if store, err = sqlstore.Open(cfg.Cookies.PersistPath); err != nil {
			return nil, err
		}
		base = append(base, WithCookieStore(store))
	}

	c, err := New(append(base, opts...)...)
	if err != nil && store != nil {
		_ = store.Close()
	}
	return c, err
}
