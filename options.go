// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpexec

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gogama/httpexec/conn"
	"github.com/gogama/httpexec/cookie"
	"github.com/gogama/httpexec/execchain"
	"github.com/gogama/httpexec/protocol"
	"github.com/gogama/httpexec/redirect"
	"github.com/gogama/httpexec/request"
	"github.com/gogama/httpexec/retry"
	"github.com/gogama/httpexec/route"
	"github.com/gogama/httpexec/timeout"
	"github.com/prometheus/client_golang/prometheus"
)

// An Option configures a Client built by New.
type Option func(*options)

type options struct {
	manager      conn.Manager
	maxTotal     int
	maxPerRoute  int
	socketConfig *conn.SocketConfig
	resolver     conn.Resolver
	registry     conn.Registry
	planner      route.Planner

	requestConfig    *request.Config
	retryPolicy      retry.Policy
	timeoutPolicy    timeout.Policy
	redirectStrategy redirect.Strategy
	disableRedirects bool
	disableRetries   bool

	reuse           execchain.ReuseStrategy
	keepAlive       execchain.KeepAliveStrategy
	userTokens      execchain.UserTokenHandler
	waitForContinue time.Duration

	standard      protocol.Options
	requestFirst  []protocol.RequestInterceptor
	requestLast   []protocol.RequestInterceptor
	responseFirst []protocol.ResponseInterceptor
	responseLast  []protocol.ResponseInterceptor

	cookieStore cookie.Store
	cookieSpecs cookie.Registry

	handlers   *request.HandlerGroup
	logger     *slog.Logger
	registerer prometheus.Registerer
	metrics    bool

	evictInterval time.Duration
	evictMaxIdle  time.Duration
}

// WithManager makes the client lease connections from m instead of a
// pool of its own. Options that configure the client's own pool are
// then ignored. The client shuts m down when it is closed.
func WithManager(m conn.Manager) Option {
	return func(o *options) { o.manager = m }
}

// WithMaxConnections limits the client's connection pool to maxTotal
// connections in all and maxPerRoute connections per route. Zero leaves
// a limit at its default.
func WithMaxConnections(maxTotal, maxPerRoute int) Option {
	return func(o *options) {
		o.maxTotal = maxTotal
		o.maxPerRoute = maxPerRoute
	}
}

// WithSocketConfig sets the options applied to new sockets.
func WithSocketConfig(cfg conn.SocketConfig) Option {
	return func(o *options) { o.socketConfig = &cfg }
}

// WithResolver sets the host name resolver.
func WithResolver(r conn.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithSocketFactories sets the socket factory registry, for example to
// install a TLSSocketFactory with a custom tls.Config.
func WithSocketFactories(r conn.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithPlanner sets the route planner.
func WithPlanner(p route.Planner) Option {
	return func(o *options) { o.planner = p }
}

// WithRequestConfig sets the default per-request configuration. A
// request's own Config takes precedence.
func WithRequestConfig(cfg request.Config) Option {
	return func(o *options) { o.requestConfig = &cfg }
}

// WithRetryPolicy sets the retry policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(o *options) { o.retryPolicy = p }
}

// WithTimeoutPolicy sets the socket timeout policy for attempts.
func WithTimeoutPolicy(p timeout.Policy) Option {
	return func(o *options) { o.timeoutPolicy = p }
}

// WithRedirectStrategy sets the redirect strategy.
func WithRedirectStrategy(s redirect.Strategy) Option {
	return func(o *options) { o.redirectStrategy = s }
}

// WithReuseStrategy sets the connection reuse strategy.
func WithReuseStrategy(s execchain.ReuseStrategy) Option {
	return func(o *options) { o.reuse = s }
}

// WithKeepAliveStrategy sets the strategy deciding how long reusable
// connections stay valid.
func WithKeepAliveStrategy(s execchain.KeepAliveStrategy) Option {
	return func(o *options) { o.keepAlive = s }
}

// WithUserTokenHandler sets the handler determining the state token
// connections are bound to.
func WithUserTokenHandler(h execchain.UserTokenHandler) Option {
	return func(o *options) { o.userTokens = h }
}

// WithWaitForContinue sets how long to wait for "100 Continue" before
// sending a request body anyway.
func WithWaitForContinue(d time.Duration) Option {
	return func(o *options) { o.waitForContinue = d }
}

// WithUserAgent sets the User-Agent sent with requests that carry none.
func WithUserAgent(agent string) Option {
	return func(o *options) { o.standard.UserAgent = agent }
}

// WithDefaultHeaders sets headers added to requests that do not carry
// them.
func WithDefaultHeaders(h http.Header) Option {
	return func(o *options) { o.standard.DefaultHeaders = h.Clone() }
}

// DisableCookies turns off cookie management.
func DisableCookies() Option {
	return func(o *options) { o.standard.DisableCookies = true }
}

// DisableCompression turns off Accept-Encoding negotiation and
// transparent response decoding.
func DisableCompression() Option {
	return func(o *options) { o.standard.DisableCompression = true }
}

// DisableRedirects leaves redirect handling out of the execution chain.
// Redirect responses are returned to the caller.
func DisableRedirects() Option {
	return func(o *options) { o.disableRedirects = true }
}

// DisableRetries leaves retry handling out of the execution chain.
func DisableRetries() Option {
	return func(o *options) { o.disableRetries = true }
}

// WithRequestInterceptorFirst adds request interceptors which run
// before the standard ones, in the order given.
func WithRequestInterceptorFirst(is ...protocol.RequestInterceptor) Option {
	return func(o *options) { o.requestFirst = append(o.requestFirst, is...) }
}

// WithRequestInterceptorLast adds request interceptors which run after
// the standard ones, in the order given.
func WithRequestInterceptorLast(is ...protocol.RequestInterceptor) Option {
	return func(o *options) { o.requestLast = append(o.requestLast, is...) }
}

// WithResponseInterceptorFirst adds response interceptors which run
// before the standard ones, in the order given.
func WithResponseInterceptorFirst(is ...protocol.ResponseInterceptor) Option {
	return func(o *options) { o.responseFirst = append(o.responseFirst, is...) }
}

// WithResponseInterceptorLast adds response interceptors which run
// after the standard ones, in the order given.
func WithResponseInterceptorLast(is ...protocol.ResponseInterceptor) Option {
	return func(o *options) { o.responseLast = append(o.responseLast, is...) }
}

// WithCookieStore sets the cookie store. The default is an in-memory
// store private to the client. If s implements io.Closer, the client
// closes it when it is closed.
func WithCookieStore(s cookie.Store) Option {
	return func(o *options) { o.cookieStore = s }
}

// WithCookieSpecs sets the registry of cookie specs requests select
// from by name.
func WithCookieSpecs(r cookie.Registry) Option {
	return func(o *options) { o.cookieSpecs = r }
}

// WithHandlers sets the event handler group run during executions.
func WithHandlers(h *request.HandlerGroup) Option {
	return func(o *options) { o.handlers = h }
}

// WithLogger sets the logger the client and its components write
// diagnostics to.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics registers the client's metrics with reg. A nil reg
// registers them with a private registry.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.metrics = true
		o.registerer = reg
	}
}

// WithEvictor starts a background sweep every interval closing expired
// connections and connections idle for longer than maxIdle.
func WithEvictor(interval, maxIdle time.Duration) Option {
	return func(o *options) {
		o.evictInterval = interval
		o.evictMaxIdle = maxIdle
	}
}
