// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpexec

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogama/httpexec/conn"
	"github.com/gogama/httpexec/cookie"
	"github.com/gogama/httpexec/execchain"
	"github.com/gogama/httpexec/metrics"
	"github.com/gogama/httpexec/protocol"
	"github.com/gogama/httpexec/request"
	"github.com/gogama/httpexec/route"
	"github.com/google/uuid"
)

// ErrClientClosed is returned by executions started after the client
// was closed.
var ErrClientClosed = errors.New("httpexec: client closed")

var nowFunc = time.Now

// A Client executes HTTP/1.1 requests over pooled connections. Its zero
// value is a valid client with the default configuration.
//
// A request passes through an execution chain of four layers, from the
// outside in:
//
// • redirect handling follows redirect responses, re-planning the route
// when the target host changes;
//
// • retry handling re-executes requests which failed with a transient
// I/O error, as decided by the retry policy;
//
// • protocol handling rewrites the request into origin form and runs
// the request and response interceptors (default headers, user agent,
// cookies, content encoding and any custom interceptors); and
//
// • the main executor leases a connection from the pool, connects it if
// necessary, sends the request, and decides whether the connection may
// be kept alive.
//
// Client owns a connection pool, so instances should be reused instead
// of created as needed. Client is safe for concurrent use by multiple
// goroutines. Close releases the pool and any other resources.
type Client struct {
	once     sync.Once
	closed   atomic.Bool
	exec     execchain.Executor
	manager  conn.Manager
	planner  route.Planner
	config   request.Config
	cookies  cookie.Store
	specs    cookie.Registry
	handlers *request.HandlerGroup
	evictor  *conn.Evictor
	closers  []io.Closer
	logger   *slog.Logger
}

// New builds a client from the given options.
func New(opts ...Option) (*Client, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	c := &Client{}
	if err := c.build(&o); err != nil {
		return nil, err
	}
	c.once.Do(func() {})
	return c, nil
}

func (c *Client) init() {
	c.once.Do(func() {
		if err := c.build(&options{}); err != nil {
			panic(err)
		}
	})
}

func (c *Client) build(o *options) error {
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	c.logger = logger

	var collector *metrics.Collector
	if o.metrics {
		collector = metrics.NewCollector(o.registerer)
	}

	c.manager = o.manager
	if c.manager == nil {
		pool := conn.NewPool(&conn.Operator{
			Registry: o.registry,
			Resolver: o.resolver,
			Logger:   logger,
		}, o.maxTotal, o.maxPerRoute)
		pool.SocketConfig = o.socketConfig
		pool.Logger = logger
		pool.Metrics = collector
		collector.RegisterPool(pool.Stats)
		c.manager = pool
	}

	c.planner = o.planner
	if c.planner == nil {
		c.planner = route.DefaultPlanner
	}
	c.config = request.DefaultConfig
	if o.requestConfig != nil {
		c.config = *o.requestConfig
	}

	if !o.standard.DisableCookies {
		c.cookies = o.cookieStore
		if c.cookies == nil {
			c.cookies = &cookie.MemoryStore{}
		}
		c.specs = o.cookieSpecs
		if c.specs == nil {
			c.specs = cookie.DefaultRegistry()
		}
	}
	c.handlers = o.handlers
	if closer, ok := o.cookieStore.(io.Closer); ok {
		c.closers = append(c.closers, closer)
	}

	standard := o.standard
	standard.Logger = logger
	processor := protocol.NewStandard(standard)
	for i := len(o.requestFirst) - 1; i >= 0; i-- {
		processor.AddRequestFirst(o.requestFirst[i])
	}
	for _, ri := range o.requestLast {
		processor.AddRequestLast(ri)
	}
	for i := len(o.responseFirst) - 1; i >= 0; i-- {
		processor.AddResponseFirst(o.responseFirst[i])
	}
	for _, ri := range o.responseLast {
		processor.AddResponseLast(ri)
	}

	var exec execchain.Executor = &execchain.MainExec{
		Manager: c.manager,
		RequestExecutor: &execchain.RequestExecutor{
			WaitForContinue: o.waitForContinue,
			Logger:          logger,
		},
		Reuse:      o.reuse,
		KeepAlive:  o.keepAlive,
		UserTokens: o.userTokens,
		Timeouts:   o.timeoutPolicy,
		Logger:     logger,
		Metrics:    collector,
	}
	exec = &execchain.ProtocolExec{
		Next:      exec,
		Processor: processor,
		Logger:    logger,
	}
	if !o.disableRetries {
		exec = &execchain.RetryExec{
			Next:    exec,
			Policy:  o.retryPolicy,
			Logger:  logger,
			Metrics: collector,
		}
	}
	if !o.disableRedirects {
		exec = &execchain.RedirectExec{
			Next:     exec,
			Planner:  c.planner,
			Strategy: o.redirectStrategy,
			Logger:   logger,
			Metrics:  collector,
		}
	}
	c.exec = exec

	if o.evictInterval > 0 {
		c.evictor = &conn.Evictor{
			Manager:  c.manager,
			Interval: o.evictInterval,
			MaxIdle:  o.evictMaxIdle,
			Logger:   logger,
		}
		if err := c.evictor.Start(); err != nil {
			c.manager.Shutdown()
			return err
		}
	}
	return nil
}

// Do executes an HTTP request and returns the results.
//
// The absolute URL of req selects the target host. The route to the
// target is planned, a connection is leased from the pool for the
// route, and the request is sent following the client's retry and
// redirect policies. The request's context bounds the whole execution:
// cancelling it aborts the lease wait, the connect, or the exchange in
// progress.
//
// The returned Execution is never nil. If the returned error is nil,
// its Response field holds the final response, whose body is streamed
// from the connection. The caller must read the body to the end or
// close it; either returns the connection to the pool. A non-2XX
// status code does not result in an error.
//
// Any returned error is of type *url.Error, and the Execution's Err
// field references the same error.
//
// For simple use cases, the Get, Head, Post, and PostForm methods may
// prove easier to use than Do.
func (c *Client) Do(req *request.Request) (*request.Execution, error) {
	if req == nil {
		panic("httpexec: nil request")
	}
	c.init()

	cfg := c.config
	if req.Config != nil {
		cfg = *req.Config
	}
	work := req.Wrap()
	e := &request.Execution{
		ID:          uuid.NewString(),
		Request:     work,
		Config:      cfg,
		CookieStore: c.cookies,
		CookieSpecs: c.specs,
		Handlers:    c.handlers,
		Start:       nowFunc(),
	}
	e.Fire(request.BeforeExecutionStart)

	resp, err := c.execute(work, e)
	if err != nil {
		err = urlErrorWrap(req, err)
		resp = nil
	}
	e.Response = resp
	e.Err = err

	e.End = nowFunc()
	e.Fire(request.AfterExecutionEnd)
	return e, err
}

func (c *Client) execute(req *request.Request, e *request.Execution) (*http.Response, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	target, err := execchain.TargetOf(req.URL)
	if err != nil {
		return nil, err
	}
	r, err := c.planner.Plan(target, e.Config.LocalAddress)
	if err != nil {
		return nil, err
	}
	e.Target = target
	e.Route = &r
	e.Fire(request.AfterRoutePlanned)

	aware := execchain.NewAware(req.Context())
	resp, err := c.exec.Execute(r, req, e, aware)
	if err != nil {
		aware.Release()
		return nil, err
	}
	aware.ReleaseWith(resp)
	return resp, nil
}

// Get issues a GET to the specified URL, using the same policies
// followed by Do.
//
// To make a request with custom headers, use request.NewRequest and
// Client.Do.
func (c *Client) Get(url string) (*request.Execution, error) {
	return Get(c, url)
}

// Head issues a HEAD to the specified URL, using the same policies
// followed by Do.
//
// To make a request with custom headers, use request.NewRequest and
// Client.Do.
func (c *Client) Head(url string) (*request.Execution, error) {
	return Head(c, url)
}

// Post issues a POST to the specified URL, using the same policies
// followed by Do.
//
// The body parameter may be nil for an empty body, or may be any of the
// types supported by request.NewRequest, namely: request.Entity;
// string; []byte; url.Values; and io.Reader.
//
// To make a request with custom headers, use request.NewRequest and
// Client.Do.
func (c *Client) Post(url, contentType string, body any) (*request.Execution, error) {
	return Post(c, url, contentType, body)
}

// PostForm issues a POST to the specified URL, with data's keys and
// values URL-encoded as the request body.
//
// The Content-Type header is set to application/x-www-form-urlencoded.
// To set other headers, use request.NewRequest and Client.Do.
func (c *Client) PostForm(url string, data url.Values) (*request.Execution, error) {
	return PostForm(c, url, data)
}

// CloseIdleConnections closes pooled connections which are not leased
// to an execution.
func (c *Client) CloseIdleConnections() {
	c.init()
	c.manager.CloseIdleConnections(0)
}

// Stats returns the occupancy of the client's pool. It returns the zero
// value if the client uses a manager that does not report statistics.
func (c *Client) Stats() metrics.PoolStats {
	c.init()
	if s, ok := c.manager.(interface{ Stats() metrics.PoolStats }); ok {
		return s.Stats()
	}
	return metrics.PoolStats{}
}

// Close stops the evictor, shuts the connection manager down and closes
// the cookie store if it is closeable. Executions in progress fail.
// Close waits for a running sweep to finish until ctx is done.
func (c *Client) Close(ctx context.Context) error {
	c.init()
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	var errs []error
	if c.evictor != nil {
		errs = append(errs, c.evictor.Stop(ctx))
	}
	c.manager.Shutdown()
	for _, closer := range c.closers {
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}

func urlErrorWrap(req *request.Request, err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return err
	}

	var u string
	if req.URL != nil {
		u = req.URL.String()
	}
	return &url.Error{
		Op:  urlErrorOp(req.Method),
		URL: u,
		Err: err,
	}
}

// urlErrorOp is lifted verbatim from net/http/client.go
func urlErrorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}
