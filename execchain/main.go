// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package execchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gogama/httpexec/conn"
	"github.com/gogama/httpexec/metrics"
	"github.com/gogama/httpexec/request"
	"github.com/gogama/httpexec/route"
	"github.com/gogama/httpexec/timeout"
)

// MainExec is the last layer of the execution chain. It leases a
// connection, establishes its route if it is not open yet, sends the
// request and decides whether the connection can be reused.
//
// Manager is required. Every other field may be left unset to get the
// default behaviour.
type MainExec struct {
	// Manager leases connections.
	Manager conn.Manager
	// RequestExecutor sends requests over connections.
	RequestExecutor *RequestExecutor
	// Reuse decides whether connections are kept alive. The default is
	// DefaultReuseStrategy.
	Reuse ReuseStrategy
	// KeepAlive decides how long kept connections stay valid. The
	// default is DefaultKeepAlive with no fallback.
	KeepAlive KeepAliveStrategy
	// Director drives route establishment. The default is
	// route.Direct.
	Director route.Director
	// UserTokens determines the state token connections are released
	// with. If nil, connections carry the execution's token, if any.
	UserTokens UserTokenHandler
	// Timeouts gives the socket timeout of each attempt. The default
	// is timeout.DefaultPolicy.
	Timeouts timeout.Policy
	// Logger receives debug output.
	Logger *slog.Logger
	// Metrics, if not nil, counts attempts.
	Metrics *metrics.Collector
}

// Execute leases a connection on route r and executes req over it.
//
// If the returned response has a streaming body, the connection stays
// leased until the body is read to the end or closed.
func (x *MainExec) Execute(r route.Route, req *request.Request, e *request.Execution, aware *Aware) (*http.Response, error) {
	if x.Manager == nil {
		panic("httpexec/execchain: nil manager")
	}
	ctx := req.Context()
	log := logger(x.Logger)

	lease := x.Manager.RequestConnection(r, e.UserToken)
	if aware.IsAborted() {
		lease.Cancel()
		return nil, &AbortedError{Msg: "request aborted"}
	}
	aware.SetCancellable(lease)
	c, err := lease.Get(ctx, e.Config.ConnectionRequestTimeout)
	if err != nil {
		if errors.Is(err, conn.ErrLeaseCancelled) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, &AbortedError{Msg: "request aborted", Err: err}
		}
		return nil, err
	}
	e.Conn = c

	if e.Config.StaleConnectionCheck && c.IsOpen() {
		log.Debug("stale connection check", "conn", c.ID())
		if c.IsStale() {
			log.Debug("stale connection detected", "conn", c.ID())
			_ = c.Close()
		}
	}

	holder := NewHolder(x.Manager, c, x.Logger)
	aware.SetCancellable(holder)
	if aware.IsAborted() {
		holder.AbortConnection()
		return nil, &AbortedError{Msg: "request aborted"}
	}

	resp, err := x.execute(ctx, r, req, e, holder, aware)
	if err != nil {
		holder.AbortConnection()
		if aware.IsAborted() {
			return nil, &AbortedError{Msg: "request aborted", Err: err}
		}
		return nil, err
	}
	return resp, nil
}

func (x *MainExec) execute(ctx context.Context, r route.Route, req *request.Request, e *request.Execution, holder *Holder, aware *Aware) (*http.Response, error) {
	c := holder.Conn()
	log := logger(x.Logger)

	if !c.IsOpen() {
		log.Debug("opening connection", "conn", c.ID(), "route", r.String())
		if err := x.establishRoute(ctx, r, c, e); err != nil {
			return nil, err
		}
		e.Fire(request.AfterConnect)
	}
	if aware.IsAborted() {
		return nil, &AbortedError{Msg: "request aborted"}
	}

	c.SetSocketTimeout(x.timeouts().Timeout(e))

	hr, err := req.ToHTTP(ctx)
	if err != nil {
		return nil, err
	}
	e.HTTPRequest = hr
	e.Fire(request.BeforeAttempt)
	x.Metrics.Attempt()

	log.Debug("executing request", "conn", c.ID(), "method", hr.Method, "uri", hr.URL.RequestURI())
	resp, err := x.requestExecutor().Execute(hr, c, e)
	if err != nil {
		return nil, err
	}

	if x.reuse().KeepAlive(resp, e) {
		d := x.keepAlive().Duration(resp, e)
		if d > 0 {
			log.Debug("connection can be kept alive", "conn", c.ID(), "valid_for", d)
		} else {
			log.Debug("connection can be kept alive", "conn", c.ID(), "valid_for", "indefinitely")
		}
		holder.SetValidFor(d)
		holder.MarkReusable()
	} else {
		holder.MarkNonReusable()
	}

	token := e.UserToken
	if token == nil && x.UserTokens != nil {
		token = x.UserTokens.UserToken(resp, e)
		e.UserToken = token
	}
	if token != nil {
		holder.SetState(token)
	}

	if resp.Body == nil || resp.Body == http.NoBody {
		resp.Body = http.NoBody
		holder.ReleaseConnection()
		return resp, nil
	}
	resp.Body = &responseBody{body: resp.Body, holder: holder}
	return resp, nil
}

func (x *MainExec) establishRoute(ctx context.Context, r route.Route, c *conn.Conn, e *request.Execution) error {
	tracker := route.NewTracker(r)
	director := x.director()
	for {
		fact := tracker.ToRoute()
		step := director.NextStep(r, fact)
		switch step {
		case route.ConnectTarget:
			if err := x.Manager.Connect(ctx, c, r, e.Config.ConnectTimeout); err != nil {
				return err
			}
			if err := tracker.ConnectTarget(r.Secure); err != nil {
				return err
			}
		case route.Complete:
			return x.Manager.RouteComplete(c, r)
		case route.Unreachable:
			return &route.UnreachableError{Planned: r, Current: fact}
		default:
			return fmt.Errorf("httpexec/execchain: unknown route step %s", step)
		}
	}
}

func (x *MainExec) requestExecutor() *RequestExecutor {
	if x.RequestExecutor == nil {
		return &RequestExecutor{Logger: x.Logger}
	}
	return x.RequestExecutor
}

func (x *MainExec) reuse() ReuseStrategy {
	if x.Reuse == nil {
		return DefaultReuseStrategy
	}
	return x.Reuse
}

func (x *MainExec) keepAlive() KeepAliveStrategy {
	if x.KeepAlive == nil {
		return DefaultKeepAlive{}
	}
	return x.KeepAlive
}

func (x *MainExec) director() route.Director {
	if x.Director == nil {
		return route.Direct
	}
	return x.Director
}

func (x *MainExec) timeouts() timeout.Policy {
	if x.Timeouts == nil {
		return timeout.DefaultPolicy
	}
	return x.Timeouts
}
