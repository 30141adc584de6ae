// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package execchain

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gogama/httpexec/conn"
	"github.com/gogama/httpexec/metrics"
	"github.com/gogama/httpexec/redirect"
	"github.com/gogama/httpexec/request"
	"github.com/gogama/httpexec/retry"
	"github.com/gogama/httpexec/route"
	"github.com/gogama/httpexec/transient"
)

// RetryExec repeats attempts of a request which fail with an I/O
// error, for as long as its retry policy allows.
//
// Before each retry the request header is restored to what it was on
// entry, undoing the changes made by request interceptors.
type RetryExec struct {
	// Next executes each attempt.
	Next Executor
	// Policy decides whether and when to retry. The default is
	// retry.DefaultPolicy.
	Policy retry.Policy
	// Logger receives retry notices at Info level.
	Logger *slog.Logger
	// Metrics, if not nil, counts retries.
	Metrics *metrics.Collector
}

// Execute executes req, retrying failed attempts.
func (x *RetryExec) Execute(r route.Route, req *request.Request, e *request.Execution, aware *Aware) (*http.Response, error) {
	next := mustHaveNext(x.Next)
	policy := x.policy()
	header := req.Header.Clone()
	ctx := req.Context()

	for e.ExecCount = 1; ; e.ExecCount++ {
		e.RequestSent = false
		e.Err = nil
		e.Response = nil

		resp, err := next.Execute(r, req, e, aware)
		if err == nil {
			return resp, nil
		}
		if !isIOError(err) {
			return nil, err
		}
		if aware.IsAborted() {
			return nil, &AbortedError{Msg: "request aborted", Err: err}
		}

		e.Err = err
		if e.Timeout() {
			e.AttemptTimeouts++
			e.Fire(request.AfterAttemptTimeout)
		}
		e.Fire(request.AfterAttemptError)

		if !policy.Decide(e) {
			var nre *NoResponseError
			if errors.As(err, &nre) {
				return nil, &NoResponseError{Host: r.Target.HostString(), Err: nre.Err}
			}
			return nil, err
		}
		if !req.Repeatable() {
			return nil, &NonReplayableRequestError{Err: err}
		}

		req.Header = header.Clone()
		wait := policy.Wait(e)
		logger(x.Logger).Info("I/O error executing request; retrying",
			"target", r.Target.String(), "attempt", e.ExecCount, "wait", wait, "err", err)
		e.Fire(request.BeforeRetry)
		x.Metrics.Retry(transient.Categorize(err).String())
		if err = sleep(ctx, wait); err != nil {
			return nil, &AbortedError{Msg: "request aborted", Err: err}
		}
	}
}

func (x *RetryExec) policy() retry.Policy {
	if x.Policy == nil {
		return retry.DefaultPolicy
	}
	return x.Policy
}

// isIOError reports whether err is a failure to communicate with the
// server, as opposed to a failure no retry could fix.
func isIOError(err error) bool {
	var (
		pe  *ProtocolError
		ae  *AbortedError
		nre *NonReplayableRequestError
		use *route.UnsupportedSchemeError
		ure *route.UnreachableError
		le  *redirect.LimitError
		cre *redirect.CircularRedirectError
	)
	switch {
	case errors.As(err, &pe), errors.As(err, &ae), errors.As(err, &nre),
		errors.As(err, &use), errors.As(err, &ure),
		errors.As(err, &le), errors.As(err, &cre):
		return false
	case errors.Is(err, route.ErrNoTarget), errors.Is(err, conn.ErrPoolShutdown),
		errors.Is(err, request.ErrStreamConsumed):
		return false
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
