// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gogama/httpexec/conn"
	"github.com/gogama/httpexec/cookie"
	"github.com/gogama/httpexec/route"
	"github.com/gogama/httpexec/transient"
)

// An Execution represents the state of a single Request execution. It
// is the context shared by every layer of the execution chain, and
// the input to timeout policies, retry policies and event handlers.
//
// Policies and event handlers may set values on an Execution using its
// SetValue method and read them back using the Value method. However,
// they should treat the structure's exported field values as immutable
// and leave them unmodified, as the execution state is vital to the
// correct functioning of the execution chain. The exception is the
// outgoing HTTPRequest, whose header BeforeAttempt handlers may modify
// (for example to sign the request).
type Execution struct {
	// ID uniquely identifies the execution in logs.
	ID string

	// Request is the working copy of the request being executed. Its
	// Original method returns the request passed to the client.
	Request *Request

	// Config is the effective per-request configuration.
	Config Config

	// Start is the start time of the execution. It is assigned a
	// non-zero value when the execution starts, and this value remains
	// constant thereafter.
	Start time.Time

	// End is the end time of the execution. It contains the zero value
	// until the execution ends, when it is set to the current time.
	End time.Time

	// Route is the route planned for the current target. It is nil
	// until the route has been planned.
	Route *route.Route

	// Target is the host the current request is addressed to.
	Target route.Host

	// HTTPRequest is the outgoing message of the current attempt, or
	// the most recent one.
	HTTPRequest *http.Request

	// Response is the response received in the most recent attempt.
	Response *http.Response

	// Err is the error of the most recent attempt or, once the
	// execution has ended, the error returned by the client.
	Err error

	// ExecCount is the one-based number of the current attempt on the
	// current request. It is reset to 1 when a redirect is followed.
	ExecCount int

	// AttemptTimeouts is the count of the number of times an attempt
	// timed out during the execution.
	AttemptTimeouts int

	// RequestSent reports whether the current attempt's request was
	// completely written to the connection.
	RequestSent bool

	// Redirects lists the locations followed so far, in order.
	Redirects []*url.URL

	// Conn is the connection used by the current attempt, if any.
	Conn *conn.Conn

	// UserToken is the state token identifying the user the
	// connection is bound to, if any. It is used to prefer pooled
	// connections with matching state.
	UserToken any

	// CookieStore and CookieSpecs enable cookie management when both
	// are set.
	CookieStore cookie.Store
	CookieSpecs cookie.Registry

	// CookieSpec and CookieOrigin are set while adding cookies to a
	// request, for the response interceptor to process Set-Cookie
	// headers with the same spec.
	CookieSpec   cookie.Spec
	CookieOrigin *cookie.Origin

	// Handlers is the client's event handler group. It may be nil.
	Handlers *HandlerGroup

	data context.Context
}

// StatusCode returns the status code of the HTTP response from the
// most recent attempt in the execution. If there is no HTTP response,
// 0 is returned.
func (e *Execution) StatusCode() int {
	if e.Response == nil {
		return 0
	}

	return e.Response.StatusCode
}

// Header returns the HTTP response headers from the most recent
// attempt in the execution. If there is no HTTP response, the nil
// header is returned.
func (e *Execution) Header() http.Header {
	if e.Response == nil {
		var nilHeader http.Header
		return nilHeader
	}

	return e.Response.Header
}

// Duration returns the duration of the execution.
//
// If the execution has not yet started, the duration is zero. If the
// execution has Ended, the duration returned is equal to End minus
// Start. Otherwise, it is equal to the current time minus Start.
func (e *Execution) Duration() time.Duration {
	if !e.Started() {
		return time.Duration(0)
	} else if !e.Ended() {
		return time.Since(e.Start)
	}

	return e.End.Sub(e.Start)
}

// Started indicates whether the execution has started.
func (e *Execution) Started() bool {
	return !e.Start.IsZero()
}

// Ended indicates whether the execution has ended.
func (e *Execution) Ended() bool {
	return !e.End.IsZero()
}

// Timeout indicates whether Err currently contains a non-nil value
// which indicates a timeout.
func (e *Execution) Timeout() bool {
	return transient.Categorize(e.Err) == transient.Timeout
}

// Fire runs the event handlers installed for evt.
func (e *Execution) Fire(evt Event) {
	e.Handlers.Run(evt, e)
}

// SetValue allows event handlers to store arbitrary data in the
// execution.
//
// The key must follow the same rules as the key parameter in
// context.WithValue, namely it:
//
// • it may not be nil;
//
// • it must be comparable;
//
// • it should not be of type string or any other built-in type to avoid
// collisions between different event handlers putting data into the
// same request execution.
func (e *Execution) SetValue(key, value any) {
	ctx := e.data
	if ctx == nil {
		ctx = context.Background()
	}

	e.data = context.WithValue(ctx, key, value)
}

// Value returns the data value associated with this execution for key,
// or nil if there is no value associated with key.
func (e *Execution) Value(key any) any {
	ctx := e.data
	if ctx == nil {
		return nil
	}

	return ctx.Value(key)
}
