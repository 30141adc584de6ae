// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"net/http"
	"time"

	"github.com/gogama/httpexec/request"
	"github.com/gogama/httpexec/transient"
)

// A Decider decides if a request attempt which failed with an I/O-level
// error should be retried. It is consulted with the execution's Err
// field set to the error and ExecCount set to the number of the attempt
// that failed.
//
// Implementations of Decider must be safe for concurrent use by
// multiple goroutines.
//
// Use the built-in constructors Times and Before, and the built-in
// deciders TransientErr, Idempotent and NotSent; or implement your
// Decider. Use DeciderFunc to convert an ordinary function into a
// Decider, and to compose deciders logically using DeciderFunc.And and
// DeciderFunc.Or.
type Decider interface {
	Decide(e *request.Execution) bool
}

// The DeciderFunc type is an adapter to allow the use of ordinary
// functions as retry deciders. It implements the Decider interface, and
// also provides the logical composition methods And and Or.
//
// Every DeciderFunc must be safe for concurrent use by multiple
// goroutines.
//
// Simple DeciderFunc functions can be composed into complex decision
// trees using the logical composition functions DeciderFunc.And and
// DeciderFunc.Or. Because of this composition ability, it will often
// be convenient to work directly with DeciderFunc rather than with
// Decider.
type DeciderFunc func(e *request.Execution) bool

// DefaultTimes is the number of times DefaultPolicy will retry.
const DefaultTimes = 3

// DefaultDecider is a general-purpose retry decider suitable for
// common use cases. It allows up to DefaultTimes retries (i.e. up to 4
// total attempts) of a transient error (TransientErr), provided the
// request is idempotent or was not completely sent before the error
// occurred.
var DefaultDecider = Times(DefaultTimes).And(TransientErr).And(Idempotent.Or(NotSent))

// TransientErr is a decider that indicates a retry if the current
// error is transient according to transient.Categorize.
var TransientErr DeciderFunc = transientErr

// Idempotent is a decider that indicates a retry if the request method
// is idempotent as defined by RFC 7231, section 4.2.2: GET, HEAD, PUT,
// DELETE, OPTIONS and TRACE.
var Idempotent DeciderFunc = idempotent

// NotSent is a decider that indicates a retry if the failed attempt
// did not completely write the request to the connection. A request
// that was never completely sent cannot have been processed by the
// server.
var NotSent DeciderFunc = notSent

// Decide returns true if a retry should be done, and false otherwise,
// after examining the current request execution state.
func (f DeciderFunc) Decide(e *request.Execution) bool {
	return f(e)
}

// And composes two retry deciders into a new decider which returns true
// if both sub-deciders return true, and false otherwise.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// false.
func (f DeciderFunc) And(g DeciderFunc) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e) && g(e)
	}
}

// Or composes two retry deciders into a new decider which returns
// true if either of the two sub-deciders returns true, but false if
// they both return false.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// true.
func (f DeciderFunc) Or(g DeciderFunc) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e) || g(e)
	}
}

// Times constructs a retry decider which allows up to n retries. The
// returned decider returns true while the number of the failed attempt,
// e.ExecCount, is at most n, and false otherwise.
func Times(n int) DeciderFunc {
	return func(e *request.Execution) bool {
		return e.ExecCount <= n
	}
}

// Before constructs a retry decider allowing retries until a certain
// amount of time has elapsed since the start of the request execution.
// The returned decider returns true while the execution duration is
// less than d, and false afterward.
func Before(d time.Duration) DeciderFunc {
	return func(e *request.Execution) bool {
		return e.Duration() < d
	}
}

func transientErr(e *request.Execution) bool {
	return transient.Categorize(e.Err).Transient()
}

func idempotent(e *request.Execution) bool {
	if e.Request == nil {
		return false
	}
	switch e.Request.Method {
	case "", http.MethodGet, http.MethodHead, http.MethodPut,
		http.MethodDelete, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}

func notSent(e *request.Execution) bool {
	return !e.RequestSent
}
