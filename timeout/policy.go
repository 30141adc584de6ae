// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"time"

	"github.com/gogama/httpexec/request"
)

// A Policy chooses the socket timeout of each request attempt. The main
// executor applies it to the leased connection before the request is
// written. A socket timeout bounds every single read and write on the
// connection, so it limits how long the server may stay silent, not
// how long the whole exchange may take.
//
// Implementations must be safe for concurrent use.
type Policy interface {
	// Timeout returns the socket timeout for the attempt about to
	// start. Zero means no timeout. When the attempt is a retry, e.Err
	// holds the previous attempt's error.
	Timeout(e *request.Execution) time.Duration
}

// PolicyFunc is a function implementing the Policy interface.
type PolicyFunc func(e *request.Execution) time.Duration

// Timeout calls f(e).
func (f PolicyFunc) Timeout(e *request.Execution) time.Duration {
	return f(e)
}

// DefaultPolicy gives every attempt a 30 second socket timeout.
var DefaultPolicy Policy = Fixed(30 * time.Second)

// Infinite never times an attempt out.
var Infinite Policy = Fixed(0)

// Fixed is a Policy giving every attempt the same socket timeout.
type Fixed time.Duration

// Timeout returns time.Duration(f).
func (f Fixed) Timeout(*request.Execution) time.Duration {
	return time.Duration(f)
}

// AdaptivePolicy lengthens the socket timeout after attempts that timed
// out. This suits a server with occasional one-off slow responses,
// which a short timeout and a quick retry cure, that also goes through
// bursts of general slowness, during which short timeouts would only
// multiply the load.
//
// An attempt that follows one which did not time out gets Usual. An
// attempt that follows the n-th timeout of the execution gets
// After[n-1], or the last element of After once n exceeds its length.
// With no After values every attempt gets Usual.
type AdaptivePolicy struct {
	Usual time.Duration
	After []time.Duration
}

// Adaptive returns an AdaptivePolicy. For example
//
//	p := Adaptive(200*time.Millisecond, time.Second, 10*time.Second)
//
// times attempts out after 200ms, except that the retry of the first
// timed out attempt gets 1s and retries of any later timeout get 10s.
func Adaptive(usual time.Duration, after ...time.Duration) *AdaptivePolicy {
	return &AdaptivePolicy{Usual: usual, After: after}
}

// Timeout implements Policy.
func (p *AdaptivePolicy) Timeout(e *request.Execution) time.Duration {
	n := e.AttemptTimeouts
	if !e.Timeout() || n < 1 || len(p.After) == 0 {
		return p.Usual
	}
	if n > len(p.After) {
		n = len(p.After)
	}
	return p.After[n-1]
}
