// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"math/rand"
	"time"

	"github.com/gogama/httpexec/request"
)

// A Waiter returns how long the retry executor sleeps before sending
// the next attempt of an execution. It is consulted only after the
// Decider has allowed the retry.
//
// Implementations must be safe for concurrent use.
type Waiter interface {
	Wait(e *request.Execution) time.Duration
}

// WaiterFunc is a function implementing the Waiter interface.
type WaiterFunc func(e *request.Execution) time.Duration

// Wait calls f(e).
func (f WaiterFunc) Wait(e *request.Execution) time.Duration {
	return f(e)
}

// DefaultWaiter sleeps a jittered exponential backoff starting at 50
// milliseconds and capped at 1 second.
var DefaultWaiter Waiter = &Backoff{
	Base:   50 * time.Millisecond,
	Max:    time.Second,
	Jitter: true,
}

// Fixed returns a Waiter that always waits d. Fixed(0) retries
// immediately.
func Fixed(d time.Duration) Waiter {
	return WaiterFunc(func(*request.Execution) time.Duration {
		return d
	})
}

// Backoff is an exponential backoff Waiter. Before the n-th retry it
// waits
//
//	ceil := min(Base * 2**(n-1), Max)
//
// or, if Jitter is set, a uniformly random duration in [0, ceil) (the
// "Full Jitter" formula).
//
// A zero Base never waits. A Max smaller than Base is treated as Base.
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Jitter bool

	// Rand returns a random number in [0, n). If nil, the math/rand
	// top-level generator is used.
	Rand func(n int64) int64
}

// Wait returns the backoff before the attempt following e.ExecCount
// completed attempts.
func (b *Backoff) Wait(e *request.Execution) time.Duration {
	ceil := b.ceil(e.ExecCount - 1)
	if !b.Jitter || ceil <= 0 {
		return ceil
	}
	if b.Rand != nil {
		return time.Duration(b.Rand(int64(ceil)))
	}
	return time.Duration(rand.Int63n(int64(ceil)))
}

func (b *Backoff) ceil(retries int) time.Duration {
	if b.Base <= 0 {
		return 0
	}
	limit := b.Max
	if limit < b.Base {
		limit = b.Base
	}
	d := b.Base
	for i := 0; i < retries && d < limit; i++ {
		d *= 2
	}
	if d > limit || d <= 0 {
		return limit
	}
	return d
}
