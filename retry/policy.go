// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/gogama/httpexec/request"
)

// A Policy is consulted by the retry layer of the execution chain
// each time an attempt fails with an I/O-level error. Decide says
// whether the request is sent again; Wait says how long to pause
// first. There is no built-in attempt limit: a Policy that always
// decides to retry retries forever.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	Decider
	Waiter
}

// DefaultPolicy retries transient failures up to DefaultTimes times,
// waiting DefaultWaiter between attempts. Requests that were completely
// sent are only retried if their method is idempotent.
var DefaultPolicy = Standard(DefaultTimes, false, DefaultWaiter)

// Never is a policy that never retries.
var Never Policy = policy{Times(0), Fixed(0)}

// Standard returns a policy allowing up to times retries of transient
// failures, waiting w between attempts.
//
// A request that failed after it was completely written to the
// connection may already have been processed by the server. Unless
// sentRetry is set, such a request is only retried if its method is
// idempotent. A times of zero or less gives a policy equivalent to
// Never.
func Standard(times int, sentRetry bool, w Waiter) Policy {
	if times <= 0 {
		return Never
	}
	d := Times(times).And(TransientErr)
	if !sentRetry {
		d = d.And(Idempotent.Or(NotSent))
	}
	return NewPolicy(d, w)
}

// NewPolicy composes a Decider and a Waiter into a retry Policy.
func NewPolicy(d Decider, w Waiter) Policy {
	if d == nil {
		panic("httpexec/retry: nil decider")
	}
	if w == nil {
		panic("httpexec/retry: nil waiter")
	}
	return policy{decider: d, waiter: w}
}

type policy struct {
	decider Decider
	waiter  Waiter
}

func (p policy) Decide(e *request.Execution) bool {
	return p.decider.Decide(e)
}

func (p policy) Wait(e *request.Execution) time.Duration {
	return p.waiter.Wait(e)
}
