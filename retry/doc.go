// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package retry provides flexible policies for retrying request
// attempts that failed with an I/O-level error, and how long to wait
// before retrying.
//
// The interface Policy defines a retry Policy. A Policy instance can be
// constructed using NewPolicy by providing a decision-maker, Decider,
// and a wait time calculator, Waiter. Both Decider and Waiter have
// constructors for common use cases, so that a useful policy can be
// quickly assembled:
//
//	decider := retry.Times(3).
//		And(retry.Before(5 * time.Second)).
//		And(retry.TransientErr).
//		And(retry.Idempotent.Or(retry.NotSent))
//	waiter := &retry.Backoff{Base: 100 * time.Millisecond, Max: 2 * time.Second, Jitter: true}
//	policy := retry.NewPolicy(decider, waiter)
//
// The retry policy only decides whether to retry. A request whose body
// cannot be replayed is never resent, whatever the policy decides.
package retry
