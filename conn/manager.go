// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package conn

import (
	"context"
	"time"

	"github.com/gogama/httpexec/route"
)

// A Manager leases connections to request executions and takes them
// back when the execution is done with them.
//
// Implementations must be safe for concurrent use by multiple
// goroutines.
type Manager interface {
	// RequestConnection starts a lease for a connection on route r. A
	// non-nil state prefers a pooled connection released with an equal
	// state token.
	RequestConnection(r route.Route, state any) LeaseRequest
	// ReleaseConnection returns a leased connection to the manager. An
	// open connection whose route is complete is kept for reuse for
	// validFor, or indefinitely if validFor is zero or negative. Any
	// other connection is discarded.
	ReleaseConnection(c *Conn, state any, validFor time.Duration)
	// Connect opens the socket for a leased connection.
	Connect(ctx context.Context, c *Conn, r route.Route, timeout time.Duration) error
	// RouteComplete marks a leased connection's route as fully
	// established, making it eligible for reuse.
	RouteComplete(c *Conn, r route.Route) error
	// CloseExpiredConnections closes pooled connections whose validity
	// has expired.
	CloseExpiredConnections()
	// CloseIdleConnections closes pooled connections idle for longer
	// than idle.
	CloseIdleConnections(idle time.Duration)
	// Shutdown closes every connection and rejects further leases.
	Shutdown()
}

// A LeaseRequest is a pending lease of a connection.
type LeaseRequest interface {
	// Get waits until a connection is leased, the context is done, the
	// timeout elapses or the request is cancelled. Zero or negative
	// timeout means no limit.
	Get(ctx context.Context, timeout time.Duration) (*Conn, error)
	// Cancel cancels the lease. It reports whether the request was
	// cancelled by this call, which is false if a connection was
	// already handed out or the lease was already cancelled.
	Cancel() bool
}
