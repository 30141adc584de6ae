// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package conn provides managed client connections and the pool that
leases them.

A Pool hands out connections partitioned by route.Route. A lease is a
cancellable wait:

	lease := pool.RequestConnection(r, nil)
	c, err := lease.Get(ctx, 5*time.Second)
	...
	if !c.IsOpen() {
		err = pool.Connect(ctx, c, r, 2*time.Second)
		...
		err = pool.RouteComplete(c, r)
	}
	...
	pool.ReleaseConnection(c, nil, 30*time.Second)

Opening a socket is the job of the Operator, which resolves every
address of the target host and tries them first to last until one
connects. An Evictor periodically closes expired and idle connections
sitting in the pool.

The Pool is safe for concurrent use by multiple goroutines. A Conn is
owned by exactly one goroutine between lease and release, except that
Shutdown may be called from any goroutine to abort blocked I/O.
*/
package conn
