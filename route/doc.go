// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package route describes where a request goes and how far a connection
has progressed towards getting there.

A Route is an immutable, comparable description of a target host, an
optional local bind address, and whether the connection is secure. Two
requests with equal routes may share pooled connections.

A Planner maps a logical target Host to a concrete Route:

	r, err := route.DefaultPlanner.Plan(route.Host{Name: "example.com", Scheme: "https"}, netip.Addr{})
	// r.Target.Port == 443, r.Secure == true

A Tracker follows the progress of establishing a Route on a single
connection, and a Director computes the next step needed to reconcile
the planned route with the established one:

	t := route.NewTracker(r)
	for {
		switch route.Direct.NextStep(r, t.ToRoute()) {
		case route.ConnectTarget:
			// open the socket ...
			_ = t.ConnectTarget(r.Secure)
		case route.Complete:
			return nil
		case route.Unreachable:
			return &route.UnreachableError{Planned: r, Current: t.ToRoute()}
		}
	}
*/
package route
