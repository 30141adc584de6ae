// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the core types Request (describes a logical
HTTP request) and Execution (describes the execution of a Request),
along with request entities, per-request configuration and the event
handler plug-in points.

Create a request and execute it:

	r, err := request.NewRequest("GET", "https://example.com", nil)
	...
	resp, err := client.Do(r)
	...

A request may be assigned a context to allow a deadline to be set on
the entire execution, and to allow it to be cancelled:

	r, err := request.NewRequestWithContext(ctx, "POST", "https://example.com/upload", body)
	...

Cancelling the context aborts the execution wherever it is: waiting for
a pooled connection, connecting, or reading the response. A deadline on
the request context is separate from the socket timeout applied to
individual attempts, which is dictated by the client's timeout.Policy.

A request body is an Entity. Byte, string and form entities are
repeatable, so a request carrying one can be retried transparently. A
StreamEntity can only be sent once.

An Execution is the state shared by every layer of the execution chain
during one call. You will typically not allocate Execution instances
yourself, but will work with the ones handed to timeout policies, retry
policies and event handlers.
*/
package request
