// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package execchain implements the layered execution chain which carries
a request from the client to the wire and back.

Each layer is an Executor wrapping the next one:

	RedirectExec -> RetryExec -> ProtocolExec -> MainExec

RedirectExec follows redirect responses, re-planning the route when the
target host changes. RetryExec repeats attempts which fail with
transient I/O errors. ProtocolExec rewrites the request to origin form
and runs the request and response interceptors. MainExec leases a
connection from a conn.Manager, establishes its route, sends the
request through a RequestExecutor and decides whether the connection
may be reused.

Ownership of the leased connection passes to a Holder, which releases
it back to the manager exactly once: either when the response body is
fully read or closed, or when the execution fails or is aborted.
*/
package execchain
