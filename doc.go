// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package httpexec provides an HTTP/1.1 client which executes requests
through a layered execution chain over its own pool of connections.

Create a Client to begin making requests.

	client, err := httpexec.New()
	...
	e, err := client.Get("https://www.example.com")
	if err != nil {
		...
	}
	defer e.Response.Body.Close()
	...
	e, err = client.Post("https://www.example.com/upload",
		"application/json", &buf)
	...
	e, err = client.PostForm("http://example.com/form",
		url.Values{"key": {"Value"}, "id": {"123"}})

The response body is streamed from a pooled connection. Reading it to
the end or closing it returns the connection to the pool, where it is
kept alive for reuse if the response allows.

Configure the client with options:

	client, err := httpexec.New(
		httpexec.WithMaxConnections(100, 10),
		httpexec.WithUserAgent("my-agent/1.0"),
		httpexec.WithRetryPolicy(retry.NewPolicy(
			retry.Times(5).And(retry.TransientErr),
			&retry.Backoff{Base: 250 * time.Millisecond, Max: 5 * time.Second, Jitter: true})),
		httpexec.WithTimeoutPolicy(timeout.Fixed(10*time.Second)),
		httpexec.WithEvictor(5*time.Second, time.Minute),
	)

or from a YAML configuration file, see package config:

	cfg, err := config.LoadWithEnvOverrides("httpexec.yaml")
	...
	client, err := httpexec.NewFromConfig(cfg)

To hook into the fine-grained details of the client's request execution
logic, install a handler into the appropriate handler chain:

	handlers := httpexec.LogHandlers(slog.Default())
	handlers.PushBack(request.BeforeAttempt, request.HandlerFunc(
		func(_ request.Event, e *request.Execution) {
			e.HTTPRequest.Header.Set("X-Attempt", strconv.Itoa(e.ExecCount))
		}))
	client, err := httpexec.New(httpexec.WithHandlers(handlers))

Package httpexec provides basic interfaces for each method of the client
(Doer, Getter, Header, Poster, FormPoster, and IdleCloser); a combined
interface that composes all the basic methods (Executor); and utility
functions for working with a Doer (Inflate, Get, Head, Post, and
PostForm).
*/
package httpexec
