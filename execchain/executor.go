// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package execchain

import (
	"log/slog"
	"net/http"

	"github.com/gogama/httpexec/request"
	"github.com/gogama/httpexec/route"
)

// An Executor executes a request on a planned route as one layer of
// the execution chain.
//
// The request passed to Execute is a working copy (see request.Wrap)
// which the executor may modify. If Execute returns a response with a
// streaming body, the caller must close the body to release the
// underlying connection.
type Executor interface {
	Execute(r route.Route, req *request.Request, e *request.Execution, aware *Aware) (*http.Response, error)
}

// The ExecutorFunc type is an adapter to allow the use of ordinary
// functions as executors.
type ExecutorFunc func(r route.Route, req *request.Request, e *request.Execution, aware *Aware) (*http.Response, error)

// Execute calls f(r, req, e, aware).
func (f ExecutorFunc) Execute(r route.Route, req *request.Request, e *request.Execution, aware *Aware) (*http.Response, error) {
	return f(r, req, e, aware)
}

func mustHaveNext(next Executor) Executor {
	if next == nil {
		panic("httpexec/execchain: nil next executor")
	}
	return next
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

func closeResponse(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
}
