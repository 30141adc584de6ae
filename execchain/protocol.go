// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package execchain

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gogama/httpexec/protocol"
	"github.com/gogama/httpexec/request"
	"github.com/gogama/httpexec/route"
)

// ProtocolExec prepares each attempt of a request for the wire. It
// rewrites the request URI to origin form, records the route and target
// in the execution and runs the request and response interceptors
// around the next executor.
type ProtocolExec struct {
	// Next is the executor the prepared request is passed to.
	Next Executor
	// Processor holds the interceptors. A nil Processor runs none.
	Processor *protocol.Processor
	// Logger receives debug output.
	Logger *slog.Logger
}

// Execute prepares req and executes it with the next executor.
func (x *ProtocolExec) Execute(r route.Route, req *request.Request, e *request.Execution, aware *Aware) (*http.Response, error) {
	next := mustHaveNext(x.Next)

	if orig := req.Original(); orig.URL != nil {
		u := *orig.URL
		req.URL = &u
	}
	target := r.Target
	if req.URL != nil && req.URL.Host != "" {
		t, err := TargetOf(req.URL)
		if err != nil {
			return nil, err
		}
		target = t
	}
	if req.URL != nil {
		if u := req.URL.User; u != nil && req.Header.Get("Authorization") == "" {
			password, _ := u.Password()
			req.SetBasicAuth(u.Username(), password)
		}
		req.URL = originForm(req.URL)
	}

	e.Route = &r
	e.Target = target
	e.Request = req

	if err := x.Processor.ProcessRequest(req, e); err != nil {
		return nil, err
	}

	resp, err := next.Execute(r, req, e, aware)
	if err != nil {
		return nil, err
	}

	e.Response = resp
	e.Fire(request.AfterResponse)
	if err = x.Processor.ProcessResponse(resp, e); err != nil {
		logger(x.Logger).Debug("response interceptor failed", "err", err)
		closeResponse(resp)
		return nil, err
	}
	return resp, nil
}

// TargetOf returns the target host of an absolute URL. The port is
// unset if the URL does not carry one.
func TargetOf(u *url.URL) (route.Host, error) {
	if u == nil || u.Host == "" {
		return route.Host{}, route.ErrNoTarget
	}
	h := route.Host{
		Name:   strings.ToLower(u.Hostname()),
		Scheme: strings.ToLower(u.Scheme),
	}
	if h.Name == "" {
		return route.Host{}, route.ErrNoTarget
	}
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 || n > 65535 {
			return route.Host{}, &ProtocolError{Msg: "invalid port in URI: " + u.Host}
		}
		h.Port = n
	}
	return h, nil
}

func originForm(u *url.URL) *url.URL {
	o := &url.URL{
		Path:     u.Path,
		RawPath:  u.RawPath,
		RawQuery: u.RawQuery,
	}
	if o.Path == "" {
		o.Path = "/"
	}
	return o
}
