// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package protocol

import (
	"log/slog"
	"net/http"

	"github.com/gogama/httpexec/request"
)

const methodConnect = "CONNECT"

// DefaultHeaders adds the headers in Header that the request does not
// already carry. CONNECT requests are left unchanged.
type DefaultHeaders struct {
	Header http.Header
}

func (i *DefaultHeaders) ProcessRequest(req *request.Request, _ *request.Execution) error {
	if req.Method == methodConnect {
		return nil
	}
	for name, values := range i.Header {
		if len(req.Header.Values(name)) > 0 {
			continue
		}
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	return nil
}

// Content checks that a request with a body carries no framing headers
// of its own, since framing is derived from the body, and sets the
// Content-Type header from the body's content type if it is missing.
type Content struct{}

func (Content) ProcessRequest(req *request.Request, _ *request.Execution) error {
	if req.Body == nil {
		return nil
	}
	if req.Header.Get("Transfer-Encoding") != "" {
		return &Error{Msg: "Transfer-encoding header already present"}
	}
	if req.Header.Get("Content-Length") != "" {
		return &Error{Msg: "Content-Length header already present"}
	}
	if ct := req.Body.ContentType(); ct != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", ct)
	}
	return nil
}

// TargetHost sets the Host sent with the request to the execution's
// target host, unless the request already specifies one. A Host
// header field in the request header is moved to the request's Host.
type TargetHost struct{}

func (TargetHost) ProcessRequest(req *request.Request, e *request.Execution) error {
	if req.Method == methodConnect {
		return nil
	}
	if h := req.Header.Get("Host"); h != "" {
		req.Header.Del("Host")
		if req.Host == "" {
			req.Host = h
		}
	}
	if req.Host != "" {
		return nil
	}
	if e.Target.Name == "" {
		return &Error{Msg: "target host missing"}
	}
	req.Host = e.Target.HostString()
	return nil
}

// ClientConnControl asks the server to keep the connection alive
// unless the request already carries a Connection header.
type ClientConnControl struct {
	Logger *slog.Logger
}

func (i *ClientConnControl) ProcessRequest(req *request.Request, e *request.Execution) error {
	if req.Method == methodConnect {
		return nil
	}
	if e.Route == nil {
		logger(i.Logger).Debug("connection route not set in the execution")
		return nil
	}
	if req.Header.Get("Connection") == "" {
		req.Header.Set("Connection", "keep-alive")
	}
	return nil
}

// UserAgent sets the User-Agent header to Agent if the request does
// not carry one. An empty Agent leaves the request unchanged.
type UserAgent struct {
	Agent string
}

func (i *UserAgent) ProcessRequest(req *request.Request, _ *request.Execution) error {
	if i.Agent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", i.Agent)
	}
	return nil
}

// ExpectContinue adds "Expect: 100-continue" to requests with a
// non-empty body of known length when the execution's configuration
// enables it.
type ExpectContinue struct{}

func (ExpectContinue) ProcessRequest(req *request.Request, e *request.Execution) error {
	if !e.Config.ExpectContinue || req.Body == nil || req.Body.ContentLength() <= 0 {
		return nil
	}
	if req.Header.Get("Expect") == "" {
		req.Header.Set("Expect", "100-continue")
	}
	return nil
}

func logger(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
