// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package execchain

import (
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gogama/httpexec/request"
	"golang.org/x/net/http/httpguts"
)

// A ReuseStrategy decides whether the connection a response was
// received on may be kept alive for another request.
type ReuseStrategy interface {
	KeepAlive(resp *http.Response, e *request.Execution) bool
}

// The ReuseStrategyFunc type is an adapter to allow the use of
// ordinary functions as reuse strategies.
type ReuseStrategyFunc func(resp *http.Response, e *request.Execution) bool

// KeepAlive calls f(resp, e).
func (f ReuseStrategyFunc) KeepAlive(resp *http.Response, e *request.Execution) bool {
	return f(resp, e)
}

// DefaultReuseStrategy keeps a connection alive unless the response or
// the request asked to close it, the protocol was switched, or the end
// of the response body can only be detected by the server closing the
// connection.
var DefaultReuseStrategy ReuseStrategy = ReuseStrategyFunc(defaultKeepAlive)

func defaultKeepAlive(resp *http.Response, e *request.Execution) bool {
	if resp.Close || resp.StatusCode == http.StatusSwitchingProtocols {
		return false
	}
	if hr := e.HTTPRequest; hr != nil {
		if hr.Close || httpguts.HeaderValuesContainsToken(hr.Header["Connection"], "close") {
			return false
		}
	}
	return framed(resp)
}

func framed(resp *http.Response) bool {
	if resp.Body == nil || resp.Body == http.NoBody || resp.ContentLength >= 0 {
		return true
	}
	for _, te := range resp.TransferEncoding {
		if strings.EqualFold(te, "chunked") {
			return true
		}
	}
	return false
}

// A KeepAliveStrategy decides how long a reusable connection may stay
// idle in the pool. Zero or negative means indefinitely.
type KeepAliveStrategy interface {
	Duration(resp *http.Response, e *request.Execution) time.Duration
}

// DefaultKeepAlive honours the timeout parameter of the response's
// Keep-Alive header, falling back to Fallback if there is none.
type DefaultKeepAlive struct {
	Fallback time.Duration
}

// Duration returns the Keep-Alive timeout of resp, or s.Fallback.
func (s DefaultKeepAlive) Duration(resp *http.Response, _ *request.Execution) time.Duration {
	for _, v := range resp.Header.Values("Keep-Alive") {
		for _, param := range strings.Split(v, ",") {
			name, value, _ := strings.Cut(strings.TrimSpace(param), "=")
			if !strings.EqualFold(strings.TrimSpace(name), "timeout") {
				continue
			}
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err == nil {
				return time.Duration(n) * time.Second
			}
		}
	}
	return s.Fallback
}

// A UserTokenHandler determines the state token identifying the user
// a connection becomes bound to, or nil if the connection carries no
// user-specific state and may be shared.
type UserTokenHandler interface {
	UserToken(resp *http.Response, e *request.Execution) any
}

// The UserTokenHandlerFunc type is an adapter to allow the use of
// ordinary functions as user token handlers.
type UserTokenHandlerFunc func(resp *http.Response, e *request.Execution) any

// UserToken calls f(resp, e).
func (f UserTokenHandlerFunc) UserToken(resp *http.Response, e *request.Execution) any {
	return f(resp, e)
}

// ClientCertUserToken binds TLS connections to the subject of the
// client certificate presented on them.
type ClientCertUserToken struct {
	// Certificates are the client certificates configured for TLS.
	// The subject of the first one is the token.
	Certificates []tls.Certificate
}

// UserToken returns the client certificate subject if the execution's
// connection uses TLS, and nil otherwise.
func (h ClientCertUserToken) UserToken(_ *http.Response, e *request.Execution) any {
	if e.Conn == nil || e.Conn.TLSState() == nil || len(h.Certificates) == 0 {
		return nil
	}
	cert := h.Certificates[0]
	leaf := cert.Leaf
	if leaf == nil && len(cert.Certificate) > 0 {
		leaf, _ = x509.ParseCertificate(cert.Certificate[0])
	}
	if leaf == nil {
		return nil
	}
	return leaf.Subject.String()
}

// HeaderUserToken returns a handler which takes the token from the
// named response header.
func HeaderUserToken(name string) UserTokenHandler {
	return UserTokenHandlerFunc(func(resp *http.Response, _ *request.Execution) any {
		if v := resp.Header.Get(name); v != "" {
			return v
		}
		return nil
	})
}
