// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	urlpkg "net/url"
	"strings"

	"golang.org/x/net/http/httpguts"
)

const (
	nilCtxMsg = "httpexec/request: nil context"
)

// A Request is a logical HTTP request to be executed by a client.
//
// Executing a Request may involve several attempts, for example when
// an attempt fails with a transient error and is retried, or when the
// response is a redirect. Each execution works on a copy of the
// Request made with Wrap, so the Request passed to the client is never
// modified.
//
// Like http.Request, a Request has a context which controls the
// overall execution and can be used to cancel it at any time.
type Request struct {
	// Method specifies the HTTP method (GET, POST, PUT, etc.).
	// An empty string means GET.
	Method string

	// URL specifies the URL to access. It is normally absolute. Within
	// an execution it is rewritten to origin form (path and query only)
	// before being sent.
	URL *urlpkg.URL

	// Header contains the request header fields to be sent.
	Header http.Header

	// Body is the request entity, or nil for no body.
	Body Entity

	// Host optionally overrides the Host header to send. If empty, the
	// host of the URL is sent.
	Host string

	// Config, if not nil, overrides the client's default per-request
	// configuration.
	Config *Config

	ctx      context.Context
	original *Request
}

// NewRequest wraps NewRequestWithContext using the background context.
func NewRequest(method, url string, body any) (*Request, error) {
	return NewRequestWithContext(context.Background(), method, url, body)
}

// NewRequestWithContext returns a new Request given a method, URL, and
// optional body.
//
// Parameter body may be nil (no body), an Entity, a string, a []byte,
// url.Values (sent as a URL-encoded form), or an io.Reader (sent as a
// non-repeatable stream of unknown length).
func NewRequestWithContext(ctx context.Context, method, url string, body any) (*Request, error) {
	if ctx == nil {
		return nil, errors.New(nilCtxMsg)
	}
	if method == "" {
		method = http.MethodGet
	}
	if !validMethod(method) {
		return nil, fmt.Errorf("httpexec/request: invalid method %q", method)
	}
	u, err := urlpkg.Parse(url)
	if err != nil {
		return nil, err
	}
	u.Host = removeEmptyPort(u.Host)
	entity, err := ToEntity(body)
	if err != nil {
		return nil, err
	}
	return &Request{
		ctx:    ctx,
		Method: method,
		URL:    u,
		Header: make(http.Header),
		Body:   entity,
	}, nil
}

// Context returns the request's context. The returned context is
// always non-nil; it defaults to the background context.
func (r *Request) Context() context.Context {
	if r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}

// WithContext returns a shallow copy of r with its context changed to
// ctx, which must be non-nil.
func (r *Request) WithContext(ctx context.Context) *Request {
	if ctx == nil {
		panic(nilCtxMsg)
	}
	r2 := new(Request)
	*r2 = *r
	r2.ctx = ctx
	return r2
}

// Wrap returns a working copy of r for use within one execution. The
// copy has its own URL and Header, so they may be rewritten freely,
// and remembers r as its original.
func (r *Request) Wrap() *Request {
	w := new(Request)
	*w = *r
	if r.URL != nil {
		u := *r.URL
		w.URL = &u
	}
	w.Header = r.Header.Clone()
	if w.Header == nil {
		w.Header = make(http.Header)
	}
	w.original = r.Original()
	return w
}

// Original returns the request r was wrapped from, or r itself if it
// is not a working copy.
func (r *Request) Original() *Request {
	if r.original != nil {
		return r.original
	}
	return r
}

// Repeatable reports whether the request can be sent again: it has no
// body or its body can be reopened.
func (r *Request) Repeatable() bool {
	return r.Body == nil || r.Body.Repeatable()
}

// AddCookie adds a cookie to the request. Per RFC 6265 section 5.4,
// AddCookie does not attach more than one Cookie header field. That
// means all cookies, if any, are written into the same line,
// separated by semicolons.
func (r *Request) AddCookie(c *http.Cookie) {
	c2 := &http.Cookie{Name: c.Name, Value: c.Value}
	s := c2.String()
	if h := r.Header.Get("Cookie"); h != "" {
		r.Header.Set("Cookie", h+"; "+s)
	} else {
		r.Header.Set("Cookie", s)
	}
}

// SetBasicAuth sets the request's Authorization header to use HTTP
// Basic Authentication with the provided username and password.
func (r *Request) SetBasicAuth(username, password string) {
	auth := username + ":" + password
	r.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(auth)))
}

// ToHTTP creates the outgoing HTTP/1.1 message for one attempt. The
// body, if any, is opened; the caller must close the returned request's
// Body if it is not sent.
func (r *Request) ToHTTP(ctx context.Context) (*http.Request, error) {
	hr := &http.Request{
		Method:     r.Method,
		URL:        r.URL,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     r.Header,
		Host:       r.Host,
	}
	if hr.Method == "" {
		hr.Method = http.MethodGet
	}
	if hr.Header == nil {
		hr.Header = make(http.Header)
	}
	hr = hr.WithContext(ctx)
	if r.Body == nil {
		return hr, nil
	}
	n := r.Body.ContentLength()
	if n == 0 {
		hr.Body = http.NoBody
		return hr, nil
	}
	rc, err := r.Body.Open()
	if err != nil {
		return nil, err
	}
	hr.Body = rc
	hr.ContentLength = n
	if n < 0 {
		hr.ContentLength = -1
		hr.TransferEncoding = []string{"chunked"}
	}
	if r.Body.Repeatable() {
		body := r.Body
		hr.GetBody = body.Open
	}
	return hr, nil
}

func validMethod(method string) bool {
	// Method = token; the empty string is always interpreted as GET.
	return httpguts.ValidHeaderFieldName(method)
}

// hasPort is lifted verbatim from net/http/http.go
//
// Given a string of the form "host", "host:port", or "[ipv6::address]:port",
// return true if the string includes a port.
func hasPort(s string) bool { return strings.LastIndex(s, ":") > strings.LastIndex(s, "]") }

// removeEmptyPort strips the empty port in ":port" to "" as mandated
// by RFC 3986 Section 6.2.3.
func removeEmptyPort(host string) string {
	if hasPort(host) {
		return strings.TrimSuffix(host, ":")
	}
	return host
}
