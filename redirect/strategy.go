// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package redirect

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gogama/httpexec/protocol"
	"github.com/gogama/httpexec/request"
)

// A Strategy decides whether a response is a redirect to follow, and
// builds the next request when it is.
//
// Implementations of Strategy must be safe for concurrent use by
// multiple goroutines.
type Strategy interface {
	// IsRedirected reports whether resp, received for req, is a
	// redirect that should be followed.
	IsRedirected(req *request.Request, resp *http.Response, e *request.Execution) (bool, error)
	// Redirect returns the request following the redirect resp. It
	// records the new location in e.Redirects.
	Redirect(req *request.Request, resp *http.Response, e *request.Execution) (*request.Request, error)
}

// Default follows 303 (See Other) for any method, and 301 (Moved
// Permanently), 302 (Found), 307 (Temporary Redirect) and 308
// (Permanent Redirect) for GET and HEAD only.
var Default Strategy = &strategy{methods: []string{http.MethodGet, http.MethodHead}}

// Lax is like Default, but also follows 301, 302, 307 and 308 for
// POST, PUT and DELETE. A POST, PUT or DELETE redirected by 301 or 302
// becomes a GET without a body; 307 and 308 preserve the method and
// body.
var Lax Strategy = &strategy{methods: []string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodDelete,
}}

// Headers not copied to a redirect request addressed to another host.
var sensitiveHeaders = []string{"Authorization", "Www-Authenticate", "Cookie", "Cookie2"}

type strategy struct {
	methods []string
}

func (s *strategy) IsRedirected(req *request.Request, resp *http.Response, _ *request.Execution) (bool, error) {
	switch resp.StatusCode {
	case http.StatusMovedPermanently, http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return s.redirectable(req.Method), nil
	case http.StatusFound:
		return s.redirectable(req.Method) && resp.Header.Get("Location") != "", nil
	case http.StatusSeeOther:
		return true, nil
	default:
		return false, nil
	}
}

func (s *strategy) Redirect(req *request.Request, resp *http.Response, e *request.Execution) (*request.Request, error) {
	base := currentURL(req, e)
	u, err := Location(base, resp)
	if err != nil {
		return nil, err
	}
	if !e.Config.CircularRedirectsAllowed && visited(e.Redirects, u) {
		return nil, &CircularRedirectError{Location: u}
	}
	e.Redirects = append(e.Redirects, u)

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	body := req.Body
	switch {
	case method == http.MethodHead || method == http.MethodGet:
	case resp.StatusCode == http.StatusTemporaryRedirect || resp.StatusCode == http.StatusPermanentRedirect:
	default:
		method, body = http.MethodGet, nil
	}

	next, err := request.NewRequestWithContext(req.Context(), method, u.String(), nil)
	if err != nil {
		return nil, err
	}
	next.Body = body
	next.Config = req.Config
	next.Header = req.Original().Header.Clone()
	if next.Header == nil {
		next.Header = make(http.Header)
	}
	if body == nil {
		next.Header.Del("Content-Type")
	}
	if !strings.EqualFold(u.Host, base.Host) {
		for _, name := range sensitiveHeaders {
			next.Header.Del(name)
		}
	}
	return next, nil
}

func (s *strategy) redirectable(method string) bool {
	if method == "" {
		method = http.MethodGet
	}
	for _, m := range s.methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

// Location returns the absolute URL named by the Location header of
// resp, resolved against base. The host is lower-cased and an empty
// path becomes "/".
func Location(base *url.URL, resp *http.Response) (*url.URL, error) {
	loc := resp.Header.Get("Location")
	if loc == "" {
		return nil, &protocol.Error{Msg: "received redirect response but no location header"}
	}
	ref, err := url.Parse(loc)
	if err != nil {
		return nil, &protocol.Error{Msg: "invalid redirect URI: " + loc, Err: err}
	}
	u := base.ResolveReference(ref)
	if u.Host == "" {
		return nil, &protocol.Error{Msg: "redirect URI does not specify a valid host name: " + loc}
	}
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" && u.Opaque == "" {
		u.Path = "/"
	}
	return u, nil
}

// currentURL is the absolute URL of the request being redirected. A
// request addressed in origin form takes its scheme and host from the
// execution target.
func currentURL(req *request.Request, e *request.Execution) *url.URL {
	var u url.URL
	if orig := req.Original().URL; orig != nil {
		u = *orig
	}
	if u.Host == "" {
		u.Scheme = e.Target.Scheme
		if u.Scheme == "" {
			u.Scheme = "http"
		}
		u.Host = e.Target.HostString()
	}
	return &u
}

func visited(locations []*url.URL, u *url.URL) bool {
	key := withoutFragment(u)
	for _, v := range locations {
		if withoutFragment(v) == key {
			return true
		}
	}
	return false
}

func withoutFragment(u *url.URL) string {
	v := *u
	v.Fragment, v.RawFragment = "", ""
	return v.String()
}
