// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package protocol

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gogama/httpexec/cookie"
	"github.com/gogama/httpexec/request"
)

var nowFunc = time.Now

// AddCookies adds the stored cookies matching the request origin to
// the request as Cookie headers.
//
// The cookie store and spec registry are read from the execution. When
// either is missing, or the target host or route are not yet known,
// AddCookies does nothing. The spec is selected by the execution's
// Config.CookieSpec, and an unknown name is an error. The selected
// spec and the computed origin are saved into the execution for
// ProcessCookies.
type AddCookies struct {
	Logger *slog.Logger
}

func (i *AddCookies) ProcessRequest(req *request.Request, e *request.Execution) error {
	if req.Method == methodConnect {
		return nil
	}
	l := logger(i.Logger)
	switch {
	case e.CookieStore == nil:
		l.Debug("cookie store not specified in the execution")
		return nil
	case e.CookieSpecs == nil:
		l.Debug("cookie spec registry not specified in the execution")
		return nil
	case e.Target.Name == "":
		l.Debug("target host not set in the execution")
		return nil
	case e.Route == nil:
		l.Debug("connection route not set in the execution")
		return nil
	}

	name := e.Config.CookieSpec
	if name == "" {
		name = cookie.DefaultSpecName
	}
	spec, ok := e.CookieSpecs.Lookup(name)
	if !ok {
		return &Error{Msg: "unsupported cookie policy: " + name}
	}
	l.Debug("cookie spec selected", "spec", name)

	origin := cookieOrigin(req, e)
	stored, err := e.CookieStore.Cookies()
	if err != nil {
		return &Error{Msg: "failed to read cookie store", Err: err}
	}
	now := nowFunc()
	var matched []*cookie.Cookie
	for _, c := range stored {
		if c.IsExpired(now) {
			l.Debug("cookie expired", "cookie", c.Key())
			continue
		}
		if spec.Match(c, origin) {
			l.Debug("cookie matched", "cookie", c.Key(), "host", origin.Host, "path", origin.Path)
			matched = append(matched, c)
		}
	}
	if len(matched) > 0 {
		for _, h := range spec.FormatCookies(matched) {
			req.Header.Add(cookie.HeaderCookie, h)
		}
	}

	if v := spec.Version(); v > 0 {
		needVersion := false
		for _, c := range matched {
			if c.Version != v || !c.Cookie2 {
				needVersion = true
			}
		}
		if needVersion {
			if name, value := spec.VersionHeader(); name != "" {
				req.Header.Add(name, value)
			}
		}
	}

	e.CookieSpec = spec
	e.CookieOrigin = &origin
	return nil
}

func cookieOrigin(req *request.Request, e *request.Execution) cookie.Origin {
	port := e.Target.Port
	if port <= 0 {
		port = e.Route.Target.Port
	}
	if port < 0 {
		port = 0
	}
	path := ""
	if req.URL != nil {
		path = req.URL.Path
	}
	if path == "" {
		path = "/"
	}
	return cookie.Origin{
		Host:   e.Target.Name,
		Port:   port,
		Path:   path,
		Secure: e.Route.Secure,
	}
}

// ProcessCookies parses the Set-Cookie headers of a response, and the
// Set-Cookie2 headers if the spec supports them, and adds the accepted
// cookies to the execution's cookie store.
//
// ProcessCookies uses the spec and origin saved by AddCookies, and does
// nothing if they are missing. Malformed and rejected cookies are
// logged and skipped.
type ProcessCookies struct {
	Logger *slog.Logger
}

func (i *ProcessCookies) ProcessResponse(resp *http.Response, e *request.Execution) error {
	l := logger(i.Logger)
	switch {
	case e.CookieSpec == nil:
		l.Debug("cookie spec not specified in the execution")
		return nil
	case e.CookieOrigin == nil:
		l.Debug("cookie origin not specified in the execution")
		return nil
	case e.CookieStore == nil:
		l.Debug("cookie store not specified in the execution")
		return nil
	}
	i.process(resp.Header, cookie.HeaderSetCookie, e)
	if e.CookieSpec.Version() > 0 {
		i.process(resp.Header, cookie.HeaderSetCookie2, e)
	}
	return nil
}

func (i *ProcessCookies) process(h http.Header, name string, e *request.Execution) {
	l := logger(i.Logger)
	spec, origin := e.CookieSpec, *e.CookieOrigin
	for _, v := range h.Values(name) {
		c, err := spec.Parse(name, v, origin)
		if err != nil {
			l.Warn("invalid cookie header", "header", name, "value", v, "error", err)
			continue
		}
		if c == nil {
			continue
		}
		if err = spec.Validate(c, origin); err != nil {
			var rejected *cookie.RejectedError
			if errors.As(err, &rejected) {
				l.Warn("cookie rejected", "cookie", c.Key(), "reason", rejected.Reason)
			} else {
				l.Warn("cookie rejected", "cookie", c.Key(), "error", err)
			}
			continue
		}
		if err = e.CookieStore.Add(c); err != nil {
			l.Warn("failed to store cookie", "cookie", c.Key(), "error", err)
			continue
		}
		l.Debug("cookie accepted", "cookie", c.Key())
	}
}
