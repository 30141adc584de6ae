// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package cookie implements client-side HTTP state management: a
// cookie model, cookie stores, and the cookie specifications which
// decide which cookies are accepted from a response and which are sent
// with a request.
package cookie

import (
	"strings"
	"time"
)

// A Cookie is a cookie held by the client.
type Cookie struct {
	Name  string
	Value string
	// Domain is the lower-case domain the cookie applies to, without a
	// leading dot.
	Domain string
	// Path is the path the cookie applies to.
	Path string
	// Expires is the expiry time. The zero value means the cookie lasts
	// for the session.
	Expires  time.Time
	Secure   bool
	HTTPOnly bool
	// Version is the cookie version: 0 for Netscape and RFC 6265
	// cookies, 1 for RFC 2965 cookies.
	Version int
	// HostOnly means the cookie is only sent to the exact host which set
	// it, and not to its subdomains.
	HostOnly bool
	// Cookie2 means the cookie was received in a Set-Cookie2 header.
	Cookie2 bool
	// Created is when the cookie was first received.
	Created time.Time
}

// IsExpired reports whether c has expired at time now.
func (c *Cookie) IsExpired(now time.Time) bool {
	return !c.Expires.IsZero() && !now.Before(c.Expires)
}

// Persistent reports whether c outlives the session.
func (c *Cookie) Persistent() bool {
	return !c.Expires.IsZero()
}

// Key identifies the cookie within a store. Two cookies with the same
// key replace each other.
func (c *Cookie) Key() string {
	return c.Name + ";" + strings.ToLower(c.Domain) + ";" + c.Path
}

// An Origin describes the request a cookie is being matched against or
// was received from.
type Origin struct {
	Host   string
	Port   int
	Path   string
	Secure bool
}
