// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"net/netip"
	"time"
)

// DefaultMaxRedirects is the default limit on redirects followed in one
// execution.
const DefaultMaxRedirects = 50

// Config holds the per-request execution settings.
type Config struct {
	// ConnectTimeout bounds each attempt to connect to one address.
	// Zero means no limit.
	ConnectTimeout time.Duration
	// ConnectionRequestTimeout bounds the wait for a connection from
	// the pool. Zero or negative means wait until the context is done.
	ConnectionRequestTimeout time.Duration
	// StaleConnectionCheck tests pooled connections for a half-closed
	// socket before reusing them.
	StaleConnectionCheck bool
	// ExpectContinue sends "Expect: 100-continue" with request bodies.
	ExpectContinue bool
	// RedirectsEnabled enables following redirects.
	RedirectsEnabled bool
	// MaxRedirects limits the number of redirects followed.
	MaxRedirects int
	// CircularRedirectsAllowed permits redirects to an already visited
	// location.
	CircularRedirectsAllowed bool
	// CookieSpec names the cookie spec to use. Empty means "default".
	CookieSpec string
	// LocalAddress, if valid, is the local address to bind sockets to.
	LocalAddress netip.Addr
}

// DefaultConfig is the configuration used when neither the client nor
// the request specify one.
var DefaultConfig = Config{
	StaleConnectionCheck: true,
	RedirectsEnabled:     true,
	MaxRedirects:         DefaultMaxRedirects,
}
