// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"errors"
	"syscall"
)

// A Category classifies an attempt error by the prospect a retry has of
// succeeding. Not means a retry would very likely fail the same way;
// every other category is transient.
type Category int

const (
	// Not is the category of nil and of non-transient errors.
	Not Category = iota

	// Timeout is a client-side timeout: connect, lease or socket. The
	// server may be briefly slow, or a later attempt may be given
	// more time.
	//
	// An error is a Timeout if it, or any error it wraps, has a
	// Timeout method reporting true.
	Timeout

	// ConnRefused means nothing accepted the connection (POSIX
	// ECONNREFUSED). A service that is starting or restarting refuses
	// connections until it listens again, so this is transient.
	ConnRefused

	// ConnReset means the peer tore down an established connection
	// (ECONNRESET), or the connection broke under a write (EPIPE,
	// ECONNABORTED). Both are common when a server or load balancer
	// recycles connections in the middle of an exchange.
	ConnReset

	// NoResponse means the server closed the connection without
	// sending any part of a response. Reusing a persistent connection
	// the server is closing at that moment ends this way.
	//
	// An error is NoResponse if it, or any error it wraps, has a
	// NoResponse method reporting true.
	NoResponse
)

var categoryNames = [...]string{
	Not:         "other",
	Timeout:     "timeout",
	ConnRefused: "conn_refused",
	ConnReset:   "conn_reset",
	NoResponse:  "no_response",
}

// String returns a snake_case name for c, suitable as a metric label.
func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "unknown"
	}
	return categoryNames[c]
}

// Transient reports whether c is a category other than Not.
func (c Category) Transient() bool {
	return c != Not
}

// Categorize returns the category of err, looking through the errors
// err wraps. Timeouts take precedence over every other category.
// Temporary methods are ignored.
func Categorize(err error) Category {
	if err == nil {
		return Not
	}

	var t interface{ Timeout() bool }
	if errors.As(err, &t) && t.Timeout() {
		return Timeout
	}

	var nr interface{ NoResponse() bool }
	if errors.As(err, &nr) && nr.NoResponse() {
		return NoResponse
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED:
			return ConnRefused
		case syscall.ECONNRESET, syscall.ECONNABORTED, syscall.EPIPE:
			return ConnReset
		}
	}

	return Not
}
