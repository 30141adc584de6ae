// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package route

import (
	"net"
	"net/netip"
	"strconv"
	"strings"
)

// A Host identifies a logical target: a host name, a port and a
// scheme. A Port less than or equal to zero means the port is not
// specified and should be derived from the scheme.
type Host struct {
	Name   string
	Port   int
	Scheme string
}

// HasPort reports whether the host carries an explicit port.
func (h Host) HasPort() bool {
	return h.Port > 0
}

// HostString returns the host name, followed by ":port" if the port is
// set. It is the form used in Host headers and error messages.
func (h Host) HostString() string {
	if !h.HasPort() {
		return h.Name
	}
	return net.JoinHostPort(h.Name, strconv.Itoa(h.Port))
}

// String returns the URI form of the host, e.g. "https://example.com:443".
func (h Host) String() string {
	scheme := h.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + h.HostString()
}

// Equal reports whether two hosts are the same, ignoring the case of
// the name and scheme.
func (h Host) Equal(o Host) bool {
	return h.Port == o.Port &&
		strings.EqualFold(h.Name, o.Name) &&
		strings.EqualFold(h.Scheme, o.Scheme)
}

// A Route is an immutable description of a direct connection to a
// target. Routes are comparable and may be used as map keys; the zero
// value of Local means no local bind address is requested.
type Route struct {
	Target Host
	Local  netip.Addr
	Secure bool
}

// String returns a compact representation of the route, e.g.
// "{s}->https://example.com:443".
func (r Route) String() string {
	var b strings.Builder
	if r.Local.IsValid() {
		b.WriteString(r.Local.String())
		b.WriteString("->")
	}
	b.WriteByte('{')
	if r.Secure {
		b.WriteByte('s')
	}
	b.WriteString("}->")
	b.WriteString(r.Target.String())
	return b.String()
}
