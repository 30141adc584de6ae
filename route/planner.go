// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package route

import (
	"errors"
	"net/netip"
	"strings"

	"golang.org/x/net/idna"
)

// A SchemePortResolver resolves the port to use for a host whose port
// is not set.
type SchemePortResolver interface {
	Resolve(h Host) (int, error)
}

// SchemePorts is a SchemePortResolver backed by a scheme to port table.
// Hosts with an explicit port resolve to that port.
type SchemePorts map[string]int

// DefaultSchemePorts knows the http and https schemes.
var DefaultSchemePorts = SchemePorts{
	"http":  80,
	"https": 443,
}

// Resolve returns h.Port if it is set, and otherwise the port
// registered for h.Scheme.
func (t SchemePorts) Resolve(h Host) (int, error) {
	if h.HasPort() {
		return h.Port, nil
	}
	if p, ok := t[strings.ToLower(h.Scheme)]; ok {
		return p, nil
	}
	return 0, &UnsupportedSchemeError{Scheme: h.Scheme}
}

// A Planner maps a logical target host to a concrete Route.
type Planner interface {
	Plan(target Host, local netip.Addr) (Route, error)
}

// ErrNoTarget is returned by Planner.Plan when the target host name is
// empty.
var ErrNoTarget = errors.New("httpexec/route: target host is not specified")

// DefaultPlanner plans direct routes using DefaultSchemePorts.
var DefaultPlanner Planner = &DirectPlanner{}

// A DirectPlanner plans direct, single-hop routes. Host names are
// converted to lower-case ASCII. The route is secure when the scheme is
// https.
type DirectPlanner struct {
	// Ports resolves the default port for a scheme. If nil,
	// DefaultSchemePorts is used.
	Ports SchemePortResolver
}

// Plan returns the route to target, bound to the local address if it
// is valid.
func (p *DirectPlanner) Plan(target Host, local netip.Addr) (Route, error) {
	if target.Name == "" {
		return Route{}, ErrNoTarget
	}
	ports := p.Ports
	if ports == nil {
		ports = DefaultSchemePorts
	}
	port, err := ports.Resolve(target)
	if err != nil {
		return Route{}, err
	}
	name, err := idna.Lookup.ToASCII(target.Name)
	if err != nil {
		// IP literals and other names idna rejects are used as given.
		name = target.Name
	}
	scheme := strings.ToLower(target.Scheme)
	return Route{
		Target: Host{Name: strings.ToLower(name), Port: port, Scheme: scheme},
		Local:  local,
		Secure: scheme == "https",
	}, nil
}
