// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package conn

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strings"
)

// A Resolver resolves a host name into the addresses to try, in the
// order they should be tried.
type Resolver interface {
	Resolve(ctx context.Context, host string) ([]netip.Addr, error)
}

// ResolverFunc is a function implementing the Resolver interface.
type ResolverFunc func(ctx context.Context, host string) ([]netip.Addr, error)

// Resolve calls f(ctx, host).
func (f ResolverFunc) Resolve(ctx context.Context, host string) ([]netip.Addr, error) {
	return f(ctx, host)
}

// SystemResolver resolves host names with the Go DNS resolver.
//
// The zero value is a valid resolver which queries the system's DNS
// servers for both IPv4 and IPv6 addresses.
type SystemResolver struct {
	// CustomDNSServer, if not empty, is the "host:port" of the DNS
	// server to query instead of the system's configured servers.
	CustomDNSServer string
	// Network is one of "ip4", "ip6" or "ip". The default is "ip".
	Network string
	// StaticHosts resembles /etc/hosts: it maps a host name to one or
	// more comma-separated IP addresses and is consulted before DNS.
	StaticHosts map[string]string
}

// DefaultResolver is the Resolver used by an Operator without one.
var DefaultResolver Resolver = &SystemResolver{}

// dnsServerCtx carries the custom DNS server to customServerResolver's
// Dial function. It is only used in this file, and keeps contexts
// without a custom server from walking their whole value chain.
type dnsServerCtx struct {
	context.Context
	server string
}

var dnsServerCtxKey = &dnsServerCtx{nil, "dns-server"}

func (c dnsServerCtx) Value(key any) any {
	if key == dnsServerCtxKey {
		return c.server
	}
	return c.Context.Value(key)
}

var zeroDialer net.Dialer

var customServerResolver = net.Resolver{
	PreferGo: true,
	Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
		if v, ok := ctx.Value(dnsServerCtxKey).(string); ok && v != "" {
			return zeroDialer.DialContext(ctx, network, v)
		}
		return zeroDialer.DialContext(ctx, network, address)
	},
}

// Resolve returns the static addresses for host if it appears in
// StaticHosts, and the result of a DNS lookup otherwise.
func (r *SystemResolver) Resolve(ctx context.Context, host string) ([]netip.Addr, error) {
	if s, ok := r.StaticHosts[host]; ok {
		return parseStatic(host, s)
	}
	network := r.Network
	if network == "" {
		network = "ip"
	}
	addrs, err := customServerResolver.LookupNetIP(dnsServerCtx{ctx, r.CustomDNSServer}, network, host)
	if err != nil {
		return nil, err
	}
	for i := range addrs {
		addrs[i] = addrs[i].Unmap()
	}
	if len(addrs) == 0 {
		return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
	}
	return addrs, nil
}

func parseStatic(host, s string) ([]netip.Addr, error) {
	parts := strings.Split(s, ",")
	addrs := make([]netip.Addr, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		a, err := netip.ParseAddr(p)
		if err != nil {
			return nil, fmt.Errorf("httpexec/conn: invalid static address for %s: %w", host, err)
		}
		addrs = append(addrs, a.Unmap())
	}
	if len(addrs) == 0 {
		return nil, &net.DNSError{Err: "no static address", Name: host, IsNotFound: true}
	}
	return addrs, nil
}
