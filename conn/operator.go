// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package conn

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/netip"
	"syscall"
	"time"

	"github.com/gogama/httpexec/route"
)

// An Operator opens sockets and binds them to connections.
//
// The zero value is a valid Operator that uses DefaultRegistry,
// route.DefaultSchemePorts and DefaultResolver.
type Operator struct {
	// Registry maps schemes to socket factories.
	Registry Registry
	// Ports resolves the port of hosts without an explicit port.
	Ports route.SchemePortResolver
	// Resolver resolves host names which are not IP literals.
	Resolver Resolver
	// Logger receives debug output about individual connect attempts.
	Logger *slog.Logger
}

type failure int

const (
	failOther failure = iota
	failTimeout
	failRefused
	failUnreachable
)

// Connect connects c to host. Every address the host resolves to is
// tried in order until one connects. Timeout bounds each individual
// attempt; zero means no limit.
//
// If connecting to the last address times out, the returned error is a
// *ConnectTimeoutError. If it is refused, the error is a
// *HostConnectError. If the network is unreachable, the dial error is
// returned as is. Any other failure, including context cancellation,
// is returned immediately without trying further addresses.
func (o *Operator) Connect(ctx context.Context, c *Conn, host route.Host, local netip.Addr, timeout time.Duration, cfg SocketConfig) error {
	registry := o.Registry
	if registry == nil {
		registry = DefaultRegistry()
	}
	factory, ok := registry.Lookup(host.Scheme)
	if !ok {
		return &route.UnsupportedSchemeError{Scheme: host.Scheme}
	}

	addrs, err := o.resolve(ctx, host.Name)
	if err != nil {
		return err
	}

	ports := o.Ports
	if ports == nil {
		ports = route.DefaultSchemePorts
	}
	port, err := ports.Resolve(host)
	if err != nil {
		return err
	}

	logger := o.logger()
	for i, addr := range addrs {
		last := i == len(addrs)-1
		remote := netip.AddrPortFrom(addr, uint16(port))
		logger.Debug("connecting", "conn", c.ID(), "host", host.HostString(), "remote", remote.String())

		nc, err := factory.ConnectSocket(ctx, dialer(timeout, local, cfg), host, remote)
		if err == nil {
			applyOptions(nc, cfg)
			if err = c.Bind(nc); err != nil {
				logger.Debug("connection shut down while connecting", "conn", c.ID(), "remote", remote.String())
				return err
			}
			c.SetSocketTimeout(cfg.Timeout)
			logger.Debug("connection established", "conn", c.ID(), "local", nc.LocalAddr().String(), "remote", nc.RemoteAddr().String())
			return nil
		}

		if ctx.Err() != nil {
			return err
		}
		kind := classify(err)
		if kind == failOther {
			return err
		}
		if last {
			switch kind {
			case failTimeout:
				return &ConnectTimeoutError{Host: host, Addrs: addrs, Err: err}
			case failRefused:
				return &HostConnectError{Host: host, Addrs: addrs, Err: err}
			default:
				return err
			}
		}
		logger.Debug("connect failed, trying next address", "conn", c.ID(), "remote", remote.String(), "error", err)
	}
	panic("httpexec/conn: unreachable")
}

func (o *Operator) resolve(ctx context.Context, name string) ([]netip.Addr, error) {
	if a, err := netip.ParseAddr(name); err == nil {
		return []netip.Addr{a.Unmap()}, nil
	}
	r := o.Resolver
	if r == nil {
		r = DefaultResolver
	}
	addrs, err := r.Resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, &net.DNSError{Err: "no such host", Name: name, IsNotFound: true}
	}
	return addrs, nil
}

func (o *Operator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func dialer(timeout time.Duration, local netip.Addr, cfg SocketConfig) *net.Dialer {
	d := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: -1,
	}
	if cfg.KeepAlive {
		d.KeepAlive = 0
	}
	if local.IsValid() {
		d.LocalAddr = &net.TCPAddr{IP: local.AsSlice(), Zone: local.Zone()}
	}
	if cfg.ReuseAddress {
		d.Control = reuseAddrControl
	}
	return d
}

func applyOptions(nc net.Conn, cfg SocketConfig) {
	tcp := tcpConn(nc)
	if tcp == nil {
		return
	}
	_ = tcp.SetNoDelay(cfg.NoDelay)
	if cfg.Linger >= 0 {
		_ = tcp.SetLinger(cfg.Linger)
	}
}

// classify sorts dial failures into the classes the address loop
// tolerates. Errors that did not arise from dialing are failOther.
func classify(err error) failure {
	var op *net.OpError
	if !errors.As(err, &op) || op.Op != "dial" {
		return failOther
	}
	if op.Timeout() || errors.Is(err, syscall.ETIMEDOUT) {
		return failTimeout
	}
	if errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return failUnreachable
	}
	return failRefused
}
