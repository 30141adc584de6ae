// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package conn

import (
	"context"
	"crypto/tls"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/gogama/httpexec/route"
)

// SocketConfig holds the options applied to every socket the Operator
// opens.
type SocketConfig struct {
	// Timeout is the initial socket timeout set on a newly connected
	// Conn. Zero means no timeout.
	Timeout time.Duration
	// ReuseAddress sets SO_REUSEADDR before connecting.
	ReuseAddress bool
	// NoDelay disables Nagle's algorithm.
	NoDelay bool
	// KeepAlive enables TCP keep-alive probes.
	KeepAlive bool
	// Linger sets SO_LINGER in seconds. A negative value leaves the
	// operating system default in place.
	Linger int
}

// DefaultSocketConfig is the SocketConfig used when none is given.
var DefaultSocketConfig = SocketConfig{
	NoDelay: true,
	Linger:  -1,
}

// A SocketFactory opens the raw socket for one remote address. The
// dialer is preconfigured with the connect timeout, local address and
// socket options, and must be used to open the underlying TCP
// connection so that dial failures keep their *net.OpError shape.
type SocketFactory interface {
	ConnectSocket(ctx context.Context, d *net.Dialer, host route.Host, remote netip.AddrPort) (net.Conn, error)
}

// PlainSocketFactory opens unencrypted TCP connections.
type PlainSocketFactory struct{}

// ConnectSocket dials remote over TCP.
func (PlainSocketFactory) ConnectSocket(ctx context.Context, d *net.Dialer, _ route.Host, remote netip.AddrPort) (net.Conn, error) {
	return d.DialContext(ctx, "tcp", remote.String())
}

// TLSSocketFactory opens TLS connections on top of TCP.
type TLSSocketFactory struct {
	// Config is the TLS client configuration. It is cloned for every
	// connection. If ServerName is empty, the target host name is used.
	// A nil Config uses the crypto/tls defaults.
	Config *tls.Config
}

// ConnectSocket dials remote over TCP and performs the TLS handshake,
// bounded by the dialer's timeout.
func (f TLSSocketFactory) ConnectSocket(ctx context.Context, d *net.Dialer, host route.Host, remote netip.AddrPort) (net.Conn, error) {
	raw, err := d.DialContext(ctx, "tcp", remote.String())
	if err != nil {
		return nil, err
	}

	var cfg *tls.Config
	if f.Config != nil {
		cfg = f.Config.Clone()
	} else {
		cfg = &tls.Config{}
	}
	if cfg.ServerName == "" {
		cfg.ServerName = host.Name
	}

	hctx := ctx
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	tc := tls.Client(raw, cfg)
	if err = tc.HandshakeContext(hctx); err != nil {
		_ = raw.Close()
		return nil, err
	}
	return tc, nil
}

// A Registry maps a URL scheme, in lower case, to the SocketFactory
// that opens connections for it.
type Registry map[string]SocketFactory

// DefaultRegistry returns a registry with a PlainSocketFactory for
// "http" and a TLSSocketFactory with default configuration for
// "https".
func DefaultRegistry() Registry {
	return Registry{
		"http":  PlainSocketFactory{},
		"https": TLSSocketFactory{},
	}
}

// Lookup returns the factory registered for scheme, matching case
// insensitively. An empty scheme is treated as "http".
func (r Registry) Lookup(scheme string) (SocketFactory, bool) {
	if scheme == "" {
		scheme = "http"
	}
	f, ok := r[strings.ToLower(scheme)]
	return f, ok
}
